// Package store is the persistence collaborator behind the in-memory core.
// The core writes through these interfaces but never depends on what backs
// them: postgres when DATABASE_URL is configured, process memory otherwise.
package store

import (
	"context"
	"errors"

	"chat-server/internal/models"
)

// ErrNotFound is returned for unknown ids. Callers treat it as a normal,
// checked condition.
var ErrNotFound = errors.New("not found")

type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

type RoomRepository interface {
	SaveRoom(ctx context.Context, room *models.Room) error
	UpdateRoom(ctx context.Context, room *models.Room) error
	ListRooms(ctx context.Context) ([]*models.Room, error)
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	UpdateMessage(ctx context.Context, msg *models.Message) error
	RecentMessages(ctx context.Context, roomID string, limit int) ([]*models.Message, error)
}

type NotificationRepository interface {
	SaveNotification(ctx context.Context, n *models.Notification) error
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, targetID string) error
}

type Store interface {
	UserRepository
	RoomRepository
	MessageRepository
	NotificationRepository
	Close() error
}
