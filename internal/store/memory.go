package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"chat-server/internal/models"
)

// maxHistorySize caps the per-room message history kept in memory.
const maxHistorySize = 1000

// MemoryStore keeps everything in process memory. It is the default backend
// and implements the demo-reset semantic: a restart loses all state.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[int]*models.User
	usersByEmail  map[string]*models.User
	nextUserID    int
	rooms         map[string]*models.Room
	messages      map[string]*models.Message
	roomHistory   map[string][]string // roomID -> message ids, send order
	notifications map[string]*models.Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[int]*models.User),
		usersByEmail:  make(map[string]*models.User),
		nextUserID:    1,
		rooms:         make(map[string]*models.Room),
		messages:      make(map[string]*models.Message),
		roomHistory:   make(map[string][]string),
		notifications: make(map[string]*models.Notification),
	}
}

func (s *MemoryStore) Close() error { return nil }

// User repository

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, username, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &models.User{
		ID:           s.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.nextUserID++
	s.users[user.ID] = user
	s.usersByEmail[user.Email] = user

	copied := *user
	return &copied, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// Room repository

func (s *MemoryStore) SaveRoom(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *room
	s.rooms[room.ID] = &copied
	return nil
}

func (s *MemoryStore) UpdateRoom(_ context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; !ok {
		return ErrNotFound
	}
	copied := *room
	s.rooms[room.ID] = &copied
	return nil
}

func (s *MemoryStore) ListRooms(_ context.Context) ([]*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*models.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		copied := *room
		rooms = append(rooms, &copied)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms, nil
}

// Message repository

func (s *MemoryStore) SaveMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *msg
	s.messages[msg.ID] = &copied

	history := append(s.roomHistory[msg.RoomID], msg.ID)
	if len(history) > maxHistorySize {
		for _, evicted := range history[:len(history)-maxHistorySize] {
			delete(s.messages, evicted)
		}
		history = history[len(history)-maxHistorySize:]
	}
	s.roomHistory[msg.RoomID] = history
	return nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id string) (*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *msg
	return &copied, nil
}

func (s *MemoryStore) UpdateMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[msg.ID]; !ok {
		return ErrNotFound
	}
	copied := *msg
	s.messages[msg.ID] = &copied
	return nil
}

func (s *MemoryStore) RecentMessages(_ context.Context, roomID string, limit int) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.roomHistory[roomID]
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}

	messages := make([]*models.Message, 0, limit)
	for _, id := range history[len(history)-limit:] {
		if msg, ok := s.messages[id]; ok {
			copied := *msg
			messages = append(messages, &copied)
		}
	}
	return messages, nil
}

// Notification repository

func (s *MemoryStore) SaveNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *n
	s.notifications[n.ID] = &copied
	return nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.Read = true
	return nil
}

func (s *MemoryStore) MarkAllNotificationsRead(_ context.Context, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.TargetID == targetID {
			n.Read = true
		}
	}
	return nil
}
