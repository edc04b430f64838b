package chat

import (
	"context"
	"time"

	"chat-server/internal/models"
	"chat-server/internal/protocol"
	"chat-server/internal/store"
	"chat-server/pkg/logger"

	"github.com/google/uuid"
)

// Dispatcher delivers targeted, session-addressed events. The record is
// always constructed and persisted; delivery only happens when the target is
// currently connected. There is no retry or replay queue.
type Dispatcher struct {
	store store.NotificationRepository
	bc    *Broadcaster
}

func NewDispatcher(st store.NotificationRepository, bc *Broadcaster) *Dispatcher {
	return &Dispatcher{store: st, bc: bc}
}

// Dispatch builds and stores a notification, then pushes it to the target if
// connected.
func (d *Dispatcher) Dispatch(ctx context.Context, targetID, notifType, title, message string, payload map[string]any) *models.Notification {
	n := &models.Notification{
		ID:        uuid.NewString(),
		TargetID:  targetID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if d.store != nil {
		if err := d.store.SaveNotification(ctx, n); err != nil {
			logger.Error("Failed to persist notification %s: %v", n.ID, err)
		}
	}

	d.bc.ToSession(targetID, protocol.EventNotification, &protocol.NotificationPayload{Notification: n})
	return n
}

// MarkRead flips the read flag. Fire-and-forget; the client gets no ack.
func (d *Dispatcher) MarkRead(ctx context.Context, notificationID string) {
	if d.store == nil {
		return
	}
	if err := d.store.MarkNotificationRead(ctx, notificationID); err != nil {
		logger.Debug("Mark notification read %s: %v", notificationID, err)
	}
}

// MarkAllRead flips the read flag on everything addressed to targetID.
func (d *Dispatcher) MarkAllRead(ctx context.Context, targetID string) {
	if d.store == nil {
		return
	}
	if err := d.store.MarkAllNotificationsRead(ctx, targetID); err != nil {
		logger.Debug("Mark all notifications read %s: %v", targetID, err)
	}
}
