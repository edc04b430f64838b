package chat

import (
	"sync"
	"time"

	"chat-server/internal/models"
	"chat-server/internal/protocol"
)

// Tracker owns per-session online state and last-seen timestamps.
type Tracker struct {
	mu       sync.RWMutex
	states   map[string]*models.PresenceState
	registry *Registry
	bc       *Broadcaster
}

func NewTracker(registry *Registry, bc *Broadcaster) *Tracker {
	return &Tracker{
		states:   make(map[string]*models.PresenceState),
		registry: registry,
		bc:       bc,
	}
}

// SetOnline records the session as online and announces it to everyone.
func (t *Tracker) SetOnline(session *models.Session) {
	now := time.Now()

	t.mu.Lock()
	t.states[session.ID] = &models.PresenceState{
		SessionID: session.ID,
		Online:    true,
		LastSeen:  now,
	}
	t.mu.Unlock()

	t.bc.ToAll(protocol.EventUserOnline, &protocol.PresencePayload{
		UserID:   session.ID,
		User:     session,
		LastSeen: now.Format(time.RFC3339),
	})
}

// SetOffline records the session as offline, announces it, and drops the
// state; the session is gone with the connection.
func (t *Tracker) SetOffline(session *models.Session) {
	now := time.Now()

	t.mu.Lock()
	delete(t.states, session.ID)
	t.mu.Unlock()

	t.bc.ToAll(protocol.EventUserOffline, &protocol.PresencePayload{
		UserID:   session.ID,
		User:     session,
		LastSeen: now.Format(time.RFC3339),
	})
}

// UpdateStatus stores a free-form status string and broadcasts it. Values are
// not validated. Updates for sessions that are not tracked as online are
// dropped without a broadcast.
func (t *Tracker) UpdateStatus(sessionID, status string) {
	t.mu.Lock()
	state, ok := t.states[sessionID]
	if ok {
		state.Status = status
		state.LastSeen = time.Now()
	}
	t.mu.Unlock()

	if !ok {
		return
	}

	t.bc.ToAll(protocol.EventUserStatusUpdate, &protocol.UserStatusPayload{
		UserID: sessionID,
		Status: status,
	})
}

// Snapshot lists every online session for get_online_users.
func (t *Tracker) Snapshot() []*protocol.OnlineUser {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := make([]*protocol.OnlineUser, 0, len(t.states))
	for _, session := range t.registry.All() {
		state, ok := t.states[session.ID]
		if !ok || !state.Online {
			continue
		}
		users = append(users, &protocol.OnlineUser{
			UserID:   session.ID,
			User:     session,
			Status:   state.Status,
			LastSeen: state.LastSeen.Format(time.RFC3339),
		})
	}
	return users
}
