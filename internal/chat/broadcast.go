package chat

import (
	"chat-server/internal/protocol"
	"chat-server/pkg/logger"
)

// Broadcaster fans events out to connections. Delivery is best-effort: a
// closed or saturated connection is skipped silently, never retried or
// queued.
type Broadcaster struct {
	registry *Registry
	rooms    *Directory
}

func NewBroadcaster(registry *Registry, rooms *Directory) *Broadcaster {
	return &Broadcaster{registry: registry, rooms: rooms}
}

// ToRoom delivers event to every registered connection whose session is a
// member of roomID, in registration order, skipping excludeID if non-empty.
func (b *Broadcaster) ToRoom(roomID, event string, payload any, excludeID string) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return
	}

	for _, session := range b.registry.All() {
		if session.ID == excludeID || !b.rooms.IsMember(session.ID, roomID) {
			continue
		}
		b.deliver(session.ID, data)
	}
}

// ToAll delivers event to every connected session.
func (b *Broadcaster) ToAll(event string, payload any) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return
	}

	for _, session := range b.registry.All() {
		b.deliver(session.ID, data)
	}
}

// ToSession delivers event to a single session's private channel. It reports
// whether the session was connected; callers treat false as "not connected",
// not as a failure.
func (b *Broadcaster) ToSession(sessionID, event string, payload any) bool {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return false
	}
	return b.deliver(sessionID, data)
}

func (b *Broadcaster) deliver(sessionID string, data []byte) bool {
	conn, ok := b.registry.Conn(sessionID)
	if !ok {
		return false
	}
	if !conn.Send(data) {
		logger.Debug("Dropped delivery to session %s", sessionID)
		return false
	}
	return true
}
