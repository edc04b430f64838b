package chat

import (
	"sync"

	"chat-server/internal/protocol"
)

// Coordinator relays typing indicators. State is an ordered start/stop pair
// per (session, room); there is no timeout-based auto-revert, clients are
// trusted to send the stop signal.
type Coordinator struct {
	mu     sync.Mutex
	typing map[string]map[string]bool // sessionID -> roomID -> typing
	bc     *Broadcaster
}

func NewCoordinator(bc *Broadcaster) *Coordinator {
	return &Coordinator{
		typing: make(map[string]map[string]bool),
		bc:     bc,
	}
}

// Start transitions (session, room) to typing and relays the indicator to the
// rest of the room. Repeated starts without a stop are swallowed.
func (c *Coordinator) Start(sessionID, roomID string) {
	c.mu.Lock()
	if c.typing[sessionID] == nil {
		c.typing[sessionID] = make(map[string]bool)
	}
	already := c.typing[sessionID][roomID]
	c.typing[sessionID][roomID] = true
	c.mu.Unlock()

	if already {
		return
	}
	c.relay(sessionID, roomID, true)
}

// Stop transitions (session, room) back to not-typing.
func (c *Coordinator) Stop(sessionID, roomID string) {
	c.mu.Lock()
	was := c.typing[sessionID][roomID]
	if was {
		delete(c.typing[sessionID], roomID)
		if len(c.typing[sessionID]) == 0 {
			delete(c.typing, sessionID)
		}
	}
	c.mu.Unlock()

	if !was {
		return
	}
	c.relay(sessionID, roomID, false)
}

// ClearSession drops all typing state for a disconnecting session. No stop
// events are relayed; the user_left cleanup broadcast covers the rooms.
func (c *Coordinator) ClearSession(sessionID string) {
	c.mu.Lock()
	delete(c.typing, sessionID)
	c.mu.Unlock()
}

func (c *Coordinator) relay(sessionID, roomID string, isTyping bool) {
	c.bc.ToRoom(roomID, protocol.EventUserTyping, &protocol.UserTypingPayload{
		RoomID:   roomID,
		UserID:   sessionID,
		IsTyping: isTyping,
	}, sessionID)
}
