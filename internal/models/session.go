package models

import "time"

// Session is the ephemeral identity of one live connection. It exists from
// connect to disconnect and is never persisted. UserID links the session to a
// durable account when the connection supplied a valid token; zero means an
// anonymous guest.
type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"userId,omitempty"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Session) DisplayName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// PresenceState tracks the online flag and last-seen timestamp for a session.
type PresenceState struct {
	SessionID string    `json:"sessionId"`
	Online    bool      `json:"online"`
	Status    string    `json:"status,omitempty"`
	LastSeen  time.Time `json:"lastSeen"`
}
