package models

import "time"

// Notification is a targeted, session-addressed event. TargetID is a session
// id; when the session was linked to an account the record survives in the
// store for later retrieval, otherwise it dies with the process.
type Notification struct {
	ID        string         `json:"id"`
	TargetID  string         `json:"targetId"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
}
