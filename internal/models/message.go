package models

import "time"

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// Message is a chat message. Deleted messages stay as tombstones so that
// clients holding the id still resolve it; Content is blanked on delete.
type Message struct {
	ID        string      `json:"id"`
	RoomID    string      `json:"roomId"`
	SenderID  string      `json:"senderId"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	ReplyToID string      `json:"replyToId,omitempty"`
	Edited    bool        `json:"edited"`
	EditedAt  *time.Time  `json:"editedAt,omitempty"`
	Deleted   bool        `json:"deleted"`
	DeletedAt *time.Time  `json:"deletedAt,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}
