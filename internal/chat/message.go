package chat

import (
	"time"

	"chat-server/internal/models"

	"github.com/google/uuid"
)

// newMessage allocates a message record. Ids are unique per process and
// creation time gives display ordering; delivery order equals the send order
// the supervisor observed.
func newMessage(roomID, senderID, content string, msgType models.MessageType, replyToID string) *models.Message {
	return &models.Message{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		SenderID:  senderID,
		Content:   content,
		Type:      msgType,
		ReplyToID: replyToID,
		CreatedAt: time.Now(),
	}
}
