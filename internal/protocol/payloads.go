package protocol

import (
	"chat-server/internal/models"
)

// Inbound payloads. Pointer fields distinguish "absent" from "empty" where
// the handlers need to tell them apart.

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

type LeaveRoomRequest struct {
	RoomID string `json:"roomId"`
}

type SendMessageRequest struct {
	RoomID    string `json:"roomId"`
	Content   string `json:"content"`
	Type      string `json:"type,omitempty"`
	ReplyToID string `json:"replyToId,omitempty"`
}

type EditMessageRequest struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type DeleteMessageRequest struct {
	MessageID string `json:"messageId"`
}

type TypingRequest struct {
	RoomID string `json:"roomId"`
}

type CreateRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	MaxMembers  int    `json:"maxMembers,omitempty"`
}

type UpdateRoomRequest struct {
	RoomID      string  `json:"roomId"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	MaxMembers  *int    `json:"maxMembers,omitempty"`
}

type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

type MessageHistoryRequest struct {
	RoomID string `json:"roomId"`
	Limit  int    `json:"limit,omitempty"`
}

type MarkNotificationReadRequest struct {
	NotificationID string `json:"notificationId"`
}

// Outbound payloads.

type ErrorPayload struct {
	Message string `json:"message"`
}

type RoomJoinedPayload struct {
	RoomID string `json:"roomId"`
}

type RoomLeftPayload struct {
	RoomID string `json:"roomId"`
}

type UserEventPayload struct {
	RoomID string          `json:"roomId"`
	UserID string          `json:"userId"`
	User   *models.Session `json:"user"`
}

type MessagePayload struct {
	Message *models.Message `json:"message"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
	DeletedBy string `json:"deletedBy"`
	Timestamp string `json:"timestamp"`
}

type UserTypingPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type RoomPayload struct {
	Room *models.Room `json:"room"`
}

type RoomMembersPayload struct {
	RoomID  string            `json:"roomId"`
	Members []*models.Session `json:"members"`
	Count   int               `json:"count"`
}

type RoomInfoPayload struct {
	Room        *models.Room `json:"room"`
	MemberCount int          `json:"memberCount"`
}

type OnlineUser struct {
	UserID   string          `json:"userId"`
	User     *models.Session `json:"user"`
	Status   string          `json:"status,omitempty"`
	LastSeen string          `json:"lastSeen"`
}

type OnlineUsersPayload struct {
	Users []*OnlineUser `json:"users"`
	Count int           `json:"count"`
}

type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type ProfilePayload struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Avatar    string `json:"avatar"`
}

type UserProfileUpdatedPayload struct {
	UserID string          `json:"userId"`
	User   *models.Session `json:"user"`
}

type UserRoomsPayload struct {
	Rooms []*models.Room `json:"rooms"`
}

type PresencePayload struct {
	UserID   string          `json:"userId"`
	User     *models.Session `json:"user"`
	LastSeen string          `json:"lastSeen"`
}

type MessageHistoryPayload struct {
	RoomID   string            `json:"roomId"`
	Messages []*models.Message `json:"messages"`
}

type NotificationPayload struct {
	Notification *models.Notification `json:"notification"`
}
