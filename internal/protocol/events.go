// Package protocol defines the event-based wire protocol spoken over a
// persistent connection. Every frame, in both directions, is an Envelope:
//
//	{"event": "<name>", "data": { ... }}
package protocol

// Inbound event names (client to server).
const (
	EventJoinRoom          = "join_room"
	EventLeaveRoom         = "leave_room"
	EventSendMessage       = "send_message"
	EventEditMessage       = "edit_message"
	EventDeleteMessage     = "delete_message"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
	EventCreateRoom        = "create_room"
	EventUpdateRoom        = "update_room"
	EventGetRoomMembers    = "get_room_members"
	EventGetRoomInfo       = "get_room_info"
	EventGetOnlineUsers    = "get_online_users"
	EventUpdateStatus      = "update_status"
	EventGetProfile        = "get_profile"
	EventUpdateProfile     = "update_profile"
	EventGetMessageHistory = "get_message_history"
	EventMarkNotifRead     = "mark_notification_read"
	EventMarkAllNotifsRead = "mark_notifications_read"
)

// Outbound event names (server to client).
const (
	EventError              = "error"
	EventRoomJoined         = "room_joined"
	EventRoomLeft           = "room_left"
	EventUserJoined         = "user_joined"
	EventUserLeft           = "user_left"
	EventMessageSent        = "message_sent"
	EventNewMessage         = "new_message"
	EventMessageEdited      = "message_edited"
	EventMessageDeleted     = "message_deleted"
	EventUserTyping         = "user_typing"
	EventRoomCreatedSuccess = "room_created_success"
	EventRoomCreated        = "room_created"
	EventRoomUpdated        = "room_updated"
	EventRoomMembers        = "room_members"
	EventRoomInfo           = "room_info"
	EventOnlineUsers        = "online_users"
	EventUserStatusUpdate   = "user_status_update"
	EventProfile            = "profile"
	EventUserProfileUpdated = "user_profile_updated"
	EventUserRooms          = "user_rooms"
	EventUserOnline         = "user_online"
	EventUserOffline        = "user_offline"
	EventMessageHistory     = "message_history"
	EventNotification       = "notification"
)
