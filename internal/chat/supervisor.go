// Package chat is the real-time core: session registry, room directory,
// broadcast fan-out, presence, typing indicators, and notification dispatch,
// coordinated by a Supervisor that processes one inbound event at a time.
package chat

import (
	"context"
	"encoding/json"
	"time"

	"chat-server/internal/config"
	"chat-server/internal/models"
	"chat-server/internal/protocol"
	"chat-server/internal/store"
	"chat-server/pkg/logger"
)

type eventKind int

const (
	evConnect eventKind = iota
	evDisconnect
	evFrame
)

type inboundEvent struct {
	kind eventKind
	conn Conn
	seed *models.Session // connect only
	raw  []byte          // frame only
}

// Supervisor accepts connections, routes inbound events to the core
// components, and runs disconnect cleanup. A single goroutine drains the
// inbound queue, so all registry/room/presence/typing mutation is serialized:
// events from one connection are handled in arrival order, and broadcasts
// reflect the state at the instant they are issued.
type Supervisor struct {
	registry *Registry
	rooms    *Directory
	presence *Tracker
	typing   *Coordinator
	notifier *Dispatcher
	bc       *Broadcaster
	store    store.Store

	historyLimit int

	inbound chan inboundEvent
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewSupervisor(st store.Store, cfg config.ChatConfig) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())

	registry := NewRegistry()
	rooms := NewDirectory(st, cfg.DefaultMaxMembers)
	bc := NewBroadcaster(registry, rooms)

	return &Supervisor{
		registry:     registry,
		rooms:        rooms,
		presence:     NewTracker(registry, bc),
		typing:       NewCoordinator(bc),
		notifier:     NewDispatcher(st, bc),
		bc:           bc,
		store:        st,
		historyLimit: cfg.HistoryLimit,
		inbound:      make(chan inboundEvent, 256),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Run drains the inbound queue until Shutdown. Call it in its own goroutine.
func (s *Supervisor) Run() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			s.closeAllConnections()
			return
		case ev := <-s.inbound:
			s.handle(ev)
		}
	}
}

// Shutdown stops the event loop and closes every connection. It returns once
// the loop has exited or the timeout elapsed.
func (s *Supervisor) Shutdown(timeout time.Duration) error {
	s.cancel()

	select {
	case <-s.done:
		logger.Info("Supervisor shutdown completed")
		return nil
	case <-time.After(timeout):
		logger.Warn("Supervisor shutdown timeout reached")
		return context.DeadlineExceeded
	}
}

// Connect hands a freshly accepted connection to the supervisor. seed may
// carry identity from a linked account; nil means an anonymous guest.
func (s *Supervisor) Connect(conn Conn, seed *models.Session) {
	s.enqueue(inboundEvent{kind: evConnect, conn: conn, seed: seed})
}

// Disconnect signals that the transport is gone. Safe to call more than once
// for the same connection; cleanup runs exactly once.
func (s *Supervisor) Disconnect(conn Conn) {
	s.enqueue(inboundEvent{kind: evDisconnect, conn: conn})
}

// Receive enqueues a raw inbound frame from a connection.
func (s *Supervisor) Receive(conn Conn, raw []byte) {
	s.enqueue(inboundEvent{kind: evFrame, conn: conn, raw: raw})
}

// ClientCount reports connected sessions, for the health endpoint.
func (s *Supervisor) ClientCount() int {
	return s.registry.Count()
}

// RoomCount reports known rooms, for the health endpoint.
func (s *Supervisor) RoomCount() int {
	return s.rooms.Count()
}

// RoomStat is one row of the read-only room listing.
type RoomStat struct {
	Room        *models.Room `json:"room"`
	MemberCount int          `json:"memberCount"`
}

// RoomStats lists active rooms with member counts.
func (s *Supervisor) RoomStats() []RoomStat {
	rooms := s.rooms.Rooms()
	stats := make([]RoomStat, 0, len(rooms))
	for _, room := range rooms {
		stats = append(stats, RoomStat{Room: room, MemberCount: s.rooms.MemberCount(room.ID)})
	}
	return stats
}

func (s *Supervisor) enqueue(ev inboundEvent) {
	select {
	case s.inbound <- ev:
	case <-s.ctx.Done():
	}
}

func (s *Supervisor) closeAllConnections() {
	for _, session := range s.registry.All() {
		if conn, ok := s.registry.Conn(session.ID); ok {
			conn.Close()
		}
	}
}

func (s *Supervisor) handle(ev inboundEvent) {
	switch ev.kind {
	case evConnect:
		s.handleConnect(ev.conn, ev.seed)
	case evDisconnect:
		s.handleDisconnect(ev.conn)
	case evFrame:
		s.handleFrame(ev.conn, ev.raw)
	}
}

func (s *Supervisor) handleConnect(conn Conn, seed *models.Session) {
	session := s.registry.CreateSession(conn, seed)
	logger.Info("Session %s connected from %s", session.ID, conn.RemoteAddr())

	s.sendTo(conn, protocol.EventUserRooms, &protocol.UserRoomsPayload{Rooms: s.rooms.Rooms()})
	s.presence.SetOnline(session)
}

func (s *Supervisor) handleDisconnect(conn Conn) {
	session, ok := s.registry.SessionByConn(conn)
	if !ok {
		// Cleanup already ran; the transport signaled disconnect twice.
		return
	}

	for _, roomID := range s.rooms.RemoveSessionFromAll(session.ID) {
		s.bc.ToRoom(roomID, protocol.EventUserLeft, &protocol.UserEventPayload{
			RoomID: roomID,
			UserID: session.ID,
			User:   session,
		}, session.ID)
	}
	s.typing.ClearSession(session.ID)
	s.presence.SetOffline(session)
	s.registry.Destroy(session.ID)

	logger.Info("Session %s disconnected", session.ID)
}

func (s *Supervisor) handleFrame(conn Conn, raw []byte) {
	session, ok := s.registry.SessionByConn(conn)
	if !ok {
		return
	}

	env, err := protocol.Decode(raw)
	if err != nil || env.Event == "" {
		s.errorTo(conn, "Invalid message format")
		return
	}

	// Client input never takes the process or the connection down; anything
	// unexpected is logged and surfaced as a generic error event.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic handling %s from session %s: %v", env.Event, session.ID, r)
			s.errorTo(conn, "Internal server error")
		}
	}()

	s.dispatch(session, conn, env)
}

func (s *Supervisor) dispatch(session *models.Session, conn Conn, env *protocol.Envelope) {
	switch env.Event {
	case protocol.EventJoinRoom:
		s.handleJoinRoom(session, conn, env.Data)
	case protocol.EventLeaveRoom:
		s.handleLeaveRoom(session, conn, env.Data)
	case protocol.EventSendMessage:
		s.handleSendMessage(session, conn, env.Data)
	case protocol.EventEditMessage:
		s.handleEditMessage(session, conn, env.Data)
	case protocol.EventDeleteMessage:
		s.handleDeleteMessage(session, conn, env.Data)
	case protocol.EventTypingStart:
		s.handleTyping(session, conn, env.Data, true)
	case protocol.EventTypingStop:
		s.handleTyping(session, conn, env.Data, false)
	case protocol.EventCreateRoom:
		s.handleCreateRoom(session, conn, env.Data)
	case protocol.EventUpdateRoom:
		s.handleUpdateRoom(session, conn, env.Data)
	case protocol.EventGetRoomMembers:
		s.handleGetRoomMembers(session, conn, env.Data)
	case protocol.EventGetRoomInfo:
		s.handleGetRoomInfo(session, conn, env.Data)
	case protocol.EventGetOnlineUsers:
		s.handleGetOnlineUsers(conn)
	case protocol.EventUpdateStatus:
		s.handleUpdateStatus(session, conn, env.Data)
	case protocol.EventGetProfile:
		s.handleGetProfile(session, conn)
	case protocol.EventUpdateProfile:
		s.handleUpdateProfile(session, conn, env.Data)
	case protocol.EventGetMessageHistory:
		s.handleGetMessageHistory(session, conn, env.Data)
	case protocol.EventMarkNotifRead:
		s.handleMarkNotificationRead(conn, env.Data)
	case protocol.EventMarkAllNotifsRead:
		s.notifier.MarkAllRead(s.ctx, session.ID)
	default:
		s.errorTo(conn, "Unknown event: "+env.Event)
	}
}

func (s *Supervisor) handleJoinRoom(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.errorTo(conn, "Room ID is required")
		return
	}

	joined, err := s.rooms.Join(session.ID, req.RoomID)
	switch err {
	case nil:
	case ErrRoomNotFound:
		s.errorTo(conn, "Room not found")
		return
	case ErrRoomFull:
		s.errorTo(conn, "Room is full")
		return
	default:
		s.errorTo(conn, "Could not join room")
		return
	}

	s.sendTo(conn, protocol.EventRoomJoined, &protocol.RoomJoinedPayload{RoomID: req.RoomID})
	if joined {
		s.bc.ToRoom(req.RoomID, protocol.EventUserJoined, &protocol.UserEventPayload{
			RoomID: req.RoomID,
			UserID: session.ID,
			User:   session,
		}, session.ID)
	}
}

func (s *Supervisor) handleLeaveRoom(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.LeaveRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.errorTo(conn, "Room ID is required")
		return
	}

	left, err := s.rooms.Leave(session.ID, req.RoomID)
	if err != nil {
		s.errorTo(conn, "Room not found")
		return
	}

	s.sendTo(conn, protocol.EventRoomLeft, &protocol.RoomLeftPayload{RoomID: req.RoomID})
	if left {
		s.typing.Stop(session.ID, req.RoomID)
		s.bc.ToRoom(req.RoomID, protocol.EventUserLeft, &protocol.UserEventPayload{
			RoomID: req.RoomID,
			UserID: session.ID,
			User:   session,
		}, session.ID)
	}
}

func (s *Supervisor) handleSendMessage(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" || req.Content == "" {
		s.errorTo(conn, "Room ID and content are required")
		return
	}
	if _, ok := s.rooms.Get(req.RoomID); !ok {
		s.errorTo(conn, "Room not found")
		return
	}

	msgType := models.MessageType(req.Type)
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	msg := newMessage(req.RoomID, session.ID, req.Content, msgType, req.ReplyToID)
	if err := s.store.SaveMessage(s.ctx, msg); err != nil {
		logger.Error("Failed to save message %s: %v", msg.ID, err)
	}

	// The sender intentionally receives the echo; both event names carry the
	// full record.
	payload := &protocol.MessagePayload{Message: msg}
	s.bc.ToRoom(req.RoomID, protocol.EventMessageSent, payload, "")
	s.bc.ToRoom(req.RoomID, protocol.EventNewMessage, payload, "")

	if req.ReplyToID != "" {
		s.notifyReply(session, msg)
	}
}

func (s *Supervisor) notifyReply(sender *models.Session, msg *models.Message) {
	original, err := s.store.GetMessage(s.ctx, msg.ReplyToID)
	if err != nil || original.SenderID == sender.ID {
		return
	}
	s.notifier.Dispatch(s.ctx, original.SenderID, "reply",
		"New reply", sender.DisplayName()+" replied to your message",
		map[string]any{"messageId": msg.ID, "roomId": msg.RoomID})
}

// ownedMessage resolves a message and checks the caller sent it. Edit and
// delete share the same precondition.
func (s *Supervisor) ownedMessage(sessionID, messageID string) (*models.Message, error) {
	msg, err := s.store.GetMessage(s.ctx, messageID)
	if err != nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != sessionID {
		return nil, ErrNotSender
	}
	return msg, nil
}

func (s *Supervisor) handleEditMessage(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.EditMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req.MessageID == "" || req.Content == "" {
		s.errorTo(conn, "Message ID and content are required")
		return
	}

	msg, err := s.ownedMessage(session.ID, req.MessageID)
	switch err {
	case nil:
	case ErrMessageNotFound:
		s.errorTo(conn, "Message not found")
		return
	default:
		s.errorTo(conn, "You can only edit your own messages")
		return
	}

	now := time.Now()
	msg.Content = req.Content
	msg.Edited = true
	msg.EditedAt = &now
	if err := s.store.UpdateMessage(s.ctx, msg); err != nil {
		logger.Error("Failed to update message %s: %v", msg.ID, err)
	}

	for _, roomID := range s.rooms.RoomsOf(session.ID) {
		s.bc.ToRoom(roomID, protocol.EventMessageEdited, &protocol.MessagePayload{Message: msg}, "")
	}
}

func (s *Supervisor) handleDeleteMessage(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.DeleteMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req.MessageID == "" {
		s.errorTo(conn, "Message ID is required")
		return
	}

	msg, err := s.ownedMessage(session.ID, req.MessageID)
	switch err {
	case nil:
	case ErrMessageNotFound:
		s.errorTo(conn, "Message not found")
		return
	default:
		s.errorTo(conn, "You can only delete your own messages")
		return
	}

	// Tombstone, not erasure: the record stays resolvable by id.
	now := time.Now()
	msg.Content = ""
	msg.Deleted = true
	msg.DeletedAt = &now
	if err := s.store.UpdateMessage(s.ctx, msg); err != nil {
		logger.Error("Failed to tombstone message %s: %v", msg.ID, err)
	}

	payload := &protocol.MessageDeletedPayload{
		MessageID: msg.ID,
		DeletedBy: session.ID,
		Timestamp: now.Format(time.RFC3339),
	}
	for _, roomID := range s.rooms.RoomsOf(session.ID) {
		s.bc.ToRoom(roomID, protocol.EventMessageDeleted, payload, "")
	}
}

func (s *Supervisor) handleTyping(session *models.Session, conn Conn, data json.RawMessage, start bool) {
	var req protocol.TypingRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.errorTo(conn, "Room ID is required")
		return
	}

	if start {
		s.typing.Start(session.ID, req.RoomID)
	} else {
		s.typing.Stop(session.ID, req.RoomID)
	}
}

func (s *Supervisor) handleCreateRoom(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.CreateRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Name == "" {
		s.errorTo(conn, "Room name is required")
		return
	}

	room := s.rooms.Create(s.ctx, req.Name, req.Description, models.RoomType(req.Type), req.MaxMembers, session.ID)

	s.sendTo(conn, protocol.EventRoomCreatedSuccess, &protocol.RoomPayload{Room: room})
	s.bc.ToAll(protocol.EventRoomCreated, &protocol.RoomPayload{Room: room})
}

func (s *Supervisor) handleUpdateRoom(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.UpdateRoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.errorTo(conn, "Room ID is required")
		return
	}

	room, err := s.rooms.Update(s.ctx, req.RoomID, models.RoomUpdate{
		Name:        req.Name,
		Description: req.Description,
		MaxMembers:  req.MaxMembers,
	})
	if err != nil {
		s.errorTo(conn, "Room not found")
		return
	}

	s.bc.ToRoom(req.RoomID, protocol.EventRoomUpdated, &protocol.RoomPayload{Room: room}, "")
}

func (s *Supervisor) handleGetRoomMembers(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.RoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.errorTo(conn, "Room ID is required")
		return
	}

	ids, err := s.rooms.Members(req.RoomID)
	if err != nil {
		s.errorTo(conn, "Room not found")
		return
	}

	members := make([]*models.Session, 0, len(ids))
	for _, id := range ids {
		if member, ok := s.registry.Get(id); ok {
			members = append(members, member)
		}
	}

	s.sendTo(conn, protocol.EventRoomMembers, &protocol.RoomMembersPayload{
		RoomID:  req.RoomID,
		Members: members,
		Count:   len(members),
	})
}

func (s *Supervisor) handleGetRoomInfo(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.RoomRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.errorTo(conn, "Room ID is required")
		return
	}

	room, ok := s.rooms.Get(req.RoomID)
	if !ok {
		s.errorTo(conn, "Room not found")
		return
	}

	s.sendTo(conn, protocol.EventRoomInfo, &protocol.RoomInfoPayload{
		Room:        room,
		MemberCount: s.rooms.MemberCount(req.RoomID),
	})
}

func (s *Supervisor) handleGetOnlineUsers(conn Conn) {
	users := s.presence.Snapshot()
	s.sendTo(conn, protocol.EventOnlineUsers, &protocol.OnlineUsersPayload{
		Users: users,
		Count: len(users),
	})
}

func (s *Supervisor) handleUpdateStatus(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.UpdateStatusRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.errorTo(conn, "Invalid status payload")
		return
	}

	// Status strings are free-form; no allowed-value validation.
	s.presence.UpdateStatus(session.ID, req.Status)
}

func (s *Supervisor) handleGetProfile(session *models.Session, conn Conn) {
	s.sendTo(conn, protocol.EventProfile, &protocol.ProfilePayload{
		UserID:    session.ID,
		FirstName: session.FirstName,
		LastName:  session.LastName,
		Avatar:    session.Avatar,
	})
}

func (s *Supervisor) handleUpdateProfile(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.UpdateProfileRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.errorTo(conn, "Invalid profile payload")
		return
	}

	if req.FirstName != nil {
		session.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		session.LastName = *req.LastName
	}
	if req.Avatar != nil {
		session.Avatar = *req.Avatar
	}

	s.sendTo(conn, protocol.EventProfile, &protocol.ProfilePayload{
		UserID:    session.ID,
		FirstName: session.FirstName,
		LastName:  session.LastName,
		Avatar:    session.Avatar,
	})
	s.bc.ToAll(protocol.EventUserProfileUpdated, &protocol.UserProfileUpdatedPayload{
		UserID: session.ID,
		User:   session,
	})
}

func (s *Supervisor) handleGetMessageHistory(session *models.Session, conn Conn, data json.RawMessage) {
	var req protocol.MessageHistoryRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		s.errorTo(conn, "Room ID is required")
		return
	}
	if _, ok := s.rooms.Get(req.RoomID); !ok {
		s.errorTo(conn, "Room not found")
		return
	}

	limit := req.Limit
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	messages, err := s.store.RecentMessages(s.ctx, req.RoomID, limit)
	if err != nil {
		logger.Error("Failed to load history for room %s: %v", req.RoomID, err)
		s.errorTo(conn, "Could not load message history")
		return
	}

	s.sendTo(conn, protocol.EventMessageHistory, &protocol.MessageHistoryPayload{
		RoomID:   req.RoomID,
		Messages: messages,
	})
}

func (s *Supervisor) handleMarkNotificationRead(conn Conn, data json.RawMessage) {
	var req protocol.MarkNotificationReadRequest
	if err := json.Unmarshal(data, &req); err != nil || req.NotificationID == "" {
		s.errorTo(conn, "Notification ID is required")
		return
	}
	s.notifier.MarkRead(s.ctx, req.NotificationID)
}

func (s *Supervisor) sendTo(conn Conn, event string, payload any) {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		logger.Error("Failed to encode %s event: %v", event, err)
		return
	}
	conn.Send(data)
}

// errorTo surfaces a validation or lookup failure to the originating
// connection only. The connection stays open.
func (s *Supervisor) errorTo(conn Conn, message string) {
	s.sendTo(conn, protocol.EventError, &protocol.ErrorPayload{Message: message})
}
