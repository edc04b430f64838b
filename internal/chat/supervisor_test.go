package chat

import (
	"encoding/json"
	"fmt"
	"testing"

	"chat-server/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectAnnouncesRoomsAndPresence(t *testing.T) {
	s := newTestSupervisor()

	connA, sessA := connect(t, s)

	rooms := connA.received(t, protocol.EventUserRooms)
	require.Len(t, rooms, 1, "new connection should receive the room list")

	online := connA.received(t, protocol.EventUserOnline)
	require.Len(t, online, 1)
	var presence protocol.PresencePayload
	require.NoError(t, json.Unmarshal(online[0], &presence))
	assert.Equal(t, sessA.ID, presence.UserID)

	// A second connection: both hear the announcement.
	connB, sessB := connect(t, s)
	assert.Len(t, connB.received(t, protocol.EventUserOnline), 1)
	assert.Len(t, connA.received(t, protocol.EventUserOnline), 2)
	assert.NotEqual(t, sessA.ID, sessB.ID)
}

func TestCreateRoomUniqueIDsAndSoleMember(t *testing.T) {
	s := newTestSupervisor()
	conn, session := connect(t, s)

	seen := make(map[string]bool)
	for _, name := range []string{"Lounge", "Lounge", "Random"} {
		room := createRoom(t, s, conn, name)
		assert.False(t, seen[room.ID], "room ids must be unique")
		seen[room.ID] = true

		members, err := s.rooms.Members(room.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{session.ID}, members, "creator is the sole member")
	}
}

func TestCreateRoomBroadcastsToAll(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	connB, _ := connect(t, s)
	resetAll(connA, connB)

	createRoom(t, s, connA, "Lounge")

	assert.Len(t, connA.received(t, protocol.EventRoomCreated), 1)
	assert.Len(t, connB.received(t, protocol.EventRoomCreated), 1)
}

func TestJoinRoom(t *testing.T) {
	s := newTestSupervisor()
	connA, sessA := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	connB, sessB := connect(t, s)
	resetAll(connA, connB)

	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})

	joined := connB.received(t, protocol.EventRoomJoined)
	require.Len(t, joined, 1)
	var confirm protocol.RoomJoinedPayload
	require.NoError(t, json.Unmarshal(joined[0], &confirm))
	assert.Equal(t, room.ID, confirm.RoomID)

	// Existing members hear user_joined; the joiner does not.
	userJoined := connA.received(t, protocol.EventUserJoined)
	require.Len(t, userJoined, 1)
	var evt protocol.UserEventPayload
	require.NoError(t, json.Unmarshal(userJoined[0], &evt))
	assert.Equal(t, sessB.ID, evt.UserID)
	assert.Empty(t, connB.received(t, protocol.EventUserJoined))

	// Re-joining is a no-op: confirmation only, no duplicate broadcast.
	resetAll(connA, connB)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})
	assert.Len(t, connB.received(t, protocol.EventRoomJoined), 1)
	assert.Empty(t, connA.received(t, protocol.EventUserJoined))

	members, err := s.rooms.Members(room.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{sessA.ID, sessB.ID}, members)
}

func TestJoinRoomErrors(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)

	tests := []struct {
		name    string
		payload any
		wantErr string
	}{
		{
			name:    "missing room id",
			payload: &protocol.JoinRoomRequest{},
			wantErr: "Room ID is required",
		},
		{
			name:    "unknown room",
			payload: &protocol.JoinRoomRequest{RoomID: "nope"},
			wantErr: "Room not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connA.reset()
			send(t, s, connA, protocol.EventJoinRoom, tt.payload)
			assert.Equal(t, tt.wantErr, connA.lastError(t))
		})
	}
}

func TestJoinRoomFull(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	send(t, s, connA, protocol.EventCreateRoom, &protocol.CreateRoomRequest{Name: "Duo", MaxMembers: 1})
	created := connA.received(t, protocol.EventRoomCreatedSuccess)
	require.Len(t, created, 1)
	var payload protocol.RoomPayload
	require.NoError(t, json.Unmarshal(created[0], &payload))

	connB, _ := connect(t, s)
	connB.reset()
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: payload.Room.ID})
	assert.Equal(t, "Room is full", connB.lastError(t))
}

func TestSendMessageDeliversToMembersOnly(t *testing.T) {
	s := newTestSupervisor()
	connA, sessA := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	connB, _ := connect(t, s)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})

	connC, _ := connect(t, s)
	resetAll(connA, connB, connC)

	send(t, s, connA, protocol.EventSendMessage, &protocol.SendMessageRequest{RoomID: room.ID, Content: "hi"})

	for _, conn := range []*fakeConn{connA, connB} {
		sent := conn.received(t, protocol.EventMessageSent)
		require.Len(t, sent, 1, "members, including the sender, receive the echo")
		var mp protocol.MessagePayload
		require.NoError(t, json.Unmarshal(sent[0], &mp))
		assert.Equal(t, "hi", mp.Message.Content)
		assert.Equal(t, room.ID, mp.Message.RoomID)
		assert.Equal(t, sessA.ID, mp.Message.SenderID)

		assert.Len(t, conn.received(t, protocol.EventNewMessage), 1)
	}

	assert.Empty(t, connC.received(t, protocol.EventMessageSent), "non-members receive nothing")
	assert.Empty(t, connC.received(t, protocol.EventNewMessage))
}

func TestSendMessageValidation(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	connB, _ := connect(t, s)
	resetAll(connA, connB)

	// roomId explicitly null, per the observed wire behavior.
	s.handleFrame(connA, []byte(`{"event":"send_message","data":{"roomId":null,"content":"x"}}`))

	assert.Equal(t, "Room ID and content are required", connA.lastError(t))
	assert.Empty(t, connA.received(t, protocol.EventMessageSent))
	assert.Empty(t, connB.received(t, protocol.EventMessageSent), "no broadcast on validation failure")
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	connB, sessB := connect(t, s)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})
	resetAll(connA, connB)

	send(t, s, connB, protocol.EventLeaveRoom, &protocol.LeaveRoomRequest{RoomID: room.ID})

	require.Len(t, connB.received(t, protocol.EventRoomLeft), 1)
	left := connA.received(t, protocol.EventUserLeft)
	require.Len(t, left, 1)
	var evt protocol.UserEventPayload
	require.NoError(t, json.Unmarshal(left[0], &evt))
	assert.Equal(t, sessB.ID, evt.UserID)

	resetAll(connA, connB)
	send(t, s, connA, protocol.EventSendMessage, &protocol.SendMessageRequest{RoomID: room.ID, Content: "after"})
	assert.Len(t, connA.received(t, protocol.EventMessageSent), 1)
	assert.Empty(t, connB.received(t, protocol.EventMessageSent), "a departed member never receives deliveries")

	// Leaving again is idempotent: confirmation, no broadcast.
	resetAll(connA, connB)
	send(t, s, connB, protocol.EventLeaveRoom, &protocol.LeaveRoomRequest{RoomID: room.ID})
	assert.Len(t, connB.received(t, protocol.EventRoomLeft), 1)
	assert.Empty(t, connA.received(t, protocol.EventUserLeft))
}

func TestTypingIndicators(t *testing.T) {
	s := newTestSupervisor()
	connA, sessA := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	connB, _ := connect(t, s)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})
	resetAll(connA, connB)

	send(t, s, connA, protocol.EventTypingStart, &protocol.TypingRequest{RoomID: room.ID})
	send(t, s, connA, protocol.EventTypingStop, &protocol.TypingRequest{RoomID: room.ID})

	events := connB.received(t, protocol.EventUserTyping)
	require.Len(t, events, 2, "exactly one start and one stop")

	var first, second protocol.UserTypingPayload
	require.NoError(t, json.Unmarshal(events[0], &first))
	require.NoError(t, json.Unmarshal(events[1], &second))
	assert.True(t, first.IsTyping)
	assert.False(t, second.IsTyping)
	assert.Equal(t, sessA.ID, first.UserID)

	assert.Empty(t, connA.received(t, protocol.EventUserTyping), "the originator never hears its own indicator")
}

func TestTypingDuplicateSignalsSwallowed(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	connB, _ := connect(t, s)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})
	resetAll(connA, connB)

	send(t, s, connA, protocol.EventTypingStart, &protocol.TypingRequest{RoomID: room.ID})
	send(t, s, connA, protocol.EventTypingStart, &protocol.TypingRequest{RoomID: room.ID})
	send(t, s, connA, protocol.EventTypingStop, &protocol.TypingRequest{RoomID: room.ID})
	send(t, s, connA, protocol.EventTypingStop, &protocol.TypingRequest{RoomID: room.ID})

	assert.Len(t, connB.received(t, protocol.EventUserTyping), 2)
}

func TestEditMessageFansOutToSendersRooms(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	connB, _ := connect(t, s)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})
	resetAll(connA, connB)

	send(t, s, connA, protocol.EventSendMessage, &protocol.SendMessageRequest{RoomID: room.ID, Content: "draft"})
	sent := connA.received(t, protocol.EventMessageSent)
	require.Len(t, sent, 1)
	var mp protocol.MessagePayload
	require.NoError(t, json.Unmarshal(sent[0], &mp))
	resetAll(connA, connB)

	send(t, s, connA, protocol.EventEditMessage, &protocol.EditMessageRequest{MessageID: mp.Message.ID, Content: "final"})

	for _, conn := range []*fakeConn{connA, connB} {
		edited := conn.received(t, protocol.EventMessageEdited)
		require.Len(t, edited, 1)
		var ep protocol.MessagePayload
		require.NoError(t, json.Unmarshal(edited[0], &ep))
		assert.Equal(t, "final", ep.Message.Content)
		assert.True(t, ep.Message.Edited)
		assert.NotNil(t, ep.Message.EditedAt)
	}
}

func TestEditMessageOwnership(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	connB, _ := connect(t, s)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})

	send(t, s, connA, protocol.EventSendMessage, &protocol.SendMessageRequest{RoomID: room.ID, Content: "mine"})
	sent := connA.received(t, protocol.EventMessageSent)
	require.Len(t, sent, 1)
	var mp protocol.MessagePayload
	require.NoError(t, json.Unmarshal(sent[0], &mp))
	resetAll(connA, connB)

	send(t, s, connB, protocol.EventEditMessage, &protocol.EditMessageRequest{MessageID: mp.Message.ID, Content: "hijack"})
	assert.Equal(t, "You can only edit your own messages", connB.lastError(t))
	assert.Empty(t, connA.received(t, protocol.EventMessageEdited))
}

func TestDeleteMessageTombstones(t *testing.T) {
	s := newTestSupervisor()
	connA, sessA := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	send(t, s, connA, protocol.EventSendMessage, &protocol.SendMessageRequest{RoomID: room.ID, Content: "oops"})
	sent := connA.received(t, protocol.EventMessageSent)
	require.Len(t, sent, 1)
	var mp protocol.MessagePayload
	require.NoError(t, json.Unmarshal(sent[0], &mp))
	connA.reset()

	send(t, s, connA, protocol.EventDeleteMessage, &protocol.DeleteMessageRequest{MessageID: mp.Message.ID})

	deleted := connA.received(t, protocol.EventMessageDeleted)
	require.Len(t, deleted, 1)
	var dp protocol.MessageDeletedPayload
	require.NoError(t, json.Unmarshal(deleted[0], &dp))
	assert.Equal(t, mp.Message.ID, dp.MessageID)
	assert.Equal(t, sessA.ID, dp.DeletedBy)
	assert.NotEmpty(t, dp.Timestamp)

	// Tombstone, not erasure.
	stored, err := s.store.GetMessage(s.ctx, mp.Message.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)
	assert.Empty(t, stored.Content)
}

func TestUpdateRoomBroadcastsToMembers(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	connB, _ := connect(t, s)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})

	connC, _ := connect(t, s)
	resetAll(connA, connB, connC)

	name := "Renamed"
	// No ownership check: any session may update any room.
	send(t, s, connB, protocol.EventUpdateRoom, &protocol.UpdateRoomRequest{RoomID: room.ID, Name: &name})

	for _, conn := range []*fakeConn{connA, connB} {
		updated := conn.received(t, protocol.EventRoomUpdated)
		require.Len(t, updated, 1)
		var rp protocol.RoomPayload
		require.NoError(t, json.Unmarshal(updated[0], &rp))
		assert.Equal(t, "Renamed", rp.Room.Name)
	}
	assert.Empty(t, connC.received(t, protocol.EventRoomUpdated))
}

func TestGetRoomMembersAndInfo(t *testing.T) {
	s := newTestSupervisor()
	connA, sessA := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")
	connA.reset()

	send(t, s, connA, protocol.EventGetRoomMembers, &protocol.RoomRequest{RoomID: room.ID})
	members := connA.received(t, protocol.EventRoomMembers)
	require.Len(t, members, 1)
	var rm protocol.RoomMembersPayload
	require.NoError(t, json.Unmarshal(members[0], &rm))
	assert.Equal(t, 1, rm.Count)
	require.Len(t, rm.Members, 1)
	assert.Equal(t, sessA.ID, rm.Members[0].ID)

	send(t, s, connA, protocol.EventGetRoomInfo, &protocol.RoomRequest{RoomID: room.ID})
	info := connA.received(t, protocol.EventRoomInfo)
	require.Len(t, info, 1)
	var ri protocol.RoomInfoPayload
	require.NoError(t, json.Unmarshal(info[0], &ri))
	assert.Equal(t, room.ID, ri.Room.ID)
	assert.Equal(t, 1, ri.MemberCount)
}

func TestGetOnlineUsers(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	connB, _ := connect(t, s)
	_ = connB
	connA.reset()

	send(t, s, connA, protocol.EventGetOnlineUsers, nil)
	online := connA.received(t, protocol.EventOnlineUsers)
	require.Len(t, online, 1)
	var ou protocol.OnlineUsersPayload
	require.NoError(t, json.Unmarshal(online[0], &ou))
	assert.Equal(t, 2, ou.Count)
}

func TestUpdateStatusBroadcast(t *testing.T) {
	s := newTestSupervisor()
	connA, sessA := connect(t, s)
	connB, _ := connect(t, s)
	resetAll(connA, connB)

	send(t, s, connA, protocol.EventUpdateStatus, &protocol.UpdateStatusRequest{Status: "away"})

	for _, conn := range []*fakeConn{connA, connB} {
		updates := conn.received(t, protocol.EventUserStatusUpdate)
		require.Len(t, updates, 1)
		var up protocol.UserStatusPayload
		require.NoError(t, json.Unmarshal(updates[0], &up))
		assert.Equal(t, sessA.ID, up.UserID)
		assert.Equal(t, "away", up.Status)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	s := newTestSupervisor()
	connA, sessA := connect(t, s)
	connB, _ := connect(t, s)
	resetAll(connA, connB)

	send(t, s, connA, protocol.EventGetProfile, nil)
	profiles := connA.received(t, protocol.EventProfile)
	require.Len(t, profiles, 1)
	var p protocol.ProfilePayload
	require.NoError(t, json.Unmarshal(profiles[0], &p))
	assert.Equal(t, sessA.ID, p.UserID)
	assert.NotEmpty(t, p.FirstName, "identity is synthesized when none is supplied")

	first, last := "Ada", "Lovelace"
	resetAll(connA, connB)
	send(t, s, connA, protocol.EventUpdateProfile, &protocol.UpdateProfileRequest{FirstName: &first, LastName: &last})

	profiles = connA.received(t, protocol.EventProfile)
	require.Len(t, profiles, 1)
	require.NoError(t, json.Unmarshal(profiles[0], &p))
	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "Lovelace", p.LastName)

	updated := connB.received(t, protocol.EventUserProfileUpdated)
	require.Len(t, updated, 1)
}

func TestDisconnectCleanup(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	r1 := createRoom(t, s, connA, "R1")
	connA.reset()
	r2 := createRoom(t, s, connA, "R2")

	connB, sessB := connect(t, s)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: r1.ID})
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: r2.ID})
	resetAll(connA, connB)

	s.handleDisconnect(connB)

	left := connA.received(t, protocol.EventUserLeft)
	require.Len(t, left, 2, "both rooms hear the cleanup broadcast")
	for _, raw := range left {
		var evt protocol.UserEventPayload
		require.NoError(t, json.Unmarshal(raw, &evt))
		assert.Equal(t, sessB.ID, evt.UserID)
	}
	assert.Len(t, connA.received(t, protocol.EventUserOffline), 1)

	for _, roomID := range []string{r1.ID, r2.ID} {
		members, err := s.rooms.Members(roomID)
		require.NoError(t, err)
		assert.NotContains(t, members, sessB.ID)
	}
	_, still := s.registry.Get(sessB.ID)
	assert.False(t, still)

	// A second disconnect signal for the same connection has no effect.
	connA.reset()
	s.handleDisconnect(connB)
	assert.Empty(t, connA.received(t, protocol.EventUserLeft))
	assert.Empty(t, connA.received(t, protocol.EventUserOffline))
}

func TestConcreteLoungeScenario(t *testing.T) {
	s := newTestSupervisor()

	connA, _ := connect(t, s)
	send(t, s, connA, protocol.EventCreateRoom, &protocol.CreateRoomRequest{
		Name:       "Lounge",
		Type:       "public",
		MaxMembers: 10,
	})
	created := connA.received(t, protocol.EventRoomCreatedSuccess)
	require.Len(t, created, 1)
	var rp protocol.RoomPayload
	require.NoError(t, json.Unmarshal(created[0], &rp))
	r1 := rp.Room.ID
	require.NotEmpty(t, r1)

	connB, _ := connect(t, s)
	resetAll(connA, connB)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: r1})

	require.Len(t, connA.received(t, protocol.EventUserJoined), 1)
	joined := connB.received(t, protocol.EventRoomJoined)
	require.Len(t, joined, 1)
	var jp protocol.RoomJoinedPayload
	require.NoError(t, json.Unmarshal(joined[0], &jp))
	assert.Equal(t, r1, jp.RoomID)

	resetAll(connA, connB)
	send(t, s, connA, protocol.EventSendMessage, &protocol.SendMessageRequest{RoomID: r1, Content: "hi"})
	for _, conn := range []*fakeConn{connA, connB} {
		sent := conn.received(t, protocol.EventMessageSent)
		require.Len(t, sent, 1)
		var mp protocol.MessagePayload
		require.NoError(t, json.Unmarshal(sent[0], &mp))
		assert.Equal(t, "hi", mp.Message.Content)
		assert.Equal(t, r1, mp.Message.RoomID)
	}
}

func TestMessageHistory(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	for _, content := range []string{"one", "two", "three"} {
		send(t, s, connA, protocol.EventSendMessage, &protocol.SendMessageRequest{RoomID: room.ID, Content: content})
	}
	connA.reset()

	send(t, s, connA, protocol.EventGetMessageHistory, &protocol.MessageHistoryRequest{RoomID: room.ID, Limit: 2})
	history := connA.received(t, protocol.EventMessageHistory)
	require.Len(t, history, 1)
	var hp protocol.MessageHistoryPayload
	require.NoError(t, json.Unmarshal(history[0], &hp))
	require.Len(t, hp.Messages, 2)
	assert.Equal(t, "two", hp.Messages[0].Content)
	assert.Equal(t, "three", hp.Messages[1].Content)
}

func TestReplyDispatchesNotification(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	connB, _ := connect(t, s)
	send(t, s, connB, protocol.EventJoinRoom, &protocol.JoinRoomRequest{RoomID: room.ID})

	send(t, s, connA, protocol.EventSendMessage, &protocol.SendMessageRequest{RoomID: room.ID, Content: "original"})
	sent := connA.received(t, protocol.EventMessageSent)
	require.Len(t, sent, 1)
	var mp protocol.MessagePayload
	require.NoError(t, json.Unmarshal(sent[0], &mp))
	resetAll(connA, connB)

	send(t, s, connB, protocol.EventSendMessage, &protocol.SendMessageRequest{
		RoomID:    room.ID,
		Content:   "reply",
		ReplyToID: mp.Message.ID,
	})

	notifs := connA.received(t, protocol.EventNotification)
	require.Len(t, notifs, 1)
	var np protocol.NotificationPayload
	require.NoError(t, json.Unmarshal(notifs[0], &np))
	assert.Equal(t, "reply", np.Notification.Type)
	assert.False(t, np.Notification.Read)

	assert.Empty(t, connB.received(t, protocol.EventNotification), "replying to yourself or others' replies stay targeted")
}

func TestRoomStatsConcurrentWithUpdates(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)
	room := createRoom(t, s, connA, "Lounge")

	frames := make([][]byte, 0, 100)
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("Lounge-%d", i)
		raw, err := protocol.Encode(protocol.EventUpdateRoom, &protocol.UpdateRoomRequest{RoomID: room.ID, Name: &name})
		require.NoError(t, err)
		frames = append(frames, raw)
	}

	// One goroutine plays the supervisor loop, the other the HTTP surface
	// encoding the room listing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, raw := range frames {
			s.handleFrame(connA, raw)
		}
	}()

	for {
		_, err := json.Marshal(s.RoomStats())
		require.NoError(t, err)

		select {
		case <-done:
			current, ok := s.rooms.Get(room.ID)
			require.True(t, ok)
			assert.Equal(t, "Lounge-99", current.Name)
			return
		default:
		}
	}
}

func TestMalformedAndUnknownFrames(t *testing.T) {
	s := newTestSupervisor()
	connA, _ := connect(t, s)

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{
			name:    "not json",
			raw:     "not-json",
			wantErr: "Invalid message format",
		},
		{
			name:    "missing event name",
			raw:     `{"data":{}}`,
			wantErr: "Invalid message format",
		},
		{
			name:    "unknown event",
			raw:     `{"event":"warp_drive","data":{}}`,
			wantErr: "Unknown event: warp_drive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connA.reset()
			s.handleFrame(connA, []byte(tt.raw))
			assert.Equal(t, tt.wantErr, connA.lastError(t))
		})
	}

	// The connection keeps working afterwards.
	connA.reset()
	createRoom(t, s, connA, "StillAlive")
}
