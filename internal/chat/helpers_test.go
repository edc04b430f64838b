package chat

import (
	"encoding/json"
	"sync"
	"testing"

	"chat-server/internal/config"
	"chat-server/internal/models"
	"chat-server/internal/protocol"
	"chat-server/internal/store"

	"github.com/stretchr/testify/require"
)

// fakeConn records every frame the core delivers to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeConn) Send(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	f.frames = append(f.frames, copied)
	return true
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) RemoteAddr() string { return "test" }

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

// received returns the decoded payloads of every recorded frame with the
// given event name.
func (f *fakeConn) received(t *testing.T, event string) []json.RawMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []json.RawMessage
	for _, frame := range f.frames {
		env, err := protocol.Decode(frame)
		require.NoError(t, err)
		if env.Event == event {
			out = append(out, env.Data)
		}
	}
	return out
}

func (f *fakeConn) lastError(t *testing.T) string {
	t.Helper()
	errs := f.received(t, protocol.EventError)
	if len(errs) == 0 {
		return ""
	}
	var payload protocol.ErrorPayload
	require.NoError(t, json.Unmarshal(errs[len(errs)-1], &payload))
	return payload.Message
}

func newTestSupervisor() *Supervisor {
	return NewSupervisor(store.NewMemoryStore(), config.ChatConfig{
		SendBuffer:        256,
		DefaultMaxMembers: 50,
		HistoryLimit:      100,
	})
}

// connect runs the connect handler synchronously and returns the connection
// with its synthesized session.
func connect(t *testing.T, s *Supervisor) (*fakeConn, *models.Session) {
	t.Helper()
	conn := &fakeConn{}
	s.handleConnect(conn, nil)
	session, ok := s.registry.SessionByConn(conn)
	require.True(t, ok)
	return conn, session
}

// send drives one inbound frame through the supervisor.
func send(t *testing.T, s *Supervisor, conn *fakeConn, event string, payload any) {
	t.Helper()
	raw, err := protocol.Encode(event, payload)
	require.NoError(t, err)
	s.handleFrame(conn, raw)
}

// createRoom is the shorthand most tests start with.
func createRoom(t *testing.T, s *Supervisor, conn *fakeConn, name string) *models.Room {
	t.Helper()
	send(t, s, conn, protocol.EventCreateRoom, &protocol.CreateRoomRequest{Name: name})
	created := conn.received(t, protocol.EventRoomCreatedSuccess)
	require.NotEmpty(t, created)

	var payload protocol.RoomPayload
	require.NoError(t, json.Unmarshal(created[len(created)-1], &payload))
	return payload.Room
}

func resetAll(conns ...*fakeConn) {
	for _, c := range conns {
		c.reset()
	}
}
