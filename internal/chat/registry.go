package chat

import (
	"fmt"
	"sync"
	"time"

	"chat-server/internal/models"

	"github.com/google/uuid"
)

type connectedSession struct {
	session *models.Session
	conn    Conn
}

// Registry owns the mapping from live connections to ephemeral sessions.
// Mutation happens only on the supervisor goroutine; the mutex exists for the
// read-only HTTP surface.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*connectedSession
	byConn   map[Conn]string
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*connectedSession),
		byConn:   make(map[Conn]string),
	}
}

// CreateSession synthesizes a session for conn. Identity fields missing from
// seed are filled with guest defaults, so creation always succeeds.
func (r *Registry) CreateSession(conn Conn, seed *models.Session) *models.Session {
	session := &models.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	if seed != nil {
		session.UserID = seed.UserID
		session.FirstName = seed.FirstName
		session.LastName = seed.LastName
		session.Avatar = seed.Avatar
	}
	if session.FirstName == "" {
		session.FirstName = fmt.Sprintf("Guest-%s", session.ID[:6])
	}
	if session.Avatar == "" {
		session.Avatar = fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", session.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = &connectedSession{session: session, conn: conn}
	r.byConn[conn] = session.ID
	r.order = append(r.order, session.ID)

	return session
}

// Get returns the session for id. Absence is a normal, checked condition.
func (r *Registry) Get(id string) (*models.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cs, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return cs.session, true
}

// Conn returns the connection behind a session id.
func (r *Registry) Conn(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cs, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return cs.conn, true
}

// SessionByConn resolves the session attached to a transport connection.
func (r *Registry) SessionByConn(conn Conn) (*models.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byConn[conn]
	if !ok {
		return nil, false
	}
	return r.sessions[id].session, true
}

// Destroy removes the session. It reports false when the session was already
// gone, which callers use to make disconnect cleanup run exactly once.
func (r *Registry) Destroy(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cs, ok := r.sessions[id]
	if !ok {
		return false
	}
	delete(r.sessions, id)
	delete(r.byConn, cs.conn)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// All returns sessions in registration order. Broadcast fan-out iterates this
// order so delivery order is deterministic.
func (r *Registry) All() []*models.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*models.Session, 0, len(r.order))
	for _, id := range r.order {
		sessions = append(sessions, r.sessions[id].session)
	}
	return sessions
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
