package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"chat-server/internal/models"
	"chat-server/internal/store"
	"chat-server/pkg/logger"

	"github.com/google/uuid"
)

// Directory owns room records and the membership indexes. Both directions of
// the membership relation are kept in lockstep: roomID -> session ids and
// sessionID -> room ids, so disconnect cleanup and edit/delete fan-out never
// have to derive one from the other.
type Directory struct {
	mu           sync.RWMutex
	rooms        map[string]*models.Room
	members      map[string]map[string]struct{}
	sessionRooms map[string]map[string]struct{}
	store        store.RoomRepository
	defaultMax   int
}

func NewDirectory(st store.RoomRepository, defaultMaxMembers int) *Directory {
	d := &Directory{
		rooms:        make(map[string]*models.Room),
		members:      make(map[string]map[string]struct{}),
		sessionRooms: make(map[string]map[string]struct{}),
		store:        st,
		defaultMax:   defaultMaxMembers,
	}

	// Rooms persisted by a previous run come back without members;
	// membership is connection-scoped and always starts empty.
	if st != nil {
		rooms, err := st.ListRooms(context.Background())
		if err != nil {
			logger.Error("Failed to load persisted rooms: %v", err)
		}
		for _, room := range rooms {
			d.rooms[room.ID] = room
			d.members[room.ID] = make(map[string]struct{})
		}
	}

	return d
}

// Create allocates a room with a fresh id and the creator as sole member.
// Duplicate names are permitted.
func (d *Directory) Create(ctx context.Context, name, description string, roomType models.RoomType, maxMembers int, creatorID string) *models.Room {
	if roomType == "" {
		roomType = models.RoomTypePublic
	}
	if maxMembers <= 0 {
		maxMembers = d.defaultMax
	}

	room := &models.Room{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Type:        roomType,
		MaxMembers:  maxMembers,
		CreatedBy:   creatorID,
		CreatedAt:   time.Now(),
	}

	d.mu.Lock()
	d.rooms[room.ID] = room
	d.members[room.ID] = map[string]struct{}{creatorID: {}}
	d.addSessionRoom(creatorID, room.ID)
	d.mu.Unlock()

	if d.store != nil {
		if err := d.store.SaveRoom(ctx, room); err != nil {
			logger.Error("Failed to persist room %s: %v", room.ID, err)
		}
	}

	return room
}

// Join adds the session to the room. Re-joining is a no-op; joined reports
// whether membership actually changed.
func (d *Directory) Join(sessionID, roomID string) (joined bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.rooms[roomID]
	if !ok {
		return false, ErrRoomNotFound
	}
	if _, already := d.members[roomID][sessionID]; already {
		return false, nil
	}
	if room.MaxMembers > 0 && len(d.members[roomID]) >= room.MaxMembers {
		return false, ErrRoomFull
	}

	d.members[roomID][sessionID] = struct{}{}
	d.addSessionRoom(sessionID, roomID)
	return true, nil
}

// Leave removes the session from the room, idempotently.
func (d *Directory) Leave(sessionID, roomID string) (left bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[roomID]; !ok {
		return false, ErrRoomNotFound
	}
	if _, member := d.members[roomID][sessionID]; !member {
		return false, nil
	}

	delete(d.members[roomID], sessionID)
	d.removeSessionRoom(sessionID, roomID)
	return true, nil
}

// Update merges the provided fields into the room record.
func (d *Directory) Update(ctx context.Context, roomID string, upd models.RoomUpdate) (*models.Room, error) {
	d.mu.Lock()
	room, ok := d.rooms[roomID]
	if !ok {
		d.mu.Unlock()
		return nil, ErrRoomNotFound
	}

	// Published *Room pointers are shared with the HTTP surface, so records
	// are never mutated after publication; updates replace the map entry
	// with a fresh copy.
	updated := *room
	if upd.Name != nil {
		updated.Name = *upd.Name
	}
	if upd.Description != nil {
		updated.Description = *upd.Description
	}
	if upd.MaxMembers != nil && *upd.MaxMembers > 0 {
		updated.MaxMembers = *upd.MaxMembers
	}
	d.rooms[roomID] = &updated
	d.mu.Unlock()

	if d.store != nil {
		if err := d.store.UpdateRoom(ctx, &updated); err != nil {
			logger.Error("Failed to persist room update %s: %v", roomID, err)
		}
	}

	return &updated, nil
}

// Get returns the room record for id.
func (d *Directory) Get(roomID string) (*models.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	room, ok := d.rooms[roomID]
	return room, ok
}

// Members returns the session ids currently in the room.
func (d *Directory) Members(roomID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	set, ok := d.members[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// IsMember reports whether the session is in the room.
func (d *Directory) IsMember(sessionID, roomID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.members[roomID][sessionID]
	return ok
}

// RoomsOf returns the ids of every room the session currently belongs to.
func (d *Directory) RoomsOf(sessionID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	set := d.sessionRooms[sessionID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RemoveSessionFromAll strips the session from every room it belongs to and
// returns the ids of the rooms it left. Called only by disconnect cleanup.
func (d *Directory) RemoveSessionFromAll(sessionID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	set := d.sessionRooms[sessionID]
	left := make([]string, 0, len(set))
	for roomID := range set {
		delete(d.members[roomID], sessionID)
		left = append(left, roomID)
	}
	delete(d.sessionRooms, sessionID)
	sort.Strings(left)
	return left
}

// Rooms returns every room, oldest first.
func (d *Directory) Rooms() []*models.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]*models.Room, 0, len(d.rooms))
	for _, room := range d.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms
}

// MemberCount returns the current member count, zero for unknown rooms.
func (d *Directory) MemberCount(roomID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.members[roomID])
}

func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// callers hold d.mu
func (d *Directory) addSessionRoom(sessionID, roomID string) {
	if d.sessionRooms[sessionID] == nil {
		d.sessionRooms[sessionID] = make(map[string]struct{})
	}
	d.sessionRooms[sessionID][roomID] = struct{}{}
}

func (d *Directory) removeSessionRoom(sessionID, roomID string) {
	delete(d.sessionRooms[sessionID], roomID)
	if len(d.sessionRooms[sessionID]) == 0 {
		delete(d.sessionRooms, sessionID)
	}
}
