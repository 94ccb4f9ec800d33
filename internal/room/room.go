package room

import (
	"sync"
)

// Directory maps room ids to the sessions currently joined. A room exists
// only while its member set is non-empty, and a session is a member of at
// most one room at a time.
type Directory struct {
	rooms   map[string]map[string]struct{}
	current map[string]string
	mu      sync.RWMutex
}

func NewDirectory() *Directory {
	return &Directory{
		rooms:   make(map[string]map[string]struct{}),
		current: make(map[string]string),
	}
}

// Join moves the session into roomID, removing it from its previous room
// first. The remove-then-add happens in one step under the lock, so a
// session is never listed in two rooms.
func (d *Directory) Join(roomID, sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.current[sessionID]; ok && prev != roomID {
		d.removeLocked(prev, sessionID)
	}

	members, ok := d.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		d.rooms[roomID] = members
	}
	members[sessionID] = struct{}{}
	d.current[sessionID] = roomID
}

// Leave removes the session from roomID, deleting the room entry when the
// member set becomes empty. No-op if the room or membership does not exist.
func (d *Directory) Leave(roomID, sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.removeLocked(roomID, sessionID)
	if d.current[sessionID] == roomID {
		delete(d.current, sessionID)
	}
}

func (d *Directory) removeLocked(roomID, sessionID string) {
	members, ok := d.rooms[roomID]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(d.rooms, roomID)
	}
}

// Members returns a copy of the current member session ids. Unknown rooms
// yield an empty slice, never an error.
func (d *Directory) Members(roomID string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	members := make([]string, 0, len(d.rooms[roomID]))
	for id := range d.rooms[roomID] {
		members = append(members, id)
	}
	return members
}

// Current returns the room the session is in, if any.
func (d *Directory) Current(sessionID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	roomID, ok := d.current[sessionID]
	return roomID, ok
}

// Rooms returns the ids of all non-empty rooms.
func (d *Directory) Rooms() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of non-empty rooms.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// MemberCount returns the number of sessions in roomID.
func (d *Directory) MemberCount(roomID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms[roomID])
}
