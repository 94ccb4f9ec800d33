package presence

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"unicode/utf8"

	"github.com/sohan181204/collaborative-canvas/internal/protocol"
)

const (
	MinNameLen = 3
	MaxNameLen = 20
)

// ErrInvalidName is returned by Rename for names outside [MinNameLen, MaxNameLen].
var ErrInvalidName = errors.New("display name must be 3-20 characters")

// ValidateName checks the display-name length bounds. Clients reject
// invalid names with this before any network call.
func ValidateName(name string) error {
	if n := utf8.RuneCountInString(name); n < MinNameLen || n > MaxNameLen {
		return ErrInvalidName
	}
	return nil
}

// Store holds the display name and color assigned to each live session.
type Store struct {
	users map[string]protocol.User
	mu    sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]protocol.User),
	}
}

// Register assigns a generated name and a random color to the session and
// returns the new identity. Numbering is 1 + the active user count at
// assignment time, so it starts over once everyone has disconnected.
func (s *Store) Register(sessionID string) protocol.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := protocol.User{
		ID:    sessionID,
		Name:  fmt.Sprintf("User %d", len(s.users)+1),
		Color: fmt.Sprintf("#%06x", rand.Intn(0xffffff+1)),
	}
	s.users[sessionID] = user
	return user
}

// Rename replaces the stored display name. Names outside the length bounds
// are rejected with ErrInvalidName and nothing is mutated. Renaming an
// unknown session is a silent no-op on the store.
func (s *Store) Rename(sessionID, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[sessionID]
	if !ok {
		return nil
	}
	user.Name = newName
	s.users[sessionID] = user
	return nil
}

// Unregister deletes the session's identity.
func (s *Store) Unregister(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, sessionID)
}

// Get returns the identity stored for the session.
func (s *Store) Get(sessionID string) (protocol.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[sessionID]
	return user, ok
}

// Snapshot returns the subset of stored identities for the given session
// ids, keyed by session id. Used as the room-join payload.
func (s *Store) Snapshot(sessionIDs []string) map[string]protocol.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]protocol.User, len(sessionIDs))
	for _, id := range sessionIDs {
		if user, ok := s.users[id]; ok {
			users[id] = user
		}
	}
	return users
}

// Count returns the number of active identities.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
