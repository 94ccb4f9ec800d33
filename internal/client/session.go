package client

import (
	"log"
	"sync"

	"github.com/sohan181204/collaborative-canvas/internal/history"
	"github.com/sohan181204/collaborative-canvas/internal/presence"
	"github.com/sohan181204/collaborative-canvas/internal/protocol"
	"github.com/sohan181204/collaborative-canvas/internal/snapshot"
)

// Session composes a controller with this client's history replica and an
// optional per-room snapshot store. Local operations mutate the replica
// first and emit to peers only when something actually changed; remote
// broadcast events apply the same transitions without re-emission.
type Session struct {
	ctrl   *Controller
	engine *history.Engine
	store  *snapshot.Store

	mu     sync.Mutex
	roomID string
	userID string
	users  map[string]protocol.User
}

// NewSession wires the relay handlers into the history engine. store may be
// nil when persistence is not wanted.
func NewSession(ctrl *Controller, store *snapshot.Store) *Session {
	s := &Session{
		ctrl:   ctrl,
		engine: history.NewEngine(),
		store:  store,
		users:  make(map[string]protocol.User),
	}

	ctrl.On(protocol.KindInit, s.handleInit)
	ctrl.On(protocol.KindUserJoined, s.handleUserJoined)
	ctrl.On(protocol.KindUserLeft, s.handleUserLeft)
	ctrl.On(protocol.KindUserRenamed, s.handleUserRenamed)
	ctrl.On(protocol.KindDrawPath, s.handleRemotePath)
	ctrl.On(protocol.KindUndo, func(*protocol.Message) { s.engine.Undo() })
	ctrl.On(protocol.KindRedo, func(*protocol.Message) { s.engine.Redo() })
	ctrl.On(protocol.KindClearCanvas, func(*protocol.Message) { s.engine.Clear() })

	return s
}

// Controller exposes the underlying connection for presentation-layer
// handlers (cursor-move, drawing-start, status).
func (s *Session) Controller() *Controller {
	return s.ctrl
}

// Join moves this client into roomID, restoring any persisted snapshot for
// it first. The previous room's state is discarded.
func (s *Session) Join(roomID string) error {
	s.mu.Lock()
	s.roomID = roomID
	s.users = make(map[string]protocol.User)
	s.mu.Unlock()

	if s.store != nil {
		paths, err := s.store.Load(roomID)
		if err != nil {
			log.Printf("Snapshot load for room %s failed: %v", roomID, err)
		} else {
			s.engine.Restore(paths)
		}
	} else {
		s.engine.Restore(nil)
	}

	return s.ctrl.Send(&protocol.Message{
		Type:   protocol.KindJoin,
		RoomID: roomID,
	})
}

// CommitPath appends a locally completed stroke and replicates it.
func (s *Session) CommitPath(p protocol.Path) error {
	if !s.engine.Commit(p) {
		return nil
	}
	s.persist()

	roomID, userID := s.identity()
	if err := s.ctrl.Send(&protocol.Message{
		Type:   protocol.KindDrawingStart,
		RoomID: roomID,
		UserID: userID,
	}); err != nil {
		return err
	}
	return s.ctrl.Send(&protocol.Message{
		Type:   protocol.KindDrawPath,
		Path:   &p,
		RoomID: roomID,
		UserID: userID,
	})
}

// Undo pops the last committed stroke to the redo stack and replicates the
// transition. No-op (and no emission) when nothing is committed.
func (s *Session) Undo() error {
	if !s.engine.Undo() {
		return nil
	}
	s.persist()
	return s.emit(protocol.KindUndo)
}

// Redo restores the last undone stroke and replicates the transition.
func (s *Session) Redo() error {
	if !s.engine.Redo() {
		return nil
	}
	s.persist()
	return s.emit(protocol.KindRedo)
}

// Clear empties both stacks and replicates the transition.
func (s *Session) Clear() error {
	if !s.engine.Clear() {
		return nil
	}
	s.persist()
	return s.emit(protocol.KindClearCanvas)
}

// Rename validates the new name locally before any network call; invalid
// names are rejected with presence.ErrInvalidName and nothing is sent.
func (s *Session) Rename(newName string) error {
	if err := presence.ValidateName(newName); err != nil {
		return err
	}

	s.mu.Lock()
	roomID, userID := s.roomID, s.userID
	if user, ok := s.users[userID]; ok {
		user.Name = newName
		s.users[userID] = user
	}
	s.mu.Unlock()

	return s.ctrl.Send(&protocol.Message{
		Type:    protocol.KindRenameUser,
		RoomID:  roomID,
		UserID:  userID,
		NewName: newName,
	})
}

// MoveCursor shares an ephemeral pointer position; not part of history.
func (s *Session) MoveCursor(x, y float64) error {
	roomID, userID := s.identity()
	return s.ctrl.Send(&protocol.Message{
		Type:   protocol.KindCursorMove,
		X:      x,
		Y:      y,
		RoomID: roomID,
		UserID: userID,
	})
}

// Paths returns a copy of the committed stroke sequence.
func (s *Session) Paths() []protocol.Path {
	return s.engine.Paths()
}

// Counts returns the committed and redo stack sizes.
func (s *Session) Counts() (int, int) {
	return s.engine.Counts()
}

// UserID returns the identity assigned by the server, empty before init.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Users returns a copy of the current presence snapshot.
func (s *Session) Users() map[string]protocol.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make(map[string]protocol.User, len(s.users))
	for id, u := range s.users {
		users[id] = u
	}
	return users
}

// SaveSnapshot persists the committed sequence for the current room.
func (s *Session) SaveSnapshot() error {
	if s.store == nil {
		return nil
	}
	roomID, _ := s.identity()
	return s.store.Save(roomID, s.engine.Paths())
}

func (s *Session) emit(kind protocol.Kind) error {
	roomID, userID := s.identity()
	return s.ctrl.Send(&protocol.Message{
		Type:   kind,
		RoomID: roomID,
		UserID: userID,
	})
}

func (s *Session) identity() (roomID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID, s.userID
}

func (s *Session) persist() {
	if s.store == nil {
		return
	}
	roomID, _ := s.identity()
	if err := s.store.Save(roomID, s.engine.Paths()); err != nil {
		log.Printf("Snapshot save for room %s failed: %v", roomID, err)
	}
}

func (s *Session) handleInit(msg *protocol.Message) {
	s.mu.Lock()
	s.userID = msg.UserID
	s.users = make(map[string]protocol.User, len(msg.Users))
	for id, u := range msg.Users {
		s.users[id] = u
	}
	s.mu.Unlock()
}

func (s *Session) handleUserJoined(msg *protocol.Message) {
	if msg.User == nil {
		return
	}
	s.mu.Lock()
	s.users[msg.UserID] = *msg.User
	s.mu.Unlock()
}

func (s *Session) handleUserLeft(msg *protocol.Message) {
	s.mu.Lock()
	delete(s.users, msg.UserID)
	s.mu.Unlock()
}

func (s *Session) handleUserRenamed(msg *protocol.Message) {
	s.mu.Lock()
	if user, ok := s.users[msg.UserID]; ok {
		user.Name = msg.NewName
		s.users[msg.UserID] = user
	}
	s.mu.Unlock()
}

func (s *Session) handleRemotePath(msg *protocol.Message) {
	if msg.Path == nil {
		return
	}
	s.engine.Commit(*msg.Path)
	s.persist()
}
