package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the message envelope.
type Kind string

const (
	KindJoin         Kind = "join"
	KindInit         Kind = "init"
	KindUserJoined   Kind = "user-joined"
	KindUserLeft     Kind = "user-left"
	KindRenameUser   Kind = "rename-user"
	KindUserRenamed  Kind = "user-renamed"
	KindDrawingStart Kind = "drawing-start"
	KindDrawPath     Kind = "draw-path"
	KindUndo         Kind = "undo"
	KindRedo         Kind = "redo"
	KindClearCanvas  Kind = "clear-canvas"
	KindCursorMove   Kind = "cursor-move"
	KindPing         Kind = "ping"
	KindPong         Kind = "pong"
)

// Known reports whether k is part of the closed message set. Unrecognized
// kinds are still decodable; routers log and drop them.
func Known(k Kind) bool {
	switch k {
	case KindJoin, KindInit, KindUserJoined, KindUserLeft,
		KindRenameUser, KindUserRenamed, KindDrawingStart, KindDrawPath,
		KindUndo, KindRedo, KindClearCanvas, KindCursorMove,
		KindPing, KindPong:
		return true
	}
	return false
}

// Point is one sampled (x, y) position of a drawing gesture.
type Point [2]float64

// Path is one completed freehand stroke. Immutable once created; a path
// only ever moves between a history's committed and redo stacks.
type Path struct {
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	Erasing   bool    `json:"erasing"`
	Timestamp int64   `json:"timestamp"`
	UserID    string  `json:"userId,omitempty"`
}

// User is the presence record shared in init and user-joined payloads.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Message is the envelope for every frame in both directions. Only the
// fields relevant to a given Kind are populated; the rest are omitted.
type Message struct {
	Type    Kind            `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	UserID  string          `json:"userId,omitempty"`
	User    *User           `json:"user,omitempty"`
	Users   map[string]User `json:"users,omitempty"`
	NewName string          `json:"newName,omitempty"`
	Path    *Path           `json:"path,omitempty"`
	X       float64         `json:"x,omitempty"`
	Y       float64         `json:"y,omitempty"`
}

// Decode parses one envelope. Field order and unknown extra fields are
// irrelevant; only the type discriminator and the known field set matter.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("malformed message: missing type")
	}
	return &msg, nil
}

// Encode serializes the envelope for the wire.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
