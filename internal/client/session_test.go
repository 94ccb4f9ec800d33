package client

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sohan181204/collaborative-canvas/internal/presence"
	"github.com/sohan181204/collaborative-canvas/internal/protocol"
	"github.com/sohan181204/collaborative-canvas/internal/snapshot"
)

func stroke(x, y float64) protocol.Path {
	return protocol.Path{
		Points:    []protocol.Point{{x, y}},
		Color:     "#000000",
		Width:     3,
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestSessionLocalOpsEmit(t *testing.T) {
	stub, srv := newRelayStub(t)

	ctrl := New(wsURL(srv), Options{PingInterval: time.Minute})
	defer ctrl.Close()
	session := NewSession(ctrl, nil)

	ctrl.Connect()
	waitFor(t, func() bool { return ctrl.Status() == StatusConnected }, "connected")

	if err := session.Join("team1"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := session.CommitPath(stroke(1, 2)); err != nil {
		t.Fatalf("CommitPath failed: %v", err)
	}
	if err := session.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if err := session.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if err := session.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	want := []protocol.Kind{
		protocol.KindJoin,
		protocol.KindDrawingStart,
		protocol.KindDrawPath,
		protocol.KindUndo,
		protocol.KindRedo,
		protocol.KindClearCanvas,
	}
	waitFor(t, func() bool { return len(stub.messages()) == len(want) }, "emitted frames")
	for i, msg := range stub.messages() {
		if msg.Type != want[i] {
			t.Errorf("Frame %d: expected %q, got %q", i, want[i], msg.Type)
		}
	}
}

func TestSessionNoopsDoNotEmit(t *testing.T) {
	stub, srv := newRelayStub(t)

	ctrl := New(wsURL(srv), Options{PingInterval: time.Minute})
	defer ctrl.Close()
	session := NewSession(ctrl, nil)

	ctrl.Connect()
	waitFor(t, func() bool { return ctrl.Status() == StatusConnected }, "connected")

	// nothing committed: none of these may reach the wire
	if err := session.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if err := session.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if err := session.CommitPath(protocol.Path{}); err != nil {
		t.Fatalf("CommitPath failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if n := len(stub.messages()); n != 0 {
		t.Errorf("No-op operations must not emit, got %d frames", n)
	}
}

func TestSessionAppliesRemoteEvents(t *testing.T) {
	stub, srv := newRelayStub(t)

	ctrl := New(wsURL(srv), Options{PingInterval: time.Minute})
	defer ctrl.Close()
	session := NewSession(ctrl, nil)

	ctrl.Connect()
	waitFor(t, func() bool { return ctrl.Status() == StatusConnected }, "connected")

	stub.push(&protocol.Message{
		Type:   protocol.KindInit,
		UserID: "me",
		Users: map[string]protocol.User{
			"me":   {ID: "me", Name: "User 1", Color: "#111111"},
			"them": {ID: "them", Name: "User 2", Color: "#222222"},
		},
	})
	waitFor(t, func() bool { return session.UserID() == "me" }, "init applied")

	p := stroke(5, 5)
	stub.push(&protocol.Message{Type: protocol.KindDrawPath, Path: &p, UserID: "them"})
	waitFor(t, func() bool {
		committed, _ := session.Counts()
		return committed == 1
	}, "remote path committed")

	stub.push(&protocol.Message{Type: protocol.KindUndo, UserID: "them"})
	waitFor(t, func() bool {
		committed, redo := session.Counts()
		return committed == 0 && redo == 1
	}, "remote undo applied")

	stub.push(&protocol.Message{Type: protocol.KindRedo, UserID: "them"})
	waitFor(t, func() bool {
		committed, redo := session.Counts()
		return committed == 1 && redo == 0
	}, "remote redo applied")

	stub.push(&protocol.Message{Type: protocol.KindUserRenamed, UserID: "them", NewName: "Matisse"})
	waitFor(t, func() bool { return session.Users()["them"].Name == "Matisse" }, "rename applied")

	stub.push(&protocol.Message{Type: protocol.KindUserLeft, UserID: "them"})
	waitFor(t, func() bool {
		_, ok := session.Users()["them"]
		return !ok
	}, "user-left applied")
}

func TestSessionRenameValidatedLocally(t *testing.T) {
	stub, srv := newRelayStub(t)

	ctrl := New(wsURL(srv), Options{PingInterval: time.Minute})
	defer ctrl.Close()
	session := NewSession(ctrl, nil)

	ctrl.Connect()
	waitFor(t, func() bool { return ctrl.Status() == StatusConnected }, "connected")

	if err := session.Rename("ab"); !errors.Is(err, presence.ErrInvalidName) {
		t.Fatalf("Expected ErrInvalidName, got %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if n := len(stub.messages()); n != 0 {
		t.Errorf("Rejected rename must not reach the network, got %d frames", n)
	}

	if err := session.Rename("Frida"); err != nil {
		t.Fatalf("Valid rename failed: %v", err)
	}
	waitFor(t, func() bool { return len(stub.messages()) == 1 }, "rename frame")
	if msg := stub.messages()[0]; msg.Type != protocol.KindRenameUser || msg.NewName != "Frida" {
		t.Errorf("Unexpected rename frame: %+v", msg)
	}
}

func TestSessionSnapshotPersistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "canvas-session-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := snapshot.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	_, srv := newRelayStub(t)
	ctrl := New(wsURL(srv), Options{PingInterval: time.Minute})
	defer ctrl.Close()
	session := NewSession(ctrl, store)

	ctrl.Connect()
	waitFor(t, func() bool { return ctrl.Status() == StatusConnected }, "connected")

	if err := session.Join("team1"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := session.CommitPath(stroke(1, 2)); err != nil {
		t.Fatalf("CommitPath failed: %v", err)
	}

	saved, err := store.Load("team1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("Expected 1 persisted path, got %d", len(saved))
	}

	// a second session for the same room restores the snapshot on join
	ctrl2 := New(wsURL(srv), Options{PingInterval: time.Minute})
	defer ctrl2.Close()
	session2 := NewSession(ctrl2, store)
	ctrl2.Connect()
	waitFor(t, func() bool { return ctrl2.Status() == StatusConnected }, "second connected")

	if err := session2.Join("team1"); err != nil {
		t.Fatalf("Second join failed: %v", err)
	}
	committed, redo := session2.Counts()
	if committed != 1 || redo != 0 {
		t.Errorf("Expected restored (1,0), got (%d,%d)", committed, redo)
	}
}
