package history

import (
	"sync"

	"github.com/sohan181204/collaborative-canvas/internal/protocol"
)

// Engine is one client's replica of a room's drawing state: the committed
// stroke sequence plus the redo stack. State transitions are identical for
// locally-issued and remote-origin operations; only the caller decides
// whether to emit an event afterwards, so each operation reports whether it
// mutated anything.
//
// This is deliberately not conflict-free: undo and redo are positional pops
// against this replica's own stacks, and concurrent edits on other replicas
// can make the stacks diverge. The relay accepts that as an
// eventual-consistency approximation.
type Engine struct {
	paths []protocol.Path
	redo  []protocol.Path
	mu    sync.Mutex
}

func NewEngine() *Engine {
	return &Engine{}
}

// Commit appends a completed path to the committed sequence and truncates
// the redo stack: a new stroke invalidates the redo continuation. Paths
// with no points are rejected.
func (e *Engine) Commit(p protocol.Path) bool {
	if len(p.Points) == 0 {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.paths = append(e.paths, p)
	e.redo = e.redo[:0]
	return true
}

// Undo moves the last committed path to the redo stack. No-op on an empty
// committed sequence.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.paths) == 0 {
		return false
	}
	last := e.paths[len(e.paths)-1]
	e.paths = e.paths[:len(e.paths)-1]
	e.redo = append(e.redo, last)
	return true
}

// Redo moves the last undone path back to the committed sequence. No-op on
// an empty redo stack.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.redo) == 0 {
		return false
	}
	last := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.paths = append(e.paths, last)
	return true
}

// Clear empties both sequences.
func (e *Engine) Clear() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.paths) == 0 && len(e.redo) == 0 {
		return false
	}
	e.paths = nil
	e.redo = nil
	return true
}

// Paths returns a copy of the committed sequence, oldest first.
func (e *Engine) Paths() []protocol.Path {
	e.mu.Lock()
	defer e.mu.Unlock()

	paths := make([]protocol.Path, len(e.paths))
	copy(paths, e.paths)
	return paths
}

// Counts returns the committed and redo stack sizes.
func (e *Engine) Counts() (committed, redo int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.paths), len(e.redo)
}

// Restore replaces the committed sequence with a loaded snapshot and drops
// any pending redo. Used when re-entering a room whose state was persisted.
func (e *Engine) Restore(paths []protocol.Path) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.paths = make([]protocol.Path, len(paths))
	copy(e.paths, paths)
	e.redo = nil
}
