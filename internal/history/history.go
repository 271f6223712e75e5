// Package history implements bounded snapshot undo/redo over a whole document.
package history

import (
	"errors"

	"github.com/fraction12/wireflow/internal/document"
)

// DefaultDepth is the number of undo entries kept when no depth is given.
const DefaultDepth = 100

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// History is a two-stack snapshot history. It is not safe for concurrent
// use; the engine that owns it is the single writer.
type History struct {
	undoStack []document.Snapshot
	redoStack []document.Snapshot

	maxEntries int
}

// New creates a history keeping at most depth undo entries.
func New(depth int) *History {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &History{maxEntries: depth}
}

// Record pushes a pre-mutation snapshot and clears the redo stack. The
// snapshot is stored as given; callers pass a fresh deep copy.
func (h *History) Record(snap document.Snapshot) {
	h.undoStack = append(h.undoStack, snap)
	h.redoStack = nil

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		clear(h.undoStack[:excess])
		h.undoStack = h.undoStack[excess:]
	}
}

// Undo pops the newest undo entry, pushes current onto the redo stack and
// returns the snapshot to restore.
func (h *History) Undo(current document.Snapshot) (document.Snapshot, error) {
	if len(h.undoStack) == 0 {
		return document.Snapshot{}, ErrNothingToUndo
	}
	snap := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, current)
	return snap, nil
}

// Redo is the mirror of Undo.
func (h *History) Redo(current document.Snapshot) (document.Snapshot, error) {
	if len(h.redoStack) == 0 {
		return document.Snapshot{}, ErrNothingToRedo
	}
	snap := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, current)
	return snap, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

// UndoCount returns the number of undo entries.
func (h *History) UndoCount() int { return len(h.undoStack) }

// RedoCount returns the number of redo entries.
func (h *History) RedoCount() int { return len(h.redoStack) }

// Depth returns the configured maximum number of undo entries.
func (h *History) Depth() int { return h.maxEntries }

// Clear drops both stacks.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}
