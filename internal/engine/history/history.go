// Package history provides undoable edit commands and the undo/redo
// stack. Every executed command produces exactly one undo entry, no
// matter how many individual edits it bundles.
package history

import (
	"errors"
	"sync"
	"time"

	"github.com/typewright/typewright/internal/engine/cursor"
	"github.com/typewright/typewright/internal/engine/document"
)

// Errors returned by history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Command represents a composable edit action that can be executed and
// undone against a document and its cursor set.
type Command interface {
	// Execute performs the command.
	Execute(doc *document.Document, cursors *cursor.Set) error

	// Undo reverses the command.
	Undo(doc *document.Document, cursors *cursor.Set) error

	// Description returns a human-readable description of the command.
	Description() string
}

type entry struct {
	command   Command
	timestamp time.Time
}

// History manages undo/redo state for a document.
type History struct {
	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry

	maxEntries int
}

// NewHistory creates a new history manager.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &History{maxEntries: maxEntries}
}

// Execute runs a command and, on success, pushes exactly one entry onto
// the undo stack.
func (h *History) Execute(cmd Command, doc *document.Document, cursors *cursor.Set) error {
	if err := cmd.Execute(doc, cursors); err != nil {
		return err
	}
	h.push(cmd)
	return nil
}

func (h *History) push(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = append(h.undoStack, &entry{command: cmd, timestamp: time.Now()})
	h.redoStack = nil

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// Undo reverses the most recent command.
func (h *History) Undo(doc *document.Document, cursors *cursor.Set) error {
	h.mu.Lock()
	if len(h.undoStack) == 0 {
		h.mu.Unlock()
		return ErrNothingToUndo
	}
	e := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.mu.Unlock()

	if err := e.command.Undo(doc, cursors); err != nil {
		h.mu.Lock()
		h.undoStack = append(h.undoStack, e)
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	h.redoStack = append(h.redoStack, e)
	h.mu.Unlock()
	return nil
}

// Redo re-applies the most recently undone command.
func (h *History) Redo(doc *document.Document, cursors *cursor.Set) error {
	h.mu.Lock()
	if len(h.redoStack) == 0 {
		h.mu.Unlock()
		return ErrNothingToRedo
	}
	e := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.mu.Unlock()

	if err := e.command.Execute(doc, cursors); err != nil {
		h.mu.Lock()
		h.redoStack = append(h.redoStack, e)
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	h.undoStack = append(h.undoStack, e)
	h.mu.Unlock()
	return nil
}

// UndoDepth returns the number of entries on the undo stack.
func (h *History) UndoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoDepth returns the number of entries on the redo stack.
func (h *History) RedoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// CanUndo returns true if there is anything to undo.
func (h *History) CanUndo() bool {
	return h.UndoDepth() > 0
}
