package editor

import (
	"github.com/typewright/typewright/internal/engine/document"
)

// StateFlag selects what a captured state token records and validates.
type StateFlag uint8

const (
	// StateValue tracks the document's content version.
	StateValue StateFlag = 1 << iota

	// StatePosition tracks the primary caret position.
	StatePosition
)

// State is a snapshot of editor state captured before an asynchronous
// operation. Validate reports whether the editor still matches the
// snapshot, per the flags it was captured with.
type State struct {
	flags   StateFlag
	doc     *document.Document
	version uint64
	pos     document.Point
}

// CaptureState snapshots the aspects of the editor selected by flags.
// Returns nil when no document is attached.
func (ed *Editor) CaptureState(flags StateFlag) *State {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.doc == nil {
		return nil
	}
	return &State{
		flags:   flags,
		doc:     ed.doc,
		version: ed.doc.Version(),
		pos:     ed.cursors.Primary().Active,
	}
}

// Validate reports whether the editor still matches the snapshot.
// A snapshot never validates against an editor whose document has been
// swapped out since the capture.
func (s *State) Validate(ed *Editor) bool {
	if s == nil {
		return false
	}
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.doc != s.doc {
		return false
	}
	if s.flags&StateValue != 0 && ed.doc.Version() != s.version {
		return false
	}
	if s.flags&StatePosition != 0 && ed.cursors.Primary().Active != s.pos {
		return false
	}
	return true
}
