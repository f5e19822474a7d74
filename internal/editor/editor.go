// Package editor provides the per-editor-instance surface the
// formatting and hints controllers attach to: a document, a cursor set,
// undo history, typing listeners, view state, and named contributions.
package editor

import (
	"errors"
	"sync"

	"github.com/typewright/typewright/internal/engine/cursor"
	"github.com/typewright/typewright/internal/engine/document"
	"github.com/typewright/typewright/internal/engine/history"
)

// ErrNoDocument is returned by operations that need an attached document.
var ErrNoDocument = errors.New("no document attached")

// Subscription is a handle to an editor event registration.
// Cancel is idempotent.
type Subscription interface {
	Cancel()
}

// Contribution is a feature attached to an editor instance, looked up
// by id. Contributions are disposed with the editor.
type Contribution interface {
	Dispose()
}

// Editor is a single editor instance.
// All methods are safe for concurrent use.
type Editor struct {
	mu      sync.Mutex
	doc     *document.Document
	cursors *cursor.Set
	hist    *history.History
	scroll  Scroll
	focused bool

	nextSubID  uint64
	typing     map[uint64]*typingListener
	docChanged map[uint64]func(*document.Document)

	contribs map[string]Contribution
}

type typingListener struct {
	ch rune
	fn func(ch rune)
}

// New creates an editor with the given document attached.
// A nil document leaves the editor empty until AttachDocument is called.
func New(doc *document.Document) *Editor {
	return &Editor{
		doc:        doc,
		cursors:    cursor.NewSetAt(document.Point{}),
		hist:       history.NewHistory(0),
		typing:     make(map[uint64]*typingListener),
		docChanged: make(map[uint64]func(*document.Document)),
		contribs:   make(map[string]Contribution),
	}
}

// Document returns the attached document, or nil.
func (ed *Editor) Document() *document.Document {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.doc
}

// AttachDocument replaces the attached document, resets the cursor and
// history, and notifies model-change subscribers.
func (ed *Editor) AttachDocument(doc *document.Document) {
	ed.mu.Lock()
	ed.doc = doc
	ed.cursors = cursor.NewSetAt(document.Point{})
	ed.hist = history.NewHistory(0)
	handlers := make([]func(*document.Document), 0, len(ed.docChanged))
	for _, fn := range ed.docChanged {
		handlers = append(handlers, fn)
	}
	ed.mu.Unlock()

	for _, fn := range handlers {
		fn(doc)
	}
}

// OnDidChangeDocument subscribes fn to document attachment changes.
func (ed *Editor) OnDidChangeDocument(fn func(*document.Document)) Subscription {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.nextSubID++
	id := ed.nextSubID
	ed.docChanged[id] = fn
	return &editorSub{cancel: func() {
		ed.mu.Lock()
		defer ed.mu.Unlock()
		delete(ed.docChanged, id)
	}}
}

// Selections returns a copy of the current selections.
func (ed *Editor) Selections() []cursor.Selection {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.cursors.All()
}

// Primary returns the primary selection.
func (ed *Editor) Primary() cursor.Selection {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.cursors.Primary()
}

// SelectionCount returns the number of active selections.
func (ed *Editor) SelectionCount() int {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.cursors.Count()
}

// SetSelection replaces all selections with a single one.
func (ed *Editor) SetSelection(sel cursor.Selection) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.cursors.Set(sel)
}

// SetSelections replaces all selections.
func (ed *Editor) SetSelections(sels []cursor.Selection) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.cursors.SetAll(sels)
}

// AddSelection appends an additional caret or selection.
func (ed *Editor) AddSelection(sel cursor.Selection) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.cursors.Add(sel)
}

// ExecuteCommand runs cmd through the undo history as one atomic,
// undoable unit. The source string names the origin of the command for
// diagnostics; it does not affect behavior.
func (ed *Editor) ExecuteCommand(source string, cmd history.Command) error {
	_ = source
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.doc == nil {
		return ErrNoDocument
	}
	return ed.hist.Execute(cmd, ed.doc, ed.cursors)
}

// Undo reverses the most recent command.
func (ed *Editor) Undo() error {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if ed.doc == nil {
		return ErrNoDocument
	}
	return ed.hist.Undo(ed.doc, ed.cursors)
}

// UndoDepth returns the number of undoable commands.
func (ed *Editor) UndoDepth() int {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.hist.UndoDepth()
}

// Focus gives the editor input focus.
func (ed *Editor) Focus() {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.focused = true
}

// Blur removes input focus.
func (ed *Editor) Blur() {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.focused = false
}

// IsFocused returns true if the editor has input focus.
func (ed *Editor) IsFocused() bool {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.focused
}

// AddContribution attaches a contribution under id, replacing any
// previous contribution with the same id.
func (ed *Editor) AddContribution(id string, c Contribution) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.contribs[id] = c
}

// ContributionByID returns the contribution registered under id, or nil.
func (ed *Editor) ContributionByID(id string) Contribution {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.contribs[id]
}

// Dispose disposes all contributions and clears all listeners.
func (ed *Editor) Dispose() {
	ed.mu.Lock()
	contribs := make([]Contribution, 0, len(ed.contribs))
	for _, c := range ed.contribs {
		contribs = append(contribs, c)
	}
	ed.contribs = make(map[string]Contribution)
	ed.typing = make(map[uint64]*typingListener)
	ed.docChanged = make(map[uint64]func(*document.Document))
	ed.mu.Unlock()

	for _, c := range contribs {
		c.Dispose()
	}
}

type editorSub struct {
	once   sync.Once
	cancel func()
}

func (s *editorSub) Cancel() {
	s.once.Do(s.cancel)
}
