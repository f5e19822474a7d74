package document

import (
	"errors"
	"strings"
	"sync"
)

// Errors returned by document operations.
var (
	ErrPointOutOfRange = errors.New("point out of range")
	ErrRangeInvalid    = errors.New("invalid range")
	ErrEditsOverlap    = errors.New("edits overlap or are not in ascending order")
)

// Document is a line-oriented text model with a monotonically increasing
// content version and a raw change-notification stream.
type Document struct {
	// notifyMu serializes mutation+notification pairs so subscribers
	// observe changes in the order the mutations occurred.
	notifyMu sync.Mutex

	mu       sync.RWMutex
	lines    []string
	version  uint64
	language string
	opts     FormattingOptions

	changes *emitter

	langMu   sync.Mutex
	langNext uint64
	langSubs map[uint64]func(languageID string)
}

// Option configures a Document during construction.
type Option func(*Document)

// WithLanguage sets the document's language identifier.
func WithLanguage(id string) Option {
	return func(d *Document) {
		d.language = id
	}
}

// WithFormattingOptions sets the document's formatting options.
func WithFormattingOptions(o FormattingOptions) Option {
	return func(d *Document) {
		if o.TabSize <= 0 {
			o.TabSize = DefaultFormattingOptions().TabSize
		}
		d.opts = o
	}
}

// New creates an empty document.
func New(opts ...Option) *Document {
	d := &Document{
		lines:    []string{""},
		opts:     DefaultFormattingOptions(),
		changes:  newEmitter(),
		langSubs: make(map[uint64]func(string)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromString creates a document with the given initial content.
// The initial content does not produce a change notification.
func NewFromString(text string, opts ...Option) *Document {
	d := New(opts...)
	d.lines = strings.Split(text, "\n")
	return d
}

// Text returns the full document content.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.Join(d.lines, "\n")
}

// Lines returns a copy of all lines.
func (d *Document) Lines() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// Line returns the text of a single line, without its line ending.
// Out-of-range lines return the empty string.
func (d *Document) Line(line uint32) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(line) >= len(d.lines) {
		return ""
	}
	return d.lines[line]
}

// LineCount returns the number of lines. An empty document has one line.
func (d *Document) LineCount() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return uint32(len(d.lines))
}

// Version returns the current content version. The version increases by
// one for every successful mutation (SetText or ApplyEdits batch).
func (d *Document) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Language returns the document's language identifier.
func (d *Document) Language() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.language
}

// Options returns the document's current formatting options.
func (d *Document) Options() FormattingOptions {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.opts
}

// SetOptions replaces the document's formatting options.
func (d *Document) SetOptions(o FormattingOptions) {
	if o.TabSize <= 0 {
		o.TabSize = DefaultFormattingOptions().TabSize
	}
	d.mu.Lock()
	d.opts = o
	d.mu.Unlock()
}

// SetLanguage changes the document's language identifier and notifies
// language-change subscribers. Setting the same identifier is a no-op.
func (d *Document) SetLanguage(id string) {
	d.mu.Lock()
	if d.language == id {
		d.mu.Unlock()
		return
	}
	d.language = id
	d.mu.Unlock()

	d.langMu.Lock()
	handlers := make([]func(string), 0, len(d.langSubs))
	for _, fn := range d.langSubs {
		handlers = append(handlers, fn)
	}
	d.langMu.Unlock()
	for _, fn := range handlers {
		fn(id)
	}
}

// OnChange subscribes fn to the raw content-change stream.
// Delivery is synchronous and in emission order.
func (d *Document) OnChange(fn ChangeHandler) Subscription {
	return d.changes.subscribe(fn)
}

// OnLanguageChange subscribes fn to language identifier changes.
func (d *Document) OnLanguageChange(fn func(languageID string)) Subscription {
	d.langMu.Lock()
	defer d.langMu.Unlock()
	d.langNext++
	id := d.langNext
	d.langSubs[id] = fn
	return &langSub{doc: d, id: id}
}

type langSub struct {
	doc *Document
	id  uint64
}

func (s *langSub) Cancel() {
	s.doc.langMu.Lock()
	defer s.doc.langMu.Unlock()
	delete(s.doc.langSubs, s.id)
}

// SetText replaces the entire content and emits a flush change.
// A flush is emitted even when the new content equals the old content.
func (d *Document) SetText(text string) {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()

	d.mu.Lock()
	d.lines = strings.Split(text, "\n")
	d.version++
	v := d.version
	d.mu.Unlock()

	d.changes.emit([]Change{{Kind: ChangeFlush, Version: v}})
}

// Insert inserts text at a point.
func (d *Document) Insert(at Point, text string) error {
	return d.ApplyEdits([]Edit{NewInsert(at, text)})
}

// Delete removes the text in r.
func (d *Document) Delete(r Range) error {
	return d.ApplyEdits([]Edit{NewDelete(r)})
}

// ApplyEdits applies a batch of edits as one mutation.
//
// Edits must be in ascending document order and must not overlap; they
// are applied back to front so earlier ranges stay valid while later
// ones are spliced. The whole batch bumps the content version exactly
// once, and each constituent edit is classified into the raw change
// events it causes. An empty batch is a no-op: no version bump and no
// notifications.
func (d *Document) ApplyEdits(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}

	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()

	d.mu.Lock()
	for i, e := range edits {
		if !e.Range.IsValid() {
			d.mu.Unlock()
			return ErrRangeInvalid
		}
		if err := d.checkPointLocked(e.Range.Start); err != nil {
			d.mu.Unlock()
			return err
		}
		if err := d.checkPointLocked(e.Range.End); err != nil {
			d.mu.Unlock()
			return err
		}
		if i > 0 && edits[i-1].Range.End.After(e.Range.Start) {
			d.mu.Unlock()
			return ErrEditsOverlap
		}
	}

	d.version++
	var out []Change
	for i := len(edits) - 1; i >= 0; i-- {
		out = append(out, d.spliceLocked(edits[i])...)
	}
	d.mu.Unlock()

	d.changes.emit(out)
	return nil
}

// spliceLocked applies a single edit and returns the raw changes it
// produced. Caller holds d.mu and has already validated the edit.
func (d *Document) spliceLocked(e Edit) []Change {
	s, en := e.Range.Start, e.Range.End
	prefix := d.lines[s.Line][:s.Column]
	suffix := d.lines[en.Line][en.Column:]
	replaced := strings.Split(prefix+e.NewText+suffix, "\n")

	oldSpan := int(en.Line - s.Line)
	newSpan := len(replaced) - 1

	rebuilt := make([]string, 0, len(d.lines)-oldSpan+newSpan)
	rebuilt = append(rebuilt, d.lines[:s.Line]...)
	rebuilt = append(rebuilt, replaced...)
	rebuilt = append(rebuilt, d.lines[en.Line+1:]...)
	d.lines = rebuilt

	changes := []Change{{Kind: ChangeLine, Line: s.Line, Version: d.version}}
	switch {
	case newSpan > oldSpan:
		changes = append(changes, Change{
			Kind:     ChangeInsertLines,
			FromLine: s.Line + 1,
			ToLine:   s.Line + uint32(newSpan-oldSpan),
			Version:  d.version,
		})
	case newSpan < oldSpan:
		changes = append(changes, Change{
			Kind:     ChangeDeleteLines,
			FromLine: s.Line + 1,
			ToLine:   s.Line + uint32(oldSpan-newSpan),
			Version:  d.version,
		})
	}
	return changes
}

// TextRange returns the text inside r.
func (d *Document) TextRange(r Range) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !r.IsValid() {
		return "", ErrRangeInvalid
	}
	if err := d.checkPointLocked(r.Start); err != nil {
		return "", err
	}
	if err := d.checkPointLocked(r.End); err != nil {
		return "", err
	}
	if r.Start.Line == r.End.Line {
		return d.lines[r.Start.Line][r.Start.Column:r.End.Column], nil
	}
	var b strings.Builder
	b.WriteString(d.lines[r.Start.Line][r.Start.Column:])
	for line := r.Start.Line + 1; line < r.End.Line; line++ {
		b.WriteByte('\n')
		b.WriteString(d.lines[line])
	}
	b.WriteByte('\n')
	b.WriteString(d.lines[r.End.Line][:r.End.Column])
	return b.String(), nil
}

// FullRange returns the range covering the entire document.
func (d *Document) FullRange() Range {
	d.mu.RLock()
	defer d.mu.RUnlock()
	last := uint32(len(d.lines) - 1)
	return Range{
		Start: Point{},
		End:   Point{Line: last, Column: uint32(len(d.lines[last]))},
	}
}

// ClampPoint returns the nearest valid point to p.
func (d *Document) ClampPoint(p Point) Point {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(p.Line) >= len(d.lines) {
		p.Line = uint32(len(d.lines) - 1)
		p.Column = uint32(len(d.lines[p.Line]))
		return p
	}
	if int(p.Column) > len(d.lines[p.Line]) {
		p.Column = uint32(len(d.lines[p.Line]))
	}
	return p
}

// checkPointLocked validates that p addresses a position inside the
// document. Caller holds d.mu.
func (d *Document) checkPointLocked(p Point) error {
	if int(p.Line) >= len(d.lines) {
		return ErrPointOutOfRange
	}
	if int(p.Column) > len(d.lines[p.Line]) {
		return ErrPointOutOfRange
	}
	return nil
}
