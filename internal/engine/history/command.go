package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/typewright/typewright/internal/engine/cursor"
	"github.com/typewright/typewright/internal/engine/document"
)

// EditCommand applies an ordered batch of text edits as one atomic,
// undoable unit and computes a resulting selection spanning the net
// effect of the batch. It is the command object behind formatting
// applies.
type EditCommand struct {
	edits  []document.Edit
	source cursor.Selection

	prevText string
	before   []cursor.Selection
}

// NewEditCommand creates a command for the given edits. The source
// selection is the selection the edits originate from: when it is a
// plain caret the resulting cursor collapses at the end of the net
// effect, otherwise the resulting selection spans the whole effect.
func NewEditCommand(edits []document.Edit, source cursor.Selection) *EditCommand {
	return &EditCommand{edits: edits, source: source}
}

// Execute applies all edits in one document mutation.
func (c *EditCommand) Execute(doc *document.Document, cursors *cursor.Set) error {
	if len(c.edits) == 0 {
		return nil
	}

	// The suffix after the last edit is untouched, so the net end of
	// the batch sits at a fixed distance from the document end. Measure
	// that distance before applying.
	last := c.edits[len(c.edits)-1].Range.End
	tailLines := doc.LineCount() - 1 - last.Line
	tailCols := uint32(len(doc.Line(last.Line))) - last.Column

	c.prevText = doc.Text()
	c.before = cursors.All()

	if err := doc.ApplyEdits(c.edits); err != nil {
		return err
	}

	endLine := doc.LineCount() - 1 - tailLines
	end := document.Point{
		Line:   endLine,
		Column: uint32(len(doc.Line(endLine))) - tailCols,
	}

	if c.source.IsEmpty() {
		cursors.Set(cursor.At(end))
	} else {
		cursors.Set(cursor.NewSelection(c.edits[0].Range.Start, end))
	}
	return nil
}

// Undo restores the pre-execute content and selections. The restore is
// a full-content replace, which deliberately invalidates any formatting
// context still pending against the edited state.
func (c *EditCommand) Undo(doc *document.Document, cursors *cursor.Set) error {
	doc.SetText(c.prevText)
	cursors.SetAll(c.before)
	return nil
}

// Description returns a human-readable description of the command.
func (c *EditCommand) Description() string {
	return fmt.Sprintf("apply %d formatting edit(s)", len(c.edits))
}

// InsertCommand inserts the same text at every selection, replacing
// non-empty selections. Carets end up after their inserted text.
type InsertCommand struct {
	Text string

	prevText string
	before   []cursor.Selection
}

// NewInsertCommand creates a new insert command.
func NewInsertCommand(text string) *InsertCommand {
	return &InsertCommand{Text: text}
}

// Execute inserts the text at all selections as one document mutation.
func (c *InsertCommand) Execute(doc *document.Document, cursors *cursor.Set) error {
	if c.Text == "" {
		return nil
	}

	c.prevText = doc.Text()
	c.before = cursors.All()

	sels := cursors.All()
	sort.Slice(sels, func(i, j int) bool {
		return sels[i].Start().Before(sels[j].Start())
	})

	edits := make([]document.Edit, len(sels))
	for i, sel := range sels {
		edits[i] = document.NewEdit(sel.Range(), c.Text)
	}
	if err := doc.ApplyEdits(edits); err != nil {
		return err
	}

	newSpan := strings.Count(c.Text, "\n")
	lastSeg := c.Text[strings.LastIndexByte(c.Text, '\n')+1:]

	// Remap each caret into post-edit coordinates. Edits are ascending,
	// so each one only shifts positions at or after its own end.
	newSels := make([]cursor.Selection, len(sels))
	lineDelta := 0
	var lastEnd, lastCaret document.Point
	havePrev := false
	for i, sel := range sels {
		r := sel.Range()

		var start document.Point
		if havePrev && r.Start.Line == lastEnd.Line {
			start = document.Point{
				Line:   lastCaret.Line,
				Column: lastCaret.Column + (r.Start.Column - lastEnd.Column),
			}
		} else {
			start = document.Point{
				Line:   uint32(int(r.Start.Line) + lineDelta),
				Column: r.Start.Column,
			}
		}

		var caret document.Point
		if newSpan == 0 {
			caret = document.Point{Line: start.Line, Column: start.Column + uint32(len(c.Text))}
		} else {
			caret = document.Point{Line: start.Line + uint32(newSpan), Column: uint32(len(lastSeg))}
		}
		newSels[i] = cursor.At(caret)

		lineDelta += newSpan - int(r.End.Line-r.Start.Line)
		lastEnd = r.End
		lastCaret = caret
		havePrev = true
	}
	cursors.SetAll(newSels)
	return nil
}

// Undo restores the pre-execute content and selections.
func (c *InsertCommand) Undo(doc *document.Document, cursors *cursor.Set) error {
	doc.SetText(c.prevText)
	cursors.SetAll(c.before)
	return nil
}

// Description returns a human-readable description of the command.
func (c *InsertCommand) Description() string {
	text := c.Text
	if len(text) > 16 {
		text = text[:16] + "..."
	}
	return fmt.Sprintf("insert %q", text)
}
