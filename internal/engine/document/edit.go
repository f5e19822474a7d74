package document

import "fmt"

// Edit represents a single text edit operation: a range to replace and
// the replacement text. Formatting providers return sequences of edits
// ordered front to back; the sequence order is preserved by the engine.
type Edit struct {
	Range   Range
	NewText string
}

// NewEdit creates an edit replacing r with newText.
func NewEdit(r Range, newText string) Edit {
	return Edit{Range: r, NewText: newText}
}

// NewInsert creates an edit inserting text at a point.
func NewInsert(at Point, text string) Edit {
	return Edit{Range: PointRange(at), NewText: text}
}

// NewDelete creates an edit removing the text in r.
func NewDelete(r Range) Edit {
	return Edit{Range: r}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	if e.Range.IsEmpty() {
		return fmt.Sprintf("Insert(%s, %q)", e.Range.Start, e.NewText)
	}
	if e.NewText == "" {
		return fmt.Sprintf("Delete%s", e.Range)
	}
	return fmt.Sprintf("Replace%s with %q", e.Range, e.NewText)
}

// IsNoOp returns true if applying the edit would not change any text.
func (e Edit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == ""
}
