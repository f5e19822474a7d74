// Package cursor provides selections and multi-caret cursor sets.
package cursor

import "github.com/typewright/typewright/internal/engine/document"

// Selection is a directed span of text. Anchor is where the selection
// started, Active is where the caret currently is. A collapsed selection
// (Anchor == Active) is a plain caret.
type Selection struct {
	Anchor document.Point
	Active document.Point
}

// At returns a collapsed selection at p.
func At(p document.Point) Selection {
	return Selection{Anchor: p, Active: p}
}

// NewSelection returns a selection from anchor to active.
func NewSelection(anchor, active document.Point) Selection {
	return Selection{Anchor: anchor, Active: active}
}

// IsEmpty returns true if the selection is a plain caret.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Active
}

// Start returns the earlier of Anchor and Active.
func (s Selection) Start() document.Point {
	if s.Anchor.After(s.Active) {
		return s.Active
	}
	return s.Anchor
}

// End returns the later of Anchor and Active.
func (s Selection) End() document.Point {
	if s.Anchor.After(s.Active) {
		return s.Anchor
	}
	return s.Active
}

// Range returns the selection as a normalized document range.
func (s Selection) Range() document.Range {
	return document.Range{Start: s.Start(), End: s.End()}
}

// IsReversed returns true if the caret sits before the anchor.
func (s Selection) IsReversed() bool {
	return s.Active.Before(s.Anchor)
}
