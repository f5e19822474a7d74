package cursor

import "github.com/typewright/typewright/internal/engine/document"

// Set holds one or more selections. The first selection is the primary
// one. A Set always contains at least one selection.
//
// Set is not safe for concurrent use; the owning editor serializes
// access to it.
type Set struct {
	sels []Selection
}

// NewSet creates a set holding a single selection.
func NewSet(initial Selection) *Set {
	return &Set{sels: []Selection{initial}}
}

// NewSetAt creates a set with a single caret at p.
func NewSetAt(p document.Point) *Set {
	return NewSet(At(p))
}

// Primary returns the primary selection.
func (s *Set) Primary() Selection {
	return s.sels[0]
}

// All returns a copy of all selections.
func (s *Set) All() []Selection {
	out := make([]Selection, len(s.sels))
	copy(out, s.sels)
	return out
}

// Count returns the number of selections.
func (s *Set) Count() int {
	return len(s.sels)
}

// IsMulti returns true if more than one selection is active.
func (s *Set) IsMulti() bool {
	return len(s.sels) > 1
}

// HasSelection returns true if any selection is non-empty.
func (s *Set) HasSelection() bool {
	for _, sel := range s.sels {
		if !sel.IsEmpty() {
			return true
		}
	}
	return false
}

// Set replaces all selections with a single one.
func (s *Set) Set(sel Selection) {
	s.sels = []Selection{sel}
}

// SetAll replaces all selections. An empty slice resets to a caret at
// the document start.
func (s *Set) SetAll(sels []Selection) {
	if len(sels) == 0 {
		s.sels = []Selection{At(document.Point{})}
		return
	}
	s.sels = make([]Selection, len(sels))
	copy(s.sels, sels)
}

// Add appends a selection to the set.
func (s *Set) Add(sel Selection) {
	s.sels = append(s.sels, sel)
}

// CollapseAll collapses every selection to its active point.
func (s *Set) CollapseAll() {
	for i, sel := range s.sels {
		s.sels[i] = At(sel.Active)
	}
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	c := &Set{sels: make([]Selection, len(s.sels))}
	copy(c.sels, s.sels)
	return c
}
