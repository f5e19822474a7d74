package cursor

import (
	"testing"

	"github.com/typewright/typewright/internal/engine/document"
)

func TestSelectionNormalization(t *testing.T) {
	a := document.Point{Line: 2, Column: 4}
	b := document.Point{Line: 0, Column: 1}

	sel := NewSelection(a, b)

	if !sel.IsReversed() {
		t.Error("expected reversed selection")
	}
	if sel.Start() != b {
		t.Errorf("expected start %v, got %v", b, sel.Start())
	}
	if sel.End() != a {
		t.Errorf("expected end %v, got %v", a, sel.End())
	}
	if sel.Range() != (document.Range{Start: b, End: a}) {
		t.Errorf("unexpected range %v", sel.Range())
	}
}

func TestSelectionIsEmpty(t *testing.T) {
	p := document.Point{Line: 1, Column: 1}

	if !At(p).IsEmpty() {
		t.Error("caret should be empty")
	}
	if NewSelection(p, document.Point{Line: 1, Column: 2}).IsEmpty() {
		t.Error("span should not be empty")
	}
}

func TestSetPrimaryAndMulti(t *testing.T) {
	s := NewSetAt(document.Point{})

	if s.IsMulti() {
		t.Error("single caret should not be multi")
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 selection, got %d", s.Count())
	}

	s.Add(At(document.Point{Line: 1, Column: 0}))
	if !s.IsMulti() {
		t.Error("expected multi after Add")
	}

	s.Set(At(document.Point{Line: 2, Column: 3}))
	if s.IsMulti() {
		t.Error("Set should collapse to a single selection")
	}
	if s.Primary().Active != (document.Point{Line: 2, Column: 3}) {
		t.Errorf("unexpected primary %v", s.Primary())
	}
}

func TestSetAllEmptyResets(t *testing.T) {
	s := NewSetAt(document.Point{Line: 3, Column: 1})
	s.SetAll(nil)

	if s.Count() != 1 {
		t.Fatalf("expected 1 selection, got %d", s.Count())
	}
	if s.Primary().Active != (document.Point{}) {
		t.Errorf("expected caret at origin, got %v", s.Primary())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewSetAt(document.Point{})
	c := s.Clone()

	c.Add(At(document.Point{Line: 1, Column: 0}))
	if s.IsMulti() {
		t.Error("mutating the clone must not affect the original")
	}
}
