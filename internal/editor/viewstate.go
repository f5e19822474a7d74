package editor

import (
	"github.com/typewright/typewright/internal/engine/cursor"
	"github.com/typewright/typewright/internal/engine/document"
)

// Scroll is the viewport position.
type Scroll struct {
	TopLine    uint32
	LeftColumn uint32
}

// ViewState is the externally visible presentation of an editor:
// scroll position plus selections, as opposed to document content.
type ViewState struct {
	Scroll     Scroll
	Selections []cursor.Selection
}

// ScrollPosition returns the current viewport position.
func (ed *Editor) ScrollPosition() Scroll {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ed.scroll
}

// SetScroll moves the viewport.
func (ed *Editor) SetScroll(s Scroll) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	ed.scroll = s
}

// SaveViewState snapshots scroll position and selections.
func (ed *Editor) SaveViewState() ViewState {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	return ViewState{
		Scroll:     ed.scroll,
		Selections: ed.cursors.All(),
	}
}

// RestoreViewState restores a previously saved view state, clamping
// scroll and selection positions against the current document so a
// restore after content shrank stays in bounds.
func (ed *Editor) RestoreViewState(vs ViewState) {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	if ed.doc != nil {
		lineCount := ed.doc.LineCount()
		if vs.Scroll.TopLine >= lineCount {
			vs.Scroll.TopLine = lineCount - 1
		}
		width := uint32(document.DisplayWidth(ed.doc.Line(vs.Scroll.TopLine), ed.doc.Options().TabSize))
		if vs.Scroll.LeftColumn > width {
			vs.Scroll.LeftColumn = width
		}

		clamped := make([]cursor.Selection, len(vs.Selections))
		for i, sel := range vs.Selections {
			clamped[i] = cursor.NewSelection(
				ed.doc.ClampPoint(sel.Anchor),
				ed.doc.ClampPoint(sel.Active),
			)
		}
		vs.Selections = clamped
	}

	ed.scroll = vs.Scroll
	ed.cursors.SetAll(vs.Selections)
}
