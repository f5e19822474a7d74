package format

import (
	"context"

	"github.com/typewright/typewright/internal/editor"
	"github.com/typewright/typewright/internal/engine/cursor"
	"github.com/typewright/typewright/internal/engine/document"
)

// ActionID is the command identifier of the manual format action.
const ActionID = "typewright.action.format"

// Action is the user-invoked "format document or selection" command.
// An empty selection formats the whole document and restores the view
// state afterwards; a non-empty selection formats just that range and
// lets the resulting selection stand.
type Action struct {
	registry *Registry
}

// NewAction creates the format action backed by a provider registry.
func NewAction(reg *Registry) *Action {
	return &Action{registry: reg}
}

// Supported reports whether the action should be offered for the
// editor: a document must be attached and at least one whole-document
// or range provider must be registered for its language.
func (a *Action) Supported(ed *editor.Editor) bool {
	doc := ed.Document()
	if doc == nil {
		return false
	}
	return a.registry.HasFormatter(doc.Language())
}

// Run executes the action. Stale or empty results are abandoned
// silently; provider failures propagate to the caller.
func (a *Action) Run(ctx context.Context, ed *editor.Editor) error {
	doc := ed.Document()
	if doc == nil {
		return nil
	}

	sel := ed.Primary()
	opts := doc.Options()

	var request func() ([]document.Edit, error)
	if sel.IsEmpty() {
		provider := a.registry.DocumentFor(doc.Language())
		if provider == nil {
			return nil
		}
		request = func() ([]document.Edit, error) {
			return provider.DocumentEdits(ctx, doc, opts)
		}
	} else {
		provider := a.registry.RangeFor(doc.Language())
		if provider == nil {
			return nil
		}
		request = func() ([]document.Edit, error) {
			return provider.RangeEdits(ctx, doc, sel.Range(), opts)
		}
	}

	state := ed.CaptureState(editor.StateValue | editor.StatePosition)

	edits, err := request()
	if err != nil {
		return err
	}
	if !state.Validate(ed) {
		return nil
	}
	if len(edits) == 0 {
		return nil
	}

	if err := a.apply(ed, sel, edits); err != nil {
		return err
	}
	ed.Focus()
	return nil
}

// apply executes the edits, bracketing a whole-document format with a
// view-state save/restore so the viewport and cursor do not visibly
// jump when the user had no explicit selection.
func (a *Action) apply(ed *editor.Editor, sel cursor.Selection, edits []document.Edit) error {
	if sel.IsEmpty() {
		vs := ed.SaveViewState()
		defer ed.RestoreViewState(vs)
	}
	return ApplyEdits(ed, sel, edits)
}
