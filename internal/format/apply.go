package format

import (
	"github.com/typewright/typewright/internal/editor"
	"github.com/typewright/typewright/internal/engine/cursor"
	"github.com/typewright/typewright/internal/engine/document"
	"github.com/typewright/typewright/internal/engine/history"
)

// ApplyEdits turns a provider's edit list plus the originating
// selection into a single undoable command and executes it. The whole
// list is applied in full or not at all, and exactly one undo entry
// results. An empty list is a no-op that touches neither the document
// nor the undo history.
func ApplyEdits(ed *editor.Editor, source cursor.Selection, edits []document.Edit) error {
	if len(edits) == 0 {
		return nil
	}
	return ed.ExecuteCommand("formatting", history.NewEditCommand(edits, source))
}
