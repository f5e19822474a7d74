package indent

import (
	"context"
	"testing"

	"github.com/typewright/typewright/internal/engine/document"
	"github.com/typewright/typewright/internal/format"
)

var (
	_ format.OnTypeProvider   = (*Provider)(nil)
	_ format.DocumentProvider = (*Provider)(nil)
	_ format.RangeProvider    = (*Provider)(nil)
)

var twoSpaces = document.FormattingOptions{TabSize: 2, InsertSpaces: true}

// applied runs the provider edits against the document and returns the
// resulting text.
func applied(t *testing.T, doc *document.Document, edits []document.Edit) string {
	t.Helper()
	if err := doc.ApplyEdits(edits); err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	return doc.Text()
}

func TestNewlineAfterOpenBrace(t *testing.T) {
	doc := document.NewFromString("if x {\n")
	edits, err := New().OnTypeEdits(context.Background(), doc, document.Point{Line: 1, Column: 0}, '\n', twoSpaces)
	if err != nil {
		t.Fatalf("OnTypeEdits: %v", err)
	}
	if got := applied(t, doc, edits); got != "if x {\n  " {
		t.Errorf("unexpected text %q", got)
	}
}

func TestNewlinePreservesIndent(t *testing.T) {
	doc := document.NewFromString("  x := 1\n")
	edits, err := New().OnTypeEdits(context.Background(), doc, document.Point{Line: 1, Column: 0}, '\n', twoSpaces)
	if err != nil {
		t.Fatalf("OnTypeEdits: %v", err)
	}
	if got := applied(t, doc, edits); got != "  x := 1\n  " {
		t.Errorf("unexpected text %q", got)
	}
}

func TestNewlineWithTabs(t *testing.T) {
	doc := document.NewFromString("\tfor {\n")
	opts := document.FormattingOptions{TabSize: 4, InsertSpaces: false}
	edits, err := New().OnTypeEdits(context.Background(), doc, document.Point{Line: 1, Column: 0}, '\n', opts)
	if err != nil {
		t.Fatalf("OnTypeEdits: %v", err)
	}
	if got := applied(t, doc, edits); got != "\tfor {\n\t\t" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestNewlineAlreadyIndented(t *testing.T) {
	doc := document.NewFromString("if x {\n  y")
	edits, err := New().OnTypeEdits(context.Background(), doc, document.Point{Line: 1, Column: 0}, '\n', twoSpaces)
	if err != nil {
		t.Fatalf("OnTypeEdits: %v", err)
	}
	if edits != nil {
		t.Errorf("a correctly indented line needs no edit, got %v", edits)
	}
}

func TestNewlineOnFirstLine(t *testing.T) {
	doc := document.NewFromString("x")
	edits, err := New().OnTypeEdits(context.Background(), doc, document.Point{Line: 0, Column: 0}, '\n', twoSpaces)
	if err != nil {
		t.Fatalf("OnTypeEdits: %v", err)
	}
	if edits != nil {
		t.Errorf("expected no edits, got %v", edits)
	}
}

func TestCloseBraceAlignsWithOpener(t *testing.T) {
	doc := document.NewFromString("if x {\n  y()\n  }")
	edits, err := New().OnTypeEdits(context.Background(), doc, document.Point{Line: 2, Column: 3}, '}', twoSpaces)
	if err != nil {
		t.Fatalf("OnTypeEdits: %v", err)
	}
	if got := applied(t, doc, edits); got != "if x {\n  y()\n}" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestCloseBraceNestedBlocks(t *testing.T) {
	doc := document.NewFromString("a {\n  b {\n    x\n}")
	edits, err := New().OnTypeEdits(context.Background(), doc, document.Point{Line: 3, Column: 1}, '}', twoSpaces)
	if err != nil {
		t.Fatalf("OnTypeEdits: %v", err)
	}
	if got := applied(t, doc, edits); got != "a {\n  b {\n    x\n  }" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestCloseBraceAfterCode(t *testing.T) {
	// A brace closing an inline block stays where it was typed.
	doc := document.NewFromString("x := f(func() {}")
	edits, err := New().OnTypeEdits(context.Background(), doc, document.Point{Line: 0, Column: 16}, '}', twoSpaces)
	if err != nil {
		t.Fatalf("OnTypeEdits: %v", err)
	}
	if edits != nil {
		t.Errorf("expected no edits, got %v", edits)
	}
}

func TestCloseBraceWithoutOpener(t *testing.T) {
	doc := document.NewFromString("  }")
	edits, err := New().OnTypeEdits(context.Background(), doc, document.Point{Line: 0, Column: 3}, '}', twoSpaces)
	if err != nil {
		t.Fatalf("OnTypeEdits: %v", err)
	}
	if edits != nil {
		t.Errorf("an unmatched brace must be left alone, got %v", edits)
	}
}

func TestDocumentEditsNormalizeWhitespace(t *testing.T) {
	doc := document.NewFromString("\tx := 1  \n   y\n\t \nz")
	opts := document.FormattingOptions{TabSize: 4, InsertSpaces: true}
	edits, err := New().DocumentEdits(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("DocumentEdits: %v", err)
	}
	if got := applied(t, doc, edits); got != "    x := 1\n   y\n\nz" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestDocumentEditsToTabs(t *testing.T) {
	doc := document.NewFromString("    x\n      y")
	opts := document.FormattingOptions{TabSize: 4, InsertSpaces: false}
	edits, err := New().DocumentEdits(context.Background(), doc, opts)
	if err != nil {
		t.Fatalf("DocumentEdits: %v", err)
	}
	if got := applied(t, doc, edits); got != "\tx\n\t  y" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestDocumentEditsCleanInput(t *testing.T) {
	doc := document.NewFromString("x\n    y\nz")
	edits, err := New().DocumentEdits(context.Background(), doc, document.DefaultFormattingOptions())
	if err != nil {
		t.Fatalf("DocumentEdits: %v", err)
	}
	if edits != nil {
		t.Errorf("clean input needs no edits, got %v", edits)
	}
}

func TestRangeEditsTouchOnlyRangeLines(t *testing.T) {
	doc := document.NewFromString("a  \nb  \nc  ")
	r := document.Range{
		Start: document.Point{Line: 1, Column: 0},
		End:   document.Point{Line: 1, Column: 1},
	}
	edits, err := New().RangeEdits(context.Background(), doc, r, document.DefaultFormattingOptions())
	if err != nil {
		t.Fatalf("RangeEdits: %v", err)
	}
	if got := applied(t, doc, edits); got != "a  \nb\nc  " {
		t.Errorf("lines outside the range must not change, got %q", got)
	}
}
