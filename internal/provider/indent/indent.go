// Package indent is the built-in whitespace formatting provider: an
// on-type provider that re-indents after newlines and closing braces,
// and a whole-document/range formatter that trims trailing whitespace
// and normalizes indentation to the document's formatting options.
package indent

import (
	"context"
	"strings"

	"github.com/typewright/typewright/internal/engine/document"
)

// Provider implements the on-type, whole-document, and range formatting
// capabilities. The zero value is ready to use.
type Provider struct{}

// New returns the built-in indentation provider.
func New() *Provider { return &Provider{} }

// TriggerCharacters declares the on-type triggers: newline re-indents
// the fresh line, a closing brace re-aligns with its opener.
func (*Provider) TriggerCharacters() []rune { return []rune{'\n', '}'} }

// OnTypeEdits computes the re-indentation edit for a typed trigger
// character. pos is the caret position after the character was
// inserted.
func (p *Provider) OnTypeEdits(_ context.Context, doc *document.Document, pos document.Point, ch rune, opts document.FormattingOptions) ([]document.Edit, error) {
	switch ch {
	case '\n':
		return newlineEdits(doc, pos, opts), nil
	case '}':
		return closeBraceEdits(doc, pos), nil
	}
	return nil, nil
}

// newlineEdits indents the line the caret landed on: the previous
// line's indentation, plus one level when it ends in an opening
// bracket.
func newlineEdits(doc *document.Document, pos document.Point, opts document.FormattingOptions) []document.Edit {
	if pos.Line == 0 {
		return nil
	}
	prev := doc.Line(pos.Line - 1)
	want := leadingWhitespace(prev)
	if opensBlock(prev) {
		want += opts.Indent()
	}

	cur := doc.Line(pos.Line)
	have := leadingWhitespace(cur)
	if have == want {
		return nil
	}
	return []document.Edit{document.NewEdit(document.Range{
		Start: document.Point{Line: pos.Line, Column: 0},
		End:   document.Point{Line: pos.Line, Column: uint32(len(have))},
	}, want)}
}

// closeBraceEdits aligns a closing brace typed on an otherwise blank
// line with the line that opened its block. The brace is included in
// the replacement so the caret ends up after it.
func closeBraceEdits(doc *document.Document, pos document.Point) []document.Edit {
	if pos.Column == 0 {
		return nil
	}
	line := doc.Line(pos.Line)
	brace := pos.Column - 1
	if int(brace) >= len(line) || line[brace] != '}' {
		return nil
	}
	if strings.TrimSpace(line[:brace]) != "" {
		return nil
	}

	want, ok := openerIndent(doc, pos.Line)
	if !ok || want == line[:brace] {
		return nil
	}
	return []document.Edit{document.NewEdit(document.Range{
		Start: document.Point{Line: pos.Line, Column: 0},
		End:   document.Point{Line: pos.Line, Column: pos.Column},
	}, want+"}")}
}

// openerIndent scans upward for the line holding the brace that the
// closing brace on braceLine matches, and returns that line's
// indentation.
func openerIndent(doc *document.Document, braceLine uint32) (string, bool) {
	depth := 1
	for line := int(braceLine) - 1; line >= 0; line-- {
		text := doc.Line(uint32(line))
		for i := len(text) - 1; i >= 0; i-- {
			switch text[i] {
			case '}':
				depth++
			case '{':
				depth--
				if depth == 0 {
					return leadingWhitespace(text), true
				}
			}
		}
	}
	return "", false
}

// DocumentEdits normalizes whitespace across the whole document.
func (p *Provider) DocumentEdits(_ context.Context, doc *document.Document, opts document.FormattingOptions) ([]document.Edit, error) {
	return lineEdits(doc, 0, doc.LineCount()-1, opts), nil
}

// RangeEdits normalizes whitespace on every line the range touches.
func (p *Provider) RangeEdits(_ context.Context, doc *document.Document, r document.Range, opts document.FormattingOptions) ([]document.Edit, error) {
	return lineEdits(doc, r.Start.Line, r.End.Line, opts), nil
}

// lineEdits emits, per line in [from, to], one full-line replacement
// that trims trailing whitespace and rewrites the indentation in the
// configured style at the same display depth. Unchanged lines produce
// no edit, so the returned list stays ascending and non-overlapping.
func lineEdits(doc *document.Document, from, to uint32, opts document.FormattingOptions) []document.Edit {
	var edits []document.Edit
	for line := from; line <= to; line++ {
		orig := doc.Line(line)
		formatted := formatLine(orig, opts)
		if formatted == orig {
			continue
		}
		edits = append(edits, document.NewEdit(document.Range{
			Start: document.Point{Line: line, Column: 0},
			End:   document.Point{Line: line, Column: uint32(len(orig))},
		}, formatted))
	}
	return edits
}

func formatLine(line string, opts document.FormattingOptions) string {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return ""
	}
	lead := leadingWhitespace(trimmed)
	return indentFor(indentWidth(lead, opts.TabSize), opts) + trimmed[len(lead):]
}

// indentWidth is the display width of a run of indentation whitespace,
// with tabs advancing to the next tab stop.
func indentWidth(ws string, tabSize int) int {
	if tabSize <= 0 {
		tabSize = 4
	}
	w := 0
	for i := 0; i < len(ws); i++ {
		if ws[i] == '\t' {
			w += tabSize - w%tabSize
		} else {
			w++
		}
	}
	return w
}

// indentFor renders width display columns of indentation in the
// configured style.
func indentFor(width int, opts document.FormattingOptions) string {
	if opts.InsertSpaces {
		return strings.Repeat(" ", width)
	}
	tabSize := opts.TabSize
	if tabSize <= 0 {
		tabSize = 4
	}
	return strings.Repeat("\t", width/tabSize) + strings.Repeat(" ", width%tabSize)
}

// opensBlock reports whether a line's last non-whitespace character
// opens a bracketed block.
func opensBlock(line string) bool {
	t := strings.TrimRight(line, " \t")
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case '{', '(', '[':
		return true
	}
	return false
}

func leadingWhitespace(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return line[:i]
		}
	}
	return line
}
