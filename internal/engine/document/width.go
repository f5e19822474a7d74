package document

import (
	"strings"

	"github.com/rivo/uniseg"
)

// DisplayWidth returns the number of terminal columns s occupies,
// expanding tabs to the next tab stop and measuring everything else by
// grapheme cluster width.
func DisplayWidth(s string, tabSize int) int {
	if tabSize <= 0 {
		tabSize = DefaultFormattingOptions().TabSize
	}
	width := 0
	for i, part := range strings.Split(s, "\t") {
		if i > 0 {
			width += tabSize - width%tabSize
		}
		width += uniseg.StringWidth(part)
	}
	return width
}

// LineWidth returns the display width of a line under the document's
// current tab size.
func (d *Document) LineWidth(line uint32) int {
	return DisplayWidth(d.Line(line), d.Options().TabSize)
}
