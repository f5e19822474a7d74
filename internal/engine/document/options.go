package document

// FormattingOptions carries the whitespace settings a formatting provider
// needs to compute edits. They are read from the document at request time
// and are not revalidated against later configuration changes.
type FormattingOptions struct {
	// TabSize is the number of columns a tab occupies. Always positive.
	TabSize int

	// InsertSpaces selects spaces over hard tabs for indentation.
	InsertSpaces bool
}

// DefaultFormattingOptions returns the options used by documents that
// have not been configured otherwise.
func DefaultFormattingOptions() FormattingOptions {
	return FormattingOptions{
		TabSize:      4,
		InsertSpaces: true,
	}
}

// Indent returns one level of indentation under these options.
func (o FormattingOptions) Indent() string {
	if o.InsertSpaces {
		n := o.TabSize
		if n <= 0 {
			n = 4
		}
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = ' '
		}
		return string(buf)
	}
	return "\t"
}
