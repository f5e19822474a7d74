// Package host carries the pieces of the surrounding platform the
// formatting engine reports into rather than owns.
package host

import "github.com/rs/zerolog"

// ErrorReporter is the generic error-reporting path of the host.
// Failures the formatting layer cannot handle locally are re-raised
// here instead of being swallowed.
type ErrorReporter struct {
	log zerolog.Logger
}

// NewErrorReporter creates a reporter writing through log.
func NewErrorReporter(log zerolog.Logger) *ErrorReporter {
	return &ErrorReporter{log: log}
}

// Discard returns a reporter that drops everything. Used by tests.
func Discard() *ErrorReporter {
	return &ErrorReporter{log: zerolog.Nop()}
}

// Report surfaces an unexpected error. Nil errors are ignored.
func (r *ErrorReporter) Report(err error) {
	if err == nil {
		return
	}
	r.log.Error().Err(err).Msg("unexpected editor error")
}
