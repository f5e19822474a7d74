// Package format implements the formatting features of the editor:
// format-on-type, the manual format document/selection action, and the
// race-safe application of asynchronously computed edits.
//
// The central problem is that a formatting result is computed against a
// snapshot of the document while the user keeps typing. Each request
// therefore owns a Watch anchored at the cursor position it was issued
// from; the watch observes the document's raw change stream and latches
// once an edit lands at or above the anchor line. When the result
// arrives, the watch is disposed first and the result is discarded if
// the latch fired. Applying goes through a single undoable command.
package format
