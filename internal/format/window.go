package format

import (
	"sync"
	"sync/atomic"

	"github.com/typewright/typewright/internal/engine/document"
)

// Watch observes a document's raw change stream and reports whether any
// change has invalidated the text at or above an anchor line.
//
// Invalidation is a latch: it fires at most once, permanently, and the
// watch unsubscribes from the change stream the moment it fires. Edits
// strictly below the anchor never invalidate — formatting computed
// relative to a position stays valid as long as nothing shifts text at
// or above that position.
type Watch struct {
	anchor      uint32
	invalidated atomic.Bool

	mu  sync.Mutex
	sub document.Subscription
}

// WatchDocument starts watching doc for changes that would invalidate a
// formatting result anchored at anchorLine.
func WatchDocument(doc *document.Document, anchorLine uint32) *Watch {
	w := &Watch{anchor: anchorLine}
	w.sub = doc.OnChange(w.observe)
	return w
}

func (w *Watch) observe(c document.Change) {
	if w.invalidated.Load() {
		return
	}
	switch c.Kind {
	case document.ChangeFlush:
		// A full-content replace invalidates unconditionally, even when
		// the replacement text is identical.
		w.invalidate()
	case document.ChangeLine:
		if c.Line <= w.anchor {
			w.invalidate()
		}
	case document.ChangeInsertLines:
		if c.FromLine <= w.anchor {
			w.invalidate()
		}
	case document.ChangeDeleteLines:
		if c.ToLine <= w.anchor {
			w.invalidate()
		}
	}
}

func (w *Watch) invalidate() {
	w.invalidated.Store(true)
	w.unsubscribe()
}

func (w *Watch) unsubscribe() {
	w.mu.Lock()
	sub := w.sub
	w.sub = nil
	w.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Invalidated reports whether the watched window has been invalidated.
// The answer remains available after Dispose.
func (w *Watch) Invalidated() bool {
	return w.invalidated.Load()
}

// Dispose stops watching. Idempotent. The invalidation latch keeps its
// value so a resolved request can still consult it.
func (w *Watch) Dispose() {
	w.unsubscribe()
}
