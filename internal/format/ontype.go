package format

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/typewright/typewright/internal/config"
	"github.com/typewright/typewright/internal/editor"
	"github.com/typewright/typewright/internal/engine/document"
	"github.com/typewright/typewright/internal/host"
)

// OnTypeContributionID is the editor contribution id of the on-type
// formatting controller.
const OnTypeContributionID = "typewright.contrib.onTypeFormatting"

// OnTypeOption configures an OnTypeController.
type OnTypeOption func(*OnTypeController)

// WithLogger sets the controller's debug logger.
func WithLogger(log zerolog.Logger) OnTypeOption {
	return func(c *OnTypeController) {
		c.log = log
	}
}

// WithErrorReporter sets the host error reporter provider failures are
// re-raised into.
func WithErrorReporter(r *host.ErrorReporter) OnTypeOption {
	return func(c *OnTypeController) {
		c.reporter = r
	}
}

// OnTypeController watches an editor for trigger characters being typed
// and runs the request→validate→apply cycle for on-type formatting.
//
// The set of active trigger characters is recomputed whenever the
// configuration, the attached document, the document's language, or the
// provider registry changes. Each issued request owns its own Watch and
// is validated independently; overlapping requests do not share state.
type OnTypeController struct {
	editor   *editor.Editor
	registry *Registry
	cfg      *config.Store
	log      zerolog.Logger
	reporter *host.ErrorReporter

	disposed atomic.Bool
	inflight sync.WaitGroup

	mu      sync.Mutex
	typing  []editor.Subscription
	static  []func()
	langSub document.Subscription
}

// NewOnTypeController creates the controller, wires its re-evaluation
// subscriptions, registers it as an editor contribution, and computes
// the initial trigger set. cfg may be nil, in which case the feature is
// always enabled.
func NewOnTypeController(ed *editor.Editor, reg *Registry, cfg *config.Store, opts ...OnTypeOption) *OnTypeController {
	c := &OnTypeController{
		editor:   ed,
		registry: reg,
		cfg:      cfg,
		log:      zerolog.Nop(),
		reporter: host.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg != nil {
		sub := cfg.OnChange("format", func(config.Change) { c.update() })
		c.static = append(c.static, sub.Cancel)
	}
	docSub := ed.OnDidChangeDocument(func(*document.Document) { c.update() })
	regSub := reg.OnDidChange(c.update)
	c.static = append(c.static, docSub.Cancel, regSub.Cancel)

	c.update()
	ed.AddContribution(OnTypeContributionID, c)
	return c
}

// update recomputes the active trigger-character listeners. Any state
// (disabled feature, no document, no provider, no trigger characters)
// that rules the feature out leaves the controller with no listeners.
func (c *OnTypeController) update() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearTypingLocked()
	if c.langSub != nil {
		c.langSub.Cancel()
		c.langSub = nil
	}
	if c.disposed.Load() {
		return
	}

	doc := c.editor.Document()
	if doc == nil {
		return
	}
	c.langSub = doc.OnLanguageChange(func(string) { c.update() })

	if c.cfg != nil && !c.cfg.Bool(config.KeyFormatOnType, true) {
		return
	}
	provider := c.registry.OnTypeFor(doc.Language())
	if provider == nil {
		return
	}
	chars := provider.TriggerCharacters()
	if len(chars) == 0 {
		return
	}

	for _, ch := range chars {
		sub := c.editor.AddTypingListener(ch, func(typed rune) {
			c.trigger(doc, provider, typed)
		})
		c.typing = append(c.typing, sub)
	}
	c.log.Debug().
		Str("language", doc.Language()).
		Int("triggers", len(chars)).
		Msg("on-type formatting armed")
}

func (c *OnTypeController) clearTypingLocked() {
	for _, sub := range c.typing {
		sub.Cancel()
	}
	c.typing = nil
}

// trigger runs one request→validate→apply cycle. Called on the typing
// goroutine after the trigger character has been inserted.
func (c *OnTypeController) trigger(doc *document.Document, provider OnTypeProvider, ch rune) {
	if c.disposed.Load() {
		return
	}
	// The feature is defined for a single caret only.
	if c.editor.SelectionCount() != 1 {
		return
	}
	if c.editor.Document() != doc {
		return
	}

	pos := c.editor.Primary().Active
	opts := doc.Options()
	watch := WatchDocument(doc, pos.Line)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		edits, err := provider.OnTypeEdits(context.Background(), doc, pos, ch, opts)

		// Stop observing before looking at anything else so a slow
		// request cannot miss a late invalidating edit.
		watch.Dispose()

		if err != nil {
			// Not handled locally: re-raise into the host's generic
			// error-reporting path.
			c.reporter.Report(err)
			return
		}
		if watch.Invalidated() || len(edits) == 0 {
			return
		}
		if c.disposed.Load() {
			return
		}
		// Apply against the selection at apply time, not the selection
		// captured when the request was issued.
		if err := ApplyEdits(c.editor, c.editor.Primary(), edits); err != nil {
			c.reporter.Report(err)
		}
	}()
}

// Dispose releases every subscription. In-flight requests resolve but
// their results are discarded.
func (c *OnTypeController) Dispose() {
	if c.disposed.Swap(true) {
		return
	}
	c.mu.Lock()
	c.clearTypingLocked()
	if c.langSub != nil {
		c.langSub.Cancel()
		c.langSub = nil
	}
	static := c.static
	c.static = nil
	c.mu.Unlock()

	for _, cancel := range static {
		cancel()
	}
}
