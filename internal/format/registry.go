package format

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/typewright/typewright/internal/engine/document"
)

// Subscription is a handle to an active registration-change
// subscription. Cancel is idempotent.
type Subscription interface {
	Cancel()
}

// OnTypeProvider computes formatting edits in response to a trigger
// character being typed.
type OnTypeProvider interface {
	// TriggerCharacters returns the characters whose typing should
	// trigger this provider. An empty set means the provider is never
	// triggered.
	TriggerCharacters() []rune

	// OnTypeEdits computes the edits to apply after ch was typed at pos.
	// A nil or empty result means nothing to do.
	OnTypeEdits(ctx context.Context, doc *document.Document, pos document.Point, ch rune, opts document.FormattingOptions) ([]document.Edit, error)
}

// DocumentProvider computes formatting edits for a whole document.
type DocumentProvider interface {
	DocumentEdits(ctx context.Context, doc *document.Document, opts document.FormattingOptions) ([]document.Edit, error)
}

// RangeProvider computes formatting edits for a range of a document.
type RangeProvider interface {
	RangeEdits(ctx context.Context, doc *document.Document, r document.Range, opts document.FormattingOptions) ([]document.Edit, error)
}

// AnyLanguage registers a provider for every language.
const AnyLanguage = "*"

// Registration is a handle to a registered provider.
type Registration struct {
	id       string
	language string
	provider any
	registry *Registry
}

// ID returns the unique registration id.
func (r *Registration) ID() string {
	return r.id
}

// Unregister removes the provider from the registry. Idempotent.
func (r *Registration) Unregister() {
	r.registry.unregister(r)
}

// Registry holds formatting providers ordered by registration, keyed by
// language. Lookups pick the first applicable provider; ties break by
// registration order. All methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	entries  []*Registration
	nextSub  uint64
	changeFn map[uint64]func()
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{changeFn: make(map[uint64]func())}
}

// Register adds a provider for a language id (or AnyLanguage) and
// notifies change subscribers. The provider must implement at least one
// of the capability interfaces; which requests it serves follows from
// the interfaces it implements.
func (reg *Registry) Register(languageID string, provider any) *Registration {
	r := &Registration{
		id:       uuid.NewString(),
		language: languageID,
		provider: provider,
		registry: reg,
	}

	reg.mu.Lock()
	reg.entries = append(reg.entries, r)
	handlers := reg.changeHandlersLocked()
	reg.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
	return r
}

func (reg *Registry) unregister(r *Registration) {
	reg.mu.Lock()
	found := false
	for i, e := range reg.entries {
		if e == r {
			reg.entries = append(reg.entries[:i], reg.entries[i+1:]...)
			found = true
			break
		}
	}
	var handlers []func()
	if found {
		handlers = reg.changeHandlersLocked()
	}
	reg.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

func (reg *Registry) changeHandlersLocked() []func() {
	handlers := make([]func(), 0, len(reg.changeFn))
	for _, fn := range reg.changeFn {
		handlers = append(handlers, fn)
	}
	return handlers
}

// OnDidChange subscribes fn to registry changes (register/unregister).
func (reg *Registry) OnDidChange(fn func()) Subscription {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.nextSub++
	id := reg.nextSub
	reg.changeFn[id] = fn
	return &registrySub{registry: reg, id: id}
}

type registrySub struct {
	registry *Registry
	id       uint64
	once     sync.Once
}

func (s *registrySub) Cancel() {
	s.once.Do(func() {
		s.registry.mu.Lock()
		defer s.registry.mu.Unlock()
		delete(s.registry.changeFn, s.id)
	})
}

func (reg *Registry) matches(e *Registration, languageID string) bool {
	return e.language == AnyLanguage || e.language == languageID
}

// OnTypeFor returns the first on-type provider registered for the
// language, or nil.
func (reg *Registry) OnTypeFor(languageID string) OnTypeProvider {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, e := range reg.entries {
		if !reg.matches(e, languageID) {
			continue
		}
		if p, ok := e.provider.(OnTypeProvider); ok {
			return p
		}
	}
	return nil
}

// DocumentFor returns the first whole-document provider registered for
// the language, or nil.
func (reg *Registry) DocumentFor(languageID string) DocumentProvider {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, e := range reg.entries {
		if !reg.matches(e, languageID) {
			continue
		}
		if p, ok := e.provider.(DocumentProvider); ok {
			return p
		}
	}
	return nil
}

// RangeFor returns the first range provider registered for the
// language, or nil.
func (reg *Registry) RangeFor(languageID string) RangeProvider {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, e := range reg.entries {
		if !reg.matches(e, languageID) {
			continue
		}
		if p, ok := e.provider.(RangeProvider); ok {
			return p
		}
	}
	return nil
}

// HasFormatter reports whether a whole-document or range provider is
// registered for the language.
func (reg *Registry) HasFormatter(languageID string) bool {
	return reg.DocumentFor(languageID) != nil || reg.RangeFor(languageID) != nil
}
