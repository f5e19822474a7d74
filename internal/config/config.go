// Package config provides the TOML-backed configuration store and its
// change-notification surface. Components subscribe to dotted key paths
// and are called synchronously when a value under that path changes.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Well-known configuration keys.
const (
	KeyFormatOnType       = "format.on_type"
	KeyFormatTabSize      = "format.tab_size"
	KeyFormatInsertSpaces = "format.insert_spaces"
)

// Change describes a configuration change event.
type Change struct {
	// Path is the dotted key that changed. Empty for full reloads.
	Path string

	// OldValue and NewValue are the values before and after. Nil on
	// reload events.
	OldValue any
	NewValue any

	// Reload is true when the whole configuration was reloaded.
	Reload bool
}

// Observer is called when configuration changes occur.
type Observer func(Change)

// Store holds configuration values under flattened dotted keys.
// All methods are safe for concurrent use; observers are invoked
// synchronously on the mutating goroutine.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]any

	obsMu  sync.Mutex
	nextID uint64
	obs    map[uint64]*observerEntry
}

type observerEntry struct {
	path string
	fn   Observer
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		values: make(map[string]any),
		obs:    make(map[uint64]*observerEntry),
	}
}

// Load reads configuration from a TOML file. A missing file yields an
// empty store bound to the path, not an error.
func Load(path string) (*Store, error) {
	s := New()
	s.path = path

	values, err := readTOML(path)
	if err != nil {
		return nil, err
	}
	if values != nil {
		s.values = values
	}
	return s, nil
}

func readTOML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	flat := make(map[string]any)
	flatten("", raw, flat)
	return flat, nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// Path returns the file path the store was loaded from, if any.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Get returns the raw value for a key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Bool returns the boolean at key, or def when absent or mistyped.
func (s *Store) Bool(key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Int returns the integer at key, or def when absent or mistyped.
func (s *Store) Int(key string, def int) int {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

// String returns the string at key, or def when absent or mistyped.
func (s *Store) String(key string, def string) string {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	str, ok := v.(string)
	if !ok {
		return def
	}
	return str
}

// Set stores a value and notifies observers subscribed to the key or
// any of its ancestors. Setting an identical value still notifies.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	old := s.values[key]
	s.values[key] = value
	s.mu.Unlock()

	s.notify(Change{Path: key, OldValue: old, NewValue: value})
}

// Reload re-reads the backing file and notifies every observer with a
// reload change.
func (s *Store) Reload() error {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()
	if path == "" {
		return nil
	}

	values, err := readTOML(path)
	if err != nil {
		return err
	}
	if values == nil {
		values = make(map[string]any)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()

	s.notify(Change{Reload: true})
	return nil
}

// OnChange subscribes fn to changes under path. An empty path observes
// everything; "format" observes "format.on_type" and friends. Reload
// events reach every observer.
func (s *Store) OnChange(path string, fn Observer) *Subscription {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.nextID++
	id := s.nextID
	s.obs[id] = &observerEntry{path: path, fn: fn}
	return &Subscription{store: s, id: id}
}

func (s *Store) notify(c Change) {
	s.obsMu.Lock()
	handlers := make([]Observer, 0, len(s.obs))
	for _, e := range s.obs {
		if c.Reload || pathMatches(e.path, c.Path) {
			handlers = append(handlers, e.fn)
		}
	}
	s.obsMu.Unlock()

	for _, fn := range handlers {
		fn(c)
	}
}

func pathMatches(observed, changed string) bool {
	if observed == "" || observed == changed {
		return true
	}
	return strings.HasPrefix(changed, observed+".")
}

// Subscription represents an active observer registration.
type Subscription struct {
	store *Store
	id    uint64
	once  sync.Once
}

// Cancel removes the observer. Idempotent.
func (sub *Subscription) Cancel() {
	sub.once.Do(func() {
		sub.store.obsMu.Lock()
		defer sub.store.obsMu.Unlock()
		delete(sub.store.obs, sub.id)
	})
}
