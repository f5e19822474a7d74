package format

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/typewright/typewright/internal/config"
	"github.com/typewright/typewright/internal/editor"
	"github.com/typewright/typewright/internal/engine/cursor"
	"github.com/typewright/typewright/internal/engine/document"
	"github.com/typewright/typewright/internal/host"
)

// scriptedResponse is one canned provider answer. A non-nil release
// channel blocks the request until the channel is closed.
type scriptedResponse struct {
	release chan struct{}
	edits   []document.Edit
	err     error
}

type scriptedProvider struct {
	triggers []rune

	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
	entered   chan struct{}
}

func (p *scriptedProvider) TriggerCharacters() []rune { return p.triggers }

func (p *scriptedProvider) OnTypeEdits(_ context.Context, _ *document.Document, _ document.Point, _ rune, _ document.FormattingOptions) ([]document.Edit, error) {
	p.mu.Lock()
	idx := p.calls
	p.calls++
	var resp scriptedResponse
	if idx < len(p.responses) {
		resp = p.responses[idx]
	}
	entered := p.entered
	p.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if resp.release != nil {
		<-resp.release
	}
	return resp.edits, resp.err
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newOnTypeFixture(t *testing.T, text string, pos document.Point, p *scriptedProvider) (*editor.Editor, *OnTypeController) {
	t.Helper()
	doc := document.NewFromString(text,
		document.WithLanguage("go"),
		document.WithFormattingOptions(document.FormattingOptions{TabSize: 2, InsertSpaces: true}),
	)
	ed := editor.New(doc)
	ed.SetSelection(cursor.At(pos))

	reg := NewRegistry()
	reg.Register("go", p)

	c := NewOnTypeController(ed, reg, nil)
	t.Cleanup(c.Dispose)
	return ed, c
}

func TestOnTypeHappyPath(t *testing.T) {
	p := &scriptedProvider{
		triggers: []rune{'\n'},
		responses: []scriptedResponse{
			{edits: []document.Edit{document.NewInsert(document.Point{Line: 1, Column: 0}, "  ")}},
		},
	}
	ed, c := newOnTypeFixture(t, "if(x){", document.Point{Line: 0, Column: 6}, p)

	if err := ed.Type("\n"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()

	if got := ed.Document().Text(); got != "if(x){\n  " {
		t.Errorf("unexpected text %q", got)
	}
	if ed.Primary().Active != (document.Point{Line: 1, Column: 2}) {
		t.Errorf("cursor must end after the indentation, got %v", ed.Primary())
	}
	// One undo entry for the typed newline, one for the format apply.
	if got := ed.UndoDepth(); got != 2 {
		t.Errorf("expected 2 undo entries, got %d", got)
	}
}

func TestOnTypeInvalidatedResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	p := &scriptedProvider{
		triggers: []rune{'\n'},
		entered:  make(chan struct{}, 1),
		responses: []scriptedResponse{
			{release: release, edits: []document.Edit{document.NewInsert(document.Point{Line: 1, Column: 0}, "  ")}},
		},
	}
	ed, c := newOnTypeFixture(t, "if(x){", document.Point{Line: 0, Column: 6}, p)

	if err := ed.Type("\n"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	<-p.entered

	// An edit at a line <= the anchor arrives while the request is in
	// flight.
	if err := ed.Document().Insert(document.Point{Line: 0, Column: 0}, "// "); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	close(release)
	c.inflight.Wait()

	if got := ed.Document().Text(); got != "// if(x){\n" {
		t.Errorf("stale edits must be discarded, got %q", got)
	}
}

func TestOnTypeEmptyResultIsNoOp(t *testing.T) {
	p := &scriptedProvider{triggers: []rune{';'}}
	ed, c := newOnTypeFixture(t, "x := 1", document.Point{Line: 0, Column: 6}, p)

	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()

	if p.callCount() != 1 {
		t.Fatalf("expected 1 request, got %d", p.callCount())
	}
	if got := ed.Document().Text(); got != "x := 1;" {
		t.Errorf("unexpected text %q", got)
	}
	// Only the typed character, no formatting entry.
	if got := ed.UndoDepth(); got != 1 {
		t.Errorf("expected 1 undo entry, got %d", got)
	}
}

func TestOnTypeMultiCaretGuard(t *testing.T) {
	p := &scriptedProvider{triggers: []rune{';'}}
	ed, c := newOnTypeFixture(t, "aaa\nbbb", document.Point{Line: 0, Column: 3}, p)
	ed.AddSelection(cursor.At(document.Point{Line: 1, Column: 3}))

	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()

	if p.callCount() != 0 {
		t.Errorf("multi-caret typing must not issue a request, got %d", p.callCount())
	}
}

func TestOnTypeConfigDisableRemovesListeners(t *testing.T) {
	p := &scriptedProvider{triggers: []rune{';'}}
	doc := document.NewFromString("x", document.WithLanguage("go"))
	ed := editor.New(doc)
	ed.SetSelection(cursor.At(document.Point{Line: 0, Column: 1}))

	reg := NewRegistry()
	reg.Register("go", p)

	cfg := config.New()
	c := NewOnTypeController(ed, reg, cfg)
	defer c.Dispose()

	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()
	if p.callCount() != 1 {
		t.Fatalf("expected 1 request while enabled, got %d", p.callCount())
	}

	cfg.Set(config.KeyFormatOnType, false)

	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()
	if p.callCount() != 1 {
		t.Errorf("typing after disable must not issue a request, got %d", p.callCount())
	}

	// Re-enabling arms the listeners again.
	cfg.Set(config.KeyFormatOnType, true)
	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()
	if p.callCount() != 2 {
		t.Errorf("expected a request after re-enable, got %d", p.callCount())
	}
}

func TestOnTypeRegistryChangeRearmsListeners(t *testing.T) {
	doc := document.NewFromString("x", document.WithLanguage("go"))
	ed := editor.New(doc)
	ed.SetSelection(cursor.At(document.Point{Line: 0, Column: 1}))

	reg := NewRegistry()
	c := NewOnTypeController(ed, reg, nil)
	defer c.Dispose()

	p := &scriptedProvider{triggers: []rune{';'}}

	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if p.callCount() != 0 {
		t.Fatal("no provider registered yet")
	}

	r := reg.Register("go", p)
	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()
	if p.callCount() != 1 {
		t.Errorf("expected a request after registration, got %d", p.callCount())
	}

	r.Unregister()
	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()
	if p.callCount() != 1 {
		t.Errorf("typing after unregister must not issue a request, got %d", p.callCount())
	}
}

func TestOnTypeLanguageChangeRearmsListeners(t *testing.T) {
	p := &scriptedProvider{triggers: []rune{';'}}
	ed, c := newOnTypeFixture(t, "x", document.Point{Line: 0, Column: 1}, p)

	ed.Document().SetLanguage("rust")

	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()
	if p.callCount() != 0 {
		t.Errorf("provider for another language must not be triggered, got %d", p.callCount())
	}
}

func TestOnTypeNoTriggerCharacters(t *testing.T) {
	p := &scriptedProvider{}
	ed, c := newOnTypeFixture(t, "x", document.Point{Line: 0, Column: 1}, p)
	_ = c

	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if p.callCount() != 0 {
		t.Errorf("a provider without trigger characters must never fire, got %d", p.callCount())
	}
}

func TestOnTypeProviderErrorIsReported(t *testing.T) {
	p := &scriptedProvider{
		triggers:  []rune{';'},
		responses: []scriptedResponse{{err: errors.New("formatter exploded")}},
	}

	doc := document.NewFromString("x", document.WithLanguage("go"))
	ed := editor.New(doc)
	ed.SetSelection(cursor.At(document.Point{Line: 0, Column: 1}))

	reg := NewRegistry()
	reg.Register("go", p)

	var buf bytes.Buffer
	reporter := host.NewErrorReporter(zerolog.New(&buf))
	c := NewOnTypeController(ed, reg, nil, WithErrorReporter(reporter))
	defer c.Dispose()

	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	c.inflight.Wait()

	if !strings.Contains(buf.String(), "formatter exploded") {
		t.Errorf("provider failure must reach the host reporter, log: %q", buf.String())
	}
	if got := ed.Document().Text(); got != "x;" {
		t.Errorf("no edit may be applied on failure, got %q", got)
	}
}

func TestOnTypeOverlappingRequestsValidateIndependently(t *testing.T) {
	slow := make(chan struct{})
	p := &scriptedProvider{
		triggers: []rune{';'},
		entered:  make(chan struct{}, 2),
		responses: []scriptedResponse{
			// First request: slow, would edit line 1.
			{release: slow, edits: []document.Edit{document.NewInsert(document.Point{Line: 1, Column: 0}, "SLOW")}},
			// Second request: fast, edits line 0.
			{edits: []document.Edit{document.NewInsert(document.Point{Line: 0, Column: 0}, "FAST")}},
		},
	}
	ed, c := newOnTypeFixture(t, "aaa\nbbb", document.Point{Line: 1, Column: 3}, p)

	// First trigger, anchored at line 1.
	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	<-p.entered

	// Second trigger at line 0. Typing there already counts as an edit
	// at or above the first request's anchor.
	ed.SetSelection(cursor.At(document.Point{Line: 0, Column: 3}))
	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	<-p.entered

	// Let the fast request finish, then the slow one.
	close(slow)
	c.inflight.Wait()

	text := ed.Document().Text()
	if !strings.Contains(text, "FAST") {
		t.Errorf("fast result must be applied, got %q", text)
	}
	if strings.Contains(text, "SLOW") {
		t.Errorf("stale slow result must be discarded, got %q", text)
	}
}

func TestOnTypeDisposeStopsTriggering(t *testing.T) {
	p := &scriptedProvider{triggers: []rune{';'}}
	ed, c := newOnTypeFixture(t, "x", document.Point{Line: 0, Column: 1}, p)

	c.Dispose()
	c.Dispose() // idempotent

	if err := ed.Type(";"); err != nil {
		t.Fatalf("Type: %v", err)
	}
	if p.callCount() != 0 {
		t.Errorf("disposed controller must not issue requests, got %d", p.callCount())
	}
}

func TestOnTypeControllerIsAContribution(t *testing.T) {
	p := &scriptedProvider{triggers: []rune{';'}}
	ed, c := newOnTypeFixture(t, "x", document.Point{Line: 0, Column: 1}, p)

	if ed.ContributionByID(OnTypeContributionID) != editor.Contribution(c) {
		t.Error("controller must register itself as an editor contribution")
	}
}
