package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/typewright/typewright/internal/config"
	"github.com/typewright/typewright/internal/editor"
	"github.com/typewright/typewright/internal/engine/cursor"
	"github.com/typewright/typewright/internal/engine/document"
	"github.com/typewright/typewright/internal/engine/history"
	"github.com/typewright/typewright/internal/format"
	"github.com/typewright/typewright/internal/hints"
	"github.com/typewright/typewright/internal/host"
	"github.com/typewright/typewright/internal/provider"
	"github.com/typewright/typewright/internal/provider/indent"
	"github.com/typewright/typewright/internal/provider/luafmt"
)

// errQuit signals a normal user-requested exit.
var errQuit = errors.New("quit")

// Options are the command-line options.
type Options struct {
	ConfigPath string
	LogPath    string
	FilePath   string
	Debug      bool
}

// App owns the terminal screen and wires the editor, the provider
// registry, and the formatting controllers together.
type App struct {
	screen  tcell.Screen
	ed      *editor.Editor
	action  *format.Action
	hint    *hintBar
	cfg     *config.Store
	watcher *config.Watcher
	log     zerolog.Logger
	logFile *os.File
	lua     *luafmt.Provider
	path    string
	message string
}

// NewApp assembles the application from the command-line options.
func NewApp(opts Options) (*App, error) {
	a := &App{path: opts.FilePath, log: zerolog.Nop()}

	if opts.LogPath != "" {
		f, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		level := zerolog.InfoLevel
		if opts.Debug {
			level = zerolog.DebugLevel
		}
		a.log = zerolog.New(zerolog.ConsoleWriter{Out: f, NoColor: true}).
			Level(level).
			With().Timestamp().Logger()
	}

	if err := a.loadConfig(opts.ConfigPath); err != nil {
		return nil, err
	}
	if err := a.openEditor(opts.FilePath); err != nil {
		return nil, err
	}
	a.wireFormatting()
	return a, nil
}

func (a *App) loadConfig(path string) error {
	if path == "" {
		a.cfg = config.New()
		return nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	w, err := config.NewWatcher(cfg, config.WithReloadHook(func(err error) {
		if err != nil {
			a.log.Warn().Err(err).Msg("config reload failed")
			return
		}
		a.log.Info().Str("path", path).Msg("config reloaded")
	}))
	if err != nil {
		// Live reload is a convenience; a missing watch is not fatal.
		a.log.Warn().Err(err).Msg("config watch unavailable")
		return nil
	}
	a.watcher = w
	return nil
}

func (a *App) openEditor(path string) error {
	text := ""
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("open %s: %w", path, err)
		}
		text = string(data)
	}

	docOpts := a.formattingOptions()
	doc := document.NewFromString(text,
		document.WithLanguage(languageOf(path)),
		document.WithFormattingOptions(docOpts),
	)
	a.ed = editor.New(doc)
	a.ed.SetSelection(cursor.At(document.Point{}))
	a.ed.Focus()

	// Formatting options follow the config while the app runs.
	a.cfg.OnChange("format", func(config.Change) {
		a.ed.Document().SetOptions(a.formattingOptions())
	})
	return nil
}

func (a *App) formattingOptions() document.FormattingOptions {
	def := document.DefaultFormattingOptions()
	return document.FormattingOptions{
		TabSize:      a.cfg.Int(config.KeyFormatTabSize, def.TabSize),
		InsertSpaces: a.cfg.Bool(config.KeyFormatInsertSpaces, def.InsertSpaces),
	}
}

func (a *App) wireFormatting() {
	reg := format.NewRegistry()
	reg.Register(format.AnyLanguage, indent.New())
	a.loadLuaProvider(reg)

	reporter := host.NewErrorReporter(a.log)
	format.NewOnTypeController(a.ed, reg, a.cfg,
		format.WithLogger(a.log),
		format.WithErrorReporter(reporter),
	)
	a.action = format.NewAction(reg)

	a.hint = &hintBar{ed: a.ed}
	hints.NewController(a.ed, a.hint)
}

// loadLuaProvider registers a scripted formatter when the config names
// one. Script problems are logged and skipped; the built-in provider
// still serves.
func (a *App) loadLuaProvider(reg *format.Registry) {
	scriptPath := a.cfg.String("provider.lua.script", "")
	manifestPath := a.cfg.String("provider.lua.manifest", "")
	if scriptPath == "" || manifestPath == "" {
		return
	}

	manifestData, err := os.ReadFile(manifestPath)
	if err != nil {
		a.log.Warn().Err(err).Msg("lua provider manifest unreadable")
		return
	}
	m, err := provider.ParseManifest(manifestData)
	if err != nil {
		a.log.Warn().Err(err).Msg("lua provider manifest rejected")
		return
	}
	script, err := os.ReadFile(scriptPath)
	if err != nil {
		a.log.Warn().Err(err).Msg("lua provider script unreadable")
		return
	}
	p, err := luafmt.New(m, string(script))
	if err != nil {
		a.log.Warn().Err(err).Msg("lua provider rejected")
		return
	}
	a.lua = p
	for _, lang := range m.Languages {
		reg.Register(lang, p)
	}
	a.log.Info().Str("name", m.Name).Strs("languages", m.Languages).Msg("lua provider loaded")
}

// Run enters the terminal event loop.
func (a *App) Run() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	a.screen = screen

	for {
		a.render()
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventInterrupt:
			return errQuit
		case *tcell.EventKey:
			if err := a.handleKey(ev); err != nil {
				return err
			}
		}
	}
}

// Quit asks the event loop to exit.
func (a *App) Quit() {
	if a.screen != nil {
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

// Shutdown releases the terminal and every background resource.
func (a *App) Shutdown() {
	if a.screen != nil {
		a.screen.Fini()
		a.screen = nil
	}
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
	if a.ed != nil {
		a.ed.Dispose()
	}
	if a.lua != nil {
		a.lua.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

func (a *App) handleKey(ev *tcell.EventKey) error {
	a.message = ""
	switch ev.Key() {
	case tcell.KeyCtrlQ:
		return errQuit
	case tcell.KeyCtrlZ:
		if err := a.ed.Undo(); err != nil && !errors.Is(err, history.ErrNothingToUndo) {
			a.message = err.Error()
		}
	case tcell.KeyCtrlF:
		if err := a.action.Run(context.Background(), a.ed); err != nil {
			a.log.Error().Err(err).Msg("format failed")
			a.message = "format: " + err.Error()
		}
	case tcell.KeyCtrlS:
		a.save()
	case tcell.KeyCtrlSpace:
		a.hint.Trigger()
	case tcell.KeyCtrlN:
		a.hint.Next()
	case tcell.KeyCtrlP:
		a.hint.Previous()
	case tcell.KeyEscape:
		a.hint.Cancel()
	case tcell.KeyEnter:
		a.typeText("\n")
	case tcell.KeyTab:
		a.typeText("\t")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.backspace()
	case tcell.KeyLeft, tcell.KeyRight, tcell.KeyUp, tcell.KeyDown:
		a.moveCaret(ev.Key())
	case tcell.KeyRune:
		a.typeText(string(ev.Rune()))
	}
	return nil
}

func (a *App) typeText(text string) {
	if err := a.ed.Type(text); err != nil {
		a.message = err.Error()
	}
}

func (a *App) backspace() {
	doc := a.ed.Document()
	sel := a.ed.Primary()

	var r document.Range
	switch {
	case !sel.IsEmpty():
		r = sel.Range()
	case sel.Active.Column > 0:
		r = document.Range{
			Start: document.Point{Line: sel.Active.Line, Column: sel.Active.Column - 1},
			End:   sel.Active,
		}
	case sel.Active.Line > 0:
		prev := sel.Active.Line - 1
		r = document.Range{
			Start: document.Point{Line: prev, Column: uint32(len(doc.Line(prev)))},
			End:   sel.Active,
		}
	default:
		return
	}

	cmd := history.NewEditCommand([]document.Edit{document.NewDelete(r)}, cursor.At(sel.Active))
	if err := a.ed.ExecuteCommand("typing", cmd); err != nil {
		a.message = err.Error()
	}
}

func (a *App) moveCaret(key tcell.Key) {
	doc := a.ed.Document()
	p := a.ed.Primary().Active
	switch key {
	case tcell.KeyLeft:
		if p.Column > 0 {
			p.Column--
		}
	case tcell.KeyRight:
		p.Column++
	case tcell.KeyUp:
		if p.Line > 0 {
			p.Line--
		}
	case tcell.KeyDown:
		p.Line++
	}
	a.ed.SetSelection(cursor.At(doc.ClampPoint(p)))
}

func (a *App) save() {
	if a.path == "" {
		a.message = "no file name"
		return
	}
	if err := os.WriteFile(a.path, []byte(a.ed.Document().Text()), 0o644); err != nil {
		a.log.Error().Err(err).Msg("save failed")
		a.message = "save: " + err.Error()
		return
	}
	a.message = "saved " + a.path
}

func (a *App) render() {
	a.screen.Clear()
	width, height := a.screen.Size()
	if height < 2 {
		a.screen.Show()
		return
	}
	rows := uint32(height - 1)

	doc := a.ed.Document()
	tabSize := doc.Options().TabSize
	a.scrollToCaret(rows, uint32(width))
	scroll := a.ed.ScrollPosition()

	style := tcell.StyleDefault
	for row := uint32(0); row < rows; row++ {
		line := scroll.TopLine + row
		if line >= doc.LineCount() {
			break
		}
		drawText(a.screen, -int(scroll.LeftColumn), int(row), style, expandTabs(doc.Line(line), tabSize))
	}

	caret := a.ed.Primary().Active
	caretX := document.DisplayWidth(doc.Line(caret.Line)[:caret.Column], tabSize)
	a.screen.ShowCursor(caretX-int(scroll.LeftColumn), int(caret.Line-scroll.TopLine))

	a.renderStatus(width, height-1)
	a.screen.Show()
}

func (a *App) renderStatus(width, row int) {
	doc := a.ed.Document()
	name := a.path
	if name == "" {
		name = "[no name]"
	}
	status := fmt.Sprintf(" %s | %s | v%d", name, doc.Language(), doc.Version())
	if h := a.hint.Status(); h != "" {
		status += " | " + h
	}
	if a.message != "" {
		status += " | " + a.message
	}
	if len(status) < width {
		status += strings.Repeat(" ", width-len(status))
	}
	drawText(a.screen, 0, row, tcell.StyleDefault.Reverse(true), status)
}

// scrollToCaret keeps the caret inside the viewport.
func (a *App) scrollToCaret(rows, cols uint32) {
	doc := a.ed.Document()
	caret := a.ed.Primary().Active
	s := a.ed.ScrollPosition()

	if caret.Line < s.TopLine {
		s.TopLine = caret.Line
	} else if caret.Line >= s.TopLine+rows {
		s.TopLine = caret.Line - rows + 1
	}

	caretX := uint32(document.DisplayWidth(doc.Line(caret.Line)[:caret.Column], doc.Options().TabSize))
	if caretX < s.LeftColumn {
		s.LeftColumn = caretX
	} else if cols > 0 && caretX >= s.LeftColumn+cols {
		s.LeftColumn = caretX - cols + 1
	}
	a.ed.SetScroll(s)
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func expandTabs(line string, tabSize int) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	if tabSize <= 0 {
		tabSize = 4
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := tabSize - col%tabSize
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

func languageOf(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "text"
	}
	return ext
}

// hintBar is the terminal's parameter-hints widget: a one-line readout
// in the status bar showing the call the caret sits inside, with an
// overload index cycled by next/previous.
type hintBar struct {
	ed *editor.Editor

	mu      sync.Mutex
	visible bool
	label   string
	index   int
}

func (h *hintBar) Trigger() {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc := h.ed.Document()
	caret := h.ed.Primary().Active
	label := enclosingCall(doc.Line(caret.Line), int(caret.Column))
	if label == "" {
		h.visible = false
		return
	}
	h.visible = true
	h.label = label
	h.index = 0
}

func (h *hintBar) Next() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.visible {
		h.index++
	}
}

func (h *hintBar) Previous() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.visible && h.index > 0 {
		h.index--
	}
}

func (h *hintBar) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visible = false
}

func (h *hintBar) Dispose() {
	h.Cancel()
}

// Status returns the status-bar text, or "" when hidden.
func (h *hintBar) Status() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.visible {
		return ""
	}
	return fmt.Sprintf("%s(…) [%d]", h.label, h.index+1)
}

// enclosingCall finds the identifier before the nearest unclosed '('
// left of col.
func enclosingCall(line string, col int) string {
	if col > len(line) {
		col = len(line)
	}
	depth := 0
	for i := col - 1; i >= 0; i-- {
		switch line[i] {
		case ')':
			depth++
		case '(':
			if depth > 0 {
				depth--
				continue
			}
			end := i
			start := end
			for start > 0 && isIdentByte(line[start-1]) {
				start--
			}
			if start == end {
				return ""
			}
			return line[start:end]
		}
	}
	return ""
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '.' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
