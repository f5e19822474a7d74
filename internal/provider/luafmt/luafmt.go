// Package luafmt runs a Lua script as a formatting provider. The
// script declares its capabilities through a provider manifest and
// implements them as global functions:
//
//	on_type_edits(text, line, col, char, tab_size, insert_spaces)
//	document_edits(text, tab_size, insert_spaces)
//	range_edits(text, start_line, start_col, end_line, end_col, tab_size, insert_spaces)
//
// Each function returns an array of edit tables:
//
//	{start_line=, start_col=, end_line=, end_col=, text=}
//
// Lines and columns use the host's 0-based coordinates on both sides of
// the boundary.
package luafmt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/typewright/typewright/internal/engine/document"
	"github.com/typewright/typewright/internal/provider"
)

// Script entry points.
const (
	fnOnType   = "on_type_edits"
	fnDocument = "document_edits"
	fnRange    = "range_edits"
)

// Provider errors.
var (
	ErrClosed      = errors.New("lua formatter is closed")
	ErrMissingFunc = errors.New("lua formatter does not implement a declared capability")
	ErrBadEdit     = errors.New("lua formatter returned a malformed edit")
)

// Provider is a formatting provider backed by a Lua script.
//
// gopher-lua's LState is not goroutine-safe, so every call into the
// script serializes through the provider's mutex. Formatting requests
// arrive on the controller's request goroutines, which makes that lock
// the script's single-goroutine discipline.
type Provider struct {
	manifest *provider.Manifest

	mu     sync.Mutex
	vm     *lua.LState
	closed bool
}

// New loads a script under the given manifest. The script runs once at
// load time to define its entry points; every capability the manifest
// declares must resolve to a global function.
func New(manifest *provider.Manifest, script string) (*Provider, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(vm)
	lua.OpenTable(vm)
	lua.OpenString(vm)
	lua.OpenMath(vm)

	if err := vm.DoString(script); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load formatter script %q: %w", manifest.Name, err)
	}

	for fn, declared := range map[string]bool{
		fnOnType:   manifest.OnType,
		fnDocument: manifest.Document,
		fnRange:    manifest.Range,
	} {
		if declared && vm.GetGlobal(fn).Type() != lua.LTFunction {
			vm.Close()
			return nil, fmt.Errorf("%w: %q lacks %s", ErrMissingFunc, manifest.Name, fn)
		}
	}
	return &Provider{manifest: manifest, vm: vm}, nil
}

// Manifest returns the manifest the provider was loaded under.
func (p *Provider) Manifest() *provider.Manifest { return p.manifest }

// Close releases the Lua state. Further calls return ErrClosed.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.vm.Close()
}

// TriggerCharacters returns the manifest's declared triggers.
func (p *Provider) TriggerCharacters() []rune {
	return p.manifest.TriggerCharacters
}

// OnTypeEdits invokes the script's on_type_edits function.
func (p *Provider) OnTypeEdits(_ context.Context, doc *document.Document, pos document.Point, ch rune, opts document.FormattingOptions) ([]document.Edit, error) {
	if !p.manifest.OnType {
		return nil, nil
	}
	return p.call(fnOnType,
		lua.LString(doc.Text()),
		lua.LNumber(pos.Line),
		lua.LNumber(pos.Column),
		lua.LString(string(ch)),
		lua.LNumber(opts.TabSize),
		lua.LBool(opts.InsertSpaces),
	)
}

// DocumentEdits invokes the script's document_edits function.
func (p *Provider) DocumentEdits(_ context.Context, doc *document.Document, opts document.FormattingOptions) ([]document.Edit, error) {
	if !p.manifest.Document {
		return nil, nil
	}
	return p.call(fnDocument,
		lua.LString(doc.Text()),
		lua.LNumber(opts.TabSize),
		lua.LBool(opts.InsertSpaces),
	)
}

// RangeEdits invokes the script's range_edits function.
func (p *Provider) RangeEdits(_ context.Context, doc *document.Document, r document.Range, opts document.FormattingOptions) ([]document.Edit, error) {
	if !p.manifest.Range {
		return nil, nil
	}
	return p.call(fnRange,
		lua.LString(doc.Text()),
		lua.LNumber(r.Start.Line),
		lua.LNumber(r.Start.Column),
		lua.LNumber(r.End.Line),
		lua.LNumber(r.End.Column),
		lua.LNumber(opts.TabSize),
		lua.LBool(opts.InsertSpaces),
	)
}

func (p *Provider) call(fn string, args ...lua.LValue) ([]document.Edit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}

	err := p.vm.CallByParam(lua.P{
		Fn:      p.vm.GetGlobal(fn),
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		return nil, fmt.Errorf("call %s in %q: %w", fn, p.manifest.Name, err)
	}
	ret := p.vm.Get(-1)
	p.vm.Pop(1)

	switch v := ret.(type) {
	case *lua.LNilType:
		return nil, nil
	case *lua.LTable:
		return decodeEdits(v)
	default:
		return nil, fmt.Errorf("%w: %s returned %s", ErrBadEdit, fn, ret.Type())
	}
}

func decodeEdits(tbl *lua.LTable) ([]document.Edit, error) {
	n := tbl.Len()
	if n == 0 {
		return nil, nil
	}
	edits := make([]document.Edit, 0, n)
	for i := 1; i <= n; i++ {
		et, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not a table", ErrBadEdit, i)
		}
		startLine, err := numField(et, "start_line")
		if err != nil {
			return nil, err
		}
		startCol, err := numField(et, "start_col")
		if err != nil {
			return nil, err
		}
		endLine, err := numField(et, "end_line")
		if err != nil {
			return nil, err
		}
		endCol, err := numField(et, "end_col")
		if err != nil {
			return nil, err
		}
		text, ok := et.RawGetString("text").(lua.LString)
		if !ok {
			return nil, fmt.Errorf("%w: missing text field", ErrBadEdit)
		}
		edits = append(edits, document.NewEdit(document.Range{
			Start: document.Point{Line: startLine, Column: startCol},
			End:   document.Point{Line: endLine, Column: endCol},
		}, string(text)))
	}
	return edits, nil
}

func numField(tbl *lua.LTable, key string) (uint32, error) {
	n, ok := tbl.RawGetString(key).(lua.LNumber)
	if !ok || n < 0 {
		return 0, fmt.Errorf("%w: bad %s field", ErrBadEdit, key)
	}
	return uint32(n), nil
}
