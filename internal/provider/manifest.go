// Package provider holds the formatting provider implementations that
// ship with the editor, plus the manifest format providers use to
// declare their capabilities as data.
package provider

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Manifest errors.
var (
	ErrInvalidManifest = errors.New("invalid provider manifest")
)

// Manifest declares what a formatting provider can do, parsed from the
// JSON document a provider ships alongside its implementation.
//
// Example:
//
//	{
//	  "name": "indent",
//	  "languages": ["go", "lua"],
//	  "capabilities": {"onType": true, "document": true, "range": true},
//	  "triggerCharacters": ["\n", "}"]
//	}
type Manifest struct {
	Name              string
	Languages         []string
	TriggerCharacters []rune
	OnType            bool
	Document          bool
	Range             bool
}

// ParseManifest parses and validates a provider manifest. A manifest
// must name the provider and list at least one language; every other
// field is optional.
func ParseManifest(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidManifest)
	}
	doc := gjson.ParseBytes(data)

	m := &Manifest{
		Name:     doc.Get("name").String(),
		OnType:   doc.Get("capabilities.onType").Bool(),
		Document: doc.Get("capabilities.document").Bool(),
		Range:    doc.Get("capabilities.range").Bool(),
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidManifest)
	}

	for _, lang := range doc.Get("languages").Array() {
		if s := lang.String(); s != "" {
			m.Languages = append(m.Languages, s)
		}
	}
	if len(m.Languages) == 0 {
		return nil, fmt.Errorf("%w: %q declares no languages", ErrInvalidManifest, m.Name)
	}

	for _, tc := range doc.Get("triggerCharacters").Array() {
		runes := []rune(tc.String())
		if len(runes) != 1 {
			return nil, fmt.Errorf("%w: trigger character %q must be a single character", ErrInvalidManifest, tc.String())
		}
		m.TriggerCharacters = append(m.TriggerCharacters, runes[0])
	}
	if m.OnType && len(m.TriggerCharacters) == 0 {
		return nil, fmt.Errorf("%w: %q declares onType without trigger characters", ErrInvalidManifest, m.Name)
	}
	return m, nil
}
