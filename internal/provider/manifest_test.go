package provider

import (
	"errors"
	"testing"
)

func TestParseManifest(t *testing.T) {
	data := []byte(`{
		"name": "indent",
		"languages": ["go", "lua"],
		"capabilities": {"onType": true, "document": true},
		"triggerCharacters": ["\n", "}"]
	}`)

	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.Name != "indent" {
		t.Errorf("expected name indent, got %q", m.Name)
	}
	if len(m.Languages) != 2 || m.Languages[0] != "go" || m.Languages[1] != "lua" {
		t.Errorf("unexpected languages %v", m.Languages)
	}
	if !m.OnType || !m.Document || m.Range {
		t.Errorf("unexpected capabilities onType=%v document=%v range=%v", m.OnType, m.Document, m.Range)
	}
	if len(m.TriggerCharacters) != 2 || m.TriggerCharacters[0] != '\n' || m.TriggerCharacters[1] != '}' {
		t.Errorf("unexpected trigger characters %v", m.TriggerCharacters)
	}
}

func TestParseManifestDefaults(t *testing.T) {
	m, err := ParseManifest([]byte(`{"name": "trim", "languages": ["*"]}`))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.OnType || m.Document || m.Range {
		t.Error("capabilities must default to false")
	}
	if len(m.TriggerCharacters) != 0 {
		t.Errorf("unexpected trigger characters %v", m.TriggerCharacters)
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"name":`},
		{"missing name", `{"languages": ["go"]}`},
		{"no languages", `{"name": "x"}`},
		{"empty languages", `{"name": "x", "languages": []}`},
		{"multi-rune trigger", `{"name": "x", "languages": ["go"], "triggerCharacters": ["ab"]}`},
		{"onType without triggers", `{"name": "x", "languages": ["go"], "capabilities": {"onType": true}}`},
	}
	for _, tt := range tests {
		if _, err := ParseManifest([]byte(tt.data)); !errors.Is(err, ErrInvalidManifest) {
			t.Errorf("%s: expected ErrInvalidManifest, got %v", tt.name, err)
		}
	}
}
