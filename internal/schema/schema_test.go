package schema_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"photoflow/internal/schema"
)

const fixture = `{
  "library_title": "Referenzfotos",
  "fields": [
    {"internal_name": "Titel", "title": "Titel", "type": "Text", "required": true},
    {"internal_name": "Material", "title": "Material", "type": "MultiChoice",
     "choices": ["Holz", "Glas", "Metall"]},
    {"internal_name": "Status", "title": "Status", "type": "Choice",
     "choices": ["Entwurf KI", "Geprüft", "Freigegeben"]},
    {"internal_name": "Baujahr", "title": "Baujahr", "type": "Number"},
    {"internal_name": "Aufnahmedatum", "title": "Aufnahmedatum", "type": "DateTime"},
    {"internal_name": "ID", "title": "ID", "type": "Counter"},
    {"internal_name": "_hidden", "title": "Hidden", "type": "Text"},
    {"internal_name": "Vorschau", "title": "Vorschau", "type": "Thumbnail"},
    {"internal_name": "Notiz", "title": "Notiz", "type": "SomethingNew"},
    {"internal_name": "LeereWahl", "title": "Leere Wahl", "type": "Choice", "choices": []}
  ]
}`

func TestLoadMapsKindsAndSkipsSystemFields(t *testing.T) {
	s, err := schema.Load([]byte(fixture), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.LibraryTitle != "Referenzfotos" {
		t.Fatalf("unexpected library title: %q", s.LibraryTitle)
	}

	wantOrder := []string{"Titel", "Material", "Status", "Baujahr", "Aufnahmedatum", "Notiz", "LeereWahl"}
	if len(s.Fields) != len(wantOrder) {
		t.Fatalf("unexpected field count %d: %+v", len(s.Fields), s.Fields)
	}
	for i, name := range wantOrder {
		if s.Fields[i].Name != name {
			t.Fatalf("field %d: got %q want %q", i, s.Fields[i].Name, name)
		}
	}

	cases := map[string]schema.Kind{
		"Titel":         schema.KindText,
		"Material":      schema.KindMultiChoice,
		"Status":        schema.KindChoice,
		"Baujahr":       schema.KindNumber,
		"Aufnahmedatum": schema.KindDate,
		"Notiz":         schema.KindText,
	}
	for name, kind := range cases {
		field, ok := s.Field(name)
		if !ok {
			t.Fatalf("missing field %q", name)
		}
		if field.Kind != kind {
			t.Fatalf("field %q: got kind %q want %q", name, field.Kind, kind)
		}
	}
}

func TestLoadDemotesChoiceWithoutChoices(t *testing.T) {
	s, err := schema.Load([]byte(fixture), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	field, ok := s.Field("LeereWahl")
	if !ok {
		t.Fatal("missing demoted field")
	}
	if field.Kind != schema.KindText {
		t.Fatalf("expected demotion to text, got %q", field.Kind)
	}
	if len(field.AllowedValues) != 0 {
		t.Fatalf("demoted field must not carry allowed values: %v", field.AllowedValues)
	}
}

func TestLoadChoiceInvariant(t *testing.T) {
	s, err := schema.Load([]byte(fixture), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, field := range s.Fields {
		if field.IsChoice() && len(field.AllowedValues) == 0 {
			t.Fatalf("choice field %q has empty allowed set", field.Name)
		}
		if !field.IsChoice() && len(field.AllowedValues) != 0 {
			t.Fatalf("non-choice field %q carries allowed values", field.Name)
		}
	}
}

func TestLoadRejectsNonObjectAndMissingFields(t *testing.T) {
	for _, payload := range []string{`[]`, `"text"`, `{"library_title": "x"}`, `not json`} {
		if _, err := schema.Load([]byte(payload), nil); !errors.Is(err, schema.ErrSchemaParse) {
			t.Fatalf("payload %q: expected ErrSchemaParse, got %v", payload, err)
		}
	}
}

func TestLoadAcceptsEmptyFieldList(t *testing.T) {
	s, err := schema.Load([]byte(`{"fields": []}`), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s.Fields) != 0 {
		t.Fatalf("expected no fields, got %d", len(s.Fields))
	}
}

func TestFileSourceFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(path, []byte(fixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	raw, err := schema.FileSource{Path: path}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(raw) != fixture {
		t.Fatal("unexpected payload from file source")
	}
}

func TestHTTPSourceFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("missing accept header")
		}
		_, _ = w.Write([]byte(fixture))
	}))
	defer server.Close()

	source := schema.NewHTTPSource(server.URL, 0)
	raw, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(raw) != fixture {
		t.Fatal("unexpected payload from http source")
	}
}

func TestHTTPSourceFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := schema.NewHTTPSource(server.URL, 0).Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
