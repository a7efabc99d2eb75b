package reconcile_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"photoflow/internal/analysis"
	"photoflow/internal/exif"
	"photoflow/internal/reconcile"
	"photoflow/internal/schema"
)

func loadSchema(t *testing.T, raw string) *schema.Schema {
	t.Helper()
	s, err := schema.Load([]byte(raw), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func decodePayload(t *testing.T, raw string) *analysis.Payload {
	t.Helper()
	p := &analysis.Payload{}
	if err := p.Decode([]byte(raw)); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return p
}

const testSchema = `{"fields": [
	{"internal_name": "Titel", "title": "Titel", "type": "Text", "required": true},
	{"internal_name": "Material", "title": "Material", "type": "MultiChoice",
	 "choices": ["Holz", "Glas", "Metall"]},
	{"internal_name": "Aufnahmedatum", "title": "Aufnahmedatum", "type": "DateTime"},
	{"internal_name": "Baujahr", "title": "Baujahr", "type": "Number"},
	{"internal_name": "Status", "title": "Status", "type": "Choice",
	 "choices": ["Entwurf KI", "Geprüft"]},
	{"internal_name": "Ort", "title": "Ort", "type": "Text"},
	{"internal_name": "Kamera", "title": "Kamera", "type": "Text"}
]}`

func TestMultiChoiceFiltersDisallowedValues(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Titel": "Dachstuhl", "Material": ["Holz", "Beton"]}`)

	record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, ok := record.Value("Material")
	if !ok {
		t.Fatal("Material missing from record")
	}
	if got := value.List(); len(got) != 1 || got[0] != "Holz" {
		t.Fatalf("expected [Holz], got %v", got)
	}
}

func TestMultiChoiceEmptiedListStaysList(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Material": ["Beton", "Ziegel"]}`)

	record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, ok := record.Value("Material")
	if !ok {
		t.Fatal("Material missing from record")
	}
	if value.IsSentinel() {
		t.Fatal("emptied list must stay a list, not become the sentinel")
	}
	if got := value.List(); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestRequiredFieldGetsSentinel(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{}`)

	record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, ok := record.Value("Titel")
	if !ok {
		t.Fatal("required field must always have an entry")
	}
	if !value.IsSentinel() {
		t.Fatalf("expected sentinel, got %v", value)
	}
}

func TestExifDateBeatsAnalysisDate(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Aufnahmedatum": "2020-01-01"}`)
	exifMap := exif.Map{exif.TagDateTimeOriginal: "2024:06:01 10:15:00"}

	record, err := reconcile.New().Reconcile(context.Background(), s, exifMap, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, _ := record.Value("Aufnahmedatum")
	if value.Text() != "2024-06-01T10:15:00" {
		t.Fatalf("expected camera date to win, got %q", value.Text())
	}
}

func TestUnparseableNumberBecomesSentinel(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Baujahr": "unbekannt"}`)

	record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, _ := record.Value("Baujahr")
	if !value.IsSentinel() {
		t.Fatalf("expected sentinel for unparseable number, got %v", value)
	}
	if len(record.Warnings()) == 0 {
		t.Fatal("expected a warning for the sentinel substitution")
	}
}

func TestChoiceMismatchBecomesSentinel(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Status": "In Arbeit"}`)

	record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, _ := record.Value("Status")
	if !value.IsSentinel() {
		t.Fatalf("expected sentinel for out-of-set choice, got %v", value)
	}
}

func TestChoiceMatchIsCaseSensitive(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Status": "geprüft"}`)

	record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, _ := record.Value("Status")
	if !value.IsSentinel() {
		t.Fatalf("case-insensitive matching is not allowed, got %v", value)
	}
}

func TestChoiceMatchNormalizesUnicode(t *testing.T) {
	s := loadSchema(t, testSchema)
	// Decomposed u + combining diaeresis instead of the composed ü.
	payload := decodePayload(t, `{"Status": "Geprüft"}`)

	record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, _ := record.Value("Status")
	if value.Text() != "Geprüft" {
		t.Fatalf("expected NFC-normalized match, got %v", value)
	}
}

func TestDeterministicByteIdenticalOutput(t *testing.T) {
	s := loadSchema(t, testSchema)
	exifMap := exif.Map{
		exif.TagDateTimeOriginal: "2024:06:01 10:15:00",
		exif.TagMake:             "Canon",
	}

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		payload := decodePayload(t, `{"Titel": "Dachstuhl", "Material": ["Holz"], "Baujahr": 1987}`)
		record, err := reconcile.New(reconcile.WithDefaultStatus("Entwurf KI")).
			Reconcile(context.Background(), s, exifMap, payload)
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		raw, err := json.Marshal(record)
		if err != nil {
			t.Fatalf("marshal record: %v", err)
		}
		outputs = append(outputs, raw)
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Fatalf("identical inputs produced different records:\n%s\n%s", outputs[0], outputs[1])
	}
	// The defaulted Status must land at its schema position, not at the end.
	if bytes.Index(outputs[0], []byte(`"Status"`)) > bytes.Index(outputs[0], []byte(`"Kamera"`)) {
		t.Fatalf("fields out of schema order: %s", outputs[0])
	}
}

func TestRecordKeepsSchemaOrder(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Kamera": "Nikon", "Titel": "Halle", "Material": "Holz"}`)

	record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	entries := record.Entries()
	last := -1
	order := map[string]int{"Titel": 0, "Material": 1, "Aufnahmedatum": 2, "Baujahr": 3, "Status": 4, "Ort": 5, "Kamera": 6}
	for _, entry := range entries {
		idx, ok := order[entry.Name]
		if !ok {
			t.Fatalf("unexpected entry %q", entry.Name)
		}
		if idx <= last {
			t.Fatalf("entries out of schema order: %v", entries)
		}
		last = idx
	}
}

type stubGeocoder struct {
	place string
	err   error
	calls int
}

func (g *stubGeocoder) Reverse(_ context.Context, _, _ float64) (string, error) {
	g.calls++
	return g.place, g.err
}

func TestGeocodePopulatesLocation(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Ort": "irgendwo"}`)
	exifMap := exif.Map{
		exif.TagGPSLatitude:  "47.050000",
		exif.TagGPSLongitude: "8.300000",
	}

	geo := &stubGeocoder{place: "Luzern"}
	record, err := reconcile.New(reconcile.WithGeocoder(geo)).
		Reconcile(context.Background(), s, exifMap, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, _ := record.Value("Ort")
	if value.Text() != "Luzern" {
		t.Fatalf("expected geocoded place, got %q", value.Text())
	}
	if geo.calls != 1 {
		t.Fatalf("expected one geocode call, got %d", geo.calls)
	}
}

func TestGeocodeFailureKeepsAnalysisValue(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Ort": "Emmenbrücke"}`)
	exifMap := exif.Map{
		exif.TagGPSLatitude:  "47.050000",
		exif.TagGPSLongitude: "8.300000",
	}

	geo := &stubGeocoder{err: errors.New("timeout")}
	record, err := reconcile.New(reconcile.WithGeocoder(geo)).
		Reconcile(context.Background(), s, exifMap, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, _ := record.Value("Ort")
	if value.Text() != "Emmenbrücke" {
		t.Fatalf("expected analysis fallback, got %q", value.Text())
	}
}

func TestDefaultStatusApplied(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Titel": "Halle"}`)

	record, err := reconcile.New(reconcile.WithDefaultStatus("Entwurf KI")).
		Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, ok := record.Value("Status")
	if !ok || value.Text() != "Entwurf KI" {
		t.Fatalf("expected default status, got %v ok=%v", value, ok)
	}
}

func TestDefaultStatusDoesNotOverride(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Status": "Geprüft"}`)

	record, err := reconcile.New(reconcile.WithDefaultStatus("Entwurf KI")).
		Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	value, _ := record.Value("Status")
	if value.Text() != "Geprüft" {
		t.Fatalf("default must not override a resolved status, got %q", value.Text())
	}
}

func TestReconcileErrorOnBrokenSchemaContract(t *testing.T) {
	broken := &schema.Schema{Fields: []schema.Field{
		{Name: "Kaputt", Title: "Kaputt", Kind: schema.KindChoice},
	}}

	_, err := reconcile.New().Reconcile(context.Background(), broken, exif.Map{}, decodePayload(t, `{}`))
	if !errors.Is(err, reconcile.ErrReconcile) {
		t.Fatalf("expected ErrReconcile, got %v", err)
	}
}

func TestChoiceContainmentProperty(t *testing.T) {
	s := loadSchema(t, testSchema)
	payloads := []string{
		`{"Status": "Entwurf KI", "Material": ["Holz", "Stahl", "Glas"]}`,
		`{"Status": "wild guess", "Material": "Beton"}`,
		`{"Material": 42}`,
	}
	allowed := map[string]struct{}{"Holz": {}, "Glas": {}, "Metall": {}}

	for _, raw := range payloads {
		record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, decodePayload(t, raw))
		if err != nil {
			t.Fatalf("Reconcile failed for %s: %v", raw, err)
		}
		if status, ok := record.Value("Status"); ok && !status.IsSentinel() {
			if status.Text() != "Entwurf KI" && status.Text() != "Geprüft" {
				t.Fatalf("choice containment violated: %q", status.Text())
			}
		}
		if material, ok := record.Value("Material"); ok && !material.IsSentinel() {
			for _, element := range material.List() {
				if _, member := allowed[element]; !member {
					t.Fatalf("multi-choice containment violated: %q", element)
				}
			}
		}
	}
}

func TestRecordJSONRendering(t *testing.T) {
	s := loadSchema(t, testSchema)
	payload := decodePayload(t, `{"Titel": "Halle", "Material": [], "Baujahr": 1987}`)

	record, err := reconcile.New().Reconcile(context.Background(), s, exif.Map{}, payload)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	raw, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("record JSON does not parse: %v", err)
	}
	if decoded["Titel"] != "Halle" {
		t.Fatalf("unexpected Titel: %v", decoded["Titel"])
	}
	if decoded["Baujahr"] != float64(1987) {
		t.Fatalf("numbers must render as JSON numbers: %v", decoded["Baujahr"])
	}
	if list, ok := decoded["Material"].([]any); !ok || len(list) != 0 {
		t.Fatalf("empty multi-choice must render as []: %v", decoded["Material"])
	}
}
