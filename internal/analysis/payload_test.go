package analysis

import (
	"strings"
	"testing"
)

func TestDecodePlainObject(t *testing.T) {
	p := &Payload{}
	if err := p.Decode([]byte(`{"Titel": "Dachstuhl", "Baujahr": 1987}`)); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if value, ok := p.String("Titel"); !ok || value != "Dachstuhl" {
		t.Fatalf("unexpected Titel: %q ok=%v", value, ok)
	}
	if value, ok := p.String("Baujahr"); !ok || value != "1987" {
		t.Fatalf("numbers should stringify: %q ok=%v", value, ok)
	}
}

func TestDecodeFencedPayload(t *testing.T) {
	content := "```json\n{\"Titel\": \"Fassade\"}\n```"
	p := &Payload{}
	if err := p.Decode([]byte(content)); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if value, _ := p.String("Titel"); value != "Fassade" {
		t.Fatalf("unexpected value: %q", value)
	}
}

func TestDecodePayloadWithSurroundingProse(t *testing.T) {
	content := `Here is the analysis you asked for:
{"Material": ["Holz", "Glas"]}
Let me know if you need anything else.`
	p := &Payload{}
	if err := p.Decode([]byte(content)); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	values, ok := p.Strings("Material")
	if !ok || len(values) != 2 || values[0] != "Holz" || values[1] != "Glas" {
		t.Fatalf("unexpected values: %v ok=%v", values, ok)
	}
}

func TestDecodeRejectsEmptyAndGarbage(t *testing.T) {
	for _, content := range []string{"", "   ", "no json here at all"} {
		p := &Payload{}
		if err := p.Decode([]byte(content)); err == nil {
			t.Fatalf("expected decode error for %q", content)
		}
	}
}

func TestStringsNormalizesScalar(t *testing.T) {
	p := &Payload{}
	if err := p.Decode([]byte(`{"Material": "Holz"}`)); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	values, ok := p.Strings("Material")
	if !ok || len(values) != 1 || values[0] != "Holz" {
		t.Fatalf("scalar should become one-element slice: %v", values)
	}
}

func TestStringsDropsUnrenderableElements(t *testing.T) {
	p := &Payload{}
	if err := p.Decode([]byte(`{"Material": ["Holz", {"x": 1}, null, 42]}`)); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	values, _ := p.Strings("Material")
	if len(values) != 2 || values[0] != "Holz" || values[1] != "42" {
		t.Fatalf("unexpected normalized values: %v", values)
	}
}

func TestStringRejectsArrays(t *testing.T) {
	p := &Payload{}
	if err := p.Decode([]byte(`{"Material": ["Holz"]}`)); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if _, ok := p.String("Material"); ok {
		t.Fatal("String must not render arrays")
	}
}

func TestKeysSorted(t *testing.T) {
	p := &Payload{}
	if err := p.Decode([]byte(`{"b": 1, "a": 2, "c": 3}`)); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := strings.Join(p.Keys(), ","); got != "a,b,c" {
		t.Fatalf("unexpected key order: %s", got)
	}
}
