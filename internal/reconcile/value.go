package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Sentinel is the literal written for "value could not be determined". It is
// distinct from an empty multi-choice list, which means "explicitly no
// applicable choices".
const Sentinel = "none"

// ValueKind tags the variant held by a FieldValue.
type ValueKind int

const (
	ValueSentinel ValueKind = iota
	ValueText
	ValueNumber
	ValueDate
	ValueChoice
	ValueMultiChoice
)

// FieldValue is a validated value produced by the coercion rules. Values are
// only constructed through the coercion path, never passed through untyped.
type FieldValue struct {
	kind   ValueKind
	text   string
	number float64
	list   []string
}

// SentinelValue marks a field whose value could not be determined.
func SentinelValue() FieldValue {
	return FieldValue{kind: ValueSentinel}
}

// TextValue holds free text.
func TextValue(s string) FieldValue {
	return FieldValue{kind: ValueText, text: s}
}

// NumberValue holds a parsed numeric value.
func NumberValue(f float64) FieldValue {
	return FieldValue{kind: ValueNumber, number: f}
}

// DateValue holds a normalized timestamp rendering.
func DateValue(s string) FieldValue {
	return FieldValue{kind: ValueDate, text: s}
}

// ChoiceValue holds one entry drawn from a field's allowed set.
func ChoiceValue(s string) FieldValue {
	return FieldValue{kind: ValueChoice, text: s}
}

// MultiChoiceValue holds zero or more entries drawn from the allowed set.
func MultiChoiceValue(values []string) FieldValue {
	if values == nil {
		values = []string{}
	}
	return FieldValue{kind: ValueMultiChoice, list: values}
}

// Kind returns the variant tag.
func (v FieldValue) Kind() ValueKind { return v.kind }

// IsSentinel reports whether the value is the unknown marker.
func (v FieldValue) IsSentinel() bool { return v.kind == ValueSentinel }

// Text returns the string form for text, date, and choice variants.
func (v FieldValue) Text() string { return v.text }

// Number returns the numeric value; meaningful only for ValueNumber.
func (v FieldValue) Number() float64 { return v.number }

// List returns the entries of a multi-choice value.
func (v FieldValue) List() []string { return v.list }

// MarshalJSON renders the variant in its wire form: sentinel and string
// variants as JSON strings, numbers as JSON numbers, multi-choice as arrays.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNumber:
		return []byte(strconv.FormatFloat(v.number, 'f', -1, 64)), nil
	case ValueMultiChoice:
		return json.Marshal(v.list)
	case ValueSentinel:
		return json.Marshal(Sentinel)
	default:
		return json.Marshal(v.text)
	}
}

// Timestamp layouts accepted from cameras and model output. The EXIF layout
// comes first since it is the dominant producer.
var dateLayouts = []string{
	"2006:01:02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
}

// parseDate normalizes a timestamp string. The rendered form keeps the
// source's wall-clock time and omits a zone unless the source carried one.
func parseDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if layout == time.RFC3339 {
			return parsed.Format(time.RFC3339), true
		}
		if layout == "2006-01-02" || layout == "02.01.2006" {
			return parsed.Format("2006-01-02"), true
		}
		return parsed.Format("2006-01-02T15:04:05"), true
	}
	return "", false
}

// parseNumber accepts plain decimals plus the comma decimal separator common
// in German-language model output.
func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
		return parsed, true
	}
	if strings.Count(raw, ",") == 1 && !strings.Contains(raw, ".") {
		if parsed, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
