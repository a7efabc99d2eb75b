package reconcile

import (
	"bytes"
	"encoding/json"
)

// Entry pairs a field's internal name with its validated value.
type Entry struct {
	Name  string
	Value FieldValue
}

// Record is one enriched metadata record. Entries keep schema order, so the
// JSON rendering of identical inputs is byte-identical. Write-once: built by
// the reconciler, then read by the upload side.
type Record struct {
	entries  []Entry
	byName   map[string]int
	warnings []string
}

func newRecord() *Record {
	return &Record{byName: make(map[string]int)}
}

func (r *Record) set(name string, value FieldValue) {
	if idx, ok := r.byName[name]; ok {
		r.entries[idx].Value = value
		return
	}
	r.byName[name] = len(r.entries)
	r.entries = append(r.entries, Entry{Name: name, Value: value})
}

func (r *Record) warn(message string) {
	r.warnings = append(r.warnings, message)
}

// Value returns the validated value for a field.
func (r *Record) Value(name string) (FieldValue, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return FieldValue{}, false
	}
	return r.entries[idx].Value, true
}

// Entries returns the record's fields in schema order.
func (r *Record) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of resolved fields.
func (r *Record) Len() int { return len(r.entries) }

// Warnings lists the per-field data-quality notes collected while resolving.
func (r *Record) Warnings() []string {
	out := make([]string, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// MarshalJSON renders the record as a JSON object in schema field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := entry.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
