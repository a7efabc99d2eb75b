package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"photoflow/internal/analysis"
	"photoflow/internal/exif"
	"photoflow/internal/logging"
	"photoflow/internal/schema"
)

// ErrReconcile marks a contract violation between the reconciler and the
// schema, such as a choice field with an empty allowed set. Data-quality
// problems never raise it; they resolve to sentinels and warnings.
var ErrReconcile = errors.New("reconcile contract violation")

// Geocoder resolves coordinates to a place name. Failures are tolerated.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// Reconciler merges schema, EXIF, and analysis data into enriched records.
type Reconciler struct {
	geocoder      Geocoder
	logger        *slog.Logger
	defaultStatus string
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithGeocoder enables reverse geocoding for location fields.
func WithGeocoder(geocoder Geocoder) Option {
	return func(r *Reconciler) { r.geocoder = geocoder }
}

// WithDefaultStatus sets the value written to an unresolved Status field.
func WithDefaultStatus(status string) Option {
	return func(r *Reconciler) { r.defaultStatus = strings.TrimSpace(status) }
}

// WithLogger sets the warning logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// candidate is the raw value chosen from one source before coercion.
type candidate struct {
	scalar string
	list   []string
	isList bool
}

// Reconcile resolves every schema field from the highest-priority source that
// has a value, coerces it to the field's kind, and guarantees an entry for
// every required field. Fields resolve strictly in schema order, so identical
// inputs produce byte-identical records.
func (r *Reconciler) Reconcile(ctx context.Context, s *schema.Schema, exifMap exif.Map, payload *analysis.Payload) (*Record, error) {
	record := newRecord()

	for _, field := range s.Fields {
		if field.IsChoice() && len(field.AllowedValues) == 0 {
			return nil, fmt.Errorf("%w: field %q is %s with empty allowed set", ErrReconcile, field.Name, field.Kind)
		}

		var value FieldValue
		have := false
		if raw, found := r.selectSource(ctx, field, exifMap, payload, record); found {
			value = r.coerce(field, raw, record)
			have = true
		}

		// A Status field that resolved to nothing (or to the sentinel) gets
		// the configured initial value, marking the record for human review.
		if field.Name == "Status" && r.defaultStatus != "" && (!have || value.IsSentinel()) {
			if fallback, ok := r.statusDefault(field); ok {
				value = fallback
				have = true
			}
		}

		// Required fields that no source supplied still get an entry.
		if !have && field.Required {
			value = SentinelValue()
			have = true
		}

		if have {
			record.set(field.Name, value)
		}
	}
	return record, nil
}

// selectSource walks the field's priority order and returns the first source
// that has a value at all. Parseability is judged later: a present but
// malformed value still claims the field (and coerces to the sentinel).
func (r *Reconciler) selectSource(ctx context.Context, field schema.Field, exifMap exif.Map, payload *analysis.Payload, record *Record) (candidate, bool) {
	title := field.Title
	if title == "" {
		title = field.Name
	}

	for _, source := range prioritiesFor(title) {
		switch source {
		case sourceExif:
			tag, ok := exifTagByTitle[title]
			if !ok {
				continue
			}
			if raw, present := exifMap[tag]; present && strings.TrimSpace(raw) != "" {
				return candidate{scalar: raw}, true
			}
		case sourceExifGPS:
			lat, lon, ok := exifMap.Coordinates()
			if !ok || r.geocoder == nil {
				continue
			}
			place, err := r.geocoder.Reverse(ctx, lat, lon)
			if err != nil {
				// Best-effort enhancement: fall through to the next source.
				r.logger.Warn("reverse geocode failed, keeping fallback source",
					logging.String(logging.FieldField, field.Name),
					logging.Error(err))
				record.warn(fmt.Sprintf("%s: geocode failed: %v", field.Name, err))
				continue
			}
			return candidate{scalar: place}, true
		case sourceAnalysis:
			if payload == nil {
				continue
			}
			key := title
			if !payload.Has(key) {
				key = field.Name
			}
			if !payload.Has(key) {
				continue
			}
			if values, ok := payload.Strings(key); ok {
				if scalar, scalarOK := payload.String(key); scalarOK {
					return candidate{scalar: scalar}, true
				}
				return candidate{list: values, isList: true}, true
			}
		}
	}
	return candidate{}, false
}

func (r *Reconciler) coerce(field schema.Field, raw candidate, record *Record) FieldValue {
	switch field.Kind {
	case schema.KindNumber:
		scalar := raw.firstScalar()
		if parsed, ok := parseNumber(scalar); ok {
			return NumberValue(parsed)
		}
		r.warnField(record, field.Name, fmt.Sprintf("unparseable number %q", scalar))
		return SentinelValue()

	case schema.KindDate:
		scalar := raw.firstScalar()
		if rendered, ok := parseDate(scalar); ok {
			return DateValue(rendered)
		}
		r.warnField(record, field.Name, fmt.Sprintf("unparseable date %q", scalar))
		return SentinelValue()

	case schema.KindChoice:
		scalar := raw.firstScalar()
		if matched, ok := matchChoice(scalar, field.AllowedValues); ok {
			return ChoiceValue(matched)
		}
		r.warnField(record, field.Name, fmt.Sprintf("value %q not in allowed set", scalar))
		return SentinelValue()

	case schema.KindMultiChoice:
		values := raw.asList()
		kept := make([]string, 0, len(values))
		for _, value := range values {
			if matched, ok := matchChoice(value, field.AllowedValues); ok {
				kept = append(kept, matched)
			} else {
				r.warnField(record, field.Name, fmt.Sprintf("dropped value %q not in allowed set", value))
			}
		}
		// An emptied list stays a list: "no applicable choices" is not the
		// same statement as "value unknown".
		return MultiChoiceValue(kept)

	default:
		if raw.isList {
			return TextValue(strings.Join(raw.list, ", "))
		}
		return TextValue(strings.TrimSpace(raw.scalar))
	}
}

func (c candidate) firstScalar() string {
	if c.isList {
		if len(c.list) == 0 {
			return ""
		}
		return c.list[0]
	}
	return c.scalar
}

func (c candidate) asList() []string {
	if c.isList {
		return c.list
	}
	if strings.TrimSpace(c.scalar) == "" {
		return nil
	}
	return []string{c.scalar}
}

// matchChoice compares case-sensitively after Unicode NFC normalization, so
// composed and decomposed spellings of the same umlaut match. The schema's
// spelling wins in the output.
func matchChoice(value string, allowed []string) (string, bool) {
	normalized := norm.NFC.String(strings.TrimSpace(value))
	for _, choice := range allowed {
		if norm.NFC.String(choice) == normalized {
			return choice, true
		}
	}
	return "", false
}

func (r *Reconciler) warnField(record *Record, name, message string) {
	r.logger.Warn("field resolved to sentinel",
		logging.String(logging.FieldField, name),
		logging.String("reason", message))
	record.warn(fmt.Sprintf("%s: %s", name, message))
}

// statusDefault renders the configured initial status for the field's kind,
// if it is valid there.
func (r *Reconciler) statusDefault(field schema.Field) (FieldValue, bool) {
	switch field.Kind {
	case schema.KindChoice:
		if matched, ok := matchChoice(r.defaultStatus, field.AllowedValues); ok {
			return ChoiceValue(matched), true
		}
	case schema.KindText:
		return TextValue(r.defaultStatus), true
	}
	return FieldValue{}, false
}
