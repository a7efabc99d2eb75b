package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"photoflow/internal/logging"
)

// ErrSchemaParse marks a schema payload that cannot be turned into field
// descriptors. Fatal for the run: nothing can be reconciled without a schema.
var ErrSchemaParse = errors.New("schema parse error")

// Kind classifies how a field's values are coerced and validated.
type Kind string

const (
	KindText        Kind = "Text"
	KindChoice      Kind = "Choice"
	KindMultiChoice Kind = "MultiChoice"
	KindNumber      Kind = "Number"
	KindDate        Kind = "Date"
)

// Field is one typed descriptor from the target library schema. AllowedValues
// is populated only for Choice and MultiChoice kinds, never empty for those.
type Field struct {
	Name          string
	Title         string
	Kind          Kind
	Required      bool
	Description   string
	AllowedValues []string
}

// IsChoice reports whether values must be drawn from AllowedValues.
func (f Field) IsChoice() bool {
	return f.Kind == KindChoice || f.Kind == KindMultiChoice
}

// Schema is the ordered field list for one target library. Field order is the
// source order and drives deterministic record output.
type Schema struct {
	LibraryTitle string
	Fields       []Field

	byName map[string]int
}

// Field returns the descriptor with the given internal name.
func (s *Schema) Field(name string) (Field, bool) {
	idx, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[idx], true
}

type rawSchema struct {
	LibraryTitle string     `json:"library_title"`
	Fields       []rawField `json:"fields"`
}

type rawField struct {
	InternalName string   `json:"internal_name"`
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Required     bool     `json:"required"`
	Description  string   `json:"description"`
	Choices      []string `json:"choices"`
	Hidden       bool     `json:"hidden"`
}

// Internal names the target store manages itself. Values for these never come
// from reconciliation, so their descriptors are dropped at load time.
var systemFields = map[string]struct{}{
	"ID": {}, "Created": {}, "Modified": {}, "Author": {}, "Editor": {},
	"ContentType": {}, "DocIcon": {}, "ComplianceAssetId": {},
	"FileLeafRef": {}, "CheckoutUser": {}, "LinkFilename": {},
	"LinkFilenameNoMenu": {}, "FileSizeDisplay": {}, "ItemChildCount": {},
	"FolderChildCount": {}, "AppAuthor": {}, "AppEditor": {}, "Edit": {},
	"ParentVersionString": {}, "ParentLeafName": {}, "MediaServiceLocation": {},
	"MediaServiceImageTags": {}, "Vorschau": {}, "OriginalName": {},
}

// Source type tags that never hold reconcilable values.
var systemTypes = map[string]struct{}{
	"Computed": {}, "Counter": {}, "Lookup": {}, "User": {}, "Thumbnail": {},
}

// Load parses a raw schema payload into typed field descriptors.
//
// Unknown source type tags map to Text: the target store's field taxonomy is
// not fully known in advance, so an unrecognized tag is logged as a warning
// rather than rejected. A Choice or MultiChoice field with no choices is
// likewise demoted to Text so that choice fields always carry a non-empty
// allowed set. Load fails only when the payload is not a JSON object or has
// no field list at all.
func Load(raw []byte, logger *slog.Logger) (*Schema, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	var parsed rawSchema
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrSchemaParse, err)
	}
	if parsed.Fields == nil {
		return nil, fmt.Errorf("%w: payload has no field list", ErrSchemaParse)
	}

	schema := &Schema{
		LibraryTitle: strings.TrimSpace(parsed.LibraryTitle),
		byName:       make(map[string]int),
	}

	for _, raw := range parsed.Fields {
		name := strings.TrimSpace(raw.InternalName)
		if name == "" {
			continue
		}
		if raw.Hidden || strings.HasPrefix(name, "_") || strings.HasPrefix(name, "ows_") {
			continue
		}
		if _, skip := systemFields[name]; skip {
			continue
		}
		if _, skip := systemTypes[raw.Type]; skip {
			continue
		}
		if _, dup := schema.byName[name]; dup {
			logger.Warn("duplicate field in schema, keeping first",
				logging.String(logging.FieldField, name))
			continue
		}

		field := Field{
			Name:        name,
			Title:       strings.TrimSpace(raw.Title),
			Kind:        mapKind(raw.Type, name, logger),
			Required:    raw.Required,
			Description: strings.TrimSpace(raw.Description),
		}

		if field.IsChoice() {
			choices := trimChoices(raw.Choices)
			if len(choices) == 0 {
				logger.Warn("choice field has no allowed values, treating as text",
					logging.String(logging.FieldField, name))
				field.Kind = KindText
			} else {
				field.AllowedValues = choices
			}
		}

		schema.byName[name] = len(schema.Fields)
		schema.Fields = append(schema.Fields, field)
	}

	return schema, nil
}

func mapKind(typeTag, name string, logger *slog.Logger) Kind {
	switch typeTag {
	case "Choice":
		return KindChoice
	case "MultiChoice":
		return KindMultiChoice
	case "Number", "Integer", "Currency":
		return KindNumber
	case "DateTime":
		return KindDate
	case "Text", "Note", "URL":
		return KindText
	default:
		logger.Warn("unknown field type, treating as text",
			logging.String(logging.FieldField, name),
			logging.String("type", typeTag))
		return KindText
	}
}

func trimChoices(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, choice := range raw {
		trimmed := strings.TrimSpace(choice)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
