package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Payload is one model response for one image. The producer is a language
// model, so the payload is untrusted: keys may be missing or extra and values
// may be wrong-typed. Accessors normalize instead of failing.
type Payload struct {
	values map[string]any
}

// Decode parses a model response into the payload. Code fences and prose
// around the JSON object are tolerated.
func (p *Payload) Decode(content []byte) error {
	var values map[string]any
	if err := decodeModelJSON(string(content), &values); err != nil {
		return fmt.Errorf("analysis payload: %w", err)
	}
	p.values = values
	return nil
}

// Has reports whether the model supplied any value for the key.
func (p *Payload) Has(key string) bool {
	if p == nil || p.values == nil {
		return false
	}
	_, ok := p.values[key]
	return ok
}

// Keys returns the payload keys in sorted order.
func (p *Payload) Keys() []string {
	if p == nil || p.values == nil {
		return nil
	}
	keys := make([]string, 0, len(p.values))
	for key := range p.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value for key rendered as a single string. Numbers and
// booleans are stringified; arrays are rejected.
func (p *Payload) String(key string) (string, bool) {
	if p == nil || p.values == nil {
		return "", false
	}
	value, ok := p.values[key]
	if !ok {
		return "", false
	}
	return stringify(value)
}

// Strings returns the value for key normalized to a string slice. A scalar
// becomes a one-element slice; array elements that cannot be rendered as
// strings are dropped.
func (p *Payload) Strings(key string) ([]string, bool) {
	if p == nil || p.values == nil {
		return nil, false
	}
	value, ok := p.values[key]
	if !ok {
		return nil, false
	}
	switch typed := value.(type) {
	case []any:
		out := make([]string, 0, len(typed))
		for _, element := range typed {
			if rendered, ok := stringify(element); ok {
				out = append(out, rendered)
			}
		}
		return out, true
	default:
		rendered, ok := stringify(value)
		if !ok {
			return nil, false
		}
		return []string{rendered}, true
	}
}

func stringify(value any) (string, bool) {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	case nil:
		return "", false
	default:
		return "", false
	}
}

// decodeModelJSON decodes JSON from a model response, handling the common
// formatting quirks: code fences, a leading explanation sentence, or both.
func decodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}

	sanitizedErr := json.Unmarshal([]byte(sanitized), target)
	if sanitizedErr == nil {
		return nil
	}
	return fmt.Errorf("%w (sanitized payload snippet: %s)", sanitizedErr, summarizePayloadSnippet(sanitized))
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
