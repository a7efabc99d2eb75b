package analysis

import (
	"fmt"
	"strings"

	"photoflow/internal/schema"
)

// BuildPrompt renders the field list into instructions for the vision model.
// Keys in the response are the field titles, since that is how a human would
// fill the form and how the reconciler matches values back.
func BuildPrompt(s *schema.Schema) string {
	var b strings.Builder
	b.WriteString("Analyze the photo and return a JSON object describing it.\n")
	b.WriteString("Use exactly these keys. Leave a key out if you cannot tell.\n\n")

	for _, field := range s.Fields {
		title := field.Title
		if title == "" {
			title = field.Name
		}
		switch field.Kind {
		case schema.KindChoice:
			fmt.Fprintf(&b, "- %q: one of: %s\n", title, strings.Join(field.AllowedValues, ", "))
		case schema.KindMultiChoice:
			fmt.Fprintf(&b, "- %q: array with any of: %s\n", title, strings.Join(field.AllowedValues, ", "))
		case schema.KindNumber:
			fmt.Fprintf(&b, "- %q: a number\n", title)
		case schema.KindDate:
			fmt.Fprintf(&b, "- %q: a date in ISO 8601 form\n", title)
		default:
			if field.Description != "" {
				fmt.Fprintf(&b, "- %q: %s\n", title, field.Description)
			} else {
				fmt.Fprintf(&b, "- %q: free text\n", title)
			}
		}
	}

	b.WriteString("\nRespond with the JSON object only, no explanation.")
	return b.String()
}
