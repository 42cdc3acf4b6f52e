package docs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// RenderSchema renders a config schema as a TypeScript-like type
// expression, e.g.
//
//	{
//	  counters: {
//	    [string]: { ... }
//	  }
//	  prompt_timeout: Optional<string>
//	}
//
// Kinds it does not recognise render as "unknown".
func RenderSchema(s *jsonschema.Schema) string {
	if s == nil {
		return "unknown"
	}

	switch {
	case len(s.AllOf) > 0:
		return joinRendered(s.AllOf, " & ")
	case len(s.AnyOf) > 0:
		return joinRendered(s.AnyOf, " | ")
	case len(s.OneOf) > 0:
		return joinRendered(s.OneOf, " | ")
	case s.Const != nil:
		return literal(*s.Const)
	case len(s.Enum) > 0:
		parts := make([]string, len(s.Enum))
		for i, v := range s.Enum {
			parts[i] = literal(v)
		}
		return strings.Join(parts, " | ")
	case len(s.Types) > 0:
		return renderTypes(s, s.Types)
	case s.Type != "":
		return renderTypes(s, []string{s.Type})
	case s.Not != nil && isEmptySchema(s.Not):
		return "never"
	}
	return "unknown"
}

func renderTypes(s *jsonschema.Schema, types []string) string {
	nullable := false
	parts := make([]string, 0, len(types))
	for _, t := range types {
		if t == "null" {
			nullable = true
			continue
		}
		parts = append(parts, renderType(s, t))
	}

	inner := strings.Join(parts, " | ")
	switch {
	case nullable && inner == "":
		return "null"
	case nullable:
		return "Nullable<" + inner + ">"
	}
	return inner
}

func renderType(s *jsonschema.Schema, t string) string {
	switch t {
	case "object":
		return renderObject(s)
	case "array":
		return "Array<" + RenderSchema(s.Items) + ">"
	case "string":
		return "string"
	case "number", "integer":
		return "number"
	case "boolean":
		return "boolean"
	}
	return "unknown"
}

func renderObject(s *jsonschema.Schema) string {
	if len(s.Properties) == 0 {
		if s.AdditionalProperties != nil {
			return "{\n" + indentLines("[string]: "+RenderSchema(s.AdditionalProperties), 2) + "\n}"
		}
		return "{}"
	}

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		rendered := RenderSchema(s.Properties[k])
		if !required[k] {
			rendered = "Optional<" + rendered + ">"
		}
		lines = append(lines, indentLines(k+": "+rendered, 2))
	}
	return "{\n" + strings.Join(lines, "\n") + "\n}"
}

func joinRendered(schemas []*jsonschema.Schema, sep string) string {
	parts := make([]string, len(schemas))
	for i, s := range schemas {
		parts[i] = RenderSchema(s)
	}
	return strings.Join(parts, sep)
}

func literal(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}

// isEmptySchema reports whether s accepts everything, so that {"not": s}
// accepts nothing.
func isEmptySchema(s *jsonschema.Schema) bool {
	b, err := json.Marshal(s)
	if err != nil {
		return false
	}
	return string(b) == "{}" || string(b) == "true"
}

func indentLines(text string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n")
}
