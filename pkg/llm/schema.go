package llm

import (
	"maps"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
)

// SchemaFor derives a JSON schema from the Go type T.
func SchemaFor[T any]() (*jsonschema.Schema, error) {
	return jsonschema.For[T](&jsonschema.ForOptions{})
}

// StrictSchema returns a copy of s shaped for strict structured output:
// objects reject additional properties and list every property as required.
func StrictSchema(s *jsonschema.Schema) *jsonschema.Schema {
	if s == nil {
		return nil
	}
	return strict(s.CloneSchemas())
}

func strict(m *jsonschema.Schema) *jsonschema.Schema {
	if m == nil {
		return nil
	}
	switch m.Type {
	case "array":
		m.Items = strict(m.Items)
	case "object":
		m.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
		required := make(map[string]struct{}, len(m.Properties))
		for k, v := range m.Properties {
			required[k] = struct{}{}
			m.Properties[k] = strict(v)
		}
		m.Required = slices.Sorted(maps.Keys(required))
	}
	return m
}
