package counters

import "github.com/google/jsonschema-go/jsonschema"

// ConfigSchema describes the counters plugin configuration for the docs API.
func ConfigSchema() *jsonschema.Schema {
	definition := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":          {Type: "string"},
			"per_channel":   {Type: "boolean"},
			"per_user":      {Type: "boolean"},
			"can_view":      {Type: "boolean"},
			"initial_value": {Type: "number"},
		},
		Required: []string{"per_channel", "per_user", "initial_value"},
	}

	override := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"channel_ids": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"user_ids":    {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"counters": {
				Type: "object",
				AdditionalProperties: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"can_view": {Types: []string{"boolean", "null"}},
					},
					Required: []string{"can_view"},
				},
			},
		},
		Required: []string{"counters"},
	}

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"counters": {
				Type:                 "object",
				AdditionalProperties: definition,
			},
			"prompt_timeout": {
				AnyOf: []*jsonschema.Schema{
					{Type: "string"},
					{Type: "number"},
				},
			},
			"overrides": {Type: "array", Items: override},
		},
		Required: []string{"counters"},
	}
}
