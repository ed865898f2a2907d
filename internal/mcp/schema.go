package mcp

import (
	"github.com/invopop/jsonschema"
)

// SchemaFor reflects an MCP input schema from an argument struct. Field
// names come from json tags; descriptions, bounds and required-ness come
// from jsonschema tags.
func SchemaFor(args interface{}) InputSchema {
	reflector := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
	}

	schema := reflector.Reflect(args)

	properties := make(map[string]PropertySchema)
	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			properties[pair.Key] = convertProperty(pair.Value)
		}
	}

	return InputSchema{
		Type:       "object",
		Properties: properties,
		Required:   schema.Required,
	}
}

func convertProperty(s *jsonschema.Schema) PropertySchema {
	prop := PropertySchema{
		Type:        s.Type,
		Description: s.Description,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
		MinLength:   s.MinLength,
		MaxLength:   s.MaxLength,
		Default:     s.Default,
	}
	if s.Items != nil {
		items := convertProperty(s.Items)
		prop.Items = &items
	}
	return prop
}
