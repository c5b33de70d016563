package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for ras.yml.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Unknown top-level keys are extensions and stay allowed.
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
		Anonymous:                 true,
	}

	schema := r.Reflect(&Config{})
	schema.Title = "RAS Configuration"
	schema.Description = "Schema for ras.yml workspace configuration."

	return json.MarshalIndent(schema, "", "  ")
}
