package vcs

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateManifestSchema generates the JSON Schema for manifest files
func GenerateManifestSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
		Anonymous:                 true,
	}

	schema := r.Reflect(&Manifest{})
	schema.Title = "RAS Repository Manifest"
	schema.Description = "Repositories checked out under one work dir, keyed by path."

	return json.MarshalIndent(schema, "", "  ")
}
