package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed profiles.schema.json
var profilesSchemaJSON string

// ValidateProfiles validates raw profile settings against the JSON schema.
func ValidateProfiles(settings map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(profilesSchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(settings)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate model profiles schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return fmt.Errorf("model profiles schema validation failed: %s", strings.Join(errs, "; "))
}
