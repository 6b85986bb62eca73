package evaluator

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/xeipuuv/gojsonschema"

	"smartgoal/internal/evalplan"
)

//go:embed evaluator_output.schema.json
var outputSchemaJSON string

var outputSchema = gojsonschema.NewStringLoader(outputSchemaJSON)

// violations lists the schema problems of a judge answer, sorted. A nil
// result means the answer conforms.
func violations(parsed map[string]any) ([]string, error) {
	result, err := gojsonschema.Validate(outputSchema, gojsonschema.NewGoLoader(parsed))
	if err != nil {
		return nil, fmt.Errorf("validate evaluator output: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	sort.Strings(errs)
	return errs, nil
}

// decodeOutput reads a conforming judge answer into EvaluatorOutput. Keys the
// struct does not carry are an error so that nothing is dropped silently.
func decodeOutput(parsed map[string]any) (evalplan.EvaluatorOutput, error) {
	var out evalplan.EvaluatorOutput
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(parsed); err != nil {
		return out, fmt.Errorf("decode evaluator output: %w", err)
	}
	if out.Scores == nil {
		out.Scores = []evalplan.ScoreRecord{}
	}
	return out, nil
}
