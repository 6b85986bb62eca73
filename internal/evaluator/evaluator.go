// Package evaluator scores analyzer runs with an LLM judge.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"smartgoal/internal/evalplan"
	"smartgoal/internal/goal"
	"smartgoal/internal/llm"
	"smartgoal/internal/prompt"
	"smartgoal/internal/runtime"
	"smartgoal/internal/util/jsonutil"
)

// DefaultParams are the sampling parameters for judge calls.
var DefaultParams = llm.Params{MaxTokens: 8192, Temperature: 0.8, TopK: 50, TopP: 0.95}

// Output is the success body of an evaluator invocation. EvaluatorOutput is
// an evalplan.EvaluatorOutput, or the raw judge object when it breaks the
// schema or does not decode cleanly.
type Output struct {
	RunID           string `json:"run_id"`
	Timestamp       string `json:"timestamp"`
	EvaluatorOutput any    `json:"evaluator_output"`
	AnalyzerInput   any    `json:"analyzer_input"`
}

// Service is the evaluator entrypoint. Model is the judge model id; Builder
// and Limit shape the plan the judge scores.
type Service struct {
	LLM     llm.Client
	Caps    *llm.CapabilityTable
	Model   string
	Builder evalplan.Builder
	Limit   int
	Params  llm.Params
	Now     func() time.Time
}

// Invoke decodes a runtime payload {analyzer_payload, limit?} and runs
// Evaluate.
func (s *Service) Invoke(ctx context.Context, payload map[string]any) (any, error) {
	limit := s.Limit
	if l, ok := payload["limit"].(float64); ok {
		limit = int(l)
	}
	return s.Evaluate(ctx, payload["analyzer_payload"], limit)
}

// Evaluate builds a plan from analyzerPayload and asks the judge to score it.
func (s *Service) Evaluate(ctx context.Context, analyzerPayload any, limit int) (Output, error) {
	if isEmpty(analyzerPayload) {
		return Output{}, runtime.BadRequest("No analyzer_payload provided.")
	}
	start := time.Now()

	plan, err := s.Builder.Build(evalplan.SourceRuns(analyzerPayload), limit)
	if err != nil {
		var pe *evalplan.PlanBuildError
		if errors.As(err, &pe) {
			return Output{}, runtime.BadRequest(err.Error())
		}
		return Output{}, err
	}
	request, err := prompt.EvaluatorRequest(plan, analyzerPayload)
	if err != nil {
		return Output{}, err
	}

	c, _ := s.Caps.Lookup(s.Model)
	inv := llm.Invocation{Model: s.Model, Prompt: request, Params: s.Params}
	if inv.Params == (llm.Params{}) {
		inv.Params = DefaultParams
	}
	if c.ProviderModel != "" {
		inv.Model = c.ProviderModel
	}
	if c.SystemPrompt {
		inv.System = prompt.Evaluator()
	} else {
		inv.Prompt = prompt.Evaluator() + "\n\n" + request
	}

	resp, err := s.LLM.Generate(llm.WithPhase(ctx, "evaluator"), inv)
	if err != nil {
		return Output{}, fmt.Errorf("judge %s: %w", s.Model, err)
	}
	parsed, err := jsonutil.Coerce(resp)
	if err != nil {
		return Output{}, err
	}

	out := Output{
		RunID:           uuid.NewString(),
		Timestamp:       s.now().Format(goal.TimestampLayout),
		EvaluatorOutput: parsed,
		AnalyzerInput:   analyzerPayload,
	}
	out.EvaluatorOutput = typedOutput(parsed)

	log.Info().
		Str("run_id", out.RunID).
		Str("evaluation_type", string(plan.EvaluationType)).
		Int("cases", len(plan.Cases)).
		Dur("elapsed", time.Since(start)).
		Msg("evaluator done")
	return out, nil
}

// typedOutput returns the decoded judge answer, or parsed itself when the
// answer breaks the schema or carries keys EvaluatorOutput does not hold.
func typedOutput(parsed map[string]any) any {
	errs, err := violations(parsed)
	if err != nil {
		log.Warn().Err(err).Msg("keeping raw evaluator output")
		return parsed
	}
	if len(errs) > 0 {
		log.Warn().Strs("violations", errs).Msg("evaluator output does not match schema, keeping raw")
		return parsed
	}
	decoded, err := decodeOutput(parsed)
	if err != nil {
		log.Warn().Err(err).Msg("keeping raw evaluator output")
		return parsed
	}
	return decoded
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// isEmpty reports a missing payload: nil, "", or an empty object or array.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	}
	return false
}
