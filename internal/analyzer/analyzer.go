// Package analyzer turns a prompt naming a clinical document into a
// normalized SMART-goal run, persists it, and optionally hands it to the
// evaluator.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"smartgoal/internal/fetch"
	"smartgoal/internal/goal"
	"smartgoal/internal/llm"
	"smartgoal/internal/runtime"
	"smartgoal/internal/util/jsonutil"
)

// ArtifactPrefix groups mirrored per-run files in object storage.
const ArtifactPrefix = "analyzer-runs"

var (
	reUploadPath   = regexp.MustCompile(`\[UPLOADED_FILE:\s*([^\]]+)\]`)
	reUploadMarker = regexp.MustCompile(`\[UPLOADED_FILE:[^\]]+\]`)
)

// DefaultParams are the sampling parameters for analyzer calls.
var DefaultParams = llm.Params{MaxTokens: 4096, Temperature: 0.8, TopK: 50, TopP: 0.95}

// Fetcher reads documents and exposes the fetch_data tool.
type Fetcher interface {
	Fetch(ctx context.Context, source string) fetch.Result
	Tool() llm.Tool
}

// RunLog receives every produced run.
type RunLog interface {
	Append(ctx context.Context, run goal.AnalyzerRun) error
}

// Mirror copies per-run files to object storage.
type Mirror interface {
	Put(ctx context.Context, prefix, name string, content []byte) error
}

// Evaluator scores a run and returns the judge's evaluator_output.
type Evaluator interface {
	Evaluate(ctx context.Context, run goal.AnalyzerRun) (map[string]any, error)
}

// Request is one analyzer invocation.
type Request struct {
	Prompt  string
	ModelID string
}

// Result is the success body of an analyzer invocation.
type Result struct {
	ModelOutput     goal.AnalyzerRun `json:"model_output"`
	EvaluatorResult map[string]any   `json:"evaluator_result,omitempty"`
}

// Service runs analyzer invocations. Artifacts and Evaluator are optional.
type Service struct {
	LLM          llm.Client
	Caps         *llm.CapabilityTable
	Fetcher      Fetcher
	Runs         RunLog
	Artifacts    Mirror
	Evaluator    Evaluator
	DefaultModel string
	OutputDir    string
	Params       llm.Params
	Now          func() time.Time
}

// Invoke decodes a runtime payload {prompt, model_id?} and runs Analyze.
func (s *Service) Invoke(ctx context.Context, payload map[string]any) (any, error) {
	var req Request
	switch p := payload["prompt"].(type) {
	case string:
		req.Prompt = p
	case nil:
	default:
		return nil, runtime.BadRequest("prompt must be a string")
	}
	if m, ok := payload["model_id"].(string); ok {
		req.ModelID = m
	}
	return s.Analyze(ctx, req)
}

// Analyze produces, persists and optionally evaluates one run.
func (s *Service) Analyze(ctx context.Context, req Request) (Result, error) {
	input := strings.TrimSpace(req.Prompt)
	if input == "" {
		return Result{}, runtime.BadRequest("No prompt provided.")
	}

	dataSource := input
	var filePath string
	if m := reUploadPath.FindStringSubmatch(input); m != nil {
		filePath = strings.TrimSpace(m[1])
		dataSource = filePath
		input = strings.TrimSpace(reUploadMarker.ReplaceAllString(input, ""))
		defer removeUpload(filePath)
	}

	modelID := strings.TrimSpace(req.ModelID)
	if modelID == "" {
		modelID = s.DefaultModel
	}
	start := time.Now()
	log.Info().Str("model_id", modelID).Str("data_source", dataSource).Msg("analyzer request")

	ctx = llm.WithPhase(ctx, "analyzer")
	resp, err := s.LLM.Generate(ctx, s.invocation(ctx, modelID, input, filePath))
	if err != nil {
		return Result{}, fmt.Errorf("model %s: %w", modelID, err)
	}
	parsed, err := jsonutil.Coerce(resp)
	if err != nil {
		return Result{}, err
	}

	run := goal.AnalyzerRun{
		ModelID:    modelID,
		DataSource: dataSource,
		Timestamp:  s.now().Format(goal.TimestampLayout),
		SmartGoals: goal.Normalize(goal.ExtractGoals(parsed)),
	}
	if err := s.persist(ctx, run); err != nil {
		return Result{}, err
	}

	out := Result{ModelOutput: run}
	if s.Evaluator != nil {
		eval, err := s.Evaluator.Evaluate(ctx, run)
		if err != nil {
			log.Warn().Err(err).Msg("evaluator runtime failed")
			eval = map[string]any{"error": err.Error()}
		}
		out.EvaluatorResult = eval
	}

	log.Info().
		Str("model_id", modelID).
		Int("goals", len(run.SmartGoals)).
		Dur("elapsed", time.Since(start)).
		Msg("analyzer done")
	return out, nil
}

// persist writes the per-run file, appends to the run log and mirrors the
// file to artifacts. Mirror failures are logged only.
func (s *Service) persist(ctx context.Context, run goal.AnalyzerRun) error {
	content, err := jsonutil.MarshalNoEscapeIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	name := runFileName(run.DataSource, run.ModelID)
	dir := s.OutputDir
	if dir == "" {
		dir = "./outputs"
	}
	if _, err := writeFile(dir, name, content); err != nil {
		return fmt.Errorf("write run file: %w", err)
	}
	if s.Runs != nil {
		if err := s.Runs.Append(ctx, run); err != nil {
			return fmt.Errorf("append run log: %w", err)
		}
	}
	if s.Artifacts != nil {
		if err := s.Artifacts.Put(ctx, ArtifactPrefix, name, content); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("artifact mirror failed")
		}
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func removeUpload(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("path", path).Msg("could not remove uploaded file")
		return
	}
	log.Debug().Str("path", path).Msg("removed uploaded file")
}
