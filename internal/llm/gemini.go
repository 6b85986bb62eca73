package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	genai "google.golang.org/genai"
)

// DefaultGeminiModel serves ids that do not name a Gemini model themselves.
const DefaultGeminiModel = "gemini-2.5-flash"

// maxToolTurns bounds the function-calling loop.
const maxToolTurns = 8

// GeminiClient is a thin wrapper around the official genai client. It runs
// the function-calling loop for tools declared on the invocation. Retries,
// rate limiting and logging are applied via Middleware.
type GeminiClient struct {
	cli          *genai.Client
	defaultModel string
}

func NewGeminiClient(ctx context.Context, apiKey, defaultModel string) (*GeminiClient, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = DefaultGeminiModel
	}
	return &GeminiClient{cli: cli, defaultModel: defaultModel}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.defaultModel }
func (g *GeminiClient) Close() error { return nil }

// Generate sends the invocation and answers tool calls until the model
// returns text.
func (g *GeminiClient) Generate(ctx context.Context, inv Invocation) (Response, error) {
	model := g.resolveModel(inv.Model)
	cfg := generateConfig(inv)
	contents := []*genai.Content{genai.NewContentFromText(inv.Prompt, genai.RoleUser)}

	var calls []string
	for turn := 0; turn < maxToolTurns; turn++ {
		resp, err := g.cli.Models.GenerateContent(ctx, model, contents, cfg)
		if err != nil {
			return Response{ToolCalls: calls}, classify(err)
		}
		fcs := resp.FunctionCalls()
		if len(fcs) == 0 || len(inv.Tools) == 0 {
			text := resp.Text()
			if strings.TrimSpace(text) == "" {
				return Response{ToolCalls: calls}, ErrEmptyResponse
			}
			return Response{Message: text, ToolCalls: calls}, nil
		}
		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}
		parts := make([]*genai.Part, 0, len(fcs))
		for _, fc := range fcs {
			calls = append(calls, fc.Name)
			parts = append(parts, genai.NewPartFromFunctionResponse(fc.Name, callTool(ctx, inv.Tools, fc.Name, fc.Args)))
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}
	return Response{ToolCalls: calls}, fmt.Errorf("gemini: no final answer after %d tool turns", maxToolTurns)
}

// classify marks client errors other than rate limiting as permanent.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
		return &PermanentError{Err: err}
	}
	return err
}

// resolveModel passes Gemini model names through and maps anything else onto
// the default model.
func (g *GeminiClient) resolveModel(id string) string {
	if strings.HasPrefix(id, "gemini-") || strings.HasPrefix(id, "models/") {
		return id
	}
	return g.defaultModel
}

func generateConfig(inv Invocation) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if inv.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(inv.System, genai.RoleUser)
	}
	p := inv.Params
	if p.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(p.MaxTokens)
	}
	if p.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(p.Temperature))
	}
	if p.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(p.TopP))
	}
	if p.TopK > 0 {
		cfg.TopK = genai.Ptr(float32(p.TopK))
	}
	if len(inv.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(inv.Tools))
		for _, t := range inv.Tools {
			decls = append(decls, declaration(t))
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

func declaration(t Tool) *genai.FunctionDeclaration {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
	}
	for _, p := range t.Params {
		schema.Properties[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return &genai.FunctionDeclaration{Name: t.Name, Description: t.Description, Parameters: schema}
}

// callTool runs the named tool. Unknown tools and handler failures are
// reported back to the model as an error field.
func callTool(ctx context.Context, tools []Tool, name string, args map[string]any) map[string]any {
	for _, t := range tools {
		if t.Name != name || t.Handler == nil {
			continue
		}
		out, err := t.Handler(ctx, args)
		if err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("tool call failed")
			return map[string]any{"error": err.Error()}
		}
		return out
	}
	return map[string]any{"error": fmt.Sprintf("unknown tool %q", name)}
}
