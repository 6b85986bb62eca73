package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
)

// GroqClient calls the Groq Chat Completions API (OpenAI-compatible),
// including its function-calling loop.
// See: https://console.groq.com/docs/api-reference
type GroqClient struct {
	http         *http.Client
	apiKey       string
	defaultModel string
	baseURL      string
}

// NewGroqClient creates a Groq client. Empty model and baseURL take the
// package defaults.
func NewGroqClient(apiKey, model, baseURL string) *GroqClient {
	if model == "" {
		model = DefaultGroqModel
	}
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	return &GroqClient{
		http:         &http.Client{Timeout: 120 * time.Second},
		apiKey:       apiKey,
		defaultModel: model,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

func (g *GroqClient) Name() string { return "Groq:" + g.defaultModel }
func (g *GroqClient) Close() error { return nil }

type groqChatReq struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Tools       []groqTool    `json:"tools,omitempty"`
}

type groqMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []groqToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type groqTool struct {
	Type     string       `json:"type"`
	Function groqFunction `json:"function"`
}

type groqFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type groqToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type groqChatResp struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the invocation and answers tool calls until the model
// returns text.
func (g *GroqClient) Generate(ctx context.Context, inv Invocation) (Response, error) {
	req := groqChatReq{
		Model:       g.resolveModel(inv.Model),
		Temperature: inv.Params.Temperature,
		TopP:        inv.Params.TopP,
		MaxTokens:   inv.Params.MaxTokens,
	}
	if inv.System != "" {
		req.Messages = append(req.Messages, groqMessage{Role: "system", Content: inv.System})
	}
	req.Messages = append(req.Messages, groqMessage{Role: "user", Content: inv.Prompt})
	for _, t := range inv.Tools {
		req.Tools = append(req.Tools, groqTool{Type: "function", Function: groqFunction{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  parametersSchema(t),
		}})
	}

	var calls []string
	for turn := 0; turn < maxToolTurns; turn++ {
		msg, err := g.complete(ctx, req)
		if err != nil {
			return Response{ToolCalls: calls}, err
		}
		if len(msg.ToolCalls) == 0 || len(inv.Tools) == 0 {
			if strings.TrimSpace(msg.Content) == "" {
				return Response{ToolCalls: calls}, ErrEmptyResponse
			}
			return Response{Message: msg.Content, ToolCalls: calls}, nil
		}
		req.Messages = append(req.Messages, msg)
		for _, tc := range msg.ToolCalls {
			calls = append(calls, tc.Function.Name)
			args := map[string]any{}
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				log.Warn().Err(err).Str("tool", tc.Function.Name).Msg("tool arguments are not JSON")
			}
			out, _ := json.Marshal(callTool(ctx, inv.Tools, tc.Function.Name, args))
			req.Messages = append(req.Messages, groqMessage{Role: "tool", Content: string(out), ToolCallID: tc.ID})
		}
	}
	return Response{ToolCalls: calls}, fmt.Errorf("groq: no final answer after %d tool turns", maxToolTurns)
}

func (g *GroqClient) complete(ctx context.Context, body groqChatReq) (groqMessage, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return groqMessage{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return groqMessage{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return groqMessage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("groq: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(detail)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return groqMessage{}, &PermanentError{Err: err}
		}
		return groqMessage{}, err
	}
	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return groqMessage{}, fmt.Errorf("groq: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return groqMessage{}, ErrEmptyResponse
	}
	return out.Choices[0].Message, nil
}

// resolveModel maps Bedrock-style ids ("vendor.model-v1:0") onto the default
// model; Groq model names never contain ':'.
func (g *GroqClient) resolveModel(id string) string {
	if id == "" || strings.Contains(id, ":") {
		return g.defaultModel
	}
	return id
}

func parametersSchema(t Tool) map[string]any {
	props := map[string]any{}
	required := []string{}
	for _, p := range t.Params {
		props[p.Name] = map[string]any{"type": "string", "description": p.Description}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{"type": "object", "properties": props, "required": required}
}
