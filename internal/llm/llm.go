package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the backend yields no candidate text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// Client invokes a language model for a fully assembled Invocation.
type Client interface {
	Name() string
	Generate(ctx context.Context, inv Invocation) (Response, error)
	Close() error
}

// Params are the sampling parameters forwarded to the backend.
type Params struct {
	MaxTokens   int
	Temperature float64
	TopK        int
	TopP        float64
}

// Invocation is a complete request: instructions, user message and tools.
// System is empty when the target model does not accept a system prompt.
type Invocation struct {
	Model  string
	System string
	Prompt string
	Tools  []Tool
	Params Params
}

// ToolNames lists the tool names in declaration order.
func (inv Invocation) ToolNames() []string {
	out := make([]string, 0, len(inv.Tools))
	for _, t := range inv.Tools {
		out = append(out, t.Name)
	}
	return out
}

// ToolParam describes one string argument of a tool.
type ToolParam struct {
	Name        string
	Description string
	Required    bool
}

// ToolHandler runs a tool call and returns its JSON-like result.
type ToolHandler func(ctx context.Context, args map[string]any) (map[string]any, error)

// Tool is a function the model may call while answering.
type Tool struct {
	Name        string
	Description string
	Params      []ToolParam
	Handler     ToolHandler
}

// Response is the final model answer after any tool round trips.
type Response struct {
	Message   string
	ToolCalls []string
}

// Text returns the final answer text.
func (r Response) Text() string { return r.Message }

// PermanentError marks a backend failure that retrying will not fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "llm: permanent: " + e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }
