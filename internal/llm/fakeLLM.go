package llm

import (
	"context"
	"sync"
)

// FakeClient returns scripted outputs for offline runs and tests. When a
// script step names a tool, the tool is executed before the step's text is
// returned, mirroring a function-calling round trip.
type FakeClient struct {
	mu       sync.Mutex
	steps    []FakeStep
	fallback string
	Calls    []Invocation
	results  []map[string]any
}

// FakeStep is one scripted answer.
type FakeStep struct {
	Output   string
	Err      error
	ToolName string
	ToolArgs map[string]any
}

// NewFakeClient returns outputs in order and repeats fallback once the script
// is exhausted.
func NewFakeClient(fallback string, steps ...FakeStep) *FakeClient {
	if fallback == "" {
		fallback = `{"smart_goals": []}`
	}
	return &FakeClient{steps: steps, fallback: fallback}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, inv Invocation) (Response, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, inv)
	step := FakeStep{Output: f.fallback}
	if len(f.steps) > 0 {
		step = f.steps[0]
		f.steps = f.steps[1:]
	}
	f.mu.Unlock()

	if step.Err != nil {
		return Response{}, step.Err
	}
	var calls []string
	if step.ToolName != "" {
		out := callTool(ctx, inv.Tools, step.ToolName, step.ToolArgs)
		calls = append(calls, step.ToolName)
		f.mu.Lock()
		f.results = append(f.results, out)
		f.mu.Unlock()
	}
	return Response{Message: step.Output, ToolCalls: calls}, nil
}

// ToolResults returns the results of scripted tool calls.
func (f *FakeClient) ToolResults() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.results...)
}

// LastCall returns the most recent invocation.
func (f *FakeClient) LastCall() (Invocation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return Invocation{}, false
	}
	return f.Calls[len(f.Calls)-1], true
}
