package analyzer

import (
	"context"

	"smartgoal/internal/fetch"
	"smartgoal/internal/llm"
	"smartgoal/internal/prompt"
)

// strategyKey selects how the analyzer instructions reach a model.
type strategyKey struct {
	tools  bool
	system bool
	upload bool
}

// strategyInput is what every strategy may draw on. Only the no-tools upload
// strategies call prefetch.
type strategyInput struct {
	input    string
	filePath string
	prefetch func(ctx context.Context, source string) fetch.Result
}

type strategy func(ctx context.Context, in strategyInput) (system, user string)

var strategies = map[strategyKey]strategy{
	// No upload: the data source is the user input itself.
	{tools: true, system: true}: func(_ context.Context, in strategyInput) (string, string) {
		return prompt.Analyzer(""), prompt.DataSourceMessage(in.input)
	},
	{tools: true}: func(_ context.Context, in strategyInput) (string, string) {
		return "", prompt.Analyzer("") + "\n\n" + prompt.DataSourceMessage(in.input)
	},
	{system: true}: func(_ context.Context, in strategyInput) (string, string) {
		return prompt.Analyzer(""), prompt.DataSourceMessage(in.input)
	},
	{}: func(_ context.Context, in strategyInput) (string, string) {
		return "", prompt.Analyzer("") + "\n\n" + prompt.DataSourceMessage(in.input)
	},

	// Upload: the instructions name the uploaded file.
	{tools: true, system: true, upload: true}: func(_ context.Context, in strategyInput) (string, string) {
		user := in.input
		if user == "" {
			user = prompt.DataSourceMessage(in.filePath)
		}
		return prompt.Analyzer(in.filePath), user
	},
	{tools: true, upload: true}: func(_ context.Context, in strategyInput) (string, string) {
		return "", prompt.Analyzer(in.filePath)
	},
	{system: true, upload: true}: func(ctx context.Context, in strategyInput) (string, string) {
		content, ok := prefetched(ctx, in)
		if !ok {
			return prompt.Analyzer(in.filePath), in.input + "\n\n" + content
		}
		return prompt.Analyzer(in.filePath), in.input + "\n\nFile content: " + content
	},
	{upload: true}: func(ctx context.Context, in strategyInput) (string, string) {
		head := prompt.Analyzer(in.filePath) + "\n\nUser request: " + in.input
		content, ok := prefetched(ctx, in)
		if !ok {
			return "", head + "\n\n" + content
		}
		return "", head + "\n\nFile content: " + content
	},
}

// prefetched reads the upload for models that cannot call fetch_data. It
// returns the inlined file context, or an error message and false.
func prefetched(ctx context.Context, in strategyInput) (string, bool) {
	res := in.prefetch(ctx, in.filePath)
	if res.FormattedText == "" {
		reason := res.Error
		if reason == "" {
			reason = "No file content extracted"
		}
		return "Error reading file " + in.filePath + ": " + reason, false
	}
	return prompt.FileContext(res.FormattedText), true
}

// invocation assembles the model call for one request.
func (s *Service) invocation(ctx context.Context, modelID, input, filePath string) llm.Invocation {
	c, _ := s.Caps.Lookup(modelID)
	key := strategyKey{tools: c.Tools, system: c.SystemPrompt, upload: filePath != ""}
	system, user := strategies[key](ctx, strategyInput{
		input:    input,
		filePath: filePath,
		prefetch: s.Fetcher.Fetch,
	})

	inv := llm.Invocation{
		Model:  modelID,
		System: system,
		Prompt: user,
		Params: s.Params,
	}
	if inv.Params == (llm.Params{}) {
		inv.Params = DefaultParams
	}
	if c.ProviderModel != "" {
		inv.Model = c.ProviderModel
	}
	if c.Tools {
		inv.Tools = []llm.Tool{s.Fetcher.Tool()}
	}
	return inv
}
