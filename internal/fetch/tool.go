package fetch

import (
	"context"

	"smartgoal/internal/llm"
)

// ToolName is the name the analyzer instructions refer to.
const ToolName = "fetch_data"

// Tool exposes Fetch to the model as fetch_data(data_source).
func (f *Fetcher) Tool() llm.Tool {
	return llm.Tool{
		Name:        ToolName,
		Description: "Fetch data from S3, HTTP/HTTPS, or local file. Returns {raw_text, formatted_text, meta}.",
		Params: []llm.ToolParam{{
			Name:        "data_source",
			Description: "s3://bucket/key, http(s) URL, or local file path",
			Required:    true,
		}},
		Handler: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			ds, _ := args["data_source"].(string)
			return f.Fetch(ctx, ds).Map(), nil
		},
	}
}
