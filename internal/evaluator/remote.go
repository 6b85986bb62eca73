package evaluator

import (
	"context"
	"fmt"
	"net/http"

	"smartgoal/internal/goal"
	"smartgoal/internal/runtime"
)

// RemoteClient calls a deployed evaluator runtime.
type RemoteClient struct {
	rt *runtime.Client
}

func NewRemoteClient(url string, hc *http.Client) *RemoteClient {
	return &RemoteClient{rt: &runtime.Client{URL: url, HTTP: hc}}
}

// Evaluate sends run as analyzer_payload and returns the evaluator_output.
func (c *RemoteClient) Evaluate(ctx context.Context, run goal.AnalyzerRun) (map[string]any, error) {
	body, err := c.rt.Invoke(ctx, map[string]any{"analyzer_payload": run})
	if err != nil {
		return nil, err
	}
	out, ok := body["evaluator_output"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("evaluator response has no evaluator_output")
	}
	return out, nil
}
