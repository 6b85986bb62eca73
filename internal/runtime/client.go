package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"smartgoal/internal/util/jsonutil"
)

// Client calls another runtime's /invocations endpoint.
type Client struct {
	URL  string
	HTTP *http.Client
}

// Invoke posts payload and decodes the envelope body of a 200 response.
func (c *Client) Invoke(ctx context.Context, payload any) (map[string]any, error) {
	reqBody, err := jsonutil.MarshalNoEscape(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	url := strings.TrimRight(c.URL, "/")
	if !strings.HasSuffix(url, "/invocations") {
		url += "/invocations"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env Response
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope (HTTP %d): %w", resp.StatusCode, err)
	}
	var body map[string]any
	if env.Body != "" {
		if err := json.Unmarshal([]byte(env.Body), &body); err != nil {
			return nil, fmt.Errorf("decode envelope body: %w", err)
		}
	}
	if env.StatusCode != http.StatusOK {
		if msg, ok := body["error"].(string); ok && msg != "" {
			return nil, fmt.Errorf("remote runtime returned %d: %s", env.StatusCode, msg)
		}
		return nil, fmt.Errorf("remote runtime returned %d", env.StatusCode)
	}
	return body, nil
}
