package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (Response, map[string]any) {
	t.Helper()
	var env Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.Body), &body))
	return env, body
}

func TestHandler_Ping(t *testing.T) {
	h := Handler("test", InvokerFunc(func(context.Context, map[string]any) (any, error) { return nil, nil }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"Healthy"}`, rec.Body.String())
}

func TestHandler_Success(t *testing.T) {
	h := Handler("test", InvokerFunc(func(_ context.Context, p map[string]any) (any, error) {
		return map[string]any{"echo": p["prompt"], "html": "<ok>"}, nil
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(`{"prompt":"hi"}`)))

	assert.Equal(t, http.StatusOK, rec.Code)
	env, body := decodeEnvelope(t, rec)
	assert.Equal(t, 200, env.StatusCode)
	assert.Equal(t, "application/json", env.Headers["Content-Type"])
	assert.Equal(t, "hi", body["echo"])
	assert.Contains(t, env.Body, "<ok>")
}

func TestHandler_BadRequestAndFailure(t *testing.T) {
	h := Handler("test", InvokerFunc(func(_ context.Context, p map[string]any) (any, error) {
		if p["prompt"] == nil {
			return nil, BadRequest("No prompt provided.")
		}
		return nil, errors.New("model exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(`{}`)))
	env, body := decodeEnvelope(t, rec)
	assert.Equal(t, 400, env.StatusCode)
	assert.Equal(t, "No prompt provided.", body["error"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(`{"prompt":"x"}`)))
	env, body = decodeEnvelope(t, rec)
	assert.Equal(t, 500, env.StatusCode)
	assert.Equal(t, "model exploded", body["error"])
	assert.Nil(t, env.Headers)
}

func TestHandler_InvalidJSON(t *testing.T) {
	h := Handler("test", InvokerFunc(func(context.Context, map[string]any) (any, error) { return "never", nil }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(`{`)))
	env, body := decodeEnvelope(t, rec)
	assert.Equal(t, 400, env.StatusCode)
	assert.Contains(t, body["error"], "invalid JSON payload")
}

func TestInvoke_RecoversPanic(t *testing.T) {
	resp := Invoke(context.Background(), InvokerFunc(func(context.Context, map[string]any) (any, error) {
		panic("nil map")
	}), nil)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Contains(t, resp.Body, "panic: nil map")
}

func TestClient_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(Handler("remote", InvokerFunc(func(_ context.Context, p map[string]any) (any, error) {
		if p["fail"] == true {
			return nil, errors.New("judge unavailable")
		}
		return map[string]any{"evaluator_output": map[string]any{"cases_scored": 1}}, nil
	})))
	defer srv.Close()

	c := &Client{URL: srv.URL, HTTP: srv.Client()}
	body, err := c.Invoke(context.Background(), map[string]any{"analyzer_payload": map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"cases_scored": float64(1)}, body["evaluator_output"])

	_, err = c.Invoke(context.Background(), map[string]any{"fail": true})
	assert.ErrorContains(t, err, "remote runtime returned 500: judge unavailable")
}
