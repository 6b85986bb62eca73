package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"smartgoal/internal/util/jsonutil"
)

// maxPayloadBytes bounds an invocation request body.
const maxPayloadBytes = 32 << 20

// Invoker handles one decoded invocation payload and returns the success body.
type Invoker interface {
	Invoke(ctx context.Context, payload map[string]any) (any, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, payload map[string]any) (any, error)

func (f InvokerFunc) Invoke(ctx context.Context, payload map[string]any) (any, error) {
	return f(ctx, payload)
}

// Handler serves POST /invocations and GET /ping.
func Handler(name string, inv Invoker) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "Healthy"})
	})
	mux.HandleFunc("POST /invocations", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := invoke(r, inv)
		log.Info().
			Str("runtime", name).
			Int("status", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Msg("invocation")
		writeJSON(w, resp.StatusCode, resp)
	})
	return mux
}

// Invoke runs inv on payload and always returns an envelope. Panics become
// 500 responses.
func Invoke(ctx context.Context, inv Invoker, payload map[string]any) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("invocation panicked")
			resp = Failure(fmt.Errorf("panic: %v", r))
		}
	}()
	out, err := inv.Invoke(ctx, payload)
	if err != nil {
		log.Error().Err(err).Msg("invocation failed")
		return Failure(err)
	}
	ok, err := OK(out)
	if err != nil {
		return Failure(err)
	}
	return ok
}

func invoke(r *http.Request, inv Invoker) Response {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		return Failure(BadRequest("read payload: " + err.Error()))
	}
	payload := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Failure(BadRequest("invalid JSON payload: " + err.Error()))
		}
	}
	return Invoke(r.Context(), inv, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
