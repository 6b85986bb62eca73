package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (rate limiting, retries, logging).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// RateLimit limits request rate with a token bucket.
// If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next Client
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) Generate(ctx context.Context, inv Invocation) (Response, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return Response{}, err
	}
	return c.next.Generate(ctx, inv)
}

// WithLogging logs model id, prompt size, tools, latency and errors.
// A nil logger uses the global zerolog logger.
func WithLogging(logger *zerolog.Logger) Middleware {
	return func(next Client) Client {
		l := log.Logger
		if logger != nil {
			l = *logger
		}
		return &logging{next: next, log: l}
	}
}

type logging struct {
	next Client
	log  zerolog.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Generate(ctx context.Context, inv Invocation) (Response, error) {
	phase := PhaseFrom(ctx)
	start := time.Now()
	l.log.Debug().
		Str("phase", phase).
		Str("model", inv.Model).
		Int("system_bytes", len(inv.System)).
		Int("prompt_bytes", len(inv.Prompt)).
		Strs("tools", inv.ToolNames()).
		Msg("llm request")
	resp, err := l.next.Generate(ctx, inv)
	if err != nil {
		l.log.Error().Err(err).Str("phase", phase).Str("model", inv.Model).Dur("elapsed", time.Since(start)).Msg("llm error")
		return resp, err
	}
	l.log.Info().
		Str("phase", phase).
		Str("model", inv.Model).
		Int("response_bytes", len(resp.Message)).
		Strs("tool_calls", resp.ToolCalls).
		Dur("elapsed", time.Since(start)).
		Msg("llm response")
	return resp, nil
}
