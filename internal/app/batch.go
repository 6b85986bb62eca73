package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"smartgoal/internal/analyzer"
	"smartgoal/internal/config"
	"smartgoal/internal/util/jsonutil"
)

// BatchLine is written once per analyzed object.
type BatchLine struct {
	DataSource string           `json:"data_source"`
	Result     *analyzer.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Batch analyzes every object under an s3:// prefix whose name ends in one
// of exts, writing one JSON line per object to w. Per-object failures are
// reported in the line, not returned.
func Batch(ctx context.Context, cfg *config.Config, prefix string, exts []string, modelID string, w io.Writer) (err error) {
	svc, fetcher, closers, err := newAnalyzerService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = closeAll(closers, err) }()

	sources, err := fetcher.ListS3(ctx, prefix, exts...)
	if err != nil {
		return err
	}
	log.Info().Str("prefix", prefix).Int("objects", len(sources)).Msg("batch analyze")

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := BatchLine{DataSource: src}
		res, err := svc.Analyze(ctx, analyzer.Request{Prompt: src, ModelID: modelID})
		if err != nil {
			log.Error().Err(err).Str("data_source", src).Msg("batch item failed")
			line.Error = err.Error()
		} else {
			line.Result = &res
		}
		b, err := jsonutil.MarshalNoEscape(line)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(b)); err != nil {
			return err
		}
	}
	return nil
}
