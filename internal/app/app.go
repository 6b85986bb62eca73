// Package app wires configuration into the analyzer and evaluator runtimes.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"smartgoal/internal/analyzer"
	"smartgoal/internal/config"
	"smartgoal/internal/evalplan"
	"smartgoal/internal/evaluator"
	"smartgoal/internal/fetch"
	"smartgoal/internal/runlog"
	"smartgoal/internal/runtime"
)

// App is one runtime process: the HTTP server plus the stores it closes on
// shutdown.
type App struct {
	server  *runtime.Server
	closers []io.Closer
}

// NewAnalyzer builds the analyzer runtime.
func NewAnalyzer(ctx context.Context, cfg *config.Config) (*App, error) {
	svc, _, closers, err := newAnalyzerService(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &App{
		server:  runtime.NewServer(cfg.Port, runtime.Handler("analyzer", svc)),
		closers: closers,
	}, nil
}

func newAnalyzerService(ctx context.Context, cfg *config.Config) (*analyzer.Service, *fetch.Fetcher, []io.Closer, error) {
	caps, err := config.LoadCapabilities(cfg.ModelProfiles)
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := newLLM(ctx, cfg, `{"smart_goals": []}`)
	if err != nil {
		return nil, nil, nil, err
	}
	closers := []io.Closer{client}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, nil, nil, closeAll(closers, err)
	}
	runs := runlog.Open(ctx, cfg.RunLogFile, cfg.RunLogDSN)
	closers = append(closers, runs)

	svc := &analyzer.Service{
		LLM:          client,
		Caps:         caps,
		Fetcher:      fetcher,
		Runs:         runs,
		DefaultModel: cfg.AnalyzerModelID,
		OutputDir:    cfg.OutputDir,
		Params:       analyzer.DefaultParams,
	}
	if cfg.Artifact.Enabled {
		store, err := newArtifacts(cfg)
		if err != nil {
			return nil, nil, nil, closeAll(closers, err)
		}
		svc.Artifacts = store
	}
	if cfg.EvaluatorURL != "" {
		svc.Evaluator = evaluator.NewRemoteClient(cfg.EvaluatorURL, &http.Client{Timeout: cfg.EvaluatorTimeout})
	}
	return svc, fetcher, closers, nil
}

// NewEvaluator builds the evaluator runtime.
func NewEvaluator(ctx context.Context, cfg *config.Config) (*App, error) {
	caps, err := config.LoadCapabilities(cfg.ModelProfiles)
	if err != nil {
		return nil, err
	}
	mode, err := evalplan.ParseMode(cfg.PlanMode)
	if err != nil {
		return nil, err
	}
	client, err := newLLM(ctx, cfg, `{"evaluation_type": "none", "cases_scored": 0, "scores": []}`)
	if err != nil {
		return nil, err
	}
	svc := &evaluator.Service{
		LLM:     client,
		Caps:    caps,
		Model:   cfg.EvaluatorModelID,
		Builder: evalplan.Builder{Mode: mode},
		Limit:   cfg.EvalLimit,
		Params:  evaluator.DefaultParams,
	}
	return &App{
		server:  runtime.NewServer(cfg.Port, runtime.Handler("evaluator", svc)),
		closers: []io.Closer{client},
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

// Shutdown stops the server and releases clients and stores.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	return errors.Join(err, a.close())
}

func (a *App) close() error {
	return closeAll(a.closers, nil)
}

// closeAll closes in reverse order and joins the errors onto err.
func closeAll(closers []io.Closer, err error) error {
	errs := []error{err}
	for i := len(closers) - 1; i >= 0; i-- {
		if cerr := closers[i].Close(); cerr != nil {
			errs = append(errs, cerr)
		}
	}
	return errors.Join(errs...)
}

// Serve runs a until SIGINT or SIGTERM and then shuts it down.
func Serve(a *App) error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Join(err, a.close())
		}
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exiting")
	return nil
}
