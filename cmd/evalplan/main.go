package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"smartgoal/internal/app"
	"smartgoal/internal/config"
	"smartgoal/internal/evalplan"
	"smartgoal/internal/logging"
	"smartgoal/internal/runlog"
	"smartgoal/internal/util/jsonutil"
)

func main() {
	var (
		runsFile string
		dsn      string
		mode     string
		limit     int
		artifacts bool
		debug     bool
	)
	cmd := &cobra.Command{
		Use:          "evalplan",
		Short:        "Build an evaluation plan from the analyzer run log and print it",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(debug)
			cfg, err := config.Load("")
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("runs") {
				runsFile = cfg.RunLogFile
			}
			if !cmd.Flags().Changed("dsn") {
				dsn = cfg.RunLogDSN
			}
			if !cmd.Flags().Changed("mode") {
				mode = cfg.PlanMode
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.EvalLimit
			}
			m, err := evalplan.ParseMode(mode)
			if err != nil {
				return err
			}
			b := evalplan.Builder{Mode: m}
			if artifacts {
				runs, err := app.ArtifactRuns(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				log.Debug().Str("backend", "artifacts").Int("runs", len(runs)).Msg("loaded mirrored runs")
				return printPlan(b, runs, limit)
			}
			return run(cmd.Context(), runsFile, dsn, b, limit)
		},
	}
	cmd.Flags().StringVar(&runsFile, "runs", "", "run log JSONL file (defaults to RUN_LOG_FILE)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres DSN for the run log (defaults to RUN_LOG_PG_DSN)")
	cmd.Flags().StringVar(&mode, "mode", "", "plan mode: passthrough or flatten")
	cmd.Flags().IntVar(&limit, "limit", evalplan.DefaultLimit, "most recent runs to include (0 for all)")
	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "read runs mirrored to ARTIFACT_BUCKET instead of the run log")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, runsFile, dsn string, b evalplan.Builder, limit int) error {
	store := runlog.Open(ctx, runsFile, dsn)
	defer store.Close()

	runs, err := store.Load(ctx)
	if err != nil {
		return err
	}
	log.Debug().Str("backend", store.Backend()).Int("runs", len(runs)).Msg("loaded run log")
	return printPlan(b, runs, limit)
}

func printPlan(b evalplan.Builder, runs []any, limit int) error {
	plan, err := b.Build(runs, limit)
	if err != nil {
		return err
	}
	out, err := jsonutil.MarshalNoEscapeIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
