package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"smartgoal/internal/app"
	"smartgoal/internal/config"
	"smartgoal/internal/logging"
)

func main() {
	var (
		port     string
		profiles string
		debug    bool
	)
	cmd := &cobra.Command{
		Use:          "evaluator",
		Short:        "Serve the LLM-as-judge evaluator runtime",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(debug)
			cfg, err := config.Load(":8081")
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = ":" + strings.TrimPrefix(port, ":")
			}
			if profiles != "" {
				cfg.ModelProfiles = profiles
			}
			a, err := app.NewEvaluator(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("init evaluator: %w", err)
			}
			return app.Serve(a)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&profiles, "config", "", "model profiles file (overrides MODEL_PROFILES_FILE)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
