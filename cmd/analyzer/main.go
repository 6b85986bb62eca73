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

var (
	port     string
	profiles string
	debug    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyzer",
		Short: "Serve the SMART-goal analyzer runtime",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := app.NewAnalyzer(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("init analyzer: %w", err)
			}
			return app.Serve(a)
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.PersistentFlags().StringVar(&profiles, "config", "", "model profiles file (overrides MODEL_PROFILES_FILE)")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.AddCommand(batchCmd())
	return cmd
}

func batchCmd() *cobra.Command {
	var exts string
	var model string
	cmd := &cobra.Command{
		Use:   "batch s3://bucket/prefix/",
		Short: "Analyze every document under an S3 prefix and print JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return app.Batch(cmd.Context(), cfg, args[0], splitList(exts), model, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&exts, "ext", ".pdf,.docx,.txt", "comma-separated extensions to include")
	cmd.Flags().StringVar(&model, "model", "", "model id (defaults to ANALYZER_MODEL_ID)")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(":8080")
	if err != nil {
		return nil, err
	}
	if port != "" {
		cfg.Port = ":" + strings.TrimPrefix(port, ":")
	}
	if profiles != "" {
		cfg.ModelProfiles = profiles
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
