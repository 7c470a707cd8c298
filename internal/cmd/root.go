// Package cmd wires the grading pipeline behind the CLI surface.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/regrade/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "regrade",
	Short: "Automated grading runner for client/server submissions",
	Long: `regrade replays a scripted suite of steps against a student submission:
it starts the submission's client and server, drives traffic through a
capturing relay, and scores each step by comparing what the submission
produced against expected artifacts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	logLevel  string
	logFormat string
)

// ExecuteContext runs the root command under the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log output format (text, json)")

	cobra.OnInitialize(configureLogging)
}

func configureLogging() {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(logLevel)
	cfg.Format = log.ParseFormat(logFormat)
	log.SetDefaultLogger(log.New(cfg))
}
