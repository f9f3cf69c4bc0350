package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowgraph-io/flowgraph/internal/observability"
)

var (
	flagLogLevel  string
	flagLogFormat string
)

// rootCmd is the base command for the flowgraph CLI.
var rootCmd = &cobra.Command{
	Use:   "flowgraph",
	Short: "Inspect workflow graphs and their dependent node properties",
	Long: `flowgraph loads YAML workflow definitions, validates their structure and
derives the dependent node properties used to decide whether a node can be
executed or reset.

A workflow definition is a DAG of nodes and edges; a node may own a nested
sub-graph of its own children. Node properties like "has an executable
predecessor" depend transitively on neighboring nodes, across nesting
boundaries, and are computed in one fixed-point pass per property.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text",
		"log format (text, json)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(propsCmd)
}

// Execute runs the root command with the given base context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newLogger builds the logger configured by the persistent flags.
func newLogger() (*slog.Logger, error) {
	level, err := observability.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, err
	}
	return observability.NewLogger(os.Stderr, level, observability.LogFormat(flagLogFormat)), nil
}
