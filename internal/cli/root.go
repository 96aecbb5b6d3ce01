// Package cli provides the pglens command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pglens/internal/database"
)

// Version information (set at build time).
var Version = "0.1.0"

type rootOptions struct {
	configPath string
	logLevel   string
	output     string
	refresh    bool

	// newExecutor is swapped in tests.
	newExecutor executorFactory
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(func(s *session) database.Executor {
		exec := database.NewPgExecutor(s.logger)
		s.closers = append(s.closers, exec.Close)
		return exec
	})
}

func newRootCmd(newExecutor executorFactory) *cobra.Command {
	opts := &rootOptions{newExecutor: newExecutor}

	rootCmd := &cobra.Command{
		Use:   "pglens",
		Short: "pglens - Postgres catalog browser",
		Long: `pglens browses the Postgres databases listed in its connection file.

It reads table, column and key metadata from each database and renders
table contents with foreign keys resolved to a readable column of the
referenced table.`,
		Version: Version,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch opts.output {
			case "table", "json":
				return nil
			default:
				return fmt.Errorf("--output must be table or json, got %q", opts.output)
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "connection file (default: $PGLENS_CONFIG_PATH or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table|json)")
	rootCmd.PersistentFlags().BoolVar(&opts.refresh, "refresh", false, "Ignore the snapshot cache and probe the catalog")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newConnectionsCommand(opts))
	rootCmd.AddCommand(newTablesCommand(opts))
	rootCmd.AddCommand(newBrowseCommand(opts))
	rootCmd.AddCommand(newQueriesCommand(opts))
	rootCmd.AddCommand(newQueryCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))
	rootCmd.AddCommand(newGraphCommand(opts))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
