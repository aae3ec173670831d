// Package cli wires the supervisor's command-line surface. Grounded on
// internal/cli/root.go's cobra.Command shape (SilenceErrors/SilenceUsage,
// PersistentFlags in init()) and sys.go's subcommand-with-its-own-flags
// pattern, reused here for the diag subcommand. The original's
// "--signature"/restricted-access banner gate is dropped: it is a
// proprietary access-control theatre specific to that company, not a CLI
// idiom worth imitating.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	attachKV   []string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "supervisor",
	Short:         "Supervises a single child process with restart policy and health checks",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runSupervise,
}

// Execute parses os.Args and runs the resolved command. Its return value
// maps directly to the process exit code: non-zero means a fatal failure
// before the main loop was entered.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "application.yaml", "path to configuration document")
	rootCmd.PersistentFlags().StringArrayVarP(&attachKV, "attach", "a", nil, "extra k=v variable, repeatable")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "level", "l", "INFO", "console log level: TRACE|DEBUG|INFO|WARN|ERROR|NONE")

	rootCmd.AddCommand(diagCmd)
}
