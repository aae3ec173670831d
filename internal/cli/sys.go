// Grounded on internal/cli/sys.go's subcommand-with-its-own-flags pattern
// (sysCmd + per-resource Run closures, -w watch flag, JSON marshal of the
// handler's result), narrowed from the teacher's full host/process/port
// inventory to the operator-relevant host/child/battery triad exposed by
// internal/diag.
package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nehonix-oss/procsupervisor/internal/diag"
	"github.com/spf13/cobra"
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Observational host and child-process diagnostics",
}

var (
	diagWatch bool
	diagJSON  bool
)

var diagHostCmd = &cobra.Command{
	Use:   "host",
	Short: "Host CPU, memory, and kernel info",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatchable(diagWatch, func() error {
			snap, err := diag.Host()
			if err != nil {
				return err
			}
			return printDiag(snap)
		})
	},
}

var diagChildCmd = &cobra.Command{
	Use:   "child <pid>",
	Short: "CPU and RSS for the supervised child's PID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("diag child: invalid pid %q: %w", args[0], err)
		}
		return runWatchable(diagWatch, func() error {
			snap, err := diag.Child(pid)
			if err != nil {
				return err
			}
			return printDiag(snap)
		})
	},
}

var diagBatteryCmd = &cobra.Command{
	Use:   "battery",
	Short: "Host battery status, if present",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDiag(diag.Battery())
	},
}

func runWatchable(watch bool, once func() error) error {
	for {
		if err := once(); err != nil {
			return err
		}
		if !watch {
			return nil
		}
		time.Sleep(time.Second)
	}
}

func printDiag(v any) error {
	if diagJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Printf("%+v\n", v)
	return nil
}

func init() {
	diagCmd.PersistentFlags().BoolVarP(&diagJSON, "json", "j", false, "output as JSON")
	diagHostCmd.Flags().BoolVarP(&diagWatch, "watch", "w", false, "repeat every second")
	diagChildCmd.Flags().BoolVarP(&diagWatch, "watch", "w", false, "repeat every second")

	diagCmd.AddCommand(diagHostCmd)
	diagCmd.AddCommand(diagChildCmd)
	diagCmd.AddCommand(diagBatteryCmd)
}
