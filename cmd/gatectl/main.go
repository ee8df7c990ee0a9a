// Gatectl is a control utility for gate-defined quantum dot devices.
//
// It applies gate voltage targets to a DAC instrument server with a
// safety check against the pretuned point: targets that drift too far
// from the pretuned point are never written, and the full channel set
// is forced back to the pretuned point instead.
//
// Usage:
//
//	gatectl [command] [flags]
//
// See 'gatectl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openqlab/gatectl/internal/logging"
	"github.com/openqlab/gatectl/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gatectl",
	Short: "Gate Voltage Control Utility",
	Long: `A standalone utility for moving gate voltages on quantum dot devices.

Every move is checked against the device's pretuned point before any
voltage reaches the hardware. Moves that deviate too far are refused and
the full channel set is restored to the pretuned point.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gatectl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
