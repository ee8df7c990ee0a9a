package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/openqlab/gatectl/internal/config"
	"github.com/openqlab/gatectl/internal/discovery"
	"github.com/openqlab/gatectl/internal/gate"
	"github.com/openqlab/gatectl/internal/history"
	"github.com/openqlab/gatectl/internal/instrument"
	"github.com/openqlab/gatectl/internal/ui"
)

// Command flags
var (
	deviceName  string
	endpoint    string
	scanTimeout int
	assumeYes   bool
	adopt       bool
	noHistory   bool
	historyLim  int
)

func init() {
	// Common flags for device commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&deviceName, "device", "", "Configured device name (defaults to the registry's default device)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Instrument WebSocket URL (overrides the device's configured endpoint)")

	// Add subcommands directly to root
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(historyCmd)
}

// setCmd applies a checked gate voltage move
var setCmd = &cobra.Command{
	Use:   "set <v1> <v2> <v3> <v4> <v5> <v6>",
	Short: "Move the gate voltages to a new target",
	Long: `Move the six checked gates to the given target voltages.

The target is compared gate by gate against the device's pretuned point
before anything is written. If any gate deviates by more than the
tolerance, nothing from the target reaches the hardware: all channels,
including the auxiliary ones, are forced back to the pretuned point and
the command fails.

After a successful move the realized voltages are read back from the
instrument and printed. DAC quantization means they can differ slightly
from the requested target; treat the readback as ground truth.`,
	Example: `  # Move the default device's gates
  gatectl set -0.412 -0.398 -0.455 -0.401 -0.387 -0.420

  # Move a specific device and adopt the readback as the new pretuned point
  gatectl set --device dot12 --adopt -0.412 -0.398 -0.455 -0.401 -0.387 -0.420

  # Skip the confirmation prompt (for scripted sweeps)
  gatectl set --yes -0.412 -0.398 -0.455 -0.401 -0.387 -0.420`,
	Args: cobra.ExactArgs(gate.GateCount),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVar(&assumeYes, "yes", false, "Apply without the typed confirmation")
	setCmd.Flags().BoolVar(&adopt, "adopt", false, "Adopt the readback as the device's new pretuned point")
	setCmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording the move in the audit log")
}

func runSet(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dev, err := reg.Device(deviceName)
	if err != nil {
		return err
	}

	target := make([]float64, gate.GateCount)
	for i, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid voltage for gate %d: %q", i+1, arg)
		}
		target[i] = v
	}

	plan, unsafe := ui.FormatMovePlan(dev.Channels, dev.Pretuned, target, gate.Tolerance)
	fmt.Println(plan)

	if !assumeYes && reg.Preferences.ConfirmMoves {
		warnings := []string{
			"Gate voltages will be written to the instrument.",
			"A refused move restores ALL channels to the pretuned point.",
		}
		if unsafe {
			warnings = append(warnings, "This target exceeds the tolerance and WILL be refused.")
		}
		if !ui.ConfirmCheckedMove("Apply gate voltage move?", warnings) {
			fmt.Println("Aborted. No voltages were written.")
			return nil
		}
	}

	dialTo := dev.Endpoint
	if endpoint != "" {
		dialTo = endpoint
	}

	client, err := instrument.Dial(dialTo)
	if err != nil {
		return fmt.Errorf("failed to connect to instrument: %w", err)
	}
	defer client.Close()

	setter, err := gate.NewSetter(client, dev.Channels, dev.Pretuned)
	if err != nil {
		return err
	}

	actual, moveErr := setter.SetChecked(target)

	if !noHistory {
		recordMove(dev, target, actual, moveErr)
	}

	if moveErr != nil {
		if gate.IsSafetyViolation(moveErr) {
			fmt.Println(ui.FormatSafetyStop(moveErr.Error()))
		}
		return moveErr
	}

	fmt.Println(ui.FormatCommitResult(dev.Channels, target, actual))

	if adopt {
		if err := dev.AdoptPretuned(actual); err != nil {
			return fmt.Errorf("failed to adopt new pretuned point: %w", err)
		}
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save configuration: %w", err)
		}
		fmt.Println("Readback adopted as the new pretuned point.")
	}

	return nil
}

// recordMove appends the move outcome to the audit log. Audit failures
// are reported but never mask the move result.
func recordMove(dev *config.Device, target, actual []float64, moveErr error) {
	rec := &history.Record{
		Device:       deviceLabel(dev),
		Verdict:      history.VerdictCommitted,
		Target:       target,
		Actual:       actual,
		MaxDeviation: gate.MaxDeviation(dev.Pretuned, target),
	}
	if moveErr != nil {
		rec.Detail = moveErr.Error()
		if gate.IsSafetyViolation(moveErr) {
			rec.Verdict = history.VerdictSafetyRollback
		} else {
			rec.Verdict = history.VerdictHardwareError
		}
	}

	store, err := openHistory()
	if err != nil {
		fmt.Printf("Warning: audit log unavailable: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.Append(rec); err != nil {
		fmt.Printf("Warning: failed to record move: %v\n", err)
	}
}

// statusCmd reads the current channel voltages
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the instrument's current gate voltages",
	Long: `Read the current voltage of every configured channel and compare it
against the device's pretuned point.`,
	Example: `  # Status of the default device
  gatectl status

  # Status of a specific device
  gatectl status --device dot12`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	reg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dev, err := reg.Device(deviceName)
	if err != nil {
		return err
	}

	dialTo := dev.Endpoint
	if endpoint != "" {
		dialTo = endpoint
	}

	client, err := instrument.Dial(dialTo)
	if err != nil {
		return fmt.Errorf("failed to connect to instrument: %w", err)
	}
	defer client.Close()

	values, err := client.ReadChannels(dev.Channels)
	if err != nil {
		return fmt.Errorf("failed to read channels: %w", err)
	}
	if len(values) < len(dev.Channels) {
		return fmt.Errorf("instrument returned %d values for %d channels", len(values), len(dev.Channels))
	}

	if dev.Label != "" {
		fmt.Printf("Device: %s\n\n", dev.Label)
	}
	fmt.Printf("%-8s %12s %12s %12s\n", "Channel", "Current (V)", "Pretuned (V)", "Drift (V)")
	for i, ch := range dev.Channels {
		drift := values[i] - dev.Pretuned[i]
		marker := ""
		if i < gate.GateCount && (drift > gate.Tolerance || drift < -gate.Tolerance) {
			marker = "  (outside tolerance)"
		}
		fmt.Printf("%-8s %12.6f %12.6f %+12.6f%s\n", ch, values[i], dev.Pretuned[i], drift, marker)
	}

	return nil
}

// scanCmd discovers DAC instrument servers on the network
var scanCmd = &cobra.Command{
	Use:     "scan",
	Aliases: []string{"discover"},
	Short:   "Scan for DAC instrument servers on the network",
	Long: `Scan for DAC instrument servers using mDNS/DNS-SD discovery.

This command listens for mDNS broadcasts from instrument servers and
displays all discovered instruments with their endpoints and metadata.`,
	Example: `  # Scan for 10 seconds (default)
  gatectl scan

  # Quick 3-second scan
  gatectl scan --timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for instrument servers (timeout: %ds)...\n\n", scanTimeout)

	instruments, err := discovery.ScanForInstruments(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(instruments) == 0 {
		fmt.Println("No instruments found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the instrument server is running")
		fmt.Println("  - Check that you are on the same network segment")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --endpoint to specify the WebSocket URL manually")
		return nil
	}

	fmt.Printf("Found %d instrument(s):\n\n", len(instruments))

	for i, inst := range instruments {
		fmt.Printf("%d. %s\n", i+1, inst.Name)
		fmt.Printf("   Endpoint: %s\n", inst.Endpoint())
		if inst.Channels > 0 {
			fmt.Printf("   Channels: %d\n", inst.Channels)
		}
		if len(inst.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", inst.Metadata)
		}
		fmt.Println()
	}

	fmt.Println("Use 'gatectl status --endpoint <url>' to read an instrument")

	return nil
}

// devicesCmd lists configured devices
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List configured devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if len(reg.Devices) == 0 {
			fmt.Println("No devices configured.")
			return nil
		}

		names := make([]string, 0, len(reg.Devices))
		for name := range reg.Devices {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			dev := reg.Devices[name]
			marker := " "
			if reg.Preferences != nil && reg.Preferences.DefaultDevice == name {
				marker = "*"
			}
			fmt.Printf("%s %-16s %s\n", marker, name, dev.Endpoint)
			if dev.Label != "" {
				fmt.Printf("  %-16s %s\n", "", dev.Label)
			}
			if !dev.PretunedAt.IsZero() {
				fmt.Printf("  %-16s pretuned %s\n", "", dev.PretunedAt.Format(time.RFC3339))
			}
		}

		return nil
	},
}

// historyCmd shows the move audit log
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent gate voltage moves",
	Long: `Show the most recent entries from the move audit log, newest first.

Each checked move is recorded with its verdict: committed,
safety_rollback, or hardware_error.`,
	Example: `  # Last 20 moves across all devices
  gatectl history

  # Last 5 moves for one device
  gatectl history --device dot12 --limit 5`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLim, "limit", 20, "Maximum number of entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer store.Close()

	records, err := store.Recent(deviceName, historyLim)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No moves recorded.")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %-16s %-16s max dev %.6f V\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Device, rec.Verdict, rec.MaxDeviation)
		if rec.Detail != "" {
			fmt.Printf("%21s %s\n", "", rec.Detail)
		}
	}

	return nil
}

// openHistory opens the audit database next to the registry file
func openHistory() (*history.Store, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	return history.Open(filepath.Join(dir, "history.db"))
}

// deviceLabel resolves the name the audit log records for a device
func deviceLabel(dev *config.Device) string {
	if deviceName != "" {
		return deviceName
	}
	if dev.Label != "" {
		return dev.Label
	}
	return "default"
}
