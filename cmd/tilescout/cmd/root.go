// Package cmd provides the CLI commands for tilescout.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/solmere/tilescout/internal/logging"
	"github.com/solmere/tilescout/internal/profiling"
	"github.com/solmere/tilescout/pkg/version"
)

// Debug and profiling flags
var (
	debugMode      bool
	loggingCleanup func()

	profileCPU string
	profileMem string
	cpuStop    func()
)

// NewRootCmd creates the root command for the tilescout CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tilescout",
		Short: "Incremental settlement-tile search for planet worlds",
		Long: `Tilescout ranks planet tiles against a set of weighted filters.

A search runs in two stages: a cheap aggregate pass gates the tile
population down to a candidate set, then a refinement pass evaluates
the expensive predicates and produces exact scores. Evaluation is
incremental so a host loop can step it a slice at a time.

Run 'tilescout search' with a world snapshot and a filter file to
get started.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("tilescout version {{.Version}}\n")

	// Debug logging flag
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.tilescout/logs/")

	// Profiling flags
	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")

	cmd.PersistentPreRunE = startLoggingAndProfiling
	cmd.PersistentPostRunE = stopLoggingAndProfiling

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newPresetsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLoggingAndProfiling starts debug logging and CPU profiling if
// the flags are set.
func startLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	if debugMode {
		cleanup, err := logging.SetupDefault()
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	if profileCPU != "" {
		stop, err := profiling.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		cpuStop = stop
	}
	return nil
}

// stopLoggingAndProfiling stops profiling and logging, and writes the
// heap profile if requested.
func stopLoggingAndProfiling(_ *cobra.Command, _ []string) error {
	if cpuStop != nil {
		cpuStop()
		cpuStop = nil
	}

	if profileMem != "" {
		if err := profiling.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}

	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
