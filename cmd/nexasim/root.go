// Package nexasim implements the CLI for the NexaOS simulation harness.
package nexasim

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nexaos/klog"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	SpecVer   = "1.0.0"
	BuildTime = "unknown"
)

// Global flags.
var (
	globalLog       string
	globalLogFormat string
	globalDebug     bool
)

// rootCmd is the base command for nexasim.
var rootCmd = &cobra.Command{
	Use:   "nexasim",
	Short: "NexaOS kernel simulation harness",
	Long: `nexasim drives the NexaOS kernel core as an in-process simulation:
it boots a simulated kernel instance, walks its subsystems through a
scripted syscall trace, and reports the resulting state.

This is a host-mode harness, not a bootable kernel image: the same
buddy allocator, VMA manager, scheduler, process lifecycle, IPC, VFS,
and isolation-class code that the kernel uses runs here as ordinary
Go code.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetContext returns a context that cancels on SIGINT/SIGTERM.
func GetContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")
}

func setupLogging() {
	logOutput := os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			logOutput = f
		}
	}

	logLevel := slog.LevelInfo
	if globalDebug {
		logLevel = slog.LevelDebug
	}

	logger := klog.NewLogger(klog.Config{
		Level:  logLevel,
		Format: globalLogFormat,
		Output: logOutput,
	})
	klog.SetDefault(logger)
}
