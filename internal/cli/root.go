package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zaczkows/fb4rasp/internal/logger"
)

// Global flags
var (
	cfgFile string
	verbose bool
)

var runFlags RunOptions

var rootCmd = &cobra.Command{
	Use:   "fb4rasp",
	Short: "Status dashboard for a small board computer",
	Long: `fb4rasp shows router throughput, system load of this machine and of
remote agents, and reacts to touch sensor chords.

Run without a subcommand to start the dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.Context(), runFlags)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the dashboard",
	Long: `Start the engine, the data producers and the dashboard.

The dashboard takes over the terminal. Without a terminal, or with
--headless, a summary line is logged on every redraw instead.

Examples:
  fb4rasp run
  fb4rasp run --headless --no-router
  fb4rasp run --metrics-addr :9100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.Context(), runFlags)
	},
}

func addRunFlags(cmd *cobra.Command, opts *RunOptions) {
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "log summaries instead of drawing the dashboard")
	cmd.Flags().BoolVar(&opts.NoRouter, "no-router", false, "do not poll the router")
	cmd.Flags().BoolVar(&opts.NoTouch, "no-touch", false, "disable the emulated touch sensor")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9100)")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./fb4rasp.yaml or ~/.config/fb4rasp/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")

	addRunFlags(rootCmd, &runFlags)
	addRunFlags(runCmd, &runFlags)
	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
