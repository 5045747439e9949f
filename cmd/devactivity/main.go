package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vukan322/devactivity/internal/config"
	"github.com/vukan322/devactivity/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	timeout    time.Duration

	// Source selection
	user     string
	feedName string
	demoMode bool

	// Output
	output string
	format string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "devactivity",
	Short: "Reconcile contribution history into calendar and streak statistics",
	Long: `devactivity merges a pre-computed contribution snapshot with the live
public event feed into one set of statistics: a 365-day contribution calendar,
per-category totals and streaks.

The snapshot supplies day-level fields (total contributions, active days,
streaks); the live feed supplies the category breakdown and recent activity.
Either source may be missing; the result degrades instead of failing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if user == "" {
			user = cfg.User
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compute statistics once and write them out",
	RunE:  runReconcile,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print the 365-day contribution calendar as date/count lines",
	Long: `Prints the winning contribution calendar. When no snapshot was used,
the calendar is built from the live feed's recent activity instead.`,
	RunE: runCalendar,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompute statistics whenever the snapshot file is redeposited",
	RunE:  runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "devactivity.yaml", "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall deadline for one reconciliation")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "Username whose activity is reconciled (or set DEV_ACTIVITY_USER)")
	rootCmd.PersistentFlags().StringVar(&feedName, "feed", "github", "Live feed: github or gitlab")
	rootCmd.PersistentFlags().BoolVar(&demoMode, "demo", false, "Use built-in demo data instead of network sources")

	for _, cmd := range []*cobra.Command{reconcileCmd, watchCmd} {
		cmd.Flags().StringVarP(&output, "out", "o", "", "Output file (default: stdout)")
		cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or text")
	}

	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
