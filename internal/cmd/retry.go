package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-attempt permanently failed targets",
	Long: `Retry runs a recovery pass over the failed-targets store, re-attempting
every target that has not been extracted since its last failure.

Targets that fail again are appended to the store with a cumulative
attempt count; the latest record per URL wins.`,
	Args: cobra.NoArgs,
	RunE: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, cleanup, err := newExtractor(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := e.RetryFailed(ctx)
	if err != nil {
		return err
	}
	printStats(stats)
	return nil
}
