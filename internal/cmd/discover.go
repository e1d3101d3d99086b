package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/takumif/regtrawl/internal/discover"
	"github.com/takumif/regtrawl/internal/fetch"
	"github.com/takumif/regtrawl/internal/storage"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [seed URLs...]",
	Short: "Walk the browse hierarchy and record section URLs",
	Long: `Discover performs a breadth-first traversal of the browse pages starting
from the seed URLs (or the configured defaults) and appends every section
URL it finds to the discovered-targets store.

Progress is checkpointed; an interrupted run resumes where it left off.`,
	Args: cobra.ArbitraryArgs,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().Int("max-pages", 0, "Stop after visiting N browse pages (0=unlimited)")
	discoverCmd.Flags().Int("max-sections", 0, "Stop after discovering N section URLs (0=unlimited)")
	discoverCmd.Flags().Int("checkpoint-interval", 50, "Persist a checkpoint every N discoveries")

	for _, bind := range []struct{ viperKey, flagName string }{
		{"max_pages", "max-pages"},
		{"max_sections", "max-sections"},
		{"checkpoint_interval", "checkpoint-interval"},
	} {
		if err := viper.BindPFlag(bind.viperKey, discoverCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.SeedURLs = args
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := fetch.NewClient(cfg.UserAgent, cfg.RequestTimeout)
	defer client.Close()

	store, err := storage.OpenDiscovered(cfg.DiscoveredPath())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	d, err := discover.New(cfg, client, store, storage.NewCheckpointStore(cfg.CheckpointPath()))
	if err != nil {
		return err
	}
	return d.Run(ctx)
}
