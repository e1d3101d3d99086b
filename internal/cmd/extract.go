package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/takumif/regtrawl/internal/config"
	"github.com/takumif/regtrawl/internal/extract"
	"github.com/takumif/regtrawl/internal/fetch"
	"github.com/takumif/regtrawl/internal/storage"
)

var extractLimit int

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch and parse discovered sections into structured records",
	Long: `Extract works through the discovered-targets store, fetching each section
page and parsing it into a structured record with its hierarchy, citation
and Markdown content.

Targets already present in the sections store are skipped, so re-running
extract only attempts what is still missing.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntVarP(&extractLimit, "limit", "l", 0, "Attempt at most N targets this run (0=unlimited)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
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

	stats, err := e.Run(ctx, extractLimit)
	if err != nil {
		return err
	}
	printStats(stats)
	return nil
}

func printStats(stats extract.Stats) {
	fmt.Printf("Extraction summary:\n")
	fmt.Printf("  Targets:   %d\n", stats.Total)
	fmt.Printf("  Extracted: %d\n", stats.Extracted)
	fmt.Printf("  Failed:    %d\n", stats.Failed)
	fmt.Printf("  Skipped:   %d\n", stats.Skipped)
}

// newExtractor wires an extractor and returns a cleanup closing its stores
// and HTTP client.
func newExtractor(cfg *config.Config) (*extract.Extractor, func(), error) {
	client := fetch.NewClient(cfg.UserAgent, cfg.RequestTimeout)

	sections, err := storage.OpenSections(cfg.SectionsPath())
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	failures, err := storage.OpenFailures(cfg.FailedPath())
	if err != nil {
		_ = sections.Close()
		client.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = failures.Close()
		_ = sections.Close()
		client.Close()
	}
	return extract.New(cfg, client, sections, failures), cleanup, nil
}
