package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/takumif/regtrawl/internal/coverage"
	"github.com/takumif/regtrawl/internal/storage"
)

var coverageStdout bool

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Reconcile the stores into a coverage report",
	Long: `Coverage cross-references the discovered, extracted and failed stores and
writes a Markdown report classifying every discovered target as extracted,
permanently failed or missing.`,
	Args: cobra.NoArgs,
	RunE: runCoverage,
}

func init() {
	coverageCmd.Flags().BoolVar(&coverageStdout, "stdout", false, "Write the report to stdout instead of the data directory")
	rootCmd.AddCommand(coverageCmd)
}

func runCoverage(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	discovered, err := storage.LoadDiscovered(cfg.DiscoveredPath())
	if err != nil {
		return err
	}
	extracted, err := storage.LoadSectionURLs(cfg.SectionsPath())
	if err != nil {
		return err
	}
	failures, err := storage.LoadFailures(cfg.FailedPath())
	if err != nil {
		return err
	}

	report := coverage.Reconcile(discovered, extracted, failures, coverage.Thresholds{
		Excellent:  cfg.CoverageExcellent,
		Acceptable: cfg.CoverageAcceptable,
	})

	if coverageStdout {
		if err := coverage.WriteMarkdown(os.Stdout, report); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
		f, err := os.Create(cfg.ReportPath())
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		if err := coverage.WriteMarkdown(f, report); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", cfg.ReportPath())
	}

	fmt.Printf("Coverage: %.1f%% accounted for, %.1f%% extracted (%s)\n",
		report.AccountedPercent(), report.CoveragePercent(), report.Status)
	fmt.Printf("  Discovered: %d\n", report.Discovered)
	fmt.Printf("  Extracted:  %d\n", report.Extracted)
	fmt.Printf("  Failed:     %d\n", report.Failed)
	fmt.Printf("  Missing:    %d\n", report.Missing)
	return nil
}
