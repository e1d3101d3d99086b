// Package cmd provides the regtrawl command-line interface. It handles
// command parsing, configuration loading and wiring of the pipeline stages.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/takumif/regtrawl/internal/config"
	"github.com/takumif/regtrawl/internal/logging"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "regtrawl",
	Short: "A polite crawler for the California Code of Regulations",
	Long: `Regtrawl discovers, extracts and reconciles regulation sections from
the published California Code of Regulations.

The pipeline runs in stages: 'discover' walks the browse hierarchy and
records section URLs, 'extract' fetches and parses each section into a
structured record, 'retry' re-attempts permanent failures, and 'coverage'
reconciles the stores into a completeness report.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./regtrawl.yml)")
	rootCmd.PersistentFlags().String("data-dir", "./data", "Directory for stores, checkpoint and report")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file")
	rootCmd.PersistentFlags().IntP("concurrency", "c", 3, "Number of concurrent workers")
	rootCmd.PersistentFlags().DurationP("delay", "r", 1500*time.Millisecond, "Delay between requests")
	rootCmd.PersistentFlags().DurationP("timeout", "t", 45*time.Second, "HTTP request timeout")
	rootCmd.PersistentFlags().StringP("user-agent", "u", "regtrawl/1.0", "HTTP User-Agent header")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"data_dir", "data-dir"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
		{"concurrency", "concurrency"},
		{"request_delay", "delay"},
		{"request_timeout", "timeout"},
		{"user_agent", "user-agent"},
	}
	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.PersistentFlags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		showConfig, _ := cmd.Flags().GetBool("show-config")
		if showConfig {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return showCurrentConfig(cfg)
		}
		return cmd.Help()
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("regtrawl")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("RT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the effective configuration (defaults, config file,
// environment, flags), validates it and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	logCfg.FilePath = cfg.LogFile
	if err := logging.SetDefault(logCfg); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, nil
}

func showCurrentConfig(cfg *config.Config) error {
	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Printf("# Current regtrawl configuration\n")
	fmt.Printf("# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Printf("# Configuration file search paths: ./regtrawl.yml\n")
	fmt.Printf("# Environment variables prefix: RT_\n\n")
	fmt.Print(string(yamlData))
	return nil
}
