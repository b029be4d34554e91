// Package cmd contains the CLI commands for ga4ch
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var (
	cfgFile     string
	envFile     string
	metricsAddr string
	logger      *logrus.Logger
)

// rootCmd represents the base command
//
//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "ga4ch",
	Short: "Load Google Analytics 4 daily reports into ClickHouse",
	Long: `ga4ch fetches daily reports from the Google Analytics Data API for a
single property, reshapes the rows and inserts them into ClickHouse tables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error, fatal, panic); overrides the config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "./config.yaml"
	}

	// Existing environment variables take precedence over the file
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			logger.WithError(err).WithField("file", envFile).Warn("Failed to load env file")
		}
	}

	logLevel, err := rootCmd.PersistentFlags().GetString("log-level")
	if err != nil || logLevel == "" {
		return
	}

	level, parseErr := logrus.ParseLevel(logLevel)
	if parseErr != nil {
		logger.WithError(parseErr).Warn("Invalid log level, defaulting to info")
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
}

// loadConfig loads and validates the config file, applying its logging level
// unless --log-level was given.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cmd.Flags().Changed("log-level") {
		level, _ := logrus.ParseLevel(cfg.Logging)
		logger.SetLevel(level)
	}

	return cfg, nil
}
