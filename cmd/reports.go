package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ethpandaops/ga4ch/pkg/clickhouse"
	"github.com/ethpandaops/ga4ch/pkg/loader"
	"github.com/ethpandaops/ga4ch/pkg/reports"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// ErrValidationFailed is returned when one or more reports fail validation
var ErrValidationFailed = errors.New("report validation failed")

//nolint:gochecknoglobals // Cobra flags are typically global
var checkTables bool

// reportsCmd represents the reports command group
//
//nolint:gochecknoglobals // Cobra commands are typically global
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect report definitions",
	Long:  `Commands for listing and validating the configured report definitions.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Keep table output clean unless explicitly asked for logs
		if !cmd.Flags().Changed("log-level") {
			logger.SetLevel(logrus.ErrorLevel)
		}
		return nil
	},
}

//nolint:gochecknoglobals // Cobra commands are typically global
var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured reports",
	Long:  `List configured reports with their target table, dimensions, metrics and filter.`,
	RunE:  runReportsList,
}

//nolint:gochecknoglobals // Cobra commands are typically global
var reportsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate report definitions",
	Long:  `Validate report definitions and, with --check-tables, that every target table exists in ClickHouse.`,
	RunE:  runReportsValidate,
}

func init() {
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsValidateCmd)

	reportsValidateCmd.Flags().BoolVar(&checkTables, "check-tables", false, "check target tables exist in ClickHouse")
}

func loadRegistry() (*Config, *reports.Registry, error) {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	registry, err := reports.Load(cfg.Reports)
	if err != nil {
		return nil, nil, err
	}

	return cfg, registry, nil
}

func runReportsList(cmd *cobra.Command, _ []string) error {
	cmd.SilenceErrors = true

	_, registry, err := loadRegistry()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTABLE\tDIMENSIONS\tMETRICS\tLIMIT\tFILTER")

	for _, spec := range registry.Specs() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			spec.Name,
			spec.Table,
			strings.Join(spec.Dimensions, ","),
			orDash(strings.Join(spec.Metrics, ",")),
			spec.Limit,
			spec.Filter.String(),
		)
	}

	return w.Flush()
}

func runReportsValidate(cmd *cobra.Command, _ []string) error {
	cmd.SilenceErrors = true

	cfg, registry, err := loadRegistry()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if !checkTables {
		for _, name := range registry.Names() {
			_, _ = fmt.Fprintf(out, "✓ %s: valid\n", name)
		}

		_, _ = fmt.Fprintf(out, "\n%d valid, 0 errors\n", len(registry.Names()))

		return nil
	}

	if err := cfg.ClickHouse.Validate(); err != nil {
		return fmt.Errorf("clickhouse config validation failed: %w", err)
	}

	chClient, err := clickhouse.SetupClient(&cfg.ClickHouse, logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := chClient.Stop(); err != nil {
			logger.WithError(err).Error("Failed to stop ClickHouse client")
		}
	}()

	l, err := loader.New(logger, chClient, cfg.Loader)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var failed int

	for _, spec := range registry.Specs() {
		if err := l.CheckTable(ctx, spec.Table); err != nil {
			failed++

			_, _ = fmt.Fprintf(out, "✗ %s: %v\n", spec.Name, err)

			continue
		}

		_, _ = fmt.Fprintf(out, "✓ %s: valid (%s)\n", spec.Name, spec.Table)
	}

	_, _ = fmt.Fprintf(out, "\n%d valid, %d errors\n", len(registry.Names())-failed, failed)

	if failed > 0 {
		return fmt.Errorf("%w: %d errors", ErrValidationFailed, failed)
	}

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
