package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethpandaops/ga4ch/pkg/clickhouse"
	"github.com/ethpandaops/ga4ch/pkg/ga4"
	"github.com/ethpandaops/ga4ch/pkg/loader"
	"github.com/ethpandaops/ga4ch/pkg/observability"
	"github.com/ethpandaops/ga4ch/pkg/pipeline"
	"github.com/ethpandaops/ga4ch/pkg/reports"
	"github.com/ethpandaops/ga4ch/pkg/transform"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	runReports []string
	runDate    string
)

//nolint:gochecknoglobals // Cobra commands are typically global
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch reports for one day and insert them into ClickHouse",
	Long: `Fetch the selected reports for a single day from GA4 and insert the rows into
their ClickHouse tables. Reports run one after another; the first failure stops
the run. Re-running a day inserts its rows again.`,
	Example: `  ga4ch run
  ga4ch run --report sessions --date 2024-04-02`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceVarP(&runReports, "report", "r", nil, "report to run, repeatable (default all configured reports)")
	runCmd.Flags().StringVarP(&runDate, "date", "d", "", "report date in YYYY-MM-DD (default yesterday)")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cmd.SilenceErrors = true

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	registry, err := reports.Load(cfg.Reports)
	if err != nil {
		return err
	}

	date := runDate
	if date == "" {
		date = pipeline.Yesterday(time.Now())
	}

	if err := pipeline.ValidateDate(date); err != nil {
		return err
	}

	names := runReports
	if len(names) == 0 {
		names = registry.Names()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metrics := observability.NewMetricsServer(logger, cfg.MetricsAddr)
		metrics.Start()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := metrics.Stop(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to stop metrics server")
			}
		}()
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

	reporter, err := ga4.NewReporter(ctx, &cfg.GA4)
	if err != nil {
		return err
	}

	fetcher, err := ga4.NewFetcher(logger, reporter, &cfg.GA4)
	if err != nil {
		return err
	}

	transformer, err := transform.NewTransformer(logger, cfg.Transform.OnInvalidMetric)
	if err != nil {
		return err
	}

	l, err := loader.New(logger, chClient, cfg.Loader)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(logger, registry, fetcher, transformer, l)

	logger.WithFields(logrus.Fields{
		"reports":  names,
		"date":     date,
		"property": cfg.GA4.PropertyID,
	}).Info("Starting run")

	results, err := runner.RunAll(ctx, names, date)

	var loaded int
	for _, r := range results {
		loaded += r.RowsLoaded
	}

	fields := logrus.Fields{
		"completed": len(results),
		"requested": len(names),
		"rows":      loaded,
	}

	if err != nil {
		logger.WithFields(fields).WithError(err).Error("Run failed")

		return err
	}

	logger.WithFields(fields).Info("Run completed")

	return nil
}
