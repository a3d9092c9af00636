package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opscost/aws-usage-reporter/internal/collector"
	"github.com/opscost/aws-usage-reporter/internal/config"
	"github.com/opscost/aws-usage-reporter/internal/history"
	"github.com/opscost/aws-usage-reporter/internal/logging"
	"github.com/opscost/aws-usage-reporter/internal/report"
	"github.com/opscost/aws-usage-reporter/internal/usage"
	"github.com/opscost/aws-usage-reporter/providers/aws/services/ec2"
)

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}
	applyFlags(cfg, flags)

	if flags.DryRun && cfg.RecipientEmail == "" {
		// Nothing gets sent on a dry run, so let validation pass.
		cfg.RecipientEmail = "dry-run@localhost"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel).With().Str("run_id", uuid.NewString()).Logger()

	ctx := cmd.Context()
	now := time.Now()
	today := now.Format(usage.DateLayout)
	log.Info().Str("date", today).Msg("starting usage report")

	profiles := cfg.Profiles
	if len(profiles) == 0 {
		profiles, err = collector.DiscoverProfiles(cfg.CredentialsFile)
		if err != nil {
			return err
		}
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no AWS profiles configured or discovered in %s", cfg.CredentialsFile)
	}

	regions := cfg.Regions
	if len(regions) == 0 {
		regions = discoverRegions(ctx, log)
	}
	log.Info().Strs("profiles", profiles).Strs("regions", regions).Msg("collection scope")

	factory := collector.AWSClientFactory(log, cfg.PollInterval, cfg.PollAttempts)
	col := collector.New(profiles, regions, cfg.Workers, cfg.SSMTimeout, factory, log)

	samples := col.Collect(ctx)
	if len(samples) == 0 {
		return fmt.Errorf("no data collected, check credentials and logs")
	}
	log.Info().Int("resources", len(samples)).Msg("collection complete")

	store, err := history.NewStore(cfg.DataDir, log)
	if err != nil {
		return err
	}

	yesterday := now.AddDate(0, 0, -1).Format(usage.DateLayout)
	trends := report.ComputeTrends(samples, store.ForDate(yesterday))

	if err := store.SaveDay(today, samples, cfg.WindowDays, now); err != nil {
		return err
	}

	workbook, err := report.DailyWorkbook(samples, trends)
	if err != nil {
		return err
	}
	reportPath := filepath.Join(flags.OutputDir, dailyReportFilename(today))
	if err := workbook.SaveAs(reportPath); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	log.Info().Str("path", reportPath).Msg("wrote daily report")

	stopped := col.StoppedInstances(ctx)
	log.Info().Int("count", len(stopped)).Msg("collected non-running instances")

	htmlBody, err := report.DailyHTML(today, samples, trends, stopped)
	if err != nil {
		return err
	}

	if flags.DryRun {
		log.Info().Msg("dry run, skipping email delivery")
	} else {
		subject := "AWS Usage Report - " + today
		if err := sendReport(ctx, cfg, "AWS Infrastructure Report", subject, htmlBody, reportPath); err != nil {
			return err
		}
		log.Info().Str("recipient", cfg.RecipientEmail).Msg("daily report sent")
	}

	if shouldRunMonthly(now, flags.Monthly) {
		log.Info().Msg("monthly analysis triggered")
		return runMonthly(ctx, cfg, store, now, log)
	}
	return nil
}

// applyFlags overlays command line flags on the loaded configuration.
func applyFlags(cfg *config.Config, f Flags) {
	if len(f.Profiles) > 0 {
		cfg.Profiles = f.Profiles
	}
	if len(f.Regions) > 0 {
		cfg.Regions = f.Regions
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
}

// shouldRunMonthly triggers the rightsizing analysis on the first of the
// month, via the --monthly flag, or via FORCE_MONTHLY_ANALYSIS=true.
func shouldRunMonthly(now time.Time, force bool) bool {
	if force || now.Day() == 1 {
		return true
	}
	return strings.EqualFold(os.Getenv("FORCE_MONTHLY_ANALYSIS"), "true")
}

func dailyReportFilename(today string) string {
	return fmt.Sprintf("aws_usage_report_%s.xlsx", today)
}

func monthlyReportFilename(now time.Time) string {
	return fmt.Sprintf("aws_monthly_recommendations_%s.xlsx", now.Format("2006-01"))
}

// discoverRegions asks EC2 for the enabled regions using the default
// credential chain, falling back to a static list when that fails.
func discoverRegions(ctx context.Context, log zerolog.Logger) []string {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion("us-east-1"))
	if err != nil {
		log.Warn().Err(err).Msg("could not load AWS config, using fallback regions")
		return ec2.FallbackRegions
	}
	regions, err := ec2.NewClient(awsCfg).DiscoverRegions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("region discovery failed, using fallback regions")
		return ec2.FallbackRegions
	}
	return regions
}
