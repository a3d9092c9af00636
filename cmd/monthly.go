package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/opscost/aws-usage-reporter/internal/config"
	"github.com/opscost/aws-usage-reporter/internal/history"
	"github.com/opscost/aws-usage-reporter/internal/report"
	"github.com/opscost/aws-usage-reporter/internal/rightsize"
)

// runMonthly analyzes the rolling history and emails the rightsizing
// recommendations. A run with nothing actionable still sends the report so
// the recipient knows the analysis happened.
func runMonthly(ctx context.Context, cfg *config.Config, store *history.Store, now time.Time, log zerolog.Logger) error {
	rpt := rightsize.Analyze(store.Load(), cfg.WindowDays, now)

	actionable := rpt.Actionable()
	log.Info().
		Int("analyzed", rpt.Summary.TotalInstances).
		Int("actionable", len(actionable)).
		Int("high_priority", rpt.Summary.HighPriorityCount).
		Float64("net_impact", rpt.Summary.NetImpact).
		Msg("monthly analysis complete")

	workbook, err := report.MonthlyWorkbook(rpt)
	if err != nil {
		return err
	}
	reportPath := filepath.Join(flags.OutputDir, monthlyReportFilename(now))
	if err := workbook.SaveAs(reportPath); err != nil {
		return err
	}
	log.Info().Str("path", reportPath).Msg("wrote monthly report")

	htmlBody, err := report.MonthlyHTML(rpt, now)
	if err != nil {
		return err
	}

	if flags.DryRun {
		log.Info().Msg("dry run, skipping monthly email delivery")
		return nil
	}

	subject := "AWS Monthly Optimization Report - " + now.Format("January 2006")
	if err := sendReport(ctx, cfg, "AWS Optimization Report", subject, htmlBody, reportPath); err != nil {
		return err
	}
	log.Info().Str("recipient", cfg.RecipientEmail).Msg("monthly report sent")
	return nil
}
