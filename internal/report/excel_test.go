package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscost/aws-usage-reporter/internal/rightsize"
	"github.com/opscost/aws-usage-reporter/internal/usage"
)

func TestDailyWorkbook(t *testing.T) {
	samples := []usage.Sample{
		{
			Date: "2026-08-23", Service: usage.ServiceEC2, ID: "i-1", Name: "web-1",
			Type: "t3.large", VCPU: 2, MemoryGiB: 8, CPUPercent: 42.5, RAMPercent: 67.5,
			DiskPercent: usage.FloatPtr(55), DiskCount: 1, DiskTotalGB: 100,
			DiskSizesGB: []int32{100}, DiskDetails: "/dev/xvda1:55.0%",
			EFSAttached: usage.BoolPtr(false), Profile: "prod", Region: "us-east-1",
			Collection: usage.CollectionSSM,
		},
		{
			Date: "2026-08-23", Service: usage.ServiceRDS, ID: "orders-db", Name: "orders-db",
			Type: "db.m5.large", VCPU: 2, MemoryGiB: 8, CPUPercent: 30, RAMPercent: 75,
			DiskCount: 1, DiskTotalGB: 200, DiskSizesGB: []int32{200},
			DiskDetails: "RDS Managed", Profile: "prod", Region: "us-east-1",
			Collection: usage.CollectionCloudWatch,
		},
	}
	trends := map[string]Trend{
		"i-1": {CPU: TrendIncreased, RAM: TrendStable, Disk: TrendStable, CPUChange: 10},
	}

	f, err := DailyWorkbook(samples, trends)
	require.NoError(t, err)
	defer f.Close()

	const sheet = "Usage Data"
	v, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", v)

	// RDS sorts ahead of EC2.
	v, err = f.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "RDS", v)
	v, err = f.GetCellValue(sheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "EC2", v)

	// RDS has no guest disk figure.
	v, err = f.GetCellValue(sheet, "M2")
	require.NoError(t, err)
	assert.Equal(t, "N/A", v)
	v, err = f.GetCellValue(sheet, "O2")
	require.NoError(t, err)
	assert.Equal(t, "N/A", v)

	v, err = f.GetCellValue(sheet, "H3")
	require.NoError(t, err)
	assert.Equal(t, "42.5", v)
	v, err = f.GetCellValue(sheet, "O3")
	require.NoError(t, err)
	assert.Equal(t, "No", v)
	v, err = f.GetCellValue(sheet, "W3")
	require.NoError(t, err)
	assert.Equal(t, TrendIncreased, v)
}

func TestMonthlyWorkbookWithRecommendations(t *testing.T) {
	rpt := rightsize.Report{
		Recommendations: []rightsize.Recommendation{
			{
				ID: "i-1", Name: "batch-1", Service: usage.ServiceEC2,
				CurrentType: "t3.large", RecommendedType: "t3.medium",
				Action: rightsize.ActionDownsize, Priority: rightsize.LevelHigh,
				Confidence: rightsize.LevelHigh, Reason: "Consistently low utilization",
				MonthlySavings: 30.66, DataPoints: 14,
				CPU: rightsize.Stats{Avg: 10, Max: 20, P95: 18, LowPct: 100},
				RAM: rightsize.Stats{Avg: 20, Max: 30, P95: 28},
			},
			{
				ID: "i-2", Name: "steady", Service: usage.ServiceEC2,
				CurrentType: "t3.small", RecommendedType: "t3.small",
				Action: rightsize.ActionMonitor, Priority: rightsize.LevelLow,
			},
		},
		Summary: rightsize.Summary{
			PeriodDays:           30,
			TotalInstances:       2,
			TotalRecommendations: 1,
			TotalSavings:         30.66,
			NetImpact:            30.66,
		},
	}

	f, err := MonthlyWorkbook(rpt)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "Recommendations")
	assert.Contains(t, f.GetSheetList(), "Summary")

	v, err := f.GetCellValue("Recommendations", "A2")
	require.NoError(t, err)
	assert.Equal(t, "i-1", v)
	v, err = f.GetCellValue("Recommendations", "F2")
	require.NoError(t, err)
	assert.Equal(t, "downsize", v)
	v, err = f.GetCellValue("Recommendations", "R2")
	require.NoError(t, err)
	assert.Equal(t, "30.66", v)

	// The monitor row is not actionable and must not appear.
	v, err = f.GetCellValue("Recommendations", "A3")
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Analysis Period (Days)", v)
	v, err = f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "30", v)
}

func TestMonthlyWorkbookNothingActionable(t *testing.T) {
	rpt := rightsize.Report{
		Recommendations: []rightsize.Recommendation{
			{ID: "i-1", Action: rightsize.ActionMonitor, CurrentType: "t3.small", RecommendedType: "t3.small"},
		},
	}

	f, err := MonthlyWorkbook(rpt)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"No Recommendations"}, f.GetSheetList())
	v, err := f.GetCellValue("No Recommendations", "A2")
	require.NoError(t, err)
	assert.Contains(t, v, "optimally sized")
}
