package rightsize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscost/aws-usage-reporter/internal/usage"
)

var analysisNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

// mkHistory builds one daily sample per cpu/ram value pair, newest last.
func mkHistory(id string, svc usage.ServiceType, instanceType string, cpu, ram []float64, disk []float64) []usage.Sample {
	samples := make([]usage.Sample, len(cpu))
	for i := range cpu {
		day := analysisNow.AddDate(0, 0, -(len(cpu) - 1 - i)).Format(usage.DateLayout)
		s := usage.Sample{
			Date:       day,
			Service:    svc,
			ID:         id,
			Name:       id + "-name",
			Type:       instanceType,
			CPUPercent: cpu[i],
			RAMPercent: ram[i],
		}
		if disk != nil {
			s.DiskPercent = usage.FloatPtr(disk[i])
		}
		samples[i] = s
	}
	return samples
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestAnalyze_MinimumSampleBoundary(t *testing.T) {
	six := mkHistory("i-six", usage.ServiceEC2, "t3.large", repeat(10, 6), repeat(15, 6), nil)
	seven := mkHistory("i-seven", usage.ServiceEC2, "t3.large", repeat(10, 7), repeat(15, 7), nil)

	rep := Analyze(append(six, seven...), 30, analysisNow)

	require.Len(t, rep.Recommendations, 1)
	assert.Equal(t, "i-seven", rep.Recommendations[0].ID)
	// both resources still count toward the summary totals
	assert.Equal(t, 2, rep.Summary.TotalInstances)
	assert.Equal(t, 13, rep.Summary.DataPoints)
}

func TestAnalyze_WindowFilter(t *testing.T) {
	history := mkHistory("i-old", usage.ServiceEC2, "t3.large", repeat(10, 10), repeat(15, 10), nil)
	for i := range history {
		history[i].Date = analysisNow.AddDate(0, 0, -40-i).Format(usage.DateLayout)
	}
	history = append(history, usage.Sample{Date: "not-a-date", ID: "i-bad", Service: usage.ServiceEC2})

	rep := Analyze(history, 30, analysisNow)

	assert.Empty(t, rep.Recommendations)
	assert.Equal(t, 0, rep.Summary.TotalInstances)
}

func TestAnalyze_Downsize(t *testing.T) {
	history := mkHistory("i-idle", usage.ServiceEC2, "t3.large", repeat(10, 10), repeat(15, 10), nil)

	rep := Analyze(history, 30, analysisNow)

	require.Len(t, rep.Recommendations, 1)
	rec := rep.Recommendations[0]
	assert.Equal(t, ActionDownsize, rec.Action)
	assert.Equal(t, "t3.medium", rec.RecommendedType)
	assert.Equal(t, LevelHigh, rec.Confidence)
	// t3.large -> t3.medium saves 30.66/month, under the 100 threshold
	assert.Equal(t, LevelMedium, rec.Priority)
	assert.Equal(t, 30.66, rec.MonthlySavings)
	assert.Equal(t, 0.0, rec.MonthlyCostIncrease)
	assert.True(t, rec.Actionable())
}

func TestAnalyze_DownsizeHighPriorityAboveSavingsThreshold(t *testing.T) {
	history := mkHistory("i-big", usage.ServiceEC2, "m5.4xlarge", repeat(5, 10), repeat(10, 10), nil)

	rep := Analyze(history, 30, analysisNow)

	require.Len(t, rep.Recommendations, 1)
	rec := rep.Recommendations[0]
	assert.Equal(t, ActionDownsize, rec.Action)
	assert.Equal(t, "m5.2xlarge", rec.RecommendedType)
	// 560.64 - 280.32 = 280.32 > 100
	assert.Equal(t, 280.32, rec.MonthlySavings)
	assert.Equal(t, LevelHigh, rec.Priority)
}

func TestAnalyze_DownsizeTableMissDegradesToNoOp(t *testing.T) {
	history := mkHistory("i-odd", usage.ServiceEC2, "m4.10xlarge", repeat(10, 10), repeat(15, 10), nil)

	rep := Analyze(history, 30, analysisNow)

	require.Len(t, rep.Recommendations, 1)
	rec := rep.Recommendations[0]
	assert.Equal(t, ActionDownsize, rec.Action)
	assert.Equal(t, rec.CurrentType, rec.RecommendedType)
	assert.Equal(t, 0.0, rec.MonthlySavings)
	assert.False(t, rec.Actionable())
	assert.Equal(t, 0, rep.Summary.TotalRecommendations)
}

func TestAnalyze_Upsize(t *testing.T) {
	cpu := []float64{85, 85, 85, 85, 85, 95, 95}
	history := mkHistory("i-hot", usage.ServiceEC2, "m5.large", cpu, repeat(50, 7), nil)

	rep := Analyze(history, 30, analysisNow)

	require.Len(t, rep.Recommendations, 1)
	rec := rep.Recommendations[0]
	assert.Equal(t, ActionUpsize, rec.Action)
	assert.Equal(t, "m5.xlarge", rec.RecommendedType)
	assert.Equal(t, LevelHigh, rec.Confidence)
	assert.Equal(t, LevelHigh, rec.Priority)
	// 140.16 - 70.08
	assert.Equal(t, 70.08, rec.MonthlyCostIncrease)
	assert.Equal(t, 0.0, rec.MonthlySavings)
}

func TestAnalyze_OptimizeMemory(t *testing.T) {
	ram := []float64{90, 90, 90, 90, 96, 96, 96}
	history := mkHistory("db-mem", usage.ServiceRDS, "db.m5.large", repeat(50, 7), ram, nil)

	rep := Analyze(history, 30, analysisNow)

	require.Len(t, rep.Recommendations, 1)
	rec := rep.Recommendations[0]
	assert.Equal(t, ActionOptimizeMemory, rec.Action)
	assert.Equal(t, "db.r5.large", rec.RecommendedType)
	assert.Equal(t, LevelMedium, rec.Confidence)
	assert.Equal(t, LevelMedium, rec.Priority)
	// 136.87 - 105.12
	assert.Equal(t, 31.75, rec.MonthlyCostIncrease)
}

func TestAnalyze_IncreaseStorage(t *testing.T) {
	disk := []float64{86, 86, 86, 86, 97, 97, 97}
	history := mkHistory("i-full", usage.ServiceEC2, "t3.large", repeat(50, 7), repeat(50, 7), disk)

	rep := Analyze(history, 30, analysisNow)

	require.Len(t, rep.Recommendations, 1)
	rec := rep.Recommendations[0]
	assert.Equal(t, ActionIncreaseStorage, rec.Action)
	assert.Equal(t, rec.CurrentType, rec.RecommendedType)
	assert.Equal(t, 0.0, rec.MonthlySavings)
	assert.Equal(t, 0.0, rec.MonthlyCostIncrease)
	assert.True(t, rec.Actionable())
}

func TestAnalyze_StorageRuleSkippedWithoutDiskData(t *testing.T) {
	// RDS samples never carry a disk percentage; high CPU/RAM stay below
	// the other rule thresholds, so the result is monitor.
	history := mkHistory("db-main", usage.ServiceRDS, "db.m5.large", repeat(50, 10), repeat(60, 10), nil)

	rep := Analyze(history, 30, analysisNow)

	require.Len(t, rep.Recommendations, 1)
	rec := rep.Recommendations[0]
	assert.Equal(t, ActionMonitor, rec.Action)
	assert.Equal(t, LevelMedium, rec.Confidence)
	assert.Equal(t, LevelLow, rec.Priority)
	assert.Nil(t, rec.Disk)
	assert.False(t, rec.Actionable())
}

func TestAnalyze_DownsizeWinsOverStorage(t *testing.T) {
	// A resource that matches both the downsize and the storage rule must
	// take the downsize branch: rule order is first-match-wins.
	disk := repeat(99, 10)
	history := mkHistory("i-idle-full", usage.ServiceEC2, "t3.large", repeat(10, 10), repeat(15, 10), disk)

	rep := Analyze(history, 30, analysisNow)

	require.Len(t, rep.Recommendations, 1)
	assert.Equal(t, ActionDownsize, rep.Recommendations[0].Action)
}

func TestAnalyze_NetImpact(t *testing.T) {
	history := mkHistory("i-idle", usage.ServiceEC2, "t3.large", repeat(10, 10), repeat(15, 10), nil)
	history = append(history, mkHistory("i-hot", usage.ServiceEC2, "m5.large",
		[]float64{85, 85, 85, 85, 85, 95, 95}, repeat(50, 7), nil)...)
	history = append(history, mkHistory("db-ok", usage.ServiceRDS, "db.t3.medium",
		repeat(40, 10), repeat(50, 10), nil)...)

	rep := Analyze(history, 30, analysisNow)

	require.Len(t, rep.Recommendations, 3)
	assert.Equal(t, 30.66, rep.Summary.TotalSavings)
	assert.Equal(t, 70.08, rep.Summary.TotalIncrease)
	assert.Equal(t, -39.42, rep.Summary.NetImpact)
	assert.Equal(t, 2, rep.Summary.TotalRecommendations)
	assert.Equal(t, 1, rep.Summary.ActionBreakdown[ActionDownsize])
	assert.Equal(t, 1, rep.Summary.ActionBreakdown[ActionUpsize])
	assert.Equal(t, 1, rep.Summary.ActionBreakdown[ActionMonitor])
	assert.Equal(t, 1, rep.Summary.HighPriorityCount)
	assert.Equal(t, 2, rep.Summary.EC2Analyzed)
	assert.Equal(t, 1, rep.Summary.RDSAnalyzed)
}

func TestAnalyze_Deterministic(t *testing.T) {
	history := mkHistory("i-b", usage.ServiceEC2, "t3.large", repeat(10, 10), repeat(15, 10), nil)
	history = append(history, mkHistory("i-a", usage.ServiceEC2, "m5.large",
		[]float64{85, 85, 85, 85, 85, 95, 95}, repeat(50, 7), nil)...)

	first := Analyze(history, 30, analysisNow)
	second := Analyze(history, 30, analysisNow)

	assert.Equal(t, first, second)
	// output order is sorted by resource ID, not input order
	require.Len(t, first.Recommendations, 2)
	assert.Equal(t, "i-a", first.Recommendations[0].ID)
	assert.Equal(t, "i-b", first.Recommendations[1].ID)
}

func TestAnalyze_SummaryAverages(t *testing.T) {
	history := mkHistory("i-x", usage.ServiceEC2, "t3.large", repeat(40, 8), repeat(60, 8), nil)
	history = append(history, mkHistory("db-x", usage.ServiceRDS, "db.t3.medium", repeat(20, 8), repeat(30, 8), nil)...)

	rep := Analyze(history, 30, analysisNow)

	assert.Equal(t, 40.0, rep.Summary.AvgEC2CPU)
	assert.Equal(t, 60.0, rep.Summary.AvgEC2RAM)
	assert.Equal(t, 20.0, rep.Summary.AvgRDSCPU)
	assert.Equal(t, 30.0, rep.Summary.AvgRDSRAM)
	assert.Equal(t, 8, rep.Summary.PeriodDays)
}
