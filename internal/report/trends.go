// Package report renders the collected samples and monthly recommendations
// into the spreadsheet and HTML email bodies that get delivered.
package report

import (
	"github.com/opscost/aws-usage-reporter/internal/usage"
)

// Trend direction labels.
const (
	TrendIncreased = "increased"
	TrendDecreased = "decreased"
	TrendStable    = "stable"
	TrendUnknown   = "N/A"
)

// trendThreshold is the day-over-day percentage-point change below which a
// metric counts as stable.
const trendThreshold = 5.0

// Trend is the day-over-day movement of one resource's metrics.
type Trend struct {
	CPU        string
	RAM        string
	Disk       string
	CPUChange  float64
	RAMChange  float64
	DiskChange float64
}

// ComputeTrends compares today's samples against the previous day, keyed by
// resource ID. With no previous day at all every trend is unknown; a
// resource new today is compared against zero.
func ComputeTrends(current, previous []usage.Sample) map[string]Trend {
	trends := make(map[string]Trend, len(current))

	if len(previous) == 0 {
		for _, s := range current {
			trends[s.ID] = Trend{CPU: TrendUnknown, RAM: TrendUnknown, Disk: TrendUnknown}
		}
		return trends
	}

	prevByID := make(map[string]usage.Sample, len(previous))
	for _, s := range previous {
		prevByID[s.ID] = s
	}

	for _, s := range current {
		prev := prevByID[s.ID]

		var curDisk, prevDisk float64
		if v, ok := s.Disk(); ok {
			curDisk = v
		}
		if v, ok := prev.Disk(); ok {
			prevDisk = v
		}

		t := Trend{
			CPUChange:  s.CPUPercent - prev.CPUPercent,
			RAMChange:  s.RAMPercent - prev.RAMPercent,
			DiskChange: curDisk - prevDisk,
		}
		t.CPU = direction(t.CPUChange)
		t.RAM = direction(t.RAMChange)
		t.Disk = direction(t.DiskChange)
		trends[s.ID] = t
	}

	return trends
}

func direction(change float64) string {
	switch {
	case change > trendThreshold:
		return TrendIncreased
	case change < -trendThreshold:
		return TrendDecreased
	default:
		return TrendStable
	}
}
