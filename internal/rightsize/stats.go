package rightsize

import (
	"math"
	"sort"
)

// Thresholds used when bucketing daily samples.
const (
	lowUsageThreshold  = 20.0
	highUsageThreshold = 80.0
)

// Stats summarizes one metric for one resource over the analysis window.
type Stats struct {
	Avg float64
	Max float64
	Min float64
	P95 float64
	P90 float64

	LowDays   int
	HighDays  int
	TotalDays int

	LowPct  float64
	HighPct float64
}

// computeStats derives summary statistics from daily utilization values.
// Returns the zero Stats when no values are present.
func computeStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	low, high := 0, 0
	for _, v := range values {
		sum += v
		if v < lowUsageThreshold {
			low++
		}
		if v > highUsageThreshold {
			high++
		}
	}

	total := len(values)
	s := Stats{
		Avg:       round2(sum / float64(total)),
		Max:       round2(sorted[total-1]),
		Min:       round2(sorted[0]),
		P95:       round2(percentile(sorted, 95)),
		P90:       round2(percentile(sorted, 90)),
		LowDays:   low,
		HighDays:  high,
		TotalDays: total,
	}
	s.LowPct = round1(float64(low) / float64(total) * 100)
	s.HighPct = round1(float64(high) / float64(total) * 100)
	return s
}

// percentile computes the pth percentile of sorted values using linear
// interpolation between the two nearest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
