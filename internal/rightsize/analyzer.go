// Package rightsize turns the rolling utilization history into monthly
// sizing recommendations.
//
// Analysis is a pure function of the history table: the same samples and the
// same reference time always produce the same report. Classification is an
// ordered chain of guarded rules where the first match wins.
package rightsize

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/opscost/aws-usage-reporter/internal/usage"
)

// MinSamples is the minimum number of daily samples a resource needs before
// it is analyzed. Anything less is insufficient signal.
const MinSamples = 7

// Action classifies what should happen to a resource.
type Action string

const (
	ActionDownsize        Action = "downsize"
	ActionUpsize          Action = "upsize"
	ActionOptimizeMemory  Action = "optimize_memory"
	ActionIncreaseStorage Action = "increase_storage"
	ActionMonitor         Action = "monitor"
)

// Level grades confidence and priority.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Recommendation is the outcome of analyzing one resource.
type Recommendation struct {
	ID          string
	Name        string
	Service     usage.ServiceType
	CurrentType string
	// RecommendedType equals CurrentType when the sizing tables have no
	// target for the branch taken; such recommendations are kept but are
	// not actionable.
	RecommendedType string

	Action     Action
	Reason     string
	Confidence Level
	Priority   Level

	// Exactly one of these is non-zero for an actionable recommendation.
	MonthlySavings      float64
	MonthlyCostIncrease float64

	DataPoints int
	CPU        Stats
	RAM        Stats
	Disk       *Stats
}

// Actionable reports whether the recommendation asks for a real change.
// A table miss degrades to a no-op and is excluded here.
func (r Recommendation) Actionable() bool {
	switch r.Action {
	case ActionMonitor:
		return false
	case ActionIncreaseStorage:
		return true
	default:
		return r.RecommendedType != r.CurrentType
	}
}

// Summary aggregates a full analysis run.
type Summary struct {
	TotalInstances int
	PeriodDays     int
	DataPoints     int

	TotalRecommendations int
	ActionBreakdown      map[Action]int
	HighPriorityCount    int

	TotalSavings  float64
	TotalIncrease float64
	NetImpact     float64

	EC2Analyzed int
	RDSAnalyzed int
	AvgEC2CPU   float64
	AvgEC2RAM   float64
	AvgRDSCPU   float64
	AvgRDSRAM   float64
}

// Report is the result of one monthly analysis run.
type Report struct {
	Recommendations []Recommendation
	Summary         Summary
}

// Actionable returns the recommendations that ask for a real change, in
// input order.
func (r Report) Actionable() []Recommendation {
	out := make([]Recommendation, 0, len(r.Recommendations))
	for _, rec := range r.Recommendations {
		if rec.Actionable() {
			out = append(out, rec)
		}
	}
	return out
}

// Analyze filters history to the trailing window, computes per-resource
// statistics and classifies each resource. now is passed in explicitly so
// runs are reproducible.
func Analyze(history []usage.Sample, windowDays int, now time.Time) Report {
	cutoff := now.AddDate(0, 0, -windowDays)

	groups := make(map[string][]usage.Sample)
	days := make(map[string]struct{})
	var recent []usage.Sample
	for _, s := range history {
		d, err := time.Parse(usage.DateLayout, s.Date)
		if err != nil || d.Before(cutoff) {
			continue
		}
		recent = append(recent, s)
		groups[s.ID] = append(groups[s.ID], s)
		days[s.Date] = struct{}{}
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var recs []Recommendation
	for _, id := range ids {
		group := groups[id]
		if len(group) < MinSamples {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].Date < group[j].Date })
		recs = append(recs, classify(group))
	}

	return Report{
		Recommendations: recs,
		Summary:         summarize(recent, recs, len(days)),
	}
}

// classify applies the sizing rules to one resource's window of samples.
// The group must be non-empty and sorted by date.
func classify(group []usage.Sample) Recommendation {
	latest := group[len(group)-1]

	cpuVals := make([]float64, 0, len(group))
	ramVals := make([]float64, 0, len(group))
	var diskVals []float64
	for _, s := range group {
		cpuVals = append(cpuVals, s.CPUPercent)
		ramVals = append(ramVals, s.RAMPercent)
		if v, ok := s.Disk(); ok {
			diskVals = append(diskVals, v)
		}
	}

	cpu := computeStats(cpuVals)
	ram := computeStats(ramVals)
	var disk *Stats
	if len(diskVals) > 0 {
		d := computeStats(diskVals)
		disk = &d
	}

	rec := Recommendation{
		ID:              latest.ID,
		Name:            latest.Name,
		Service:         latest.Service,
		CurrentType:     latest.Type,
		RecommendedType: latest.Type,
		Action:          ActionMonitor,
		Reason:          "Usage within normal range",
		Confidence:      LevelMedium,
		Priority:        LevelLow,
		DataPoints:      len(group),
		CPU:             cpu,
		RAM:             ram,
		Disk:            disk,
	}

	switch {
	case cpu.Avg < 15 && cpu.P95 <= 30 && ram.Avg < 25 && ram.P95 <= 50 && cpu.LowPct > 70:
		rec.Action = ActionDownsize
		rec.RecommendedType = SmallerType(latest.Type, latest.Service)
		rec.Reason = fmt.Sprintf("Consistently low utilization: CPU avg %s%%, RAM avg %s%%",
			trimFloat(cpu.Avg), trimFloat(ram.Avg))
		rec.Confidence = LevelHigh
		rec.Priority = LevelMedium
		if rec.RecommendedType != rec.CurrentType {
			rec.MonthlySavings = costDelta(rec.CurrentType, rec.RecommendedType, latest.Service)
			if rec.MonthlySavings > 100 {
				rec.Priority = LevelHigh
			}
		}

	case cpu.Avg > 75 && cpu.P95 > 90 && cpu.HighPct > 30:
		rec.Action = ActionUpsize
		rec.RecommendedType = LargerType(latest.Type, latest.Service)
		rec.Reason = fmt.Sprintf("High CPU utilization: avg %s%%, 95th percentile %s%%",
			trimFloat(cpu.Avg), trimFloat(cpu.P95))
		rec.Confidence = LevelHigh
		rec.Priority = LevelHigh
		if rec.RecommendedType != rec.CurrentType {
			rec.MonthlyCostIncrease = costDelta(rec.RecommendedType, rec.CurrentType, latest.Service)
		}

	case ram.Avg > 85 && ram.P95 > 95 && ram.HighPct > 25:
		rec.Action = ActionOptimizeMemory
		rec.RecommendedType = MemoryOptimizedType(latest.Type, latest.Service)
		rec.Reason = fmt.Sprintf("High RAM utilization: avg %s%%, 95th percentile %s%%",
			trimFloat(ram.Avg), trimFloat(ram.P95))
		rec.Confidence = LevelMedium
		rec.Priority = LevelMedium
		if rec.RecommendedType != rec.CurrentType {
			rec.MonthlyCostIncrease = costDelta(rec.RecommendedType, rec.CurrentType, latest.Service)
		}

	case disk != nil && disk.Avg > 85 && disk.P95 > 95:
		rec.Action = ActionIncreaseStorage
		rec.Reason = fmt.Sprintf("High disk utilization: avg %s%%", trimFloat(disk.Avg))
		rec.Confidence = LevelMedium
		rec.Priority = LevelMedium
	}

	return rec
}

// costDelta returns max(0, cost(a) - cost(b)) rounded to cents.
func costDelta(a, b string, service usage.ServiceType) float64 {
	delta := MonthlyCost(a, service) - MonthlyCost(b, service)
	if delta < 0 {
		return 0
	}
	return round2(delta)
}

func summarize(recent []usage.Sample, recs []Recommendation, periodDays int) Summary {
	s := Summary{
		PeriodDays:      periodDays,
		DataPoints:      len(recent),
		ActionBreakdown: make(map[Action]int),
	}

	ids := make(map[string]struct{})
	ec2IDs := make(map[string]struct{})
	rdsIDs := make(map[string]struct{})
	var ec2CPU, ec2RAM, rdsCPU, rdsRAM float64
	var ec2Rows, rdsRows int
	for _, sample := range recent {
		ids[sample.ID] = struct{}{}
		switch sample.Service {
		case usage.ServiceEC2:
			ec2IDs[sample.ID] = struct{}{}
			ec2CPU += sample.CPUPercent
			ec2RAM += sample.RAMPercent
			ec2Rows++
		case usage.ServiceRDS:
			rdsIDs[sample.ID] = struct{}{}
			rdsCPU += sample.CPUPercent
			rdsRAM += sample.RAMPercent
			rdsRows++
		}
	}
	s.TotalInstances = len(ids)
	s.EC2Analyzed = len(ec2IDs)
	s.RDSAnalyzed = len(rdsIDs)
	if ec2Rows > 0 {
		s.AvgEC2CPU = round2(ec2CPU / float64(ec2Rows))
		s.AvgEC2RAM = round2(ec2RAM / float64(ec2Rows))
	}
	if rdsRows > 0 {
		s.AvgRDSCPU = round2(rdsCPU / float64(rdsRows))
		s.AvgRDSRAM = round2(rdsRAM / float64(rdsRows))
	}

	for _, rec := range recs {
		s.ActionBreakdown[rec.Action]++
		if rec.Actionable() {
			s.TotalRecommendations++
		}
		if rec.Priority == LevelHigh {
			s.HighPriorityCount++
		}
		s.TotalSavings += rec.MonthlySavings
		s.TotalIncrease += rec.MonthlyCostIncrease
	}
	s.TotalSavings = round2(s.TotalSavings)
	s.TotalIncrease = round2(s.TotalIncrease)
	s.NetImpact = round2(s.TotalSavings - s.TotalIncrease)

	return s
}

// trimFloat renders a stat value without trailing zeros (12.5, not 12.50).
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
