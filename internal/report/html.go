package report

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/opscost/aws-usage-reporter/internal/collector"
	"github.com/opscost/aws-usage-reporter/internal/rightsize"
	"github.com/opscost/aws-usage-reporter/internal/usage"
)

// maxStoppedRows caps the cleanup table so one noisy account cannot flood
// the email.
const maxStoppedRows = 20

// maxHighlightedRecs caps the high-priority section of the monthly email.
const maxHighlightedRecs = 5

var templateFuncs = template.FuncMap{
	"usd": formatUSD,
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
}

// formatUSD renders a dollar amount with thousands separators.
func formatUSD(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

type failedRow struct {
	ID     string
	Name   string
	Type   string
	Region string
	Cause  string
}

type stoppedRow struct {
	collector.StoppedInstance
	Color string
}

type topRow struct {
	ID          string
	Name        string
	Type        string
	CPU         string
	RAM         string
	Disk        string
	Source      string
	SourceClass string
}

type dailyView struct {
	Date        string
	EC2Count    int
	RDSCount    int
	Total       int
	SSMCount    int
	Estimated   int
	SuccessRate string
	Profiles    string
	Regions     string

	HasTrends    bool
	CPUIncreased int
	CPUDecreased int
	RAMIncreased int
	RAMDecreased int

	Failed       []failedRow
	Stopped      []stoppedRow
	StoppedTotal int
	StoppedExtra int

	Top []topRow
}

// DailyHTML renders the daily email body.
func DailyHTML(date string, samples []usage.Sample, trends map[string]Trend, stopped []collector.StoppedInstance) (string, error) {
	view := buildDailyView(date, samples, trends, stopped)

	var b strings.Builder
	if err := dailyTemplate.Execute(&b, view); err != nil {
		return "", fmt.Errorf("failed to render daily report: %w", err)
	}
	return b.String(), nil
}

func buildDailyView(date string, samples []usage.Sample, trends map[string]Trend, stopped []collector.StoppedInstance) dailyView {
	v := dailyView{Date: date, Total: len(samples)}

	var profiles, regions []string
	seenProfile := make(map[string]struct{})
	seenRegion := make(map[string]struct{})
	for _, s := range samples {
		if _, ok := seenProfile[s.Profile]; !ok {
			seenProfile[s.Profile] = struct{}{}
			profiles = append(profiles, s.Profile)
		}
		if _, ok := seenRegion[s.Region]; !ok {
			seenRegion[s.Region] = struct{}{}
			regions = append(regions, s.Region)
		}

		switch s.Service {
		case usage.ServiceEC2:
			v.EC2Count++
			switch s.Collection {
			case usage.CollectionSSM:
				v.SSMCount++
			case usage.CollectionEstimated:
				v.Estimated++
				v.Failed = append(v.Failed, failedRow{
					ID:     s.ID,
					Name:   s.Name,
					Type:   s.Type,
					Region: s.Region,
					Cause:  probeFailureCause(s),
				})
			}
		case usage.ServiceRDS:
			v.RDSCount++
		}
	}
	v.Profiles = strings.Join(profiles, ", ")
	v.Regions = strings.Join(regions, ", ")

	if total := v.SSMCount + v.Estimated; total > 0 {
		v.SuccessRate = fmt.Sprintf("%.1f%%", float64(v.SSMCount)/float64(total)*100)
	} else {
		v.SuccessRate = "0.0%"
	}

	for _, s := range samples {
		t, ok := trends[s.ID]
		if !ok || t.CPU == TrendUnknown {
			continue
		}
		v.HasTrends = true
		switch t.CPU {
		case TrendIncreased:
			v.CPUIncreased++
		case TrendDecreased:
			v.CPUDecreased++
		}
		switch t.RAM {
		case TrendIncreased:
			v.RAMIncreased++
		case TrendDecreased:
			v.RAMDecreased++
		}
	}

	v.StoppedTotal = len(stopped)
	for i, inst := range stopped {
		if i == maxStoppedRows {
			v.StoppedExtra = len(stopped) - maxStoppedRows
			break
		}
		v.Stopped = append(v.Stopped, stoppedRow{StoppedInstance: inst, Color: stateColor(inst.State)})
	}

	v.Top = topConsumers(samples)
	return v
}

func probeFailureCause(s usage.Sample) string {
	switch {
	case strings.Contains(strings.ToLower(s.Name), "windows"):
		return "Windows instance - SSM commands different"
	case s.State != "running":
		return "Instance state: " + s.State
	default:
		return "SSM agent not installed/configured"
	}
}

func stateColor(state string) string {
	switch state {
	case "Stopped":
		return "#ff9800"
	case "Terminated":
		return "#f44336"
	case "Stopping":
		return "#ff5722"
	case "Terminating":
		return "#d32f2f"
	default:
		return "#757575"
	}
}

// topConsumers returns the five busiest resources by CPU.
func topConsumers(samples []usage.Sample) []topRow {
	sorted := make([]usage.Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CPUPercent > sorted[j].CPUPercent })
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}

	rows := make([]topRow, 0, len(sorted))
	for _, s := range sorted {
		disk := "N/A"
		if v, ok := s.Disk(); ok {
			disk = fmt.Sprintf("%.1f%%", v)
		}
		source, class := "⚠️ Est+CW", "trend-down"
		if strings.Contains(s.Collection, "SSM") {
			source, class = "✅ SSM+CW", "trend-up"
		}
		rows = append(rows, topRow{
			ID:          s.ID,
			Name:        s.Name,
			Type:        s.Type,
			CPU:         fmt.Sprintf("%.1f%%", s.CPUPercent),
			RAM:         fmt.Sprintf("%.1f%%", s.RAMPercent),
			Disk:        disk,
			Source:      source,
			SourceClass: class,
		})
	}
	return rows
}

var dailyTemplate = template.Must(template.New("daily").Funcs(templateFuncs).Parse(`<html>
<head>
<style>
	body { font-family: Arial, sans-serif; }
	table { border-collapse: collapse; width: 100%; margin: 20px 0; }
	th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
	th { background-color: #4CAF50; color: white; }
	tr:nth-child(even) { background-color: #f2f2f2; }
	.summary { background-color: #e7f3fe; padding: 15px; border-radius: 5px; margin: 20px 0; }
	.success { background-color: #d4edda; padding: 10px; margin: 10px 0; border-left: 4px solid #28a745; }
	.warning { background-color: #fff3cd; padding: 10px; margin: 10px 0; border-left: 4px solid #ffc107; }
	.trend-up { color: green; }
	.trend-down { color: red; }
</style>
</head>
<body>
<h2>AWS Usage Report - {{.Date}}</h2>

<div class="summary">
	<h3>Summary</h3>
	<ul>
		<li><strong>Total EC2 Instances:</strong> {{.EC2Count}}
			<small>(✅ {{.SSMCount}} with SSM, ⚠️ {{.Estimated}} SSM failed)</small></li>
		<li><strong>Total RDS Instances:</strong> {{.RDSCount}}</li>
		<li><strong>Total Resources:</strong> {{.Total}} instances analyzed</li>
		<li><strong>Profiles Scanned:</strong> {{.Profiles}}</li>
		<li><strong>Regions Scanned:</strong> {{.Regions}}</li>
	</ul>
</div>

<div class="{{if gt .SSMCount 0}}success{{else}}warning{{end}}">
	<h3>🔧 Data Collection Status</h3>
	<ul>
		<li>✅ Real SSM Data: <strong>{{.SSMCount}}</strong> instances</li>
		<li>⚠️ Estimated Data: <strong>{{.Estimated}}</strong> instances</li>
		<li>🎯 SSM Success Rate: <strong>{{.SuccessRate}}</strong></li>
	</ul>
</div>

{{if .HasTrends}}
<div class="summary">
	<h3>📊 Daily Trends</h3>
	<ul>
		<li>CPU: <span class="trend-up">↑ {{.CPUIncreased}}</span> | <span class="trend-down">↓ {{.CPUDecreased}}</span></li>
		<li>RAM: <span class="trend-up">↑ {{.RAMIncreased}}</span> | <span class="trend-down">↓ {{.RAMDecreased}}</span></li>
	</ul>
</div>
{{end}}

{{if .Failed}}
<div class="warning">
	<h3>⚠️ SSM Connection Issues</h3>
	<p>The following <strong>{{len .Failed}} EC2 instances</strong> could not be reached via SSM for real-time metrics:</p>
	<table>
		<tr><th>Instance ID</th><th>Name</th><th>Type</th><th>Region</th><th>Possible Cause</th></tr>
		{{range .Failed}}
		<tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Type}}</td><td>{{.Region}}</td><td>{{.Cause}}</td></tr>
		{{end}}
	</table>
	<p><strong>📋 Recommendations:</strong></p>
	<ul>
		<li>Install/update SSM agent on failed instances</li>
		<li>Verify IAM roles have SSM permissions</li>
		<li>Check security group allows SSM endpoints</li>
		<li>Windows instances may need PowerShell commands</li>
	</ul>
</div>
{{end}}

{{if .Stopped}}
<div class="warning">
	<h3>⏸️ Non-Running EC2 Instances</h3>
	<p>Found <strong>{{.StoppedTotal}} non-running instances</strong> that may be candidates for cleanup or cost optimization:</p>
	<table>
		<tr><th>Instance ID</th><th>Name</th><th>Type</th><th>State</th><th>Profile</th><th>Region</th></tr>
		{{range .Stopped}}
		<tr>
			<td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Type}}</td>
			<td style="color: {{.Color}}; font-weight: bold;">{{.State}}</td>
			<td>{{.Profile}}</td><td>{{.Region}}</td>
		</tr>
		{{end}}
		{{if gt .StoppedExtra 0}}
		<tr><td colspan="6" style="font-style: italic; text-align: center; color: #666;">... and {{.StoppedExtra}} more instances</td></tr>
		{{end}}
	</table>
	<p><strong>💡 Cost Optimization Tips:</strong></p>
	<ul>
		<li><strong>Stopped instances</strong> still incur EBS storage costs</li>
		<li><strong>Terminated instances</strong> will disappear from this list after a few hours</li>
		<li>Consider creating AMIs before terminating if you need to preserve configurations</li>
		<li>Review and terminate instances that are no longer needed</li>
	</ul>
</div>
{{end}}

<h3>🏆 Top 5 Resource Consumers (by CPU)</h3>
<table>
	<tr><th>Resource ID</th><th>Name</th><th>Type</th><th>CPU %</th><th>RAM %</th><th>Disk %</th><th>Data Source</th></tr>
	{{range .Top}}
	<tr>
		<td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Type}}</td>
		<td>{{.CPU}}</td><td>{{.RAM}}</td><td>{{.Disk}}</td>
		<td class="{{.SourceClass}}">{{.Source}}</td>
	</tr>
	{{end}}
</table>
<p><em>Full utilization data attached as Excel file.</em></p>
</body>
</html>
`))

type monthlyRec struct {
	rightsize.Recommendation
	Class      string
	ImpactHTML template.HTML
}

type monthlyView struct {
	MonthYear string
	Summary   rightsize.Summary

	Downsize       int
	Upsize         int
	OptimizeMemory int

	NetClass   string
	Actionable bool
	High       []monthlyRec

	GeneratedAt string
	NextReport  string
}

// MonthlyHTML renders the monthly optimization email body.
func MonthlyHTML(rpt rightsize.Report, now time.Time) (string, error) {
	s := rpt.Summary
	view := monthlyView{
		MonthYear:      now.Format("January 2006"),
		Summary:        s,
		Downsize:       s.ActionBreakdown[rightsize.ActionDownsize],
		Upsize:         s.ActionBreakdown[rightsize.ActionUpsize],
		OptimizeMemory: s.ActionBreakdown[rightsize.ActionOptimizeMemory],
		NetClass:       "savings",
		GeneratedAt:    now.Format("2006-01-02 15:04:05"),
		NextReport:     nextMonthStart(now).Format(usage.DateLayout),
	}
	if s.NetImpact < 0 {
		view.NetClass = "cost-increase"
	}

	actionable := rpt.Actionable()
	view.Actionable = len(actionable) > 0

	for _, rec := range actionable {
		if rec.Priority != rightsize.LevelHigh {
			continue
		}
		if len(view.High) == maxHighlightedRecs {
			break
		}
		view.High = append(view.High, monthlyRec{
			Recommendation: rec,
			Class:          recClass(rec),
			ImpactHTML:     impactHTML(rec),
		})
	}

	var b strings.Builder
	if err := monthlyTemplate.Execute(&b, view); err != nil {
		return "", fmt.Errorf("failed to render monthly report: %w", err)
	}
	return b.String(), nil
}

func recClass(rec rightsize.Recommendation) string {
	switch rec.Action {
	case rightsize.ActionDownsize:
		return "downsize"
	case rightsize.ActionUpsize, rightsize.ActionOptimizeMemory:
		return "upsize"
	}
	if rec.Priority == rightsize.LevelHigh {
		return "high-priority"
	}
	return "medium-priority"
}

func impactHTML(rec rightsize.Recommendation) template.HTML {
	if rec.MonthlySavings > 0 {
		return template.HTML(fmt.Sprintf(` | <span class="savings">Save $%s/month</span>`, formatUSD(rec.MonthlySavings)))
	}
	if rec.MonthlyCostIncrease > 0 {
		return template.HTML(fmt.Sprintf(` | <span class="cost-increase">Cost +$%s/month</span>`, formatUSD(rec.MonthlyCostIncrease)))
	}
	return ""
}

func nextMonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
}

var monthlyTemplate = template.Must(template.New("monthly").Funcs(templateFuncs).Parse(`<html>
<head>
<style>
	body { font-family: Arial, sans-serif; margin: 20px; }
	.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 10px; text-align: center; }
	.summary { background-color: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #007bff; }
	.recommendations { margin: 20px 0; }
	.rec-item { background: white; border: 1px solid #dee2e6; border-radius: 8px; padding: 15px; margin: 10px 0; }
	.high-priority { border-left: 4px solid #dc3545; background: #fff5f5; }
	.medium-priority { border-left: 4px solid #ffc107; background: #fffbf0; }
	.downsize { border-left: 4px solid #28a745; background: #f0fff0; }
	.upsize { border-left: 4px solid #fd7e14; background: #fff8f0; }
	.savings { color: #28a745; font-weight: bold; }
	.cost-increase { color: #dc3545; font-weight: bold; }
	.stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 15px; }
	.stat-card { background: white; padding: 15px; border-radius: 8px; text-align: center; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
	.metric { font-size: 24px; font-weight: bold; color: #333; }
	.label { color: #666; font-size: 14px; margin-top: 5px; }
	table { width: 100%; border-collapse: collapse; margin: 10px 0; }
	th, td { padding: 8px; text-align: left; border-bottom: 1px solid #ddd; }
	th { background-color: #f8f9fa; }
</style>
</head>
<body>
<div class="header">
	<h1>🎯 AWS Monthly Optimization Report</h1>
	<h2>{{.MonthYear}}</h2>
	<p>Analysis of your AWS infrastructure usage patterns</p>
</div>

<div class="summary">
	<h3>📊 Executive Summary</h3>
	<div class="stats">
		<div class="stat-card"><div class="metric">{{.Summary.TotalInstances}}</div><div class="label">Instances Analyzed</div></div>
		<div class="stat-card"><div class="metric">{{.Summary.TotalRecommendations}}</div><div class="label">Recommendations</div></div>
		<div class="stat-card"><div class="metric">{{.Summary.HighPriorityCount}}</div><div class="label">High Priority</div></div>
		<div class="stat-card"><div class="metric">${{usd .Summary.NetImpact}}</div><div class="label">Net Monthly Impact</div></div>
	</div>

	<h4>Analysis Period:</h4>
	<ul>
		<li><strong>{{.Summary.PeriodDays}} days</strong> of usage data</li>
		<li><strong>{{.Summary.DataPoints}}</strong> total data points collected</li>
		<li><strong>EC2:</strong> {{.Summary.EC2Analyzed}} instances (avg CPU: {{.Summary.AvgEC2CPU}}%, avg RAM: {{.Summary.AvgEC2RAM}}%)</li>
		<li><strong>RDS:</strong> {{.Summary.RDSAnalyzed}} instances (avg CPU: {{.Summary.AvgRDSCPU}}%, avg RAM: {{.Summary.AvgRDSRAM}}%)</li>
	</ul>
</div>

{{if .Actionable}}
<div class="summary">
	<h3>💰 Financial Impact Summary</h3>
	<table>
		<tr><th>Action Type</th><th>Count</th><th>Monthly Impact</th></tr>
		{{if gt .Downsize 0}}<tr><td>🔽 Downsize (Cost Savings)</td><td>{{.Downsize}}</td><td class="savings">-${{usd .Summary.TotalSavings}}</td></tr>{{end}}
		{{if gt .Upsize 0}}<tr><td>🔼 Upsize (Performance)</td><td>{{.Upsize}}</td><td class="cost-increase">+${{usd .Summary.TotalIncrease}}</td></tr>{{end}}
		{{if gt .OptimizeMemory 0}}<tr><td>🧠 Memory Optimize</td><td>{{.OptimizeMemory}}</td><td class="cost-increase">+${{usd .Summary.TotalIncrease}}</td></tr>{{end}}
		<tr style="border-top: 2px solid #333; font-weight: bold;">
			<td>Net Monthly Impact</td><td>-</td>
			<td class="{{.NetClass}}">${{usd .Summary.NetImpact}}</td>
		</tr>
	</table>
</div>

{{if .High}}
<div class="recommendations">
	<h3>🚨 High Priority Recommendations</h3>
	{{range .High}}
	<div class="rec-item {{.Class}}">
		<h4>🎯 {{.ID}} ({{.Name}})</h4>
		<p><strong>Current:</strong> {{.CurrentType}} → <strong>Recommended:</strong> {{.RecommendedType}}</p>
		<p><strong>Action:</strong> {{.Action}} | <strong>Confidence:</strong> {{.Confidence}}{{.ImpactHTML}}</p>
		<p><strong>Reason:</strong> {{.Reason}}</p>
		<p><strong>Usage:</strong> CPU avg {{.CPU.Avg}}% (95th: {{.CPU.P95}}%), RAM avg {{.RAM.Avg}}% (95th: {{.RAM.P95}}%)</p>
	</div>
	{{end}}
</div>
{{end}}
{{else}}
<div class="summary">
	<h3>✅ All Systems Optimized!</h3>
	<p>All your instances appear to be properly sized based on the analysis window. No immediate scaling actions are recommended.</p>
	<p>We'll continue monitoring and will alert you if optimization opportunities arise.</p>
</div>
{{end}}

<div class="summary">
	<h3>📋 Next Steps</h3>
	<ol>
		<li><strong>Review High Priority items</strong> - These offer the best ROI</li>
		<li><strong>Test in staging first</strong> - Validate performance impact</li>
		<li><strong>Schedule during maintenance windows</strong> - Minimize disruption</li>
		<li><strong>Monitor post-change</strong> - Verify expected improvements</li>
	</ol>
	<p><em>📧 Detailed recommendations are available in the attached Excel file</em></p>
</div>

<footer style="text-align: center; margin-top: 30px; padding: 20px; background: #f8f9fa; border-radius: 8px;">
	<p>Generated automatically on {{.GeneratedAt}}</p>
	<p>Next monthly report: {{.NextReport}}</p>
</footer>
</body>
</html>
`))
