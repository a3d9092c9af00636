package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/opscost/aws-usage-reporter/internal/rightsize"
	"github.com/opscost/aws-usage-reporter/internal/usage"
)

// Trend highlight and priority colors.
const (
	fillGreen  = "90EE90"
	fillRed    = "FFB6C1"
	fillYellow = "FFFFE0"
)

const maxColumnWidth = 50

var dailyHeader = []string{
	"Date", "Service", "ID", "Name/Tag", "Type", "vCPU", "RAM(Installed GiB)",
	"CPUUtilization(%)", "RAMUtilization(%)", "DiskCount", "DiskTotal(GB)",
	"DiskSizes(GB)", "DiskUsage(%)", "DiskUsageDetails", "EFS Attached",
	"NetIn(MB)", "NetOut(MB)", "DiskReadIOPS", "DiskWriteIOPS",
	"Profile", "Region", "DataCollection",
	"CPU_Trend", "RAM_Trend", "Disk_Trend", "CPU_Change", "RAM_Change", "Disk_Change",
}

// Column positions of the metric cells that get trend highlighting.
const (
	colCPUUtil  = 8
	colRAMUtil  = 9
	colDiskUtil = 13
)

// DailyWorkbook renders the day's samples into a single-sheet workbook with
// day-over-day trend highlighting. Databases sort first, then instances by
// name.
func DailyWorkbook(samples []usage.Sample, trends map[string]Trend) (*excelize.File, error) {
	rows := make([]usage.Sample, len(samples))
	copy(rows, samples)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Service != rows[j].Service {
			return rows[i].Service == usage.ServiceRDS
		}
		return rows[i].Name < rows[j].Name
	})

	f := excelize.NewFile()
	const sheet = "Usage Data"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeRow(f, sheet, 1, toCells(dailyHeader)); err != nil {
		return nil, err
	}

	greenStyle, err := fillStyle(f, fillGreen)
	if err != nil {
		return nil, err
	}
	redStyle, err := fillStyle(f, fillRed)
	if err != nil {
		return nil, err
	}

	for i, s := range rows {
		rowNum := i + 2
		t := trends[s.ID]

		diskCell := interface{}("N/A")
		if v, ok := s.Disk(); ok {
			diskCell = v
		}
		efsCell := "N/A"
		if s.EFSAttached != nil {
			efsCell = "No"
			if *s.EFSAttached {
				efsCell = "Yes"
			}
		}

		cells := []interface{}{
			s.Date, string(s.Service), s.ID, s.Name, s.Type, s.VCPU, s.MemoryGiB,
			s.CPUPercent, s.RAMPercent, s.DiskCount, s.DiskTotalGB,
			joinSizes(s.DiskSizesGB), diskCell, s.DiskDetails, efsCell,
			s.NetworkInMB, s.NetworkOutMB, s.DiskReadOps, s.DiskWriteOps,
			s.Profile, s.Region, s.Collection,
			t.CPU, t.RAM, t.Disk, t.CPUChange, t.RAMChange, t.DiskChange,
		}
		if err := writeRow(f, sheet, rowNum, cells); err != nil {
			return nil, err
		}

		if err := highlightTrend(f, sheet, rowNum, colCPUUtil, t.CPU, greenStyle, redStyle); err != nil {
			return nil, err
		}
		if err := highlightTrend(f, sheet, rowNum, colRAMUtil, t.RAM, greenStyle, redStyle); err != nil {
			return nil, err
		}
		if err := highlightTrend(f, sheet, rowNum, colDiskUtil, t.Disk, greenStyle, redStyle); err != nil {
			return nil, err
		}
	}

	if err := autoFitColumns(f, sheet); err != nil {
		return nil, err
	}
	return f, nil
}

var recommendationsHeader = []string{
	"Instance ID", "Name", "Service", "Current Type", "Recommended Type",
	"Action", "Priority", "Confidence", "Reason",
	"Avg CPU%", "Max CPU%", "95th CPU%", "Low CPU Days",
	"Avg RAM%", "Max RAM%", "95th RAM%",
	"Data Points", "Monthly Savings ($)", "Monthly Cost Increase ($)",
}

const colMonthlySavings = 18

// MonthlyWorkbook renders the rightsizing report: actionable recommendations
// on one sheet, run totals on another. With nothing actionable a single
// message sheet takes their place.
func MonthlyWorkbook(rpt rightsize.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	actionable := rpt.Actionable()
	if len(actionable) == 0 {
		const sheet = "No Recommendations"
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet: %w", err)
		}
		if err := writeRow(f, sheet, 1, []interface{}{"Message"}); err != nil {
			return nil, err
		}
		err := writeRow(f, sheet, 2, []interface{}{
			"No actionable recommendations found. All instances are optimally sized.",
		})
		if err != nil {
			return nil, err
		}
		return f, autoFitColumns(f, sheet)
	}

	const recSheet = "Recommendations"
	if err := f.SetSheetName("Sheet1", recSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := writeRow(f, recSheet, 1, toCells(recommendationsHeader)); err != nil {
		return nil, err
	}

	highStyle, err := fillStyle(f, fillRed)
	if err != nil {
		return nil, err
	}
	mediumStyle, err := fillStyle(f, fillYellow)
	if err != nil {
		return nil, err
	}
	savingsStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fillGreen}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	for i, rec := range actionable {
		rowNum := i + 2
		cells := []interface{}{
			rec.ID, rec.Name, string(rec.Service), rec.CurrentType, rec.RecommendedType,
			string(rec.Action), string(rec.Priority), string(rec.Confidence), rec.Reason,
			rec.CPU.Avg, rec.CPU.Max, rec.CPU.P95, fmt.Sprintf("%v%%", rec.CPU.LowPct),
			rec.RAM.Avg, rec.RAM.Max, rec.RAM.P95,
			rec.DataPoints, rec.MonthlySavings, rec.MonthlyCostIncrease,
		}
		if err := writeRow(f, recSheet, rowNum, cells); err != nil {
			return nil, err
		}

		switch rec.Priority {
		case rightsize.LevelHigh:
			if err := styleRow(f, recSheet, rowNum, len(cells), highStyle); err != nil {
				return nil, err
			}
		case rightsize.LevelMedium:
			if err := styleRow(f, recSheet, rowNum, len(cells), mediumStyle); err != nil {
				return nil, err
			}
		}

		if rec.Action == rightsize.ActionDownsize && rec.MonthlySavings > 0 {
			cell, err := excelize.CoordinatesToCellName(colMonthlySavings, rowNum)
			if err != nil {
				return nil, fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellStyle(recSheet, cell, cell, savingsStyle); err != nil {
				return nil, fmt.Errorf("failed to set cell style: %w", err)
			}
		}
	}

	const sumSheet = "Summary"
	if _, err := f.NewSheet(sumSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	s := rpt.Summary
	summaryRows := [][]interface{}{
		{"Metric", "Value"},
		{"Analysis Period (Days)", s.PeriodDays},
		{"Total Instances Analyzed", s.TotalInstances},
		{"EC2 Instances", s.EC2Analyzed},
		{"RDS Instances", s.RDSAnalyzed},
		{"", ""},
		{"Total Recommendations", s.TotalRecommendations},
		{"High Priority Actions", s.HighPriorityCount},
		{"", ""},
		{"Estimated Monthly Savings ($)", s.TotalSavings},
		{"Estimated Monthly Cost Increase ($)", s.TotalIncrease},
		{"Net Monthly Impact ($)", s.NetImpact},
		{"", ""},
		{"Average EC2 CPU%", s.AvgEC2CPU},
		{"Average EC2 RAM%", s.AvgEC2RAM},
		{"Average RDS CPU%", s.AvgRDSCPU},
		{"Average RDS RAM%", s.AvgRDSRAM},
	}
	for i, row := range summaryRows {
		if err := writeRow(f, sumSheet, i+1, row); err != nil {
			return nil, err
		}
	}

	if err := autoFitColumns(f, recSheet); err != nil {
		return nil, err
	}
	return f, autoFitColumns(f, sumSheet)
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, start, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create style: %w", err)
	}
	return style, nil
}

func highlightTrend(f *excelize.File, sheet string, row, col int, trend string, green, red int) error {
	var style int
	switch trend {
	case TrendIncreased:
		style = green
	case TrendDecreased:
		style = red
	default:
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
		return fmt.Errorf("failed to set cell style: %w", err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, width, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	end, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	if err := f.SetCellStyle(sheet, start, end, style); err != nil {
		return fmt.Errorf("failed to set row style: %w", err)
	}
	return nil
}

// autoFitColumns sizes each column to its widest cell, capped so a long
// reason or disk breakdown cannot blow up the layout.
func autoFitColumns(f *excelize.File, sheet string) error {
	cols, err := f.GetCols(sheet)
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}
	for i, col := range cols {
		width := 0
		for _, cell := range col {
			if len(cell) > width {
				width = len(cell)
			}
		}
		width += 2
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to compute column name: %w", err)
		}
		if err := f.SetColWidth(sheet, name, name, float64(width)); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

func toCells(header []string) []interface{} {
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	return cells
}

func joinSizes(sizes []int32) string {
	if len(sizes) == 0 {
		return "8"
	}
	out := ""
	for i, s := range sizes {
		if i > 0 {
			out += ","
		}
		out += strconv.Itoa(int(s))
	}
	return out
}
