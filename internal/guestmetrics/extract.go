// Package guestmetrics parses the output of the in-guest probe batch into
// structured memory and disk metrics.
//
// The probe batch is four shell commands executed in order through SSM, so
// the output follows a fixed positional protocol: a memory percentage on the
// first line, zero or more "filesystem:percent" pairs, a pre-aggregated
// average disk percentage, and finally an EFS detection line. Extraction is
// best effort: a malformed line never aborts parsing of the rest.
package guestmetrics

import (
	"strconv"
	"strings"
)

// NoEFSSentinel is printed by the probe batch when no EFS mount is present.
const NoEFSSentinel = "NO_EFS"

// CommandBatch returns the shell probes whose output Extract understands.
// Order matters: Extract assumes exactly this sequence.
func CommandBatch() []string {
	return []string{
		// Memory usage as a single percentage
		"free | grep '^Mem:' | awk '{printf \"%.2f\\n\", ($3/$2) * 100.0}'",
		// One filesystem:percent pair per line
		"df | grep -E '^/dev/' | awk '{print $1 \":\" $5}' | head -5",
		// Average disk usage across all filesystems
		"df | grep -E '^/dev/' | awk '{sum += $5; count++} END {if(count > 0) printf \"%.2f\\n\", sum/count; else print \"0\\n\"}'",
		// EFS mounts with details, or the sentinel
		"df -hT | grep efs | awk '{print $1\":\"$3\":\"$4\":\"$6}' | head -3 || echo 'NO_EFS'",
	}
}

// Mount is one filesystem with its validated usage percentage.
type Mount struct {
	Filesystem   string
	UsagePercent float64
}

// NetworkFS describes an attached EFS mount when the probe reported one.
type NetworkFS struct {
	Filesystem string
	Size       string
	Used       string
	Percent    string
}

// Metrics is the structured result of one probe run.
type Metrics struct {
	MemoryPercent float64
	DiskAverage   float64
	Mounts        []Mount
	EFSAttached   bool
	EFS           *NetworkFS
	// Success tracks whether the memory line parsed, independent of every
	// other field.
	Success bool
}

// Extract parses the ordered probe output lines. It never fails: fields that
// cannot be parsed keep their zero value and the rest of the lines are still
// consumed.
func Extract(lines []string) Metrics {
	var m Metrics

	clean := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return m
	}

	if v, err := strconv.ParseFloat(clean[0], 64); err == nil && v >= 0 && v <= 100 {
		m.MemoryPercent = v
		m.Success = true
	}

	// Filesystem pairs sit between the memory line and the trailing
	// average/EFS lines. With three lines or fewer there is no EFS line.
	end := len(clean) - 1
	if len(clean) > 3 {
		end = len(clean) - 2
	}
	var pairSum float64
	for i := 1; i < end; i++ {
		fs, percentStr, ok := strings.Cut(clean[i], ":")
		if !ok {
			continue
		}
		percent, err := strconv.ParseFloat(strings.TrimSuffix(percentStr, "%"), 64)
		if err != nil || percent < 0 || percent > 100 {
			continue
		}
		m.Mounts = append(m.Mounts, Mount{Filesystem: fs, UsagePercent: percent})
		pairSum += percent
	}

	if len(clean) > 2 {
		avgLine := clean[len(clean)-1]
		if len(clean) > 3 {
			avgLine = clean[len(clean)-2]
		}
		avg, err := strconv.ParseFloat(avgLine, 64)
		switch {
		case err == nil && avg >= 0 && avg <= 100:
			m.DiskAverage = avg
		case err != nil && len(m.Mounts) > 0:
			// Fallback only on parse failure. A parseable but
			// out-of-range value leaves the zero default untouched.
			m.DiskAverage = pairSum / float64(len(m.Mounts))
		}
	} else if len(m.Mounts) > 0 {
		m.DiskAverage = pairSum / float64(len(m.Mounts))
	}

	if len(clean) > 3 {
		efsLine := clean[len(clean)-1]
		if efsLine != NoEFSSentinel {
			m.EFSAttached = true
			if strings.Contains(efsLine, ":") {
				if parts := strings.Split(efsLine, ":"); len(parts) >= 4 {
					m.EFS = &NetworkFS{
						Filesystem: parts[0],
						Size:       parts[1],
						Used:       parts[2],
						Percent:    parts[3],
					}
				}
			}
		}
	}

	return m
}
