package guestmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_FullProbeOutput(t *testing.T) {
	m := Extract([]string{"42.50", "/dev/sda1:55%", "30.00", "NO_EFS"})

	assert.True(t, m.Success)
	assert.Equal(t, 42.5, m.MemoryPercent)
	require.Len(t, m.Mounts, 1)
	assert.Equal(t, "/dev/sda1", m.Mounts[0].Filesystem)
	assert.Equal(t, 55.0, m.Mounts[0].UsagePercent)
	assert.Equal(t, 30.0, m.DiskAverage)
	assert.False(t, m.EFSAttached)
	assert.Nil(t, m.EFS)
}

func TestExtract_MemoryOnly(t *testing.T) {
	m := Extract([]string{"10.0"})

	assert.True(t, m.Success)
	assert.Equal(t, 10.0, m.MemoryPercent)
	assert.Empty(t, m.Mounts)
	assert.Equal(t, 0.0, m.DiskAverage)
	assert.False(t, m.EFSAttached)
}

func TestExtract_EmptyInput(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"nil", nil},
		{"empty slice", []string{}},
		{"whitespace only", []string{"   ", "\t", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Extract(tt.lines)
			assert.False(t, m.Success)
			assert.Equal(t, 0.0, m.MemoryPercent)
			assert.Equal(t, 0.0, m.DiskAverage)
			assert.Empty(t, m.Mounts)
		})
	}
}

func TestExtract_MemoryLineValidation(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantSuccess bool
		wantMemory  float64
	}{
		{"valid", "55.25", true, 55.25},
		{"zero", "0", true, 0},
		{"hundred", "100", true, 100},
		{"negative", "-1", false, 0},
		{"over range", "100.01", false, 0},
		{"garbage", "free: command not found", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Extract([]string{tt.line})
			assert.Equal(t, tt.wantSuccess, m.Success)
			assert.Equal(t, tt.wantMemory, m.MemoryPercent)
		})
	}
}

func TestExtract_MalformedPairsAreSkipped(t *testing.T) {
	lines := []string{
		"42.50",
		"/dev/sda1:55%",
		"no-colon-here",
		"/dev/sdb1:not-a-number",
		"/dev/sdc1:130%", // out of range
		"/dev/sdd1:12.5",
		"25.00",
		"NO_EFS",
	}

	m := Extract(lines)

	assert.True(t, m.Success)
	require.Len(t, m.Mounts, 2)
	assert.Equal(t, "/dev/sda1", m.Mounts[0].Filesystem)
	assert.Equal(t, "/dev/sdd1", m.Mounts[1].Filesystem)
	assert.Equal(t, 25.0, m.DiskAverage)
}

func TestExtract_SuccessIndependentOfDiskLines(t *testing.T) {
	// Memory parses, every other line is garbage: still a success.
	m := Extract([]string{"42.50", "???", "???", "???"})
	assert.True(t, m.Success)

	// Memory fails, disk lines are fine: not a success, but pairs survive.
	m = Extract([]string{"oops", "/dev/sda1:40%", "40.00", "NO_EFS"})
	assert.False(t, m.Success)
	require.Len(t, m.Mounts, 1)
	assert.Equal(t, 40.0, m.DiskAverage)
}

func TestExtract_AverageDiskFallback(t *testing.T) {
	// Average line does not parse: fall back to the mean of the pairs.
	m := Extract([]string{"42.50", "/dev/sda1:40%", "/dev/sdb1:60%", "bogus", "NO_EFS"})
	assert.Equal(t, 50.0, m.DiskAverage)

	// Average line parses but is out of range: no fallback, stays zero.
	m = Extract([]string{"42.50", "/dev/sda1:40%", "/dev/sdb1:60%", "250.0", "NO_EFS"})
	assert.Equal(t, 0.0, m.DiskAverage)
}

func TestExtract_EFSDetection(t *testing.T) {
	t.Run("sentinel means not attached", func(t *testing.T) {
		m := Extract([]string{"42.50", "/dev/sda1:55%", "30.00", "NO_EFS"})
		assert.False(t, m.EFSAttached)
	})

	t.Run("full details", func(t *testing.T) {
		m := Extract([]string{"42.50", "/dev/sda1:55%", "30.00", "fs-0abc123:8.0E:1.2T:1%"})
		assert.True(t, m.EFSAttached)
		require.NotNil(t, m.EFS)
		assert.Equal(t, "fs-0abc123", m.EFS.Filesystem)
		assert.Equal(t, "8.0E", m.EFS.Size)
		assert.Equal(t, "1.2T", m.EFS.Used)
		assert.Equal(t, "1%", m.EFS.Percent)
	})

	t.Run("short record still sets the flag", func(t *testing.T) {
		m := Extract([]string{"42.50", "/dev/sda1:55%", "30.00", "efs-mount:present"})
		assert.True(t, m.EFSAttached)
		assert.Nil(t, m.EFS)
	})

	t.Run("no EFS line with three lines total", func(t *testing.T) {
		m := Extract([]string{"42.50", "/dev/sda1:55%", "30.00"})
		assert.False(t, m.EFSAttached)
		assert.Equal(t, 30.0, m.DiskAverage)
	})
}

func TestExtract_Deterministic(t *testing.T) {
	lines := []string{"42.50", "/dev/sda1:55%", "/dev/sdb1:65%", "60.00", "NO_EFS"}
	first := Extract(lines)
	second := Extract(lines)
	assert.Equal(t, first, second)
}

func TestCommandBatch_ShapeMatchesProtocol(t *testing.T) {
	batch := CommandBatch()
	require.Len(t, batch, 4)
	assert.Contains(t, batch[0], "free")
	assert.Contains(t, batch[1], "df")
	assert.Contains(t, batch[3], NoEFSSentinel)
}
