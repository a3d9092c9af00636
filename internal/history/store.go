// Package history persists the rolling utilization table between runs.
//
// The store is a single JSON document on local disk. Each save replaces
// today's rows, merges the remainder of the retained history and prunes
// rows older than the retention window, so the file never grows past
// ~retentionDays rows per resource.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/opscost/aws-usage-reporter/internal/usage"
)

const fileName = "historical_data.json"

// Store reads and writes the utilization history file.
type Store struct {
	path string
	log  zerolog.Logger
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{path: filepath.Join(dir, fileName), log: log}, nil
}

// Load returns the persisted history. A missing or unreadable file is
// treated as an empty history: the run continues with less data.
func (s *Store) Load() []usage.Sample {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("could not read history file, starting fresh")
		}
		return nil
	}

	var samples []usage.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("could not parse history file, starting fresh")
		return nil
	}
	return samples
}

// ForDate returns the persisted rows for one day.
func (s *Store) ForDate(date string) []usage.Sample {
	var out []usage.Sample
	for _, sample := range s.Load() {
		if sample.Date == date {
			out = append(out, sample)
		}
	}
	return out
}

// SaveDay merges today's samples into the history: any previously saved rows
// for today are replaced, rows older than retentionDays are pruned and
// duplicates by (ID, Date) are collapsed keeping the newest.
func (s *Store) SaveDay(today string, samples []usage.Sample, retentionDays int, now time.Time) error {
	cutoff := now.AddDate(0, 0, -retentionDays)

	retained := make([]usage.Sample, 0)
	dropped := 0
	for _, sample := range s.Load() {
		if sample.Date == today {
			dropped++
			continue
		}
		d, err := time.Parse(usage.DateLayout, sample.Date)
		if err != nil || d.Before(cutoff) {
			continue
		}
		retained = append(retained, sample)
	}
	if dropped > 0 {
		s.log.Info().Int("rows", dropped).Msg("replaced existing rows for today")
	}

	combined := append(retained, samples...)

	// Last write wins per (ID, Date).
	seen := make(map[string]int, len(combined))
	deduped := combined[:0]
	for _, sample := range combined {
		key := sample.ID + "\x00" + sample.Date
		if idx, ok := seen[key]; ok {
			deduped[idx] = sample
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, sample)
	}

	data, err := json.MarshalIndent(deduped, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	s.log.Info().Int("rows", len(deduped)).Str("path", s.path).Msg("saved history")
	return nil
}
