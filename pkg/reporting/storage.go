package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Storage handles persistence of run summaries.
type Storage struct {
	outputDir string
	keepLastN int
	logger    *Logger
}

// NewStorage creates a new storage instance rooted at outputDir.
func NewStorage(outputDir string, keepLastN int, logger *Logger) (*Storage, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Storage{
		outputDir: outputDir,
		keepLastN: keepLastN,
		logger:    logger,
	}, nil
}

// SaveReport saves a run summary as summary.json in the run's scenario
// directory. This is supplementary to the mandatory CSV trace, not a
// replacement for it.
func (s *Storage) SaveReport(summary *RunSummary) (string, error) {
	path := filepath.Join(s.outputDir, "summary.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run summary: %w", err)
	}

	s.logger.Info("Run summary saved", "path", path)

	if s.keepLastN > 0 {
		if err := s.cleanupOldReports(); err != nil {
			s.logger.Warn("Failed to cleanup old run summaries", "error", err)
		}
	}

	return path, nil
}

// LoadReport loads a run summary from a JSON file.
func (s *Storage) LoadReport(path string) (*RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run summary: %w", err)
	}

	var summary RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}

	return &summary, nil
}

// ListReports lists all run summaries in the output directory, newest
// first.
func (s *Storage) ListReports() ([]RunRecord, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	records := make([]RunRecord, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		path := filepath.Join(s.outputDir, entry.Name())
		summary, err := s.LoadReport(path)
		if err != nil {
			s.logger.Warn("Failed to load run summary", "path", path, "error", err)
			continue
		}

		records = append(records, RunRecord{
			RunID:     summary.RunID,
			Scenario:  summary.Scenario,
			StartTime: summary.StartTime,
			Duration:  summary.Duration,
			Status:    summary.Status,
			Filepath:  path,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartTime.After(records[j].StartTime)
	})

	return records, nil
}

// FindReportByRunID finds a run summary by run ID.
func (s *Storage) FindReportByRunID(runID string) (*RunSummary, error) {
	records, err := s.ListReports()
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.RunID == runID {
			return s.LoadReport(r.Filepath)
		}
	}

	return nil, fmt.Errorf("run summary not found for run ID: %s", runID)
}

// cleanupOldReports removes old summary files, keeping only the last N.
func (s *Storage) cleanupOldReports() error {
	records, err := s.ListReports()
	if err != nil {
		return err
	}

	if len(records) <= s.keepLastN {
		return nil
	}

	toDelete := records[s.keepLastN:]
	for _, r := range toDelete {
		if err := os.Remove(r.Filepath); err != nil {
			s.logger.Warn("Failed to delete old run summary", "path", r.Filepath, "error", err)
		} else {
			s.logger.Debug("Deleted old run summary", "path", r.Filepath)
		}
	}

	return nil
}

// GetOutputDir returns the output directory path.
func (s *Storage) GetOutputDir() string {
	return s.outputDir
}

// RunRecord is a lightweight index entry over a saved RunSummary.
type RunRecord struct {
	RunID     string    `json:"run_id"`
	Scenario  string    `json:"scenario"`
	StartTime time.Time `json:"start_time"`
	Duration  string    `json:"duration"`
	Status    RunStatus `json:"status"`
	Filepath  string    `json:"filepath"`
}
