// Package transcript provides durable storage for debate runs: a mutable
// JSON summary plus an append-only JSONL entry log per run. The layout is a
// stable on-disk contract:
//
//	{dataDir}/runs/{runId}/summary.json   one Summary object, rewritten on update
//	{dataDir}/runs/{runId}/entries.jsonl  one Entry per line, append-only
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coreline-ai/talk-codex-gemini/internal/errors"
)

const (
	runsDir     = "runs"
	summaryFile = "summary.json"
	entriesFile = "entries.jsonl"
)

// Store persists run summaries and transcript entries on the filesystem.
// The debate scheduler is the only writer; reads are safe at any time.
type Store struct {
	dir string // {dataDir}/runs
	mu  sync.Mutex
}

// NewStore creates a Store rooted at {dataDir}/runs, creating the
// directory if needed.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, runsDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runs directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// CreateRun allocates a new run with a collision-resistant identifier,
// writes its initial summary (status running, round 0), and creates an
// empty entry log.
func (s *Store) CreateRun(topic string, maxRounds, textLimit int) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	summary := &Summary{
		RunID:     generateRunID(now),
		CreatedAt: now,
		UpdatedAt: now,
		Topic:     topic,
		MaxRounds: maxRounds,
		TextLimit: textLimit,
		Status:    StatusRunning,
		Round:     0,
	}

	runDir := filepath.Join(s.dir, summary.RunID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	if err := s.writeSummaryLocked(summary); err != nil {
		return nil, err
	}

	// Touch the entry log so readers see an empty (not missing) transcript.
	f, err := os.OpenFile(filepath.Join(runDir, entriesFile), os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create entry log: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close entry log: %w", err)
	}

	return summary, nil
}

// Append adds one entry to a run's log. Prior entries are never rewritten.
func (s *Store) Append(entry Entry) error {
	if entry.RunID == "" {
		return fmt.Errorf("transcript: entry RunID is required")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("transcript: marshal entry: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, entry.RunID, entriesFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("transcript: open entry log: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("transcript: append entry: %w", err)
	}

	return f.Close()
}

// UpdateSummary merges a partial patch into a run's summary and bumps
// UpdatedAt. Returns the merged summary, or a not-found error if the run
// does not exist.
func (s *Store) UpdateSummary(runID string, patch SummaryPatch) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.readSummaryLocked(runID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		summary.Status = *patch.Status
	}
	if patch.Round != nil {
		summary.Round = *patch.Round
	}
	if patch.Reason != nil {
		summary.Reason = *patch.Reason
	}
	summary.UpdatedAt = time.Now()

	if err := s.writeSummaryLocked(summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// ReadRun reconstructs a run's summary and ordered entries. Unparsable
// entry lines are skipped rather than failing the whole read.
func (s *Store) ReadRun(runID string) (*Summary, []Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, err := s.readSummaryLocked(runID)
	if err != nil {
		return nil, nil, err
	}

	entries, err := readEntries(filepath.Join(s.dir, runID, entriesFile))
	if err != nil {
		return nil, nil, err
	}
	return summary, entries, nil
}

// EntryLogPath returns the location of a run's entry log. Used by tooling
// that follows a transcript as it grows.
func (s *Store) EntryLogPath(runID string) string {
	return filepath.Join(s.dir, runID, entriesFile)
}

// ListRuns returns all run summaries, newest first. Runs whose summaries
// cannot be parsed are skipped.
func (s *Store) ListRuns() ([]*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("transcript: read runs directory: %w", err)
	}

	var summaries []*Summary
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		summary, err := s.readSummaryLocked(de.Name())
		if err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// readSummaryLocked loads one run's summary. Caller must hold s.mu.
func (s *Store) readSummaryLocked(runID string) (*Summary, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, runID, summaryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("run", runID)
		}
		return nil, fmt.Errorf("transcript: read summary: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("transcript: parse summary for %s: %w", runID, err)
	}
	return &summary, nil
}

// writeSummaryLocked rewrites one run's summary atomically. Caller must hold s.mu.
func (s *Store) writeSummaryLocked(summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("transcript: marshal summary: %w", err)
	}

	path := filepath.Join(s.dir, summary.RunID, summaryFile)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("transcript: write summary: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("transcript: rename summary: %w", err)
	}
	return nil
}

// readEntries reads all entries from a JSONL log, skipping malformed lines.
// Returns nil (not an error) if the file does not exist.
func readEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("transcript: open entry log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			// Skip malformed lines rather than failing entirely
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("transcript: scan entry log: %w", err)
	}

	return entries, nil
}

// generateRunID produces a collision-resistant run identifier from a
// timestamp plus a random suffix.
func generateRunID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("run-%s-%s", now.Format("20060102-150405"), suffix)
}
