// Package session persists the last known session identifier for each agent
// so that debates can resume prior conversations across process restarts.
// Storage is a single JSON file with atomic rewrites.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coreline-ai/talk-codex-gemini/internal/errors"
)

// FileName is the registry file name within the data directory.
const FileName = "sessions.json"

// Sessions holds the persisted per-agent session identifiers.
// The shape of this struct is a stable on-disk contract; other tooling
// reads it directly.
type Sessions struct {
	UpdatedAt time.Time `json:"updatedAt"`
	Gemini    string    `json:"gemini"`
	Codex     string    `json:"codex"`
}

// Registry reads and writes the session file. It is safe for concurrent use,
// though the debate scheduler is its only writer.
type Registry struct {
	path string
	mu   sync.Mutex
}

// NewRegistry creates a Registry stored at {dataDir}/sessions.json.
// The file is created lazily on first Upsert.
func NewRegistry(dataDir string) *Registry {
	return &Registry{path: filepath.Join(dataDir, FileName)}
}

// Path returns the location of the registry file.
func (r *Registry) Path() string {
	return r.path
}

// Read returns the persisted sessions. A missing or corrupt file is treated
// as "no prior session" rather than an error, so Read never fails.
func (r *Registry) Read() Sessions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readLocked()
}

func (r *Registry) readLocked() Sessions {
	var sessions Sessions

	data, err := os.ReadFile(r.path)
	if err != nil {
		return sessions
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return Sessions{}
	}
	return sessions
}

// Upsert records a new session id for one agent, preserving the other
// agent's value, and rewrites the file atomically with a fresh timestamp.
func (r *Registry) Upsert(agent, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := r.readLocked()
	switch agent {
	case "gemini":
		sessions.Gemini = sessionID
	case "codex":
		sessions.Codex = sessionID
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownAgent, agent)
	}
	sessions.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return atomicWriteFile(r.path, data, 0644)
}

// atomicWriteFile writes data to a file atomically by writing to a temporary
// file first, then renaming. This ensures the target file is never in a
// partially-written state.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
