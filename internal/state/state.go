// Package state persists the pipeline marker file that distinguishes
// the deep first run from the shallow daily runs.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the durable pipeline marker. Initialized flips to true after
// the first successful run and stays true.
type State struct {
	Initialized  bool   `json:"initialized"`
	LastRunAt    string `json:"last_run_at,omitempty"`
	LastRunID    string `json:"last_run_id,omitempty"`
	DaysBackUsed int    `json:"days_back_used,omitempty"`
}

// File reads and writes the state marker at a fixed path.
type File struct {
	path   string
	logger *zap.Logger
}

// NewFile builds a File for the given path.
func NewFile(path string, logger *zap.Logger) *File {
	return &File{path: path, logger: logger}
}

// Read loads the current state. A missing or corrupted file yields the
// zero state so the pipeline reinitializes instead of failing.
func (f *File) Read() State {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return State{}
	}
	if err != nil {
		f.logger.Warn("state file unreadable, reinitializing",
			zap.String("path", f.path), zap.Error(err))
		return State{}
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		f.logger.Warn("state file corrupted, reinitializing",
			zap.String("path", f.path), zap.Error(err))
		return State{}
	}
	return s
}

// Write persists the state, creating the parent directory if needed.
func (f *File) Write(s State) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(f.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// NewRunID mints the identifier recorded with each pipeline run.
func NewRunID() string {
	return uuid.NewString()
}
