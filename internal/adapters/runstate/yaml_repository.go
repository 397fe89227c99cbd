// Package runstate provides YAML persistence for run state.
package runstate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/piforge/piforge/internal/domain/runstate"
	"gopkg.in/yaml.v3"
)

// YAMLRepository implements runstate.Repository using YAML files.
type YAMLRepository struct{}

// NewYAMLRepository creates a new YAML-based run state repository.
func NewYAMLRepository() *YAMLRepository {
	return &YAMLRepository{}
}

// Load reads run state from the given path.
func (r *YAMLRepository) Load(_ context.Context, path string) (*domain.RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read run state: %w", err)
	}

	var state domain.RunState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCorrupt, err)
	}
	if state.Completed == nil {
		state.Completed = make(map[string]domain.CompletionRecord)
	}

	return &state, nil
}

// Save writes run state to the given path.
func (r *YAMLRepository) Save(_ context.Context, path string, state *domain.RunState) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSaveFailed, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", domain.ErrSaveFailed, err)
	}

	// Write atomically by writing to temp file first
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSaveFailed, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", domain.ErrSaveFailed, err)
	}

	return nil
}

// Exists returns true if run state exists at the given path.
func (r *YAMLRepository) Exists(_ context.Context, path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Ensure YAMLRepository implements runstate.Repository.
var _ domain.Repository = (*YAMLRepository)(nil)
