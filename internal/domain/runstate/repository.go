package runstate

import (
	"context"
	"errors"
)

// Repository errors.
var (
	// ErrNotFound is returned when no run state has been persisted yet.
	ErrNotFound = errors.New("run state not found")
	// ErrCorrupt is returned when the persisted state cannot be parsed.
	ErrCorrupt = errors.New("run state corrupt")
	// ErrSaveFailed is returned when the state cannot be written.
	ErrSaveFailed = errors.New("failed to save run state")
)

// Repository persists RunState.
type Repository interface {
	Load(ctx context.Context, path string) (*RunState, error)
	Save(ctx context.Context, path string, state *RunState) error
	Exists(ctx context.Context, path string) bool
}
