package runstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	domain "github.com/piforge/piforge/internal/domain/runstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	repo := NewYAMLRepository()
	path := filepath.Join(t.TempDir(), "state", "runstate.yaml")
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := domain.New(now)
	state.MarkSucceeded("foundation", now.Add(time.Minute))
	state.MarkSucceeded("arcade", now.Add(2*time.Minute))

	require.NoError(t, repo.Save(ctx, path, state))
	require.True(t, repo.Exists(ctx, path))

	loaded, err := repo.Load(ctx, path)
	require.NoError(t, err)
	assert.True(t, loaded.IsCompleted("foundation"))
	assert.True(t, loaded.IsCompleted("arcade"))
	assert.False(t, loaded.IsCompleted("homehub"))
	assert.Equal(t, "foundation", loaded.Completed["foundation"].Phase)
}

func TestLoadMissingFile(t *testing.T) {
	repo := NewYAMLRepository()
	_, err := repo.Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runstate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	_, err := NewYAMLRepository().Load(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrCorrupt)
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	repo := NewYAMLRepository()
	path := filepath.Join(t.TempDir(), "a", "b", "runstate.yaml")

	require.NoError(t, repo.Save(context.Background(), path, domain.New(time.Now())))
	assert.True(t, repo.Exists(context.Background(), path))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runstate.yaml")
	require.NoError(t, NewYAMLRepository().Save(context.Background(), path, domain.New(time.Now())))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "runstate.yaml", entries[0].Name())
}
