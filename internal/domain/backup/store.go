package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ErrBackupNotFound is returned when a backup cannot be found.
var ErrBackupNotFound = errors.New("backup not found")

// Store persists backups. It is deliberately append-only: there is no
// delete and no cleanup, because backups are the only recovery path for
// a bad mutation.
type Store interface {
	Save(ctx context.Context, path string, content []byte) (*Backup, error)
	Get(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context, path string) ([]Backup, error)
	ListAll(ctx context.Context) ([]Backup, error)
}

type index struct {
	Backups map[string]indexEntry `json:"backups"`
}

type indexEntry struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Hash      string    `json:"hash"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Filename  string    `json:"filename"`
}

// FileStore implements Store on the local filesystem. Each backup is a
// flat file named by ID plus a shared index.json.
type FileStore struct {
	basePath string
	now      func() time.Time
	mu       sync.Mutex
}

// NewFileStore creates a FileStore rooted at basePath.
func NewFileStore(basePath string) *FileStore {
	return &FileStore{
		basePath: basePath,
		now:      time.Now,
	}
}

// WithClock overrides the time source. Tests use this to pin timestamps.
func (s *FileStore) WithClock(now func() time.Time) *FileStore {
	s.now = now
	return s
}

// Save stores content as a new backup of path.
func (s *FileStore) Save(_ context.Context, path string, content []byte) (*Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return nil, err
	}

	b := NewBackup(path, hashContent(content), int64(len(content)), s.now())
	filename := b.CreatedAt.Format("20060102-150405") + "-" + b.ID + ".bak"

	if err := os.WriteFile(filepath.Join(s.basePath, filename), content, 0o600); err != nil {
		return nil, err
	}

	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	idx.Backups[b.ID] = indexEntry{
		ID:        b.ID,
		Path:      b.Path,
		Hash:      b.Hash,
		Size:      b.Size,
		CreatedAt: b.CreatedAt,
		Filename:  filename,
	}
	if err := s.saveIndex(idx); err != nil {
		return nil, err
	}

	return &b, nil
}

// Get retrieves backup content by ID.
func (s *FileStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	entry, ok := idx.Backups[id]
	if !ok {
		return nil, ErrBackupNotFound
	}
	return os.ReadFile(filepath.Join(s.basePath, entry.Filename))
}

// List returns all backups of a given path, oldest first.
func (s *FileStore) List(ctx context.Context, path string) ([]Backup, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]Backup, 0)
	for _, b := range all {
		if b.Path == path {
			result = append(result, b)
		}
	}
	return result, nil
}

// ListAll returns every backup in the store, oldest first.
func (s *FileStore) ListAll(_ context.Context) ([]Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	result := make([]Backup, 0, len(idx.Backups))
	for _, entry := range idx.Backups {
		result = append(result, Backup{
			ID:        entry.ID,
			Path:      entry.Path,
			Hash:      entry.Hash,
			Size:      entry.Size,
			CreatedAt: entry.CreatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Archive satisfies confedit's backup hook.
func (s *FileStore) Archive(ctx context.Context, path string, content []byte) error {
	_, err := s.Save(ctx, path, content)
	return err
}

func (s *FileStore) loadIndex() (*index, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, "index.json"))
	if os.IsNotExist(err) {
		return &index{Backups: make(map[string]indexEntry)}, nil
	}
	if err != nil {
		return nil, err
	}

	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	if idx.Backups == nil {
		idx.Backups = make(map[string]indexEntry)
	}
	return &idx, nil
}

// saveIndex rewrites the index through a temp file plus rename. The
// index is the only way back to prior generations, so a crash mid-write
// must leave the previous index intact.
func (s *FileStore) saveIndex(idx *index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.basePath, "index.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
