// Package backup provides an append-only store of pre-mutation file snapshots.
package backup

import (
	"time"

	"github.com/google/uuid"
)

// Backup records one pre-mutation snapshot of a file.
type Backup struct {
	ID        string
	Path      string
	Hash      string
	Size      int64
	CreatedAt time.Time
}

// NewBackup creates a Backup with a generated ID.
func NewBackup(path, hash string, size int64, createdAt time.Time) Backup {
	return Backup{
		ID:        uuid.New().String(),
		Path:      path,
		Hash:      hash,
		Size:      size,
		CreatedAt: createdAt,
	}
}
