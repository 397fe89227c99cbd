package ports

import (
	"os"
)

// FileSystem provides file system operations against the target machine.
// WriteFileAtomic must guarantee that a crash mid-write leaves either the
// fully-old or fully-new file, never a truncated one.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	WriteFileAtomic(path string, data []byte, perm os.FileMode) error
	Exists(path string) bool
	Remove(path string) error
	MkdirAll(path string, perm os.FileMode) error
	Rename(oldPath, newPath string) error
	Stat(path string) (os.FileInfo, error)
}

// DiskSpace reports free bytes on the filesystem containing path.
type DiskSpace interface {
	FreeBytes(path string) (uint64, error)
}
