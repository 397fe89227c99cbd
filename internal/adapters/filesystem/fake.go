package filesystem

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/piforge/piforge/internal/ports"
)

// FakeFileSystem is an in-memory FileSystem for tests.
type FakeFileSystem struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	// FailWrites makes every write return an error, for testing
	// mutation-failure paths.
	FailWrites bool

	writes int
}

// NewFakeFileSystem creates an empty FakeFileSystem.
func NewFakeFileSystem() *FakeFileSystem {
	return &FakeFileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// Seed places initial content at path.
func (f *FakeFileSystem) Seed(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = append([]byte(nil), content...)
}

// WriteCount returns how many writes happened, atomic or not.
func (f *FakeFileSystem) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// ReadFile returns the content at path.
func (f *FakeFileSystem) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

// WriteFile stores content at path.
func (f *FakeFileSystem) WriteFile(path string, data []byte, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return fmt.Errorf("write %s: scripted failure", path)
	}
	f.files[path] = append([]byte(nil), data...)
	f.writes++
	return nil
}

// WriteFileAtomic behaves like WriteFile; the fake is all-or-nothing anyway.
func (f *FakeFileSystem) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return f.WriteFile(path, data, perm)
}

// Exists reports whether path holds a file or directory.
func (f *FakeFileSystem) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok || f.dirs[path]
}

// Remove deletes path.
func (f *FakeFileSystem) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; !ok && !f.dirs[path] {
		return os.ErrNotExist
	}
	delete(f.files, path)
	delete(f.dirs, path)
	return nil
}

// MkdirAll records the directory.
func (f *FakeFileSystem) MkdirAll(path string, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs[path] = true
	return nil
}

// Rename moves content between paths.
func (f *FakeFileSystem) Rename(oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[oldPath]
	if !ok {
		return os.ErrNotExist
	}
	f.files[newPath] = data
	delete(f.files, oldPath)
	return nil
}

// Stat returns minimal file info for path.
func (f *FakeFileSystem) Stat(path string) (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return fakeFileInfo{name: path, size: int64(len(data))}, nil
}

// FreeBytes satisfies ports.DiskSpace with an effectively infinite disk.
func (f *FakeFileSystem) FreeBytes(_ string) (uint64, error) {
	return 1 << 40, nil
}

type fakeFileInfo struct {
	name string
	size int64
}

func (i fakeFileInfo) Name() string       { return i.name }
func (i fakeFileInfo) Size() int64        { return i.size }
func (i fakeFileInfo) Mode() os.FileMode  { return 0o644 }
func (i fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (i fakeFileInfo) IsDir() bool        { return false }
func (i fakeFileInfo) Sys() any           { return nil }

// Ensure FakeFileSystem implements the ports.
var (
	_ ports.FileSystem = (*FakeFileSystem)(nil)
	_ ports.DiskSpace  = (*FakeFileSystem)(nil)
)
