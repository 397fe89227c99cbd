//go:build !windows

package filesystem

import (
	"golang.org/x/sys/unix"
)

// FreeBytes reports free bytes on the filesystem containing path.
func (fs *RealFileSystem) FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
