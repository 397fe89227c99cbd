//go:build windows

package filesystem

import (
	"golang.org/x/sys/windows"
)

// FreeBytes reports free bytes on the volume containing path.
func (fs *RealFileSystem) FreeBytes(path string) (uint64, error) {
	var free, total, avail uint64
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(p, &free, &total, &avail); err != nil {
		return 0, err
	}
	return free, nil
}
