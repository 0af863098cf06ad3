//go:build linux

package upstream

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Reads frames from POSIX shared memory objects under Dir
type SharedMemory struct {
	Dir string
}

// Maps the named buffer read-only, copies length bytes, then unmaps and closes
func (shm SharedMemory) Fetch(name string, length uint64) (frame []byte, err error) {
	base := strings.TrimPrefix(name, "/")
	if base == "" || strings.Contains(base, "/") {
		err = fmt.Errorf("invalid shared buffer name %q", name)
		return
	}
	if length == 0 {
		err = fmt.Errorf("shared buffer %s: zero length", name)
		return
	}

	file, err := os.Open(filepath.Join(shm.Dir, base))
	if err != nil {
		err = fmt.Errorf("open shared buffer: %w", err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		err = fmt.Errorf("stat shared buffer %s: %w", name, err)
		return
	}
	// Touching pages past the end of the object raises SIGBUS
	if info.Size() < 0 || uint64(info.Size()) < length {
		err = fmt.Errorf("shared buffer %s holds %d bytes, envelope declares %d", name, info.Size(), length)
		return
	}
	if length > uint64(^uint(0)>>1) {
		err = fmt.Errorf("shared buffer %s: length %d not addressable", name, length)
		return
	}

	mapped, err := unix.Mmap(int(file.Fd()), 0, int(length), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		err = fmt.Errorf("mmap shared buffer %s: %w", name, err)
		return
	}

	frame = make([]byte, length)
	copy(frame, mapped)

	err = unix.Munmap(mapped)
	if err != nil {
		frame = nil
		err = fmt.Errorf("munmap shared buffer %s: %w", name, err)
		return
	}
	return
}
