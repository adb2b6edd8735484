//go:build linux

package bundle

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile memory-maps the file read-only. The returned cleanup unmaps it.
func mapFile(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size() == 0 {
		return nil, func() {}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		// Fall back to a plain read when the filesystem refuses mmap.
		buf, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil, nil, fmt.Errorf("mmap %s: %w", path, err)
		}
		return buf, func() {}, nil
	}
	return data, func() { unix.Munmap(data) }, nil
}
