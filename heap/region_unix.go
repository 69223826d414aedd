//go:build unix

package heap

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func mapRegion(size int) (*Region, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", size, err)
	}
	return &Region{
		mem:  mem,
		base: uintptr(unsafe.Pointer(&mem[0])),
		release: func() error {
			return unix.Munmap(mem)
		},
	}, nil
}
