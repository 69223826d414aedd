//go:build unix

package masm

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func mapCode(size int) (*codeChunk, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &codeChunk{
		mem:     mem,
		base:    uintptr(unsafe.Pointer(&mem[0])),
		release: func() error { return unix.Munmap(mem) },
	}, nil
}

// protectCode flips the chunk from writable to executable
func protectCode(c *codeChunk) error {
	return unix.Mprotect(c.mem, unix.PROT_READ|unix.PROT_EXEC)
}
