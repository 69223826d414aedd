//go:build !unix

package masm

import "unsafe"

// Without mmap the code is kept in ordinary memory: it can be inspected
// and relocated but not executed.
func mapCode(size int) (*codeChunk, error) {
	mem := make([]byte, size)
	return &codeChunk{
		mem:     mem,
		base:    uintptr(unsafe.Pointer(&mem[0])),
		release: func() error { return nil },
	}, nil
}

func protectCode(*codeChunk) error { return nil }
