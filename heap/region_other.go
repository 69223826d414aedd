//go:build !unix

package heap

import "unsafe"

// Without mmap the region lives on the Go heap. Go never moves heap
// objects, so the base address stays valid for the region's lifetime.
func mapRegion(size int) (*Region, error) {
	mem := make([]byte, size+PointerSize)
	base := uintptr(unsafe.Pointer(&mem[0]))
	skip := int((PointerSize - base%PointerSize) % PointerSize)
	mem = mem[skip : skip+size]
	return &Region{mem: mem, base: base + uintptr(skip)}, nil
}
