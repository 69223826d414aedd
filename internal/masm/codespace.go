package masm

import (
	"errors"
	"fmt"

	"github.com/xyproto/lirjit/internal/engine"
)

// CodeSpace owns the memory generated code is installed into
type CodeSpace struct {
	chunks []*codeChunk
	total  int
}

type codeChunk struct {
	mem     []byte
	base    uintptr
	release func() error
}

// NewCodeSpace returns an empty code space
func NewCodeSpace() *CodeSpace { return &CodeSpace{} }

// Put copies code into fresh memory, applies absolute relocations against
// its final address and makes it executable. It returns the code's address.
func (cs *CodeSpace) Put(code []byte, relocs []Relocation) (uintptr, error) {
	if len(code) == 0 {
		return 0, errors.New("code space: empty code")
	}
	chunk, err := mapCode(engine.AlignUp(len(code), 4096))
	if err != nil {
		return 0, fmt.Errorf("code space: %w", err)
	}
	copy(chunk.mem, code)
	if err := ApplyRelocations(chunk.mem[:len(code)], chunk.base, relocs); err != nil {
		chunk.release()
		return 0, err
	}
	if err := protectCode(chunk); err != nil {
		chunk.release()
		return 0, fmt.Errorf("code space: %w", err)
	}
	cs.chunks = append(cs.chunks, chunk)
	cs.total += len(code)
	engine.Verbosef("code space: installed %d bytes at %#x", len(code), chunk.base)
	return chunk.base, nil
}

// Code returns a copy of n installed bytes at addr
func (cs *CodeSpace) Code(addr uintptr, n int) ([]byte, bool) {
	for _, c := range cs.chunks {
		if addr >= c.base && addr+uintptr(n) <= c.base+uintptr(len(c.mem)) {
			off := int(addr - c.base)
			return append([]byte(nil), c.mem[off:off+n]...), true
		}
	}
	return nil, false
}

// Size is the number of code bytes installed
func (cs *CodeSpace) Size() int { return cs.total }

// Close releases every chunk
func (cs *CodeSpace) Close() error {
	var errs []error
	for _, c := range cs.chunks {
		if err := c.release(); err != nil {
			errs = append(errs, err)
		}
	}
	cs.chunks = nil
	return errors.Join(errs...)
}
