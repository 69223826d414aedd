package masm

import (
	"encoding/binary"

	"github.com/xyproto/lirjit/internal/engine"
)

// CodeBuffer is the byte sink of one assembler. Once committed it rejects
// writes, so finished code cannot be appended to by accident.
type CodeBuffer struct {
	buf       []byte
	committed bool
	name      string
}

// NewCodeBuffer creates an empty buffer; the name shows up in diagnostics
func NewCodeBuffer(name string) *CodeBuffer {
	return &CodeBuffer{buf: make([]byte, 0, 256), name: name}
}

func (b *CodeBuffer) checkWritable() {
	if b.committed {
		engine.Fatalf(engine.CategoryCodegen, "code buffer %s: write after commit", b.name)
	}
}

// Emit appends raw bytes
func (b *CodeBuffer) Emit(p ...byte) {
	b.checkWritable()
	b.buf = append(b.buf, p...)
}

// Emit32 appends a little-endian 32-bit value
func (b *CodeBuffer) Emit32(v uint32) {
	b.checkWritable()
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

// Emit64 appends a little-endian 64-bit value
func (b *CodeBuffer) Emit64(v uint64) {
	b.checkWritable()
	b.buf = binary.LittleEndian.AppendUint64(b.buf, v)
}

// Patch32 overwrites 4 bytes at off. Patching is allowed until commit.
func (b *CodeBuffer) Patch32(off int, v uint32) {
	b.checkWritable()
	if off < 0 || off+4 > len(b.buf) {
		engine.Fatalf(engine.CategoryCodegen, "code buffer %s: patch at %d outside %d bytes", b.name, off, len(b.buf))
	}
	binary.LittleEndian.PutUint32(b.buf[off:], v)
}

// Bytes returns the buffer contents. Safe to call after commit.
func (b *CodeBuffer) Bytes() []byte { return b.buf }

// Len returns the number of bytes written
func (b *CodeBuffer) Len() int { return len(b.buf) }

// Commit marks the buffer as complete
func (b *CodeBuffer) Commit() {
	engine.Verbosef("code buffer %s: committed with %d bytes", b.name, len(b.buf))
	b.committed = true
}

// Committed reports whether Commit was called
func (b *CodeBuffer) Committed() bool { return b.committed }

// Reset clears the buffer and uncommits it
func (b *CodeBuffer) Reset() {
	if b.committed {
		engine.Verbosef("code buffer %s: reset after commit, dropping %d bytes", b.name, len(b.buf))
	}
	b.buf = b.buf[:0]
	b.committed = false
}
