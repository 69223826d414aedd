package heap

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Region is a contiguous chunk of raw memory addressed by real machine
// addresses. All reads and writes of object fields go through it.
type Region struct {
	mem     []byte
	base    uintptr
	release func() error
}

// NewRegion maps size bytes of zeroed read/write memory
func NewRegion(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region size must be positive, got %d", size)
	}
	return mapRegion(size)
}

// Base is the address of the first byte
func (r *Region) Base() uintptr { return r.base }

// End is the address one past the last byte
func (r *Region) End() uintptr { return r.base + uintptr(len(r.mem)) }

// Size is the number of bytes in the region
func (r *Region) Size() int { return len(r.mem) }

// Contains reports whether [addr, addr+n) lies inside the region
func (r *Region) Contains(addr uintptr, n int) bool {
	return addr >= r.base && addr+uintptr(n) <= r.End()
}

func (r *Region) off(addr uintptr, n int) int {
	if !r.Contains(addr, n) {
		panic(fmt.Sprintf("heap: access of %d bytes at %#x outside region [%#x, %#x)", n, addr, r.base, r.End()))
	}
	return int(addr - r.base)
}

// Word reads the 8-byte little-endian word at addr
func (r *Region) Word(addr uintptr) uint64 {
	o := r.off(addr, 8)
	return binary.LittleEndian.Uint64(r.mem[o:])
}

// SetWord writes the 8-byte word at addr
func (r *Region) SetWord(addr uintptr, w uint64) {
	o := r.off(addr, 8)
	binary.LittleEndian.PutUint64(r.mem[o:], w)
}

// Uint32 reads a 4-byte word at addr
func (r *Region) Uint32(addr uintptr) uint32 {
	o := r.off(addr, 4)
	return binary.LittleEndian.Uint32(r.mem[o:])
}

// SetUint32 writes a 4-byte word at addr
func (r *Region) SetUint32(addr uintptr, w uint32) {
	o := r.off(addr, 4)
	binary.LittleEndian.PutUint32(r.mem[o:], w)
}

// Float64 reads an IEEE-754 double at addr
func (r *Region) Float64(addr uintptr) float64 {
	return math.Float64frombits(r.Word(addr))
}

// SetFloat64 writes an IEEE-754 double at addr
func (r *Region) SetFloat64(addr uintptr, f float64) {
	r.SetWord(addr, math.Float64bits(f))
}

// Bytes returns the n bytes at addr without copying
func (r *Region) Bytes(addr uintptr, n int) []byte {
	o := r.off(addr, n)
	return r.mem[o : o+n]
}

// Close releases the memory. The region must not be used afterwards.
func (r *Region) Close() error {
	if r.release == nil {
		return nil
	}
	err := r.release()
	r.release = nil
	r.mem = nil
	return err
}
