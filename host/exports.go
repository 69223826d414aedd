//go:build cgo && amd64 && unix

package host

// #include <stdint.h>
import "C"

import (
	"unsafe"

	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/stubs"
)

// The stubs call these with the heap handle first, on the goroutine that
// entered the code.

//export lirjitAllocate
func lirjitAllocate(h C.uintptr_t, size C.uint64_t) (addr C.uint64_t) {
	s := routine(uintptr(h), stubs.Allocate)
	defer s.guard()
	return C.uint64_t(s.r.RuntimeAllocate(int(heap.Value(size).Int())))
}

//export lirjitCollectGarbage
func lirjitCollectGarbage(h C.uintptr_t, stackTop C.uint64_t) {
	s := routine(uintptr(h), stubs.CollectGarbage)
	defer s.guard()
	if err := s.r.CollectGarbage(uintptr(stackTop)); err != nil {
		s.fail(err)
	}
}

//export lirjitSizeof
func lirjitSizeof(h C.uintptr_t, v C.uint64_t) (size C.uint64_t) {
	s := routine(uintptr(h), stubs.Sizeof)
	defer s.guard()
	return C.uint64_t(s.r.RuntimeSizeof(heap.Value(v)))
}

//export lirjitKeysof
func lirjitKeysof(h C.uintptr_t, v C.uint64_t) (keys C.uint64_t) {
	s := routine(uintptr(h), stubs.Keysof)
	defer s.guard()
	return C.uint64_t(s.r.RuntimeKeysof(heap.Value(v)))
}

//export lirjitLookupProperty
func lirjitLookupProperty(h C.uintptr_t, obj, key, insert C.uint64_t) (slot C.uint64_t) {
	s := routine(uintptr(h), stubs.LookupProperty)
	defer s.guard()
	return C.uint64_t(s.r.RuntimeLookupProperty(heap.Value(obj), heap.Value(key), insert != 0))
}

//export lirjitToBoolean
func lirjitToBoolean(h C.uintptr_t, v C.uint64_t) (b C.uint64_t) {
	s := routine(uintptr(h), stubs.CoerceToBoolean)
	defer s.guard()
	return C.uint64_t(s.r.RuntimeToBoolean(heap.Value(v)))
}

//export lirjitDeleteProperty
func lirjitDeleteProperty(h C.uintptr_t, obj, key C.uint64_t) {
	s := routine(uintptr(h), stubs.DeleteProperty)
	defer s.guard()
	s.r.RuntimeDeleteProperty(heap.Value(obj), heap.Value(key))
}

// The hash stub compares all of rax, so the upper half must be clear
//
//export lirjitHash
func lirjitHash(h C.uintptr_t, str C.uint64_t) (hash C.uint64_t) {
	s := routine(uintptr(h), stubs.HashValue)
	defer s.guard()
	return C.uint64_t(uint64(s.r.Hash(heap.Value(str))))
}

//export lirjitStackTrace
func lirjitStackTrace(h C.uintptr_t, frame, ip C.uint64_t) (trace C.uint64_t) {
	s := routine(uintptr(h), stubs.StackTrace)
	defer s.guard()
	return C.uint64_t(s.r.StackTrace(uintptr(frame), uintptr(ip), readStack))
}

//export lirjitBinOp
func lirjitBinOp(h C.uintptr_t, op C.int, lhs, rhs C.uint64_t) (res C.uint64_t) {
	s := routine(uintptr(h), stubs.BinOpStub(hir.BinOp(op)))
	defer s.guard()
	return C.uint64_t(s.r.RuntimeBinOp(hir.BinOp(op), heap.Value(lhs), heap.Value(rhs)))
}

// readStack loads a word of the native stack the trace walks
func readStack(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr))
}
