package engine

// utils.go - small numeric helpers shared by the heap, the allocator and the stubs

// IsPowerOfTwo reports whether n is a positive power of two
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// PowerOfTwo rounds n up to the next power of two (minimum 1)
func PowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// AlignUp rounds n up to a multiple of align, which must be a power of two
func AlignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// FitsInt32 reports whether v can be encoded as a sign-extended 32-bit immediate
func FitsInt32(v int64) bool {
	return v >= -1<<31 && v < 1<<31
}

// FitsInt8 reports whether v can be encoded as a sign-extended 8-bit immediate
func FitsInt8(v int64) bool {
	return v >= -128 && v < 128
}
