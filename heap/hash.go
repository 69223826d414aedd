package heap

import "github.com/cespare/xxhash/v2"

// HashBytes is the string hash used for property keys. Zero is reserved
// for "not yet computed", so it is never returned.
func HashBytes(b []byte) uint32 {
	sum := xxhash.Sum64(b)
	hash := uint32(sum) ^ uint32(sum>>32)
	if hash == 0 {
		return 1
	}
	return hash
}

// HashString is HashBytes for Go strings
func HashString(s string) uint32 {
	sum := xxhash.Sum64String(s)
	hash := uint32(sum) ^ uint32(sum>>32)
	if hash == 0 {
		return 1
	}
	return hash
}
