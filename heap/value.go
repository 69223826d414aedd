// Package heap defines the bit-level representation of every value the
// generated code and the runtime exchange, and the memory that holds them.
//
// Encoding:
//
//	nil            0x0
//	small integer  n<<1 | 1   (63-bit signed payload, low bit set)
//	heap reference 8-byte aligned address (low three bits clear, non-zero)
//
// Every heap object starts with a tag word at TagOffset.
package heap

import "fmt"

// Value is one tagged machine word
type Value uint64

// Nil is the reserved nil pattern. An empty map slot is a stored Nil key.
const Nil Value = 0

// Small integer bounds
const (
	MaxSmallInt = 1<<62 - 1
	MinSmallInt = -1 << 62
)

// FitsSmallInt reports whether n can be represented unboxed
func FitsSmallInt(n int64) bool {
	return n >= MinSmallInt && n <= MaxSmallInt
}

// SmallInt boxes nothing: it encodes n as an unboxed value.
// Bits above the 63-bit payload are dropped.
func SmallInt(n int64) Value {
	return Value(uint64(n)<<1 | 1)
}

// IsNil reports whether v is the nil pattern
func (v Value) IsNil() bool { return v == Nil }

// IsUnboxed reports whether v is a small integer
func (v Value) IsUnboxed() bool { return v&1 == 1 }

// IsHeapObject reports whether v references heap memory
func (v Value) IsHeapObject() bool { return v != Nil && v&7 == 0 }

// Int returns the payload of an unboxed value
func (v Value) Int() int64 { return int64(v) >> 1 }

// Addr returns the address of a heap reference
func (v Value) Addr() uintptr { return uintptr(v) }

// FromAddr turns an object address into a reference
func FromAddr(addr uintptr) Value { return Value(addr) }

func (v Value) String() string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsUnboxed():
		return fmt.Sprintf("%d", v.Int())
	default:
		return fmt.Sprintf("<heap %#x>", uint64(v))
	}
}

// Tag is the kind discriminant stored in an object's header.
// The order matters: root type-name slots are indexed by tag.
type Tag uint8

const (
	TagNil Tag = iota
	TagContext
	TagFunction
	TagNumber
	TagBoolean
	TagString
	TagObject
	TagArray
	TagMap
	TagCData
	tagCount
)

var tagNames = [tagCount]string{
	TagNil:      "nil",
	TagContext:  "context",
	TagFunction: "function",
	TagNumber:   "number",
	TagBoolean:  "boolean",
	TagString:   "string",
	TagObject:   "object",
	TagArray:    "array",
	TagMap:      "map",
	TagCData:    "cdata",
}

func (t Tag) String() string {
	if t < tagCount {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}
