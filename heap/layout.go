package heap

// Byte offsets of every object layout. The generated code, the stubs and the
// runtime routines all address fields through these constants only.
const (
	PointerSize = 8
	TagOffset   = 0

	NumberValueOffset = 8
	NumberSize        = 16

	BooleanValueOffset = 8
	BooleanSize        = 16

	StringHashOffset   = 8
	StringLengthOffset = 16
	StringValueOffset  = 24

	// Object header: tag and mask fill the first 16 bytes, then the map
	ObjectMaskOffset = 8
	ObjectMapOffset  = 16
	ObjectSize       = 24

	// Arrays extend the object layout with an untagged logical length
	ArrayLengthOffset = 24
	ArraySize         = 32

	// Map: tag, capacity, then capacity key slots and capacity value slots
	MapSizeOffset  = 8
	MapSpaceOffset = 16

	FunctionParentOffset = 8
	FunctionCodeOffset   = 16
	FunctionRootOffset   = 24
	FunctionArgcOffset   = 32
	FunctionSize         = 40

	ContextParentOffset = 8
	ContextSizeOffset   = 16
	ContextSlotsOffset  = 24

	// VarArgLength is the initial capacity of arrays built from rest arguments
	VarArgLength = 16

	// DefaultObjectCapacity is used by literals that do not ask for a size
	DefaultObjectCapacity = 8
)

// MapBytes is the allocation size of a map with the given capacity
func MapBytes(capacity int) int {
	return MapSpaceOffset + 2*capacity*PointerSize
}

// StringBytes is the allocation size of a string of n bytes
func StringBytes(n int) int {
	return StringValueOffset + n
}

// ContextBytes is the allocation size of a context with n slots
func ContextBytes(n int) int {
	return ContextSlotsOffset + n*PointerSize
}

// ContextSlotDisp is the displacement of slot i from a context's address
func ContextSlotDisp(i int) int32 {
	return int32(ContextSlotsOffset + i*PointerSize)
}

// Root context slot indices. Type-name roots follow tag order starting at
// RootNilTypeIndex so that typeof can compute RootNilTypeIndex + tag.
const (
	RootGlobalIndex = iota
	RootTrueIndex
	RootFalseIndex
	RootNilTypeIndex
	RootContextTypeIndex
	RootFunctionTypeIndex
	RootNumberTypeIndex
	RootBooleanTypeIndex
	RootStringTypeIndex
	RootObjectTypeIndex
	RootArrayTypeIndex
	RootMapTypeIndex
	RootCDataTypeIndex
	RootCount
)

// RootTypeIndex returns the root slot holding the type name of tag t
func RootTypeIndex(t Tag) int {
	return RootNilTypeIndex + int(t)
}
