package heap

import (
	"errors"
	"fmt"
)

// Control block word offsets. Generated code reads these words directly.
const (
	ControlTopOffset     = 0
	ControlLimitOffset   = 8
	ControlNeedsGCOffset = 16
	controlSize          = 4096
)

// Collector is the external tracing collector. The heap only knows how
// to invoke it; the algorithm is not part of this module.
type Collector interface {
	Collect(h *Heap, stackTop uintptr) error
}

// Heap owns every page of tagged memory, the control block shared with
// generated code and the root context.
type Heap struct {
	pageSize    int
	gcThreshold int
	allocated   int

	control  *Region
	newSpace *Space
	regions  []*Region
	last     *Region

	roots     Value
	collector Collector
	sourceMap *SourceMap
}

// New creates a heap with one new-space page and a populated root context
func New(pageSize, gcThreshold int) (*Heap, error) {
	if pageSize <= 0 || gcThreshold <= 0 {
		return nil, fmt.Errorf("heap: page size (%d) and gc threshold (%d) must be positive", pageSize, gcThreshold)
	}
	control, err := NewRegion(controlSize)
	if err != nil {
		return nil, fmt.Errorf("heap control block: %w", err)
	}
	h := &Heap{
		pageSize:    pageSize,
		gcThreshold: gcThreshold,
		control:     control,
		regions:     []*Region{control},
		sourceMap:   &SourceMap{},
	}
	h.newSpace = &Space{
		heap:      h,
		topAddr:   control.Base() + ControlTopOffset,
		limitAddr: control.Base() + ControlLimitOffset,
	}
	h.newSpace.addPage(pageSize)
	h.roots = h.newRootContext()
	return h, nil
}

func (h *Heap) newRootContext() Value {
	ctx := h.NewContext(Nil, RootCount)
	h.SetContextSlot(ctx, RootGlobalIndex, h.NewObject(DefaultObjectCapacity))
	h.SetContextSlot(ctx, RootTrueIndex, h.NewBoolean(true))
	h.SetContextSlot(ctx, RootFalseIndex, h.NewBoolean(false))
	for t := TagNil; t < tagCount; t++ {
		h.SetContextSlot(ctx, RootTypeIndex(t), h.NewString(t.String()))
	}
	return ctx
}

// Close unmaps every page. Values from the heap must not be used afterwards.
func (h *Heap) Close() error {
	var errs []error
	for _, r := range h.regions {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.regions = nil
	h.last = nil
	return errors.Join(errs...)
}

// NewSpace is the space both the inline allocation path and the runtime allocator use
func (h *Heap) NewSpace() *Space { return h.newSpace }

// Allocate hands out bytes from new space and stamps the tag.
// This is the runtime allocation routine; generated code only reaches it
// when its own bump attempt fails.
func (h *Heap) Allocate(tag Tag, bytes int) Value {
	addr := h.newSpace.Allocate(bytes)
	h.SetWord(addr+TagOffset, uint64(tag))
	return FromAddr(addr)
}

// Roots returns the root context
func (h *Heap) Roots() Value { return h.roots }

// Root returns slot i of the root context
func (h *Heap) Root(i int) Value { return h.ContextSlot(h.roots, i) }

// SetCollector installs the external collector
func (h *Heap) SetCollector(c Collector) { h.collector = c }

// Collector returns the installed collector, if any
func (h *Heap) Collector() Collector { return h.collector }

// SourceMap maps code offsets to source positions for stack traces
func (h *Heap) SourceMap() *SourceMap { return h.sourceMap }

// Handle identifies the heap to host routines called from generated code
func (h *Heap) Handle() uintptr { return h.control.Base() }

// NeedsGCAddress is the address of the byte generated code polls at safepoints
func (h *Heap) NeedsGCAddress() uintptr { return h.control.Base() + ControlNeedsGCOffset }

// NeedsGC reports whether a collection was requested
func (h *Heap) NeedsGC() bool { return h.control.Word(h.NeedsGCAddress()) != 0 }

// RequestGC asks for a collection at the next safepoint
func (h *Heap) RequestGC() { h.control.SetWord(h.NeedsGCAddress(), 1) }

// CollectionDone clears the request and restarts the allocation budget
func (h *Heap) CollectionDone() {
	h.control.SetWord(h.NeedsGCAddress(), 0)
	h.allocated = 0
}

// Allocated is the number of bytes the runtime allocator handed out since the last collection
func (h *Heap) Allocated() int { return h.allocated }

// Owns reports whether addr lies in one of the heap's pages
func (h *Heap) Owns(addr uintptr) bool {
	for _, r := range h.regions {
		if r.Contains(addr, 1) {
			return true
		}
	}
	return false
}

func (h *Heap) region(addr uintptr, n int) *Region {
	if h.last != nil && h.last.Contains(addr, n) {
		return h.last
	}
	for _, r := range h.regions {
		if r.Contains(addr, n) {
			h.last = r
			return r
		}
	}
	panic(fmt.Sprintf("heap: address %#x is not heap memory", addr))
}

// Word reads the machine word at addr
func (h *Heap) Word(addr uintptr) uint64 { return h.region(addr, 8).Word(addr) }

// SetWord writes the machine word at addr
func (h *Heap) SetWord(addr uintptr, w uint64) { h.region(addr, 8).SetWord(addr, w) }

// Load reads a tagged value stored at addr
func (h *Heap) Load(addr uintptr) Value { return Value(h.Word(addr)) }

// Store writes a tagged value at addr
func (h *Heap) Store(addr uintptr, v Value) { h.SetWord(addr, uint64(v)) }

// Tag returns the header tag of a heap object
func (h *Heap) Tag(v Value) Tag {
	if !v.IsHeapObject() {
		panic(fmt.Sprintf("heap: tag of non-heap value %s", v))
	}
	return Tag(h.Word(v.Addr() + TagOffset))
}

// Is reports whether v is a heap object carrying tag t
func (h *Heap) Is(v Value, t Tag) bool {
	return v.IsHeapObject() && h.Tag(v) == t
}
