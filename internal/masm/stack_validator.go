// stack_validator.go - track pushes and pops while assembling to catch imbalance
package masm

import (
	"fmt"
	"strings"

	"github.com/xyproto/lirjit/internal/engine"
)

// StackValidator tracks the stack depth (in 8-byte words) implied by the
// instructions emitted so far
type StackValidator struct {
	depth      int
	operations []string
	enabled    bool
}

func NewStackValidator() *StackValidator {
	return &StackValidator{
		operations: make([]string, 0, 64),
		enabled:    true,
	}
}

// Depth is the current depth in words
func (sv *StackValidator) Depth() int { return sv.depth }

// SetEnabled turns tracking on or off
func (sv *StackValidator) SetEnabled(on bool) { sv.enabled = on }

func (sv *StackValidator) record(format string, args ...any) {
	op := fmt.Sprintf(format, args...)
	sv.operations = append(sv.operations, op)
	engine.Verbosef("stack: %s", op)
}

func (sv *StackValidator) fail(format string, args ...any) {
	start := max(len(sv.operations)-16, 0)
	engine.Fatalf(engine.CategoryCodegen, "%s\nrecent operations:\n  %s",
		fmt.Sprintf(format, args...), strings.Join(sv.operations[start:], "\n  "))
}

func (sv *StackValidator) Push(what string) {
	if !sv.enabled {
		return
	}
	sv.depth++
	sv.record("push %s (depth=%d)", what, sv.depth)
}

func (sv *StackValidator) Pop(what string) {
	if !sv.enabled {
		return
	}
	if sv.depth <= 0 {
		sv.fail("stack underflow: pop %s at depth %d", what, sv.depth)
	}
	sv.depth--
	sv.record("pop %s (depth=%d)", what, sv.depth)
}

func (sv *StackValidator) Sub(amount int) {
	if !sv.enabled {
		return
	}
	sv.depth += amount / 8
	sv.record("sub rsp, %d (depth=%d)", amount, sv.depth)
}

func (sv *StackValidator) Add(amount int) {
	if !sv.enabled {
		return
	}
	if sv.depth < amount/8 {
		sv.fail("stack imbalance: add rsp, %d at depth %d", amount, sv.depth)
	}
	sv.depth -= amount / 8
	sv.record("add rsp, %d (depth=%d)", amount, sv.depth)
}

// Checkpoint remembers the current depth under a label
func (sv *StackValidator) Checkpoint(label string) int {
	if !sv.enabled {
		return 0
	}
	sv.record("checkpoint %s (depth=%d)", label, sv.depth)
	return sv.depth
}

// Validate fails unless the depth equals a checkpoint's
func (sv *StackValidator) Validate(depth int, label string) {
	if !sv.enabled {
		return
	}
	if sv.depth != depth {
		sv.fail("stack imbalance at %s: expected depth %d, got %d", label, depth, sv.depth)
	}
}

// Restore resets the depth to a checkpoint, as `mov rsp, rbp` does
func (sv *StackValidator) Restore(depth int, label string) {
	if !sv.enabled {
		return
	}
	sv.depth = depth
	sv.record("restore %s (depth=%d)", label, sv.depth)
}

func (sv *StackValidator) Reset() {
	sv.depth = 0
	sv.operations = sv.operations[:0]
}
