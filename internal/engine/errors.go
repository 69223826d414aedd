package engine

import "fmt"

// ErrorCategory classifies an internal compiler error by the pass that raised it
type ErrorCategory int

const (
	CategoryLowering ErrorCategory = iota
	CategoryAllocation
	CategoryCodegen
	CategoryRuntime
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryLowering:
		return "lowering"
	case CategoryAllocation:
		return "allocation"
	case CategoryCodegen:
		return "codegen"
	case CategoryRuntime:
		return "runtime"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// InternalError is an unrecoverable inconsistency inside the back end.
// Nothing produced before it was raised is safe to execute.
type InternalError struct {
	Category ErrorCategory
	Message  string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Category, e.Message)
}

// Fatalf aborts the current pass by panicking with an *InternalError.
// The pipeline entry point recovers it.
func Fatalf(category ErrorCategory, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if VerboseMode {
		Verbosef("fatal %s error: %s", category, msg)
	}
	panic(&InternalError{Category: category, Message: msg})
}

// Recover converts a panic raised by Fatalf into an error.
// Any other panic is re-raised. Use it as `defer engine.Recover(&err)`.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InternalError); ok {
		*err = ie
		return
	}
	panic(r)
}
