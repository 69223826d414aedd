package lir

import (
	"fmt"
	"strings"
)

// Describe renders one instruction with its operands
func Describe(instr Instruction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "i%d", instr.ID())
	if instr.NumResults() > 0 {
		fmt.Fprintf(&sb, " %s =", instr.Result(0))
	}
	sb.WriteString(" ")
	sb.WriteString(instr.Kind().String())
	switch instr := instr.(type) {
	case *BinOp:
		fmt.Fprintf(&sb, "(%s)", instr.Op)
	case *StoreContext:
		fmt.Fprintf(&sb, "[%d:%d]", instr.Depth, instr.Index)
	case *LoadContext:
		fmt.Fprintf(&sb, "[%d:%d]", instr.Depth, instr.Index)
	case *AllocateObject:
		fmt.Fprintf(&sb, "(%s, %d)", instr.Tag, instr.Capacity)
	}
	for n := 0; n < instr.NumInputs(); n++ {
		sb.WriteString(" ")
		sb.WriteString(instr.Input(n).String())
	}
	switch instr := instr.(type) {
	case *Call:
		sb.WriteString(" (")
		for n, a := range instr.Args {
			if n > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteString(")")
	case *ParallelMove:
		for _, mv := range instr.Moves {
			fmt.Fprintf(&sb, " %s<-%s", mv.To, mv.From)
		}
	case *Goto:
		fmt.Fprintf(&sb, " -> b%d", instr.Target.ID())
	case *BranchBool:
		fmt.Fprintf(&sb, " ? b%d : b%d", instr.True.ID(), instr.False.ID())
	case *AllocateFunction:
		fmt.Fprintf(&sb, " b%d/%d", instr.Body.ID(), instr.Argc)
	}
	for n := 0; n < instr.NumScratches(); n++ {
		fmt.Fprintf(&sb, " {%s}", instr.Scratch(n))
	}
	if b := instr.base(); b.Relocated() {
		fmt.Fprintf(&sb, " @%#x", b.RelocationOffset())
	}
	return sb.String()
}

func (l *List) String() string {
	var sb strings.Builder
	l.Each(func(_ int, instr Instruction) {
		if instr.Kind() == KindEntry {
			sb.WriteString("--\n")
		}
		sb.WriteString("  ")
		sb.WriteString(Describe(instr))
		sb.WriteString("\n")
	})
	return sb.String()
}
