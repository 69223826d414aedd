package masm

// Register definitions for the x86-64 code generator

// Reg is a general purpose x86-64 register, numbered by its encoding
type Reg uint8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15

	// NoReg means "none" where a register parameter is optional
	NoReg Reg = 0xff
)

// Fixed register roles shared by generated code and the stubs
const (
	// Result holds return values and the accumulator of every stub
	Result = RAX
	// Root holds the root context
	Root = R10
	// Scratch is reserved for macros; never allocated
	Scratch = R11
	// Context holds the current function's context
	Context = RDI
)

// Allocatable is the register pool the allocator hands out
var Allocatable = []Reg{RBX, RCX, RDX, R8, R9, R12, R13, R14, R15}

var regNames = [16]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

func (r Reg) String() string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return "noreg"
}

// ParseReg looks a register up by its assembler name
func ParseReg(name string) (Reg, bool) {
	for i, n := range regNames {
		if n == name {
			return Reg(i), true
		}
	}
	return NoReg, false
}

// low is the 3-bit ModRM/opcode field
func (r Reg) low() byte { return byte(r) & 7 }

// ext reports whether the register needs a REX extension bit
func (r Reg) ext() bool { return r >= R8 && r != NoReg }

// XMM is an SSE register
type XMM uint8

const (
	XMM0 XMM = iota
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
)

func (x XMM) String() string {
	return "xmm" + string(rune('0'+x))
}
