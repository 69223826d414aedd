package stubs

import (
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/internal/masm"
)

// binOp applies op to rax and rbx, returning the result in rax. Two small
// integers are handled inline, as are two numbers once any small integer
// operand is boxed. Everything else goes to the host.
func (lib *Library) binOp(op hir.BinOp) {
	m := lib.m
	f := m.Prologue()
	m.AllocateSpills()

	runtime, done := masm.NewLabel(), masm.NewLabel()
	if op.IsBoolLogic() {
		m.Jmp(runtime)
	} else {
		boxed := masm.NewLabel()
		if op != hir.Div {
			m.IsUnboxed(masm.RAX, boxed, nil)
			m.IsUnboxed(masm.RBX, boxed, nil)
			lib.smallIntOp(op, boxed, runtime, done)
		}
		m.Bind(boxed)
		lib.numberOp(op, runtime, done)
	}

	m.Bind(runtime)
	m.CallHost(lib.cb.BinOp[op], masm.RAX, func() {
		m.Mov(masm.RSI, masm.RAX)
		m.Mov(masm.RDX, masm.RBX)
		lib.loadHeap()
	})

	m.Bind(done)
	m.Xor(masm.RCX, masm.RCX)
	m.Xor(masm.RBX, masm.RBX)
	m.CheckGC()
	m.FinalizeSpills(0)
	m.Epilogue(f, 0)
}

// smallIntOp works on the tagged words directly where the encoding allows
func (lib *Library) smallIntOp(op hir.BinOp, boxed, runtime, done *masm.Label) {
	m := lib.m
	lhs := m.SpillReg(masm.RAX)
	rhs := m.SpillReg(masm.RBX)
	overflow := masm.NewLabel()

	switch op {
	case hir.Add:
		// (2a+1) - 1 + (2b+1) = 2(a+b)+1
		m.Dec(masm.RAX)
		m.Add(masm.RAX, masm.RBX)
		m.J(masm.NoOverflow, done)
	case hir.Sub:
		m.Sub(masm.RAX, masm.RBX)
		m.J(masm.Overflow, overflow)
		m.OrImm(masm.RAX, 1)
		m.Jmp(done)
	case hir.Mul:
		m.Mov(masm.Scratch, masm.RBX)
		m.Untag(masm.Scratch)
		m.Dec(masm.RAX)
		m.Imul(masm.RAX, masm.Scratch)
		m.J(masm.Overflow, overflow)
		m.OrImm(masm.RAX, 1)
		m.Jmp(done)
	case hir.BAnd:
		m.And(masm.RAX, masm.RBX)
		m.Jmp(done)
	case hir.BOr:
		m.Or(masm.RAX, masm.RBX)
		m.Jmp(done)
	case hir.BXor:
		m.Xor(masm.RAX, masm.RBX)
		m.OrImm(masm.RAX, 1)
		m.Jmp(done)
	case hir.Mod:
		m.Mov(masm.Scratch, masm.RBX)
		m.Untag(masm.Scratch)
		m.Test(masm.Scratch, masm.Scratch)
		m.J(masm.Zero, runtime)
		m.Untag(masm.RAX)
		m.Cqo()
		m.Idiv(masm.Scratch)
		m.Mov(masm.RAX, masm.RDX)
		m.TagNumber(masm.RAX)
		m.Jmp(done)
	case hir.Shl, hir.Shr, hir.UShr:
		m.Mov(masm.RCX, masm.RBX)
		m.Untag(masm.RCX)
		m.Untag(masm.RAX)
		switch op {
		case hir.Shl:
			m.ShlCL(masm.RAX)
		case hir.Shr:
			m.SarCL(masm.RAX)
		default:
			m.ShrCL(masm.RAX)
		}
		m.TagNumber(masm.RAX)
		m.Jmp(done)
	default:
		// Comparisons: tagging preserves order
		m.Cmp(masm.RAX, masm.RBX)
		lib.selectBoolean(smallIntCond[op], done)
	}

	// Overflowed results are redone on doubles
	if overflow.Pending() > 0 || op == hir.Add {
		m.Bind(overflow)
		lhs.Unspill()
		rhs.Unspill()
		m.Jmp(boxed)
	}
}

var smallIntCond = map[hir.BinOp]masm.Cond{
	hir.Eq:       masm.Equal,
	hir.StrictEq: masm.Equal,
	hir.Ne:       masm.NotEqual,
	hir.StrictNe: masm.NotEqual,
	hir.Lt:       masm.Less,
	hir.Gt:       masm.Greater,
	hir.Le:       masm.LessEq,
	hir.Ge:       masm.GreaterEq,
}

// selectBoolean loads the root true object when cond holds, false otherwise
func (lib *Library) selectBoolean(cond masm.Cond, done *masm.Label) {
	m := lib.m
	isTrue := masm.NewLabel()
	m.J(cond, isTrue)
	m.Load(masm.RAX, masm.RootSlot(heap.RootFalseIndex))
	m.Jmp(done)
	m.Bind(isTrue)
	m.Load(masm.RAX, masm.RootSlot(heap.RootTrueIndex))
	m.Jmp(done)
}

// numberOp boxes small integer operands and works on the doubles when
// both operands are numbers
func (lib *Library) numberOp(op hir.BinOp, runtime, done *masm.Label) {
	m := lib.m
	m.IsNil(masm.RAX, nil, runtime)
	m.IsNil(masm.RBX, nil, runtime)
	for _, r := range []masm.Reg{masm.RAX, masm.RBX} {
		isBoxed := masm.NewLabel()
		m.IsUnboxed(r, isBoxed, nil)
		m.Mov(masm.Scratch, r)
		m.Untag(masm.Scratch)
		m.Cvtsi2sd(masm.XMM1, masm.Scratch)
		m.AllocateNumber(masm.XMM1, r)
		m.Bind(isBoxed)
	}
	lhs := m.SpillReg(masm.RAX)
	rhs := m.SpillReg(masm.RBX)
	m.IsHeapObject(heap.TagNumber, masm.RAX, runtime, nil)
	m.IsHeapObject(heap.TagNumber, masm.RBX, runtime, nil)
	m.MovsdLoad(masm.XMM1, masm.At(masm.RAX, heap.NumberValueOffset))
	m.MovsdLoad(masm.XMM2, masm.At(masm.RBX, heap.NumberValueOffset))

	switch {
	case op.IsMath():
		switch op {
		case hir.Add:
			m.Addsd(masm.XMM1, masm.XMM2)
		case hir.Sub:
			m.Subsd(masm.XMM1, masm.XMM2)
		case hir.Mul:
			m.Mulsd(masm.XMM1, masm.XMM2)
		case hir.Div:
			m.Divsd(masm.XMM1, masm.XMM2)
		}
		m.AllocateNumber(masm.XMM1, masm.RAX)
		m.Jmp(done)

	case op.IsBinary():
		m.Cvttsd2si(masm.RAX, masm.XMM1)
		m.Cvttsd2si(masm.RCX, masm.XMM2)
		switch op {
		case hir.Mod:
			nonZero, minusOne, tag := masm.NewLabel(), masm.NewLabel(), masm.NewLabel()
			m.Test(masm.RCX, masm.RCX)
			m.J(masm.NotZero, nonZero)
			lhs.Unspill()
			rhs.Unspill()
			m.Jmp(runtime)
			m.Bind(nonZero)
			m.CmpImm(masm.RCX, -1)
			m.J(masm.Equal, minusOne)
			m.Cqo()
			m.Idiv(masm.RCX)
			m.Mov(masm.RAX, masm.RDX)
			m.Jmp(tag)
			m.Bind(minusOne)
			m.Xor(masm.RAX, masm.RAX)
			m.Bind(tag)
		case hir.BAnd:
			m.And(masm.RAX, masm.RCX)
		case hir.BOr:
			m.Or(masm.RAX, masm.RCX)
		case hir.BXor:
			m.Xor(masm.RAX, masm.RCX)
		case hir.Shl:
			m.ShlCL(masm.RAX)
		case hir.Shr:
			m.SarCL(masm.RAX)
		case hir.UShr:
			m.ShrCL(masm.RAX)
		}
		m.TagNumber(masm.RAX)
		m.Jmp(done)

	default:
		// Unordered comparisons (NaN) set the parity flag
		isTrue, isFalse := masm.NewLabel(), masm.NewLabel()
		m.Ucomisd(masm.XMM1, masm.XMM2)
		switch op {
		case hir.Eq, hir.StrictEq:
			m.J(masm.Parity, isFalse)
			m.J(masm.Equal, isTrue)
		case hir.Ne, hir.StrictNe:
			m.J(masm.Parity, isTrue)
			m.J(masm.NotEqual, isTrue)
		case hir.Lt:
			m.J(masm.Parity, isFalse)
			m.J(masm.Below, isTrue)
		case hir.Le:
			m.J(masm.Parity, isFalse)
			m.J(masm.BelowEqual, isTrue)
		case hir.Gt:
			m.J(masm.Above, isTrue)
		case hir.Ge:
			m.J(masm.AboveEqual, isTrue)
		}
		m.Bind(isFalse)
		m.Load(masm.RAX, masm.RootSlot(heap.RootFalseIndex))
		m.Jmp(done)
		m.Bind(isTrue)
		m.Load(masm.RAX, masm.RootSlot(heap.RootTrueIndex))
		m.Jmp(done)
	}
}
