package masm

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/xyproto/lirjit/internal/engine"
)

func assemble(emit func(m *Masm)) []byte {
	m := New("test", Env{})
	emit(m)
	return m.Bytes()
}

func TestEncoding(t *testing.T) {
	tests := []struct {
		name string
		emit func(m *Masm)
		want []byte
	}{
		{"push rbp", func(m *Masm) { m.Push(RBP) }, []byte{0x55}},
		{"push r12", func(m *Masm) { m.Push(R12) }, []byte{0x41, 0x54}},
		{"pop r15", func(m *Masm) { m.Push(R15); m.Pop(R15) }, []byte{0x41, 0x57, 0x41, 0x5f}},
		{"push imm8", func(m *Masm) { m.PushImm(3) }, []byte{0x6a, 0x03}},
		{"push imm32", func(m *Masm) { m.PushImm(0x1000) }, []byte{0x68, 0x00, 0x10, 0x00, 0x00}},
		{"mov rbp, rsp", func(m *Masm) { m.Mov(RBP, RSP) }, []byte{0x48, 0x89, 0xe5}},
		{"mov r10, rdi", func(m *Masm) { m.Mov(R10, RDI) }, []byte{0x49, 0x89, 0xfa}},
		{"mov rax, rax", func(m *Masm) { m.Mov(RAX, RAX) }, nil},
		{"mov rax, 1", func(m *Masm) { m.MovImm(RAX, 1) }, []byte{0x48, 0xc7, 0xc0, 0x01, 0x00, 0x00, 0x00}},
		{"mov r11, imm64", func(m *Masm) { m.MovImm64(R11, 0x1122334455667788) },
			[]byte{0x49, 0xbb, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}},
		{"mov rax, [rbp-8]", func(m *Masm) { m.Load(RAX, At(RBP, -8)) }, []byte{0x48, 0x8b, 0x45, 0xf8}},
		{"mov rax, [rsp]", func(m *Masm) { m.Load(RAX, At(RSP, 0)) }, []byte{0x48, 0x8b, 0x04, 0x24}},
		{"mov rax, [r13]", func(m *Masm) { m.Load(RAX, At(R13, 0)) }, []byte{0x49, 0x8b, 0x45, 0x00}},
		{"mov rcx, [r12+16]", func(m *Masm) { m.Load(RCX, At(R12, 16)) }, []byte{0x49, 0x8b, 0x4c, 0x24, 0x10}},
		{"mov [rbx+0x100], rcx", func(m *Masm) { m.Store(At(RBX, 0x100), RCX) },
			[]byte{0x48, 0x89, 0x8b, 0x00, 0x01, 0x00, 0x00}},
		{"mov qword [rax], 0", func(m *Masm) { m.StoreImm(At(RAX, 0), 0) },
			[]byte{0x48, 0xc7, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"mov eax, [rbx+8]", func(m *Masm) { m.Load32(RAX, At(RBX, 8)) }, []byte{0x8b, 0x43, 0x08}},
		{"lea rax, [rip]", func(m *Masm) { m.LeaRIP(RAX, 0) }, []byte{0x48, 0x8d, 0x05, 0x00, 0x00, 0x00, 0x00}},
		{"lea r11, [rax+16]", func(m *Masm) { m.Lea(R11, At(RAX, 16)) }, []byte{0x4c, 0x8d, 0x58, 0x10}},
		{"add rsp, 8", func(m *Masm) { m.SubImm(RSP, 8); m.AddImm(RSP, 8) },
			[]byte{0x48, 0x83, 0xec, 0x08, 0x48, 0x83, 0xc4, 0x08}},
		{"sub rsp, 0x100", func(m *Masm) { m.SubImm(RSP, 0x100) }, []byte{0x48, 0x81, 0xec, 0x00, 0x01, 0x00, 0x00}},
		{"add rax, rbx", func(m *Masm) { m.Add(RAX, RBX) }, []byte{0x48, 0x01, 0xd8}},
		{"xor r9, r9", func(m *Masm) { m.Xor(R9, R9) }, []byte{0x4d, 0x31, 0xc9}},
		{"cmp rax, rbx", func(m *Masm) { m.Cmp(RAX, RBX) }, []byte{0x48, 0x39, 0xd8}},
		{"test rax, rax", func(m *Masm) { m.Test(RAX, RAX) }, []byte{0x48, 0x85, 0xc0}},
		{"test rax, 1", func(m *Masm) { m.TestImm(RAX, 1) }, []byte{0x48, 0xf7, 0xc0, 0x01, 0x00, 0x00, 0x00}},
		{"cmp qword [r11], 0", func(m *Masm) { m.CmpMemImm(At(R11, 0), 0) }, []byte{0x49, 0x83, 0x3b, 0x00}},
		{"cmp rax, [r10+32]", func(m *Masm) { m.CmpMem(RAX, At(R10, 32)) }, []byte{0x49, 0x3b, 0x42, 0x20}},
		{"imul rax, rbx", func(m *Masm) { m.Imul(RAX, RBX) }, []byte{0x48, 0x0f, 0xaf, 0xc3}},
		{"cqo; idiv rbx", func(m *Masm) { m.Cqo(); m.Idiv(RBX) }, []byte{0x48, 0x99, 0x48, 0xf7, 0xfb}},
		{"sar rax, 1", func(m *Masm) { m.Sar(RAX, 1) }, []byte{0x48, 0xd1, 0xf8}},
		{"shl rbx, 4", func(m *Masm) { m.Shl(RBX, 4) }, []byte{0x48, 0xc1, 0xe3, 0x04}},
		{"shl rax, cl", func(m *Masm) { m.ShlCL(RAX) }, []byte{0x48, 0xd3, 0xe0}},
		{"inc rbx", func(m *Masm) { m.Inc(RBX) }, []byte{0x48, 0xff, 0xc3}},
		{"ret", func(m *Masm) { m.Ret(0) }, []byte{0xc3}},
		{"ret 16", func(m *Masm) { m.Ret(16) }, []byte{0xc2, 0x10, 0x00}},
		{"call r11", func(m *Masm) { m.CallReg(R11) }, []byte{0x41, 0xff, 0xd3}},
		{"call [r11+16]", func(m *Masm) { m.CallMem(At(R11, 16)) }, []byte{0x41, 0xff, 0x53, 0x10}},
		{"int3", func(m *Masm) { m.Int3() }, []byte{0xcc}},
		{"cvtsi2sd xmm1, rax", func(m *Masm) { m.Cvtsi2sd(XMM1, RAX) }, []byte{0xf2, 0x48, 0x0f, 0x2a, 0xc8}},
		{"cvttsd2si rax, xmm1", func(m *Masm) { m.Cvttsd2si(RAX, XMM1) }, []byte{0xf2, 0x48, 0x0f, 0x2c, 0xc1}},
		{"addsd xmm1, xmm2", func(m *Masm) { m.Addsd(XMM1, XMM2) }, []byte{0xf2, 0x0f, 0x58, 0xca}},
		{"divsd xmm1, xmm2", func(m *Masm) { m.Divsd(XMM1, XMM2) }, []byte{0xf2, 0x0f, 0x5e, 0xca}},
		{"ucomisd xmm1, xmm2", func(m *Masm) { m.Ucomisd(XMM1, XMM2) }, []byte{0x66, 0x0f, 0x2e, 0xca}},
		{"movq xmm1, rax", func(m *Masm) { m.MovqToXMM(XMM1, RAX) }, []byte{0x66, 0x48, 0x0f, 0x6e, 0xc8}},
		{"movq rbx, xmm2", func(m *Masm) { m.MovqFromXMM(RBX, XMM2) }, []byte{0x66, 0x48, 0x0f, 0x7e, 0xd3}},
		{"movsd [rax+8], xmm1", func(m *Masm) { m.MovsdStore(At(RAX, 8), XMM1) }, []byte{0xf2, 0x0f, 0x11, 0x48, 0x08}},
	}
	for _, tt := range tests {
		got := assemble(tt.emit)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%s: expected % x, got % x", tt.name, tt.want, got)
		}
	}
}

func readRel32(code []byte, off int) int {
	return off + 4 + int(int32(binary.LittleEndian.Uint32(code[off:])))
}

func TestBackwardJump(t *testing.T) {
	m := New("test", Env{})
	top := NewLabel()
	m.Bind(top)
	m.Jmp(top)
	want := []byte{0xe9, 0xfb, 0xff, 0xff, 0xff}
	if !bytes.Equal(m.Bytes(), want) {
		t.Errorf("Expected % x, got % x", want, m.Bytes())
	}
}

func TestForwardJumpIsPatchedOnBind(t *testing.T) {
	m := New("test", Env{})
	done := NewLabel()
	m.J(Equal, done)
	if done.Pending() != 1 {
		t.Fatalf("Expected 1 pending use, got %d", done.Pending())
	}
	m.Nop()
	m.Nop()
	m.Bind(done)
	code := m.Bytes()
	if code[0] != 0x0f || code[1] != 0x84 {
		t.Fatalf("Expected je opcode, got % x", code[:2])
	}
	if got := readRel32(code, 2); got != done.Pos() {
		t.Errorf("Expected jump to %d, got %d", done.Pos(), got)
	}
	if done.Pending() != 0 {
		t.Error("pending uses should be cleared after Bind")
	}
}

func TestBindTwicePanics(t *testing.T) {
	var err error
	func() {
		defer engine.Recover(&err)
		m := New("test", Env{})
		l := NewLabel()
		m.Bind(l)
		m.Bind(l)
	}()
	var ie *engine.InternalError
	if !errors.As(err, &ie) || ie.Category != engine.CategoryCodegen {
		t.Errorf("Expected codegen error, got %v", err)
	}
}

func TestCommitRejectsUnboundLabels(t *testing.T) {
	var err error
	func() {
		defer engine.Recover(&err)
		m := New("test", Env{})
		m.Jmp(NewLabel())
		m.Commit()
	}()
	if err == nil {
		t.Error("Expected an error for a jump to an unbound label")
	}
}

func TestWriteAfterCommit(t *testing.T) {
	var err error
	func() {
		defer engine.Recover(&err)
		m := New("test", Env{})
		m.Ret(0)
		m.Commit()
		m.Nop()
	}()
	if err == nil {
		t.Error("Expected writing after commit to fail")
	}
}

func TestAbsoluteRelocation(t *testing.T) {
	m := New("test", Env{})
	target := NewLabel()
	m.MovLabelAddress(RAX, target)
	m.Ret(0)
	m.Bind(target)
	m.Int3()

	relocs := m.Relocations()
	if len(relocs) != 1 {
		t.Fatalf("Expected 1 relocation, got %d", len(relocs))
	}
	r := relocs[0]
	if r.Kind != RelocAbsolute || r.Offset != 2 || r.Target != 11 {
		t.Fatalf("Expected abs64 @2 -> 11, got %s", r)
	}
	code := append([]byte(nil), m.Bytes()...)
	if err := ApplyRelocations(code, 0x10000, relocs); err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint64(code[2:]); got != 0x10000+11 {
		t.Errorf("Expected %#x, got %#x", 0x10000+11, got)
	}
}

func TestApplyRelocationsRejectsUnresolved(t *testing.T) {
	err := ApplyRelocations(make([]byte, 16), 0x1000, []Relocation{{Offset: 0, Target: -1, Kind: RelocAbsolute}})
	if err == nil {
		t.Error("Expected an error for an unresolved relocation")
	}
}

func TestCallAbsoluteUsesScratch(t *testing.T) {
	got := assemble(func(m *Masm) { m.Call(AddrTarget(0x1234)) })
	want := []byte{0x49, 0xbb, 0x34, 0x12, 0, 0, 0, 0, 0, 0, 0x41, 0xff, 0xd3}
	if !bytes.Equal(got, want) {
		t.Errorf("Expected % x, got % x", want, got)
	}
}
