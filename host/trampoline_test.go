//go:build !cgo && amd64 && unix

package host

import (
	"bytes"
	"testing"

	"github.com/xyproto/lirjit/heap"
)

func TestTrampolineSwitchesStack(t *testing.T) {
	code := trampolineCode()
	for _, c := range []struct {
		what string
		seq  []byte
	}{
		{"push rbp; mov rbp, rsp; push r14; push r15", []byte{0x55, 0x48, 0x89, 0xe5, 0x41, 0x56, 0x41, 0x57}},
		{"mov r11, rax", []byte{0x49, 0x89, 0xc3}},
		{"mov rsp, rsi", []byte{0x48, 0x89, 0xf4}},
		{"call r11", []byte{0x41, 0xff, 0xd3}},
		{"pop r15; pop r14", []byte{0x41, 0x5f, 0x41, 0x5e}},
	} {
		if !bytes.Contains(code, c.seq) {
			t.Errorf("Expected %s (% x) in the trampoline", c.what, c.seq)
		}
	}
	if !bytes.HasPrefix(code, []byte{0x55}) || code[len(code)-1] != 0xc3 {
		t.Errorf("Expected a framed routine ending in ret, got % x", code)
	}
}

func TestTrampolineRejectsTooManyArguments(t *testing.T) {
	args := make([]heap.Value, trampolineArgs+1)
	if _, err := enter(1, 0, args); err == nil {
		t.Errorf("Expected %d arguments to be refused", len(args))
	}
}
