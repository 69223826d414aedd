package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestRecoverInternalError(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		Fatalf(CategoryAllocation, "no register for i%d", 7)
		return nil
	}
	err := run()
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("Expected an *InternalError, got %T", err)
	}
	if ie.Category != CategoryAllocation {
		t.Errorf("Expected an allocation error, got %s", ie.Category)
	}
	if got := err.Error(); got != "allocation error: no register for i7" {
		t.Errorf("Expected the category in the message, got %q", got)
	}
}

func TestRecoverRepanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("Expected the foreign panic to pass through, got %v", r)
		}
	}()
	func() {
		var err error
		defer Recover(&err)
		panic("boom")
	}()
}

func TestVerbosef(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(&bytes.Buffer{})

	VerboseMode = false
	Verbosef("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected no output outside verbose mode, got %q", buf.String())
	}
	VerboseMode = true
	defer func() { VerboseMode = false }()
	Verbosef("lowered %d instructions", 3)
	if got := buf.String(); !strings.HasPrefix(got, "lirjit: lowered 3 instructions\n") {
		t.Errorf("Expected a prefixed line, got %q", got)
	}
}

func TestPowerOfTwo(t *testing.T) {
	for n, want := range map[int]int{0: 1, 1: 1, 3: 4, 8: 8, 9: 16} {
		if got := PowerOfTwo(n); got != want {
			t.Errorf("Expected PowerOfTwo(%d) = %d, got %d", n, want, got)
		}
	}
	if IsPowerOfTwo(0) || !IsPowerOfTwo(64) {
		t.Errorf("Expected 64 and not 0 to be powers of two")
	}
}
