package engine

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// VerboseMode enables diagnostic output on stderr
var VerboseMode bool

var logOutput io.Writer = os.Stderr

// colorOutput is decided once; piping stderr to a file disables escapes
var colorOutput = term.IsTerminal(int(os.Stderr.Fd()))

// SetLogOutput redirects verbose diagnostics. Color is disabled for anything but stderr.
func SetLogOutput(w io.Writer) {
	logOutput = w
	colorOutput = false
	if f, ok := w.(*os.File); ok {
		colorOutput = term.IsTerminal(int(f.Fd()))
	}
}

// Verbosef prints a diagnostic line when VerboseMode is on
func Verbosef(format string, args ...any) {
	if !VerboseMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	if colorOutput {
		fmt.Fprintf(logOutput, "\033[2mlirjit:\033[0m %s", msg)
		return
	}
	fmt.Fprintf(logOutput, "lirjit: %s", msg)
}
