// Command lirjit inspects the JIT back end: the stub library it installs,
// the configuration it runs with and the code it generates for a sample
// program.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/lirjit/internal/engine"
)

const versionString = "lirjit 0.3.0"

func main() {
	var verbose = flag.Bool("v", false, "verbose mode (log lowering, allocation and emission)")
	var verboseLong = flag.Bool("verbose", false, "verbose mode (log lowering, allocation and emission)")
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	var noTrap = flag.Bool("no-trap", false, "do not emit int3 in front of generated functions")
	flag.Parse()

	if *versionShort || *version {
		fmt.Println(versionString)
		return
	}

	cfg, err := engine.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lirjit: %v\n", err)
		os.Exit(1)
	}
	cfg.Verbose = cfg.Verbose || *verbose || *verboseLong
	if *noTrap {
		cfg.TrapEntry = false
	}
	engine.VerboseMode = cfg.Verbose

	if err := RunCLI(flag.Args(), cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "lirjit: %v\n", err)
		os.Exit(1)
	}
}
