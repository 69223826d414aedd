package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/xyproto/lirjit"
	"github.com/xyproto/lirjit/heap"
	"github.com/xyproto/lirjit/hir"
	"github.com/xyproto/lirjit/host"
	"github.com/xyproto/lirjit/internal/engine"
	"github.com/xyproto/lirjit/stubs"
)

// cli.go - subcommands:
// - lirjit stubs   (list the installed stub library)
// - lirjit demo    (compile a sample program, dump its listing and code and run it)
// - lirjit config  (show the effective configuration)

// CommandContext holds the execution context for a CLI command
type CommandContext struct {
	Args   []string
	Config engine.Config
	Out    io.Writer
}

// RunCLI dispatches on the first argument
func RunCLI(args []string, cfg engine.Config, out io.Writer) error {
	ctx := &CommandContext{Args: args, Config: cfg, Out: out}
	if len(args) == 0 {
		return cmdHelp(ctx)
	}
	switch args[0] {
	case "stubs":
		return cmdStubs(ctx)
	case "demo":
		return cmdDemo(ctx)
	case "config":
		return cmdConfig(ctx)
	case "help", "--help", "-h":
		return cmdHelp(ctx)
	case "version":
		fmt.Fprintln(ctx.Out, versionString)
		return nil
	default:
		return fmt.Errorf("unknown command: %s\n\nRun 'lirjit help' for usage information", args[0])
	}
}

func cmdHelp(ctx *CommandContext) error {
	fmt.Fprintf(ctx.Out, `%s

Usage:
    lirjit [flags] <command>

Commands:
    stubs     list the stub library with offsets and sizes
    demo      compile a sample program, print its listing and code
    config    show the configuration (LIRJIT_* environment variables)
    version   print the version

Flags:
    -v, -verbose   log every pass
    -no-trap       omit the int3 marker in front of functions
`, versionString)
	return nil
}

func cmdConfig(ctx *CommandContext) error {
	c := ctx.Config
	fmt.Fprintf(ctx.Out, "platform:     %s\n", c.Platform)
	fmt.Fprintf(ctx.Out, "page size:    %d\n", c.PageSize)
	fmt.Fprintf(ctx.Out, "gc threshold: %d\n", c.GCThreshold)
	fmt.Fprintf(ctx.Out, "trap entry:   %v\n", c.TrapEntry)
	fmt.Fprintf(ctx.Out, "verbose:      %v\n", c.Verbose)
	return c.Validate()
}

func cmdStubs(ctx *CommandContext) error {
	jit, err := lirjit.New(ctx.Config, nil)
	if err != nil {
		return err
	}
	defer jit.Close()
	lib := jit.Stubs
	for k := stubs.Kind(0); int(k) < stubs.Count; k++ {
		end := len(lib.Bytes())
		if int(k)+1 < stubs.Count {
			end = lib.Offset(k + 1)
		}
		fmt.Fprintf(ctx.Out, "%-18s %#x %5d bytes\n", k, lib.Addr(k), end-lib.Offset(k))
	}
	fmt.Fprintf(ctx.Out, "%d stubs, %d bytes\n", stubs.Count, len(lib.Bytes()))
	return nil
}

// demoProgram sums the integers below ten into a property of a new object
func demoProgram() *hir.Graph {
	g := hir.New()
	entry := g.NewBlock()
	header := g.NewBlock()
	loop := g.NewBlock()
	exit := g.NewBlock()

	entry.Entry()
	i := entry.StoreLocal(hir.Int(0)).At(1)
	sum := entry.StoreLocal(hir.Int(0)).At(2)
	entry.Goto(header)
	cond := header.BinOp(hir.Lt, i, hir.Int(10)).At(3)
	header.Branch(cond, loop, exit)
	nextSum := loop.BinOp(hir.Add, sum, i).At(4)
	nextI := loop.BinOp(hir.Add, i, hir.Int(1)).At(5)
	loop.ParallelMove(hir.Move{To: i, From: nextI}, hir.Move{To: sum, From: nextSum})
	loop.Goto(header)
	obj := exit.AllocateObject(false, 0).At(6)
	exit.StoreProperty(obj, hir.Int(0), sum)
	exit.Return(obj)
	return g
}

func cmdDemo(ctx *CommandContext) error {
	jit, err := lirjit.New(ctx.Config, nil)
	if err != nil {
		return err
	}
	defer jit.Close()
	code, err := jit.Compile(demoProgram())
	if err != nil {
		return err
	}
	fmt.Fprint(ctx.Out, code.List.String())
	for _, f := range code.Frames {
		fmt.Fprintf(ctx.Out, "function at %#x: %d spill slots\n", f.Offset, f.Spills)
	}
	fmt.Fprint(ctx.Out, hex.Dump(code.Bytes))

	// The object starts without room, so storing the sum falls back into Go
	if !host.Available {
		return nil
	}
	entry, err := jit.Install(code)
	if err != nil {
		return err
	}
	obj, err := jit.Run(jit.Function(entry))
	if err != nil {
		return err
	}
	if slot := jit.Runtime.LookupProperty(obj, heap.SmallInt(0), false); slot != 0 {
		fmt.Fprintf(ctx.Out, "result: %s\n", jit.Heap.Load(slot))
	}
	return nil
}
