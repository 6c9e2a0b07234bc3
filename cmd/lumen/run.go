package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"lumen/compiler"
	"lumen/vm"

	"github.com/google/subcommands"
)

const (
	exitSuccess      = 0
	exitCompileError = 65
	exitRuntimeError = 70
	exitIOError      = 74
	exitUsageError   = 64
)

type runCmd struct {
	trace  bool
	disasm bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "execute a lumen source file" }
func (*runCmd) Usage() string {
	return `run [-trace] [-disasm] <path>:
  Compile and execute a lumen source file.
`
}

func (cmd *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.trace, "trace", false, "print the stack and each instruction before it executes")
	f.BoolVar(&cmd.disasm, "disasm", false, "print the disassembly of every compiled function before running")
}

func (cmd *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 usage: lumen run [-trace] [-disasm] <path>")
		return exitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read %s: %v\n", args[0], err)
		return exitIOError
	}

	machine := vm.New()
	machine.Trace = cmd.trace

	fn, errs := compiler.Compile(string(data), machine)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return exitCompileError
	}

	if cmd.disasm {
		disassembleAll(fn)
	}

	if err := machine.Run(fn); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitRuntimeError
	}
	return exitSuccess
}
