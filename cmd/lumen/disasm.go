package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"lumen/bytecode"
	"lumen/compiler"
	"lumen/vm"

	"github.com/google/subcommands"
)

type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "compile a source file and print its bytecode" }
func (*disasmCmd) Usage() string {
	return `disasm <path>:
  Compile a lumen source file and print the disassembly of every
  function reached through its constant pool, without running it.
`
}

func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 usage: lumen disasm <path>")
		return exitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read %s: %v\n", args[0], err)
		return exitIOError
	}

	machine := vm.New()
	fn, errs := compiler.Compile(string(data), machine)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return exitCompileError
	}

	disassembleAll(fn)
	return exitSuccess
}

// disassembleAll walks fn's constant pool and disassembles it and
// every nested function reached transitively through it, so -disasm
// and the disasm subcommand show the whole program, not just main.
func disassembleAll(fn *bytecode.ObjFunction) {
	seen := map[*bytecode.ObjFunction]bool{}
	var walk func(f *bytecode.ObjFunction)
	walk = func(f *bytecode.ObjFunction) {
		if seen[f] {
			return
		}
		seen[f] = true
		name := f.String()
		f.Chunk.Disassemble(os.Stdout, name)
		for _, c := range f.Chunk.Constants {
			if c.IsObjType(bytecode.ObjTypeFunction) {
				walk(c.AsFunction())
			}
		}
	}
	walk(fn)
}
