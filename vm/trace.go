package vm

import (
	"fmt"
	"os"
)

// traceInstruction prints the current value stack and the instruction
// about to execute, the same "  [ a ][ b ]" + disassembly format
// clox's DEBUG_TRACE_EXECUTION build emits, gated here by vm.Trace
// rather than a compile-time flag.
func (vm *VM) traceInstruction(f *frame) {
	fmt.Fprint(os.Stderr, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(os.Stderr, "[ %s ]", v.String())
	}
	fmt.Fprintln(os.Stderr)
	f.chunk().DisassembleInstruction(os.Stderr, f.ip)
}
