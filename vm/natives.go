package vm

import (
	"fmt"
	"strings"
	"time"

	"lumen/bytecode"
)

func (vm *VM) defineNative(name string, fn bytecode.NativeFn) {
	str := vm.InternString(name)
	native := &bytecode.ObjNative{Name: name, Fn: fn}
	vm.register(native)
	vm.globals.Set(str, bytecode.ObjVal(native))
}

// defineNatives installs the built-ins the runtime exposes without
// user declaration: clock, type, len, printf, and str.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", nativeClock)
	vm.defineNative("type", vm.nativeType)
	vm.defineNative("len", nativeLen)
	vm.defineNative("printf", vm.nativePrintf)
	vm.defineNative("str", vm.nativeStr)
}

func nativeClock(args []bytecode.Value) (bytecode.Value, error) {
	return bytecode.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

func (vm *VM) nativeType(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 1 {
		return bytecode.Nil(), fmt.Errorf("type() takes exactly 1 argument (%d given).", len(args))
	}
	return bytecode.ObjVal(vm.InternString(args[0].TypeName())), nil
}

func nativeLen(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 1 {
		return bytecode.Nil(), fmt.Errorf("len() takes exactly 1 argument (%d given).", len(args))
	}
	if !args[0].IsObjType(bytecode.ObjTypeString) {
		return bytecode.Nil(), fmt.Errorf("len() argument must be a string.")
	}
	return bytecode.Number(float64(len(args[0].AsString().Chars))), nil
}

// nativePrintf is a method (not a free function) because the argument
// substitution needs the VM's intern table to produce a string Value.
// Every '%' consumes and prints the next argument; every other
// character is copied through literally. The call always ends the
// output with a newline.
func (vm *VM) nativePrintf(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) == 0 || !args[0].IsObjType(bytecode.ObjTypeString) {
		return bytecode.Nil(), fmt.Errorf("printf() requires a format string as its first argument.")
	}
	format := args[0].AsString().Chars
	rest := args[1:]

	var out strings.Builder
	argIdx := 0
	for i := 0; i < len(format); i++ {
		if format[i] == '%' {
			if argIdx < len(rest) {
				out.WriteString(rest[argIdx].String())
				argIdx++
			}
			continue
		}
		out.WriteByte(format[i])
	}
	out.WriteByte('\n')
	fmt.Fprint(vm.writer(), out.String())
	return bytecode.Nil(), nil
}

func (vm *VM) writer() interface{ Write([]byte) (int, error) } {
	if vm.Out != nil {
		return vm.Out
	}
	return stdoutWriter{}
}

type stdoutWriter struct{}

func (stdoutWriter) Write(p []byte) (int, error) {
	return fmt.Print(string(p))
}

// nativeStr stringifies any value, supplementing the natives spec.md
// names with the printing routine original_source's object printer
// used internally but never exposed to scripts.
func (vm *VM) nativeStr(args []bytecode.Value) (bytecode.Value, error) {
	if len(args) != 1 {
		return bytecode.Nil(), fmt.Errorf("str() takes exactly 1 argument (%d given).", len(args))
	}
	return bytecode.ObjVal(vm.InternString(args[0].String())), nil
}
