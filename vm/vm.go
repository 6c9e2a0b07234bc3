// Package vm implements lumen's stack-based bytecode interpreter: a
// fixed-size call-frame stack, a fixed-size value stack, a globals
// table, a string-intern table, and the open-upvalue and heap-object
// intrusive lists the compiler's closures rely on.
package vm

import (
	"fmt"
	"strings"
	"unsafe"

	"lumen/bytecode"
	"lumen/compiler"
)

const (
	maxFrames = 64
	stackMax  = maxFrames * 256
)

// VM is the whole runtime: it satisfies compiler.Heap so the compiler
// can intern strings and allocate function objects into the same
// tables the VM later reads at call time.
type VM struct {
	frames     []frame
	stack      []bytecode.Value
	globals    *bytecode.Table
	strings    *bytecode.Table
	openUpvals *bytecode.ObjUpvalue
	objects    bytecode.Obj

	Trace bool // when true, Interpret disassembles each instruction before executing it
	Out   *strings.Builder
}

// New creates an empty VM with native functions registered.
func New() *VM {
	vm := &VM{
		stack:   make([]bytecode.Value, 0, stackMax),
		globals: bytecode.NewTable(),
		strings: bytecode.NewTable(),
	}
	vm.defineNatives()
	return vm
}

// ---- compiler.Heap ---------------------------------------------------

func (vm *VM) register(o bytecode.Obj) {
	o.SetNext(vm.objects)
	vm.objects = o
}

// InternString returns the canonical ObjString for chars, allocating
// one only the first time chars is seen.
func (vm *VM) InternString(chars string) *bytecode.ObjString {
	hash := bytecode.HashString(chars)
	if s := vm.strings.FindString(chars, hash); s != nil {
		return s
	}
	s := &bytecode.ObjString{Chars: chars, Hash: hash}
	vm.register(s)
	vm.strings.Set(s, bytecode.Nil())
	return s
}

// NewFunction allocates a fresh function object and registers it on
// the heap list.
func (vm *VM) NewFunction() *bytecode.ObjFunction {
	fn := &bytecode.ObjFunction{}
	vm.register(fn)
	return fn
}

var _ compiler.Heap = (*VM)(nil)

// ---- value stack ------------------------------------------------------

func (vm *VM) push(v bytecode.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() bytecode.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvals = nil
}

// Interpret compiles and runs source in one shot, matching clox's
// interpret() entry point.
func (vm *VM) Interpret(source string) error {
	fn, errs := compiler.Compile(source, vm)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return CompileError{Message: strings.Join(msgs, "\n")}
	}
	return vm.Run(fn)
}

// Run executes an already-compiled top-level function. Interpret is
// Compile followed by Run; callers that need the compiled form first
// (to disassemble it, say) can call compiler.Compile and Run directly.
func (vm *VM) Run(fn *bytecode.ObjFunction) error {
	closure := &bytecode.ObjClosure{Function: fn}
	vm.register(closure)
	vm.push(bytecode.ObjVal(closure))
	if err := vm.call(closure, 0); err != nil {
		vm.resetStack()
		return err
	}
	return vm.run()
}

// call pushes a new frame for closure, checking arity and the
// call-depth cap before doing so.
func (vm *VM) call(closure *bytecode.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeErrorf("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if len(vm.frames) >= maxFrames {
		return vm.runtimeErrorf("CallStack overflow.")
	}
	vm.frames = append(vm.frames, frame{
		closure: closure,
		base:    len(vm.stack) - argCount - 1,
	})
	return nil
}

func (vm *VM) callValue(callee bytecode.Value, argCount int) error {
	if callee.IsObj() {
		switch callee.Obj.ObjType() {
		case bytecode.ObjTypeClosure:
			return vm.call(callee.AsClosure(), argCount)
		case bytecode.ObjTypeNative:
			native := callee.AsNative()
			args := vm.stack[len(vm.stack)-argCount:]
			result, err := native.Fn(args)
			if err != nil {
				return vm.runtimeErrorf("%s", err.Error())
			}
			vm.stack = vm.stack[:len(vm.stack)-argCount-1]
			vm.push(result)
			return nil
		}
	}
	return vm.runtimeErrorf("Can only call functions and classes.")
}

// captureUpvalue returns the open upvalue for the stack slot at
// absolute index slot, creating and linking a new one (keeping the
// open list sorted by descending slot index) if none exists yet.
func (vm *VM) captureUpvalue(slot int) *bytecode.ObjUpvalue {
	var prev *bytecode.ObjUpvalue
	cur := vm.openUpvals
	for cur != nil && addressOf(cur.Location, vm.stack) > slot {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && addressOf(cur.Location, vm.stack) == slot {
		return cur
	}

	created := &bytecode.ObjUpvalue{Location: &vm.stack[slot]}
	vm.register(created)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvals = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// addressOf recovers the stack index a captured upvalue points at.
// This relies on vm.stack never reallocating its backing array —
// guaranteed by preallocating it at full capacity (stackMax) up
// front, since Go has no native pointer-subtraction operator.
func addressOf(loc *bytecode.Value, stack []bytecode.Value) int {
	if len(stack) == 0 {
		return -1
	}
	base := uintptr(unsafe.Pointer(&stack[:cap(stack)][0]))
	ptr := uintptr(unsafe.Pointer(loc))
	return int((ptr - base) / unsafe.Sizeof(stack[0]))
}

// closeUpvalues closes every open upvalue pointing at slot lastSlot or
// higher, copying the stack value into the upvalue itself so it
// survives the frame popping.
func (vm *VM) closeUpvalues(lastSlot int) {
	for vm.openUpvals != nil && addressOf(vm.openUpvals.Location, vm.stack) >= lastSlot {
		up := vm.openUpvals
		up.Closed = *up.Location
		up.Location = &up.Closed
		vm.openUpvals = up.NextOpen
	}
}

func (vm *VM) runtimeErrorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	var trace strings.Builder
	fmt.Fprintln(&trace, msg)
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := &vm.frames[i]
		name := "script"
		if f.closure.Function.Name != nil {
			name = f.closure.Function.Name.Chars + "()"
		}
		fmt.Fprintf(&trace, "[line %d] in %s\n", f.line(), name)
	}
	vm.resetStack()
	return RuntimeError{Message: strings.TrimRight(trace.String(), "\n")}
}
