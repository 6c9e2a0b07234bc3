package vm

import (
	"fmt"

	"lumen/bytecode"
	"lumen/compiler"
)

// run executes instructions from the current (topmost) frame until a
// top-level OpReturn unwinds the last frame, matching clox's run()
// dispatch loop.
func (vm *VM) run() error {
	for {
		f := &vm.frames[len(vm.frames)-1]

		if vm.Trace {
			vm.traceInstruction(f)
		}

		op := bytecode.OpCode(f.readByte())
		switch op {
		case bytecode.OpConstant:
			vm.push(f.readConstant(false))
		case bytecode.OpConstantLong:
			vm.push(f.readConstant(true))
		case bytecode.OpNil:
			vm.push(bytecode.Nil())
		case bytecode.OpTrue:
			vm.push(bytecode.Bool_(true))
		case bytecode.OpFalse:
			vm.push(bytecode.Bool_(false))
		case bytecode.OpPop:
			vm.pop()
		case bytecode.OpPopN:
			n := int(f.readByte())
			vm.stack = vm.stack[:len(vm.stack)-n]

		case bytecode.OpGetLocal:
			slot := int(f.readByte())
			vm.push(vm.stack[f.base+slot])
		case bytecode.OpSetLocal:
			slot := int(f.readByte())
			vm.stack[f.base+slot] = vm.peek(0)

		case bytecode.OpGetGlobal, bytecode.OpGetGlobalLong:
			name := f.readConstant(op == bytecode.OpGetGlobalLong).AsString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeErrorf("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case bytecode.OpSetGlobal, bytecode.OpSetGlobalLong:
			name := f.readConstant(op == bytecode.OpSetGlobalLong).AsString()
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeErrorf("Undefined variable '%s'.", name.Chars)
			}
		case bytecode.OpDefineGlobal, bytecode.OpDefineGlobalLong:
			name := f.readConstant(op == bytecode.OpDefineGlobalLong).AsString()
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case bytecode.OpGetUpvalue:
			slot := int(f.readByte())
			vm.push(*f.closure.Upvalues[slot].Location)
		case bytecode.OpSetUpvalue:
			slot := int(f.readByte())
			*f.closure.Upvalues[slot].Location = vm.peek(0)

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(bytecode.Bool_(bytecode.ValuesEqual(a, b)))
		case bytecode.OpGreater:
			if err := vm.binaryCompare(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.binaryCompare(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.binaryArith(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.binaryArith(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.binaryArith(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}

		case bytecode.OpNot:
			vm.push(bytecode.Bool_(bytecode.IsFalsey(vm.pop())))
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeErrorf("Operand must be a number.")
			}
			v := vm.pop()
			vm.push(bytecode.Number(-v.Number))

		case bytecode.OpPrint:
			v := vm.pop()
			if vm.Out != nil {
				fmt.Fprintln(vm.Out, v.String())
			} else {
				fmt.Println(v.String())
			}

		case bytecode.OpJump:
			offset := f.readUint16()
			f.ip += offset
		case bytecode.OpJumpIfFalse:
			offset := f.readUint16()
			if bytecode.IsFalsey(vm.peek(0)) {
				f.ip += offset
			}
		case bytecode.OpLoop:
			offset := f.readUint16()
			f.ip -= offset

		case bytecode.OpCall:
			argCount := int(f.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}

		case bytecode.OpClosure:
			fn := f.readConstant(false).AsFunction()
			closure := &bytecode.ObjClosure{Function: fn, Upvalues: make([]*bytecode.ObjUpvalue, fn.UpvalueCount)}
			vm.register(closure)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := f.readByte() != 0
				index := int(f.readByte())
				if isLocal {
					closure.Upvalues[i] = vm.captureUpvalue(f.base + index)
				} else {
					closure.Upvalues[i] = f.closure.Upvalues[index]
				}
			}
			vm.push(bytecode.ObjVal(closure))

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(f.base)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.stack = vm.stack[:f.base]
			vm.push(result)

		default:
			// A valid compile never emits a byte the dispatch loop
			// doesn't recognize; reaching here is a compiler/VM bug,
			// not a user mistake, so it's reported as a
			// DeveloperError rather than a RuntimeError.
			vm.resetStack()
			return compiler.DeveloperError{Message: fmt.Sprintf("unknown opcode %v", op)}
		}
	}
}

func (vm *VM) binaryArith(fn func(a, b float64) float64) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeErrorf("Operands must be numbers.")
	}
	b := vm.pop()
	a := vm.pop()
	vm.push(bytecode.Number(fn(a.Number, b.Number)))
	return nil
}

func (vm *VM) binaryCompare(fn func(a, b float64) bool) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeErrorf("Operands must be numbers.")
	}
	b := vm.pop()
	a := vm.pop()
	vm.push(bytecode.Bool_(fn(a.Number, b.Number)))
	return nil
}

// add overloads OpAdd across numbers and strings: two numbers are
// summed, two strings are concatenated, and any other pairing is a
// runtime error.
func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)

	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(bytecode.Number(a.Number + b.Number))
	case a.IsObjType(bytecode.ObjTypeString) && b.IsObjType(bytecode.ObjTypeString):
		vm.pop()
		vm.pop()
		concat := a.AsString().Chars + b.AsString().Chars
		vm.push(bytecode.ObjVal(vm.InternString(concat)))
	default:
		return vm.runtimeErrorf("Operands must be two numbers or two strings.")
	}
	return nil
}
