package compiler

import (
	"strings"
	"testing"

	"lumen/bytecode"
)

// fakeHeap lets compiler tests run without a real VM, mirroring how
// the teacher's tests stood up minimal fakes rather than a whole
// interpreter.
type fakeHeap struct {
	strings map[string]*bytecode.ObjString
}

func newFakeHeap() *fakeHeap {
	return &fakeHeap{strings: map[string]*bytecode.ObjString{}}
}

func (h *fakeHeap) InternString(chars string) *bytecode.ObjString {
	if s, ok := h.strings[chars]; ok {
		return s
	}
	s := &bytecode.ObjString{Chars: chars, Hash: bytecode.HashString(chars)}
	h.strings[chars] = s
	return s
}

func (h *fakeHeap) NewFunction() *bytecode.ObjFunction {
	return &bytecode.ObjFunction{}
}

func compileOK(t *testing.T, source string) *bytecode.ObjFunction {
	t.Helper()
	fn, errs := Compile(source, newFakeHeap())
	if len(errs) > 0 {
		t.Fatalf("Compile(%q) returned errors: %v", source, errs)
	}
	return fn
}

func TestCompileSimpleExpressionStatement(t *testing.T) {
	fn := compileOK(t, `1 + 2;`)
	ops := opcodes(fn.Chunk.Code)
	want := []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpConstant, bytecode.OpAdd, bytecode.OpPop,
		bytecode.OpNil, bytecode.OpReturn,
	}
	assertOps(t, ops, want)
}

func TestCompileVarDeclarationEmitsDefineGlobal(t *testing.T) {
	fn := compileOK(t, `var x = 1;`)
	ops := opcodes(fn.Chunk.Code)
	want := []bytecode.OpCode{
		bytecode.OpConstant, bytecode.OpDefineGlobal,
		bytecode.OpNil, bytecode.OpReturn,
	}
	assertOps(t, ops, want)
}

func TestCompileLocalDoesNotEmitGlobalOps(t *testing.T) {
	fn := compileOK(t, `{ var x = 1; print x; }`)
	ops := opcodes(fn.Chunk.Code)
	for _, op := range ops {
		if op == bytecode.OpDefineGlobal || op == bytecode.OpGetGlobal {
			t.Errorf("local declaration should not touch globals, got ops %v", ops)
		}
	}
}

func TestCompileReportsErrorForMissingOperand(t *testing.T) {
	_, errs := Compile(`1 + ;`, newFakeHeap())
	if len(errs) == 0 {
		t.Fatal("expected a compile error for a missing operand")
	}
}

func TestCompileReturnAtTopLevelIsAnError(t *testing.T) {
	_, errs := Compile(`return 1;`, newFakeHeap())
	if len(errs) == 0 {
		t.Fatal("expected an error for a top-level return")
	}
	if !strings.Contains(errs[0].Error(), "return") {
		t.Errorf("error = %v, want it to mention return", errs[0])
	}
}

func TestCompileRedeclarationIsSemanticError(t *testing.T) {
	_, errs := Compile(`{ var x = 1; var x = 2; }`, newFakeHeap())
	if len(errs) == 0 {
		t.Fatal("expected an error for redeclaring a local")
	}
	if _, ok := errs[0].(SemanticError); !ok {
		t.Errorf("error = %#v, want a SemanticError", errs[0])
	}
}

func TestCompileUninitializedLocalReadIsSemanticError(t *testing.T) {
	_, errs := Compile(`{ var x = x; }`, newFakeHeap())
	if len(errs) == 0 {
		t.Fatal("expected an error for reading a local in its own initializer")
	}
	if _, ok := errs[0].(SemanticError); !ok {
		t.Errorf("error = %#v, want a SemanticError", errs[0])
	}
}

func TestCompileMissingOperandIsPlainCompileError(t *testing.T) {
	_, errs := Compile(`1 + ;`, newFakeHeap())
	if len(errs) == 0 {
		t.Fatal("expected an error for a missing operand")
	}
	if _, ok := errs[0].(CompileError); !ok {
		t.Errorf("error = %#v, want a CompileError", errs[0])
	}
}

func TestCompileTooManyParametersIsAnError(t *testing.T) {
	_, errs := Compile(`fun f(a, b, c, d, e, f, g, h, i) { return a; }`, newFakeHeap())
	if len(errs) == 0 {
		t.Fatal("expected an error for a 9-parameter function")
	}
}

func TestCompileFunctionBodyProducesClosureOpcode(t *testing.T) {
	fn := compileOK(t, `fun f() { return 1; } f();`)
	ops := opcodes(fn.Chunk.Code)
	found := false
	for _, op := range ops {
		if op == bytecode.OpClosure {
			found = true
		}
	}
	if !found {
		t.Errorf("expected OpClosure among %v", ops)
	}
}

func opcodes(code []byte) []bytecode.OpCode {
	var ops []bytecode.OpCode
	i := 0
	for i < len(code) {
		op := bytecode.OpCode(code[i])
		ops = append(ops, op)
		i += operandWidth(op)
	}
	return ops
}

// operandWidth is a test-only mirror of the debug disassembler's
// per-opcode widths, just enough to walk past operands without
// decoding them.
func operandWidth(op bytecode.OpCode) int {
	switch op {
	case bytecode.OpConstant, bytecode.OpGetGlobal, bytecode.OpSetGlobal, bytecode.OpDefineGlobal,
		bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpGetUpvalue, bytecode.OpSetUpvalue,
		bytecode.OpCall, bytecode.OpPopN, bytecode.OpClosure:
		return 2
	case bytecode.OpConstantLong, bytecode.OpGetGlobalLong, bytecode.OpSetGlobalLong, bytecode.OpDefineGlobalLong:
		return 4
	case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpLoop:
		return 3
	default:
		return 1
	}
}

func assertOps(t *testing.T, got, want []bytecode.OpCode) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v ops, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("op %d: got %s, want %s", i, got[i], want[i])
		}
	}
}
