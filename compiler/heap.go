package compiler

import "lumen/bytecode"

// Heap is the allocator the compiler borrows from its caller (the VM)
// so that compile-time objects — interned string constants, the
// function objects produced by nested `fun` compilation — land in the
// same intern table and the same intrusive heap-object list the VM
// uses at runtime. Implemented by *vm.VM; declared here (rather than
// imported from package vm) because vm already imports compiler.
type Heap interface {
	// InternString returns the canonical *bytecode.ObjString for
	// chars, allocating and registering a new one only if no equal
	// string has been interned yet.
	InternString(chars string) *bytecode.ObjString

	// NewFunction allocates and registers a fresh, empty function
	// object for the compiler to populate.
	NewFunction() *bytecode.ObjFunction
}
