// Package bytecode owns the three mutually-dependent pieces the
// original C source kept as forward-declared opaque pointers: runtime
// values, heap objects, and the chunk that holds compiled code and a
// constant pool of those values. Folding them into one package avoids
// the import cycle a Go rewrite would otherwise hit (a Function object
// owns a Chunk; a Chunk's constant pool holds Values; a Value can be
// an Obj).
package bytecode

import "fmt"

// ValueType tags the variant held by a Value.
type ValueType int

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is lumen's tagged-union runtime value. It is copyable by bits;
// only the ValObj variant carries a reference into the heap.
type Value struct {
	Type   ValueType
	Bool   bool
	Number float64
	Obj    Obj
}

func Nil() Value                 { return Value{Type: ValNil} }
func Bool_(b bool) Value         { return Value{Type: ValBool, Bool: b} }
func Number(n float64) Value     { return Value{Type: ValNumber, Number: n} }
func ObjVal(o Obj) Value         { return Value{Type: ValObj, Obj: o} }

func (v Value) IsNil() bool    { return v.Type == ValNil }
func (v Value) IsBool() bool   { return v.Type == ValBool }
func (v Value) IsNumber() bool { return v.Type == ValNumber }
func (v Value) IsObj() bool    { return v.Type == ValObj }

func (v Value) IsObjType(t ObjType) bool {
	return v.IsObj() && v.Obj.ObjType() == t
}

func (v Value) AsString() *ObjString {
	return v.Obj.(*ObjString)
}

func (v Value) AsFunction() *ObjFunction {
	return v.Obj.(*ObjFunction)
}

func (v Value) AsClosure() *ObjClosure {
	return v.Obj.(*ObjClosure)
}

func (v Value) AsNative() *ObjNative {
	return v.Obj.(*ObjNative)
}

// IsFalsey pins the design decision from spec note 9(a): nil, false
// and the number 0 are all falsey; everything else is truthy.
func IsFalsey(v Value) bool {
	switch v.Type {
	case ValNil:
		return true
	case ValBool:
		return !v.Bool
	case ValNumber:
		return v.Number == 0
	default:
		return false
	}
}

// ValuesEqual implements same-type-variant equality. Objects compare
// by pointer identity, which coincides with structural equality for
// strings because strings are interned.
func ValuesEqual(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case ValNil:
		return true
	case ValBool:
		return a.Bool == b.Bool
	case ValNumber:
		return a.Number == b.Number
	case ValObj:
		return a.Obj == b.Obj
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ValNumber:
		return formatNumber(v.Number)
	case ValObj:
		return v.Obj.String()
	default:
		return "<invalid value>"
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

// TypeName returns the variant tag used by the `type` native.
func (v Value) TypeName() string {
	switch v.Type {
	case ValNil:
		return "nil"
	case ValBool:
		return "bool"
	case ValNumber:
		return "number"
	case ValObj:
		switch v.Obj.ObjType() {
		case ObjTypeString:
			return "string"
		case ObjTypeFunction:
			return "function"
		case ObjTypeClosure:
			return "function"
		case ObjTypeNative:
			return "native"
		case ObjTypeUpvalue:
			return "upvalue"
		}
	}
	return "unknown"
}
