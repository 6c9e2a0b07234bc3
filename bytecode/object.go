package bytecode

import "fmt"

// ObjType discriminates the heap-object variants.
type ObjType int

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeClosure
	ObjTypeNative
	ObjTypeUpvalue
)

// Obj is the interface every heap object implements. Next/SetNext
// thread the object into the VM's process-wide intrusive list, rooted
// at the VM — the allocation-tracking discipline spec.md §3 requires.
// Nothing walks the list to free objects; Go's own garbage collector
// reclaims them (see DESIGN.md).
type Obj interface {
	ObjType() ObjType
	Next() Obj
	SetNext(Obj)
	String() string
}

// header is embedded by every concrete Obj to supply the intrusive
// next-link without repeating it on each type.
type header struct {
	next Obj
}

func (h *header) Next() Obj     { return h.next }
func (h *header) SetNext(o Obj) { h.next = o }

// ObjString is an immutable, interned byte sequence with a
// precomputed FNV-1a hash used both by the intern table and by the
// globals table.
type ObjString struct {
	header
	Chars string
	Hash  uint32
}

func (s *ObjString) ObjType() ObjType { return ObjTypeString }
func (s *ObjString) String() string   { return s.Chars }

// HashString computes the FNV-1a 32-bit hash spec.md §3 requires for
// string objects.
func HashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// ObjFunction is a compiled function: its arity, upvalue count, an
// optional name (nil for the top-level script), and its own chunk of
// bytecode.
type ObjFunction struct {
	header
	Arity        int
	UpvalueCount int
	Name         *ObjString
	Chunk        Chunk
}

func (f *ObjFunction) ObjType() ObjType { return ObjTypeFunction }
func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// ObjUpvalue is either open (Location points at a live stack slot) or
// closed (Location points at Closed, which owns the value).
type ObjUpvalue struct {
	header
	Location    *Value
	Closed      Value
	NextOpen    *ObjUpvalue // open-upvalue list link, sorted by descending stack address
}

func (u *ObjUpvalue) ObjType() ObjType { return ObjTypeUpvalue }
func (u *ObjUpvalue) String() string   { return "upvalue" }

// ObjClosure pairs a function with the upvalues it captured at
// creation time; len(Upvalues) always equals Function.UpvalueCount.
type ObjClosure struct {
	header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) ObjType() ObjType { return ObjTypeClosure }
func (c *ObjClosure) String() string   { return c.Function.String() }

// NativeFn is the signature of a built-in function: it receives its
// arguments and returns a value or a runtime error message.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a native Go function so it can be stored as a Value
// and invoked through the same CALL opcode as a closure.
type ObjNative struct {
	header
	Name string
	Fn   NativeFn
}

func (n *ObjNative) ObjType() ObjType { return ObjTypeNative }
func (n *ObjNative) String() string   { return fmt.Sprintf("<native %s>", n.Name) }
