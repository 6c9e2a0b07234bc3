package compiler

import "fmt"

// CompileError is a single compile-time diagnostic, formatted the way
// spec.md §7 requires: "[line N] Error at '<lexeme>': <message>". It
// covers plain syntax mistakes: an expected token that never showed up.
type CompileError struct {
	Line    int
	Where   string
	Message string
}

func (e CompileError) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

// SemanticError is a user-facing mistake that the compiler can still
// recover from by synchronizing at the next statement boundary: the
// token sequence parses fine, but what it says is invalid — a
// redeclared name, a local read in its own initializer, or a declared
// program that overflows the arity, constant-pool, or jump-offset
// limits a chunk can encode. Same diagnostic shape as CompileError, so
// the two print identically and either can be reported mid-synchronize.
type SemanticError struct {
	Line    int
	Where   string
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

// DeveloperError marks a condition that should be unreachable from any
// syntactically valid lumen program — an internal invariant violation
// rather than a user mistake, such as the VM's dispatch loop landing on
// a byte that isn't a known opcode. It is never expected to surface
// outside development of the compiler or VM itself, so it keeps the
// teacher's 🤖-prefixed style instead of the user-facing "[line N]"
// format.
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}
