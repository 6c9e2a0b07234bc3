package vm

import "fmt"

// RuntimeError is a failure raised while executing bytecode: a type
// mismatch, an undefined variable, a call arity mismatch, or a call
// stack overflow. Message already carries the "[line N] in <name>"
// stack trace spec.md §7 requires by the time it reaches the caller.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Message)
}

// CompileError wraps the compiler's own diagnostics so callers of
// Interpret can tell a failed compile apart from a failed run without
// inspecting message text.
type CompileError struct {
	Message string
}

func (e CompileError) Error() string {
	return e.Message
}
