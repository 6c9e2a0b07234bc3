// Package compiler implements lumen's single-pass compiler: a
// Pratt-style precedence parser that walks the token stream exactly
// once and emits bytecode directly into bytecode.Chunks, resolving
// lexical scope (locals, upvalues, globals) as it goes. There is no
// intermediate AST — a deliberate break from the teacher, whose
// compiler/ast_compiler.go instead walked a tree the parser/ package
// had already built. See DESIGN.md.
package compiler

import (
	"fmt"

	"lumen/bytecode"
	"lumen/lexer"
	"lumen/token"
)

// Precedence levels, lowest to highest. Each infix parse rule is
// invoked only while the next token's precedence is >= the level
// parsePrecedence was entered at.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// fnType distinguishes the implicit top-level script from a `fun`
// body, since only the latter can `return` a value and neither can
// ever fall off the end without an implicit `nil; return`.
type fnType int

const (
	typeScript fnType = iota
	typeFunction
)

type local struct {
	name       token.Token
	depth      int // -1 means "declared but not yet initialized"
	isCaptured bool
}

type upvalueDesc struct {
	index   int
	isLocal bool
}

// funcState is one nested compiler activation, one per function
// currently being compiled — the teacher's ast_compiler.Local stack
// generalized to a proper enclosing chain so nested `fun` declarations
// get their own locals/upvalues instead of sharing the outer scope's.
type funcState struct {
	enclosing *funcState

	function *bytecode.ObjFunction
	fnType   fnType

	locals     []local
	scopeDepth int
	upvalues   []upvalueDesc
}

const maxLocals = 256
const maxArity = 8
const maxCallArgs = 255

// Compiler is the whole single-pass driver: scanner cursor, current
// function-compile state, and panic-mode error bookkeeping, mirroring
// clox's separate (but globally shared) Parser + Compiler.
type Compiler struct {
	lex *lexer.Lexer

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errors    []error

	heap Heap
	fn   *funcState

	rules map[token.TokenType]parseRule
}

// Compile compiles source into a top-level script function, or
// returns the accumulated compile errors if any were reported.
func Compile(source string, heap Heap) (*bytecode.ObjFunction, []error) {
	c := &Compiler{lex: lexer.New(source), heap: heap}
	c.initRules()
	c.pushFuncState(typeScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression.")

	fn := c.endFuncState()
	if c.hadError {
		return nil, c.errors
	}
	return fn, nil
}

func (c *Compiler) pushFuncState(t fnType, name string) {
	fs := &funcState{
		enclosing: c.fn,
		fnType:    t,
		function:  c.heap.NewFunction(),
	}
	if name != "" {
		fs.function.Name = c.heap.InternString(name)
	}
	// Slot 0 is reserved for the callee itself (the closure being
	// called) so local-variable slots for parameters start at 1.
	fs.locals = append(fs.locals, local{name: token.Token{Lexeme: ""}, depth: 0})
	c.fn = fs
}

func (c *Compiler) endFuncState() *bytecode.ObjFunction {
	c.emitReturn()
	fn := c.fn.function
	fn.UpvalueCount = len(c.fn.upvalues)
	c.fn = c.fn.enclosing
	return fn
}

func (c *Compiler) currentChunk() *bytecode.Chunk {
	return &c.fn.function.Chunk
}

// ---- token stream -------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.TokenType != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t token.TokenType) bool {
	return c.current.TokenType == t
}

func (c *Compiler) match(t token.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.TokenType, message string) {
	if c.current.TokenType == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) errorHere(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok token.Token, message string) {
	c.reportError(func(line int, where string) error {
		return CompileError{Line: line, Where: where, Message: message}
	}, tok)
}

// errorSemanticAtCurrent reports a SemanticError at the current token:
// a program whose tokens parse fine but whose meaning is invalid (a
// redeclared name, an arity/constant/jump limit exceeded).
func (c *Compiler) errorSemanticAtCurrent(message string) {
	c.errorSemanticAt(c.current, message)
}

// errorSemanticHere reports a SemanticError at the previous token.
func (c *Compiler) errorSemanticHere(message string) {
	c.errorSemanticAt(c.previous, message)
}

func (c *Compiler) errorSemanticAt(tok token.Token, message string) {
	c.reportError(func(line int, where string) error {
		return SemanticError{Line: line, Where: where, Message: message}
	}, tok)
}

// reportError enters panic mode and records the diagnostic build
// constructs from tok's line and "at '<lexeme>'"/"at end" clause,
// swallowing any further report until synchronize() runs.
func (c *Compiler) reportError(build func(line int, where string) error, tok token.Token) {
	if c.panicMode {
		return
	}
	c.panicMode = true

	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.TokenType == token.EOF {
		where = " at end"
	} else if tok.TokenType == token.ERROR {
		where = ""
	}

	c.errors = append(c.errors, build(tok.Line, where))
	c.hadError = true
}

// synchronize exits panic mode at the next plausible statement
// boundary, so a single mistake doesn't cascade into a wall of
// spurious follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.TokenType != token.EOF {
		if c.previous.TokenType == token.SEMICOLON {
			return
		}
		switch c.current.TokenType {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// ---- emission helpers ----------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op bytecode.OpCode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitBytes(op bytecode.OpCode, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	c.emitOp(bytecode.OpNil)
	c.emitOp(bytecode.OpReturn)
}

// emitConstantOp picks the short or long encoding of op/opLong
// depending on whether idx fits in a single byte, per spec.md §4.2's
// short/long symmetry rule.
func (c *Compiler) emitConstantOp(op, opLong bytecode.OpCode, idx int) {
	if idx > bytecode.MaxConstants {
		c.errorSemanticHere("Too many constants in one chunk.")
		return
	}
	if idx <= 0xFF {
		c.emitBytes(op, byte(idx))
		return
	}
	c.emitOp(opLong)
	c.currentChunk().WriteUint24(idx, c.previous.Line)
}

func (c *Compiler) emitConstant(v bytecode.Value) {
	idx := c.currentChunk().AddConstant(v)
	c.emitConstantOp(bytecode.OpConstant, bytecode.OpConstantLong, idx)
}

// emitJump writes a jump opcode with a 2-byte placeholder operand and
// returns the offset of the first placeholder byte, for later
// patchJump.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xFFFF {
		c.errorSemanticHere("Too much code to jump over.")
		return
	}
	code := c.currentChunk().Code
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xFFFF {
		c.errorSemanticHere("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// ---- Pratt expression parsing ---------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	rule := c.getRule(c.previous.TokenType)
	if rule.prefix == nil {
		c.errorHere("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	rule.prefix(c, canAssign)

	for prec <= c.getRule(c.current.TokenType).precedence {
		c.advance()
		infix := c.getRule(c.previous.TokenType).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.errorHere("Invalid assignment target.")
	}
}

func (c *Compiler) getRule(t token.TokenType) parseRule {
	if r, ok := c.rules[t]; ok {
		return r
	}
	return parseRule{}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RPA, "Expect ')' after expression.")
}

func number(c *Compiler, _ bool) {
	var n float64
	fmt.Sscanf(c.previous.Lexeme, "%g", &n)
	c.emitConstant(bytecode.Number(n))
}

func stringLiteral(c *Compiler, _ bool) {
	raw := c.previous.Lexeme
	chars := raw[1 : len(raw)-1] // strip surrounding quotes
	str := c.heap.InternString(chars)
	c.emitConstant(bytecode.ObjVal(str))
}

func literal(c *Compiler, _ bool) {
	switch c.previous.TokenType {
	case token.FALSE:
		c.emitOp(bytecode.OpFalse)
	case token.TRUE:
		c.emitOp(bytecode.OpTrue)
	case token.NULL:
		c.emitOp(bytecode.OpNil)
	}
}

func unary(c *Compiler, _ bool) {
	opType := c.previous.TokenType
	c.parsePrecedence(PrecUnary)
	switch opType {
	case token.SUB:
		c.emitOp(bytecode.OpNegate)
	case token.BANG:
		c.emitOp(bytecode.OpNot)
	}
}

func binary(c *Compiler, _ bool) {
	opType := c.previous.TokenType
	rule := c.getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.ADD:
		c.emitOp(bytecode.OpAdd)
	case token.SUB:
		c.emitOp(bytecode.OpSubtract)
	case token.MULT:
		c.emitOp(bytecode.OpMultiply)
	case token.DIV:
		c.emitOp(bytecode.OpDivide)
	case token.EQUAL_EQUAL:
		c.emitOp(bytecode.OpEqual)
	case token.NOT_EQUAL:
		c.emitOp(bytecode.OpEqual)
		c.emitOp(bytecode.OpNot)
	case token.LARGER:
		c.emitOp(bytecode.OpGreater)
	case token.LARGER_EQUAL:
		c.emitOp(bytecode.OpLess)
		c.emitOp(bytecode.OpNot)
	case token.LESS:
		c.emitOp(bytecode.OpLess)
	case token.LESS_EQUAL:
		c.emitOp(bytecode.OpGreater)
		c.emitOp(bytecode.OpNot)
	}
}

func and_(c *Compiler, _ bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func call(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitBytes(bytecode.OpCall, byte(argCount))
}

func (c *Compiler) argumentList() int {
	argCount := 0
	if !c.check(token.RPA) {
		for {
			c.expression()
			if argCount == maxCallArgs {
				c.errorSemanticHere("Can't have more than 255 arguments.")
			}
			argCount++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPA, "Expect ')' after arguments.")
	return argCount
}

func (c *Compiler) initRules() {
	c.rules = map[token.TokenType]parseRule{
		token.LPA:          {grouping, call, PrecCall},
		token.SUB:          {unary, binary, PrecTerm},
		token.ADD:          {nil, binary, PrecTerm},
		token.DIV:          {nil, binary, PrecFactor},
		token.MULT:         {nil, binary, PrecFactor},
		token.BANG:         {unary, nil, PrecNone},
		token.NOT_EQUAL:    {nil, binary, PrecEquality},
		token.EQUAL_EQUAL:  {nil, binary, PrecEquality},
		token.LARGER:       {nil, binary, PrecComparison},
		token.LARGER_EQUAL: {nil, binary, PrecComparison},
		token.LESS:         {nil, binary, PrecComparison},
		token.LESS_EQUAL:   {nil, binary, PrecComparison},
		token.IDENTIFIER:   {variable, nil, PrecNone},
		token.STRING:       {stringLiteral, nil, PrecNone},
		token.NUMBER:       {number, nil, PrecNone},
		token.AND:          {nil, and_, PrecAnd},
		token.OR:           {nil, or_, PrecOr},
		token.FALSE:        {literal, nil, PrecNone},
		token.TRUE:         {literal, nil, PrecNone},
		token.NULL:         {literal, nil, PrecNone},
	}
}
