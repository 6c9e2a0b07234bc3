package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"lumen/compiler"
	"lumen/lexer"
	"lumen/token"
	"lumen/vm"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
)

type replCmd struct {
	trace  bool
	disasm bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive lumen session" }
func (*replCmd) Usage() string {
	return `repl [-trace] [-disasm]:
  Start an interactive read-eval-print loop.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.trace, "trace", false, "print the stack and each instruction before it executes")
	f.BoolVar(&cmd.disasm, "disasm", false, "print the disassembly of each compiled function before execution")
}

func (cmd *replCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to lumen!")
	fmt.Println()

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %v\n", err)
		return exitIOError
	}
	defer rl.Close()

	machine := vm.New()
	machine.Trace = cmd.trace

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return exitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return exitIOError
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return exitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		if !isInputReady(source) {
			continue
		}

		fn, errs := compiler.Compile(source, machine)
		if len(errs) > 0 {
			if allErrorsAtEOF(errs) {
				continue
			}
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e)
			}
			buffer.Reset()
			continue
		}

		if cmd.disasm {
			disassembleAll(fn)
		}

		if err := machine.Run(fn); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		buffer.Reset()
	}
}

// isInputReady re-lexes source and waits for more lines while braces
// are unbalanced or the last token is one that can never end a
// statement, so a multi-line `if`/`fun`/`while` body doesn't get
// submitted early.
func isInputReady(source string) bool {
	lex := lexTokens(source)

	braceBalance := 0
	for _, tok := range lex {
		switch tok.TokenType {
		case token.LCUR:
			braceBalance++
		case token.RCUR:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(lex)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN, token.ADD, token.SUB, token.MULT, token.DIV, token.BANG,
		token.EQUAL_EQUAL, token.NOT_EQUAL, token.LESS, token.LESS_EQUAL,
		token.LARGER, token.LARGER_EQUAL, token.COMMA, token.LPA, token.LCUR,
		token.IF, token.ELSE, token.WHILE, token.FOR, token.FUN, token.RETURN,
		token.VAR, token.AND, token.OR, token.PRINT:
		return false
	}
	return true
}

func lexTokens(source string) []token.Token {
	l := lexer.New(source)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.TokenType == token.EOF {
			break
		}
	}
	return tokens
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// allErrorsAtEOF reports whether every compile error was raised at
// the end-of-input token, which usually means the user's statement is
// simply incomplete rather than actually malformed.
func allErrorsAtEOF(errs []error) bool {
	for _, e := range errs {
		ce, ok := e.(compiler.CompileError)
		if !ok || ce.Where != " at end" {
			return false
		}
	}
	return len(errs) > 0
}
