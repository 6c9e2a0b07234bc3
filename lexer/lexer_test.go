package lexer

import (
	"testing"

	"lumen/token"
)

func collect(src string) []token.Token {
	l := New(src)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.TokenType == token.EOF {
			return toks
		}
	}
}

func TestNextTokenPunctuationAndOperators(t *testing.T) {
	toks := collect("(){};,.-+/* ! != = == < <= > >=")
	want := []token.TokenType{
		token.LPA, token.RPA, token.LCUR, token.RCUR, token.SEMICOLON, token.COMMA,
		token.DOT, token.SUB, token.ADD, token.DIV, token.MULT,
		token.BANG, token.NOT_EQUAL, token.ASSIGN, token.EQUAL_EQUAL,
		token.LESS, token.LESS_EQUAL, token.LARGER, token.LARGER_EQUAL, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, tt := range want {
		if toks[i].TokenType != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].TokenType, tt)
		}
	}
}

func TestNextTokenKeywordsAndIdentifiers(t *testing.T) {
	toks := collect("var fun while foobar")
	want := []token.TokenType{token.VAR, token.FUN, token.WHILE, token.IDENTIFIER, token.EOF}
	for i, tt := range want {
		if toks[i].TokenType != tt {
			t.Errorf("token %d: got %v, want %v", i, toks[i].TokenType, tt)
		}
	}
}

func TestNextTokenNumber(t *testing.T) {
	toks := collect("123 1.5")
	if toks[0].TokenType != token.NUMBER || toks[0].Lexeme != "123" {
		t.Errorf("got %v", toks[0])
	}
	if toks[1].TokenType != token.NUMBER || toks[1].Lexeme != "1.5" {
		t.Errorf("got %v", toks[1])
	}
}

func TestNextTokenString(t *testing.T) {
	toks := collect(`"hello world"`)
	if toks[0].TokenType != token.STRING {
		t.Fatalf("got %v", toks[0])
	}
	if toks[0].Lexeme != `"hello world"` {
		t.Errorf("lexeme = %q", toks[0].Lexeme)
	}
}

func TestNextTokenUnterminatedString(t *testing.T) {
	toks := collect(`"hello`)
	if toks[0].TokenType != token.ERROR {
		t.Fatalf("got %v, want ERROR", toks[0])
	}
}

func TestNextTokenLineCountingAcrossStrings(t *testing.T) {
	toks := collect("\"a\nb\"\nfoo")
	if toks[0].TokenType != token.STRING {
		t.Fatalf("got %v", toks[0])
	}
	if toks[1].Line != 3 {
		t.Errorf("identifier line = %d, want 3", toks[1].Line)
	}
}

func TestNextTokenSkipsLineComments(t *testing.T) {
	toks := collect("1 // a comment\n2")
	if toks[0].TokenType != token.NUMBER || toks[0].Lexeme != "1" {
		t.Errorf("got %v", toks[0])
	}
	if toks[1].TokenType != token.NUMBER || toks[1].Lexeme != "2" {
		t.Errorf("got %v", toks[1])
	}
}
