package token

import "testing"

func TestTokenTypeString(t *testing.T) {
	tests := []struct {
		tokenType TokenType
		want      string
	}{
		{ASSIGN, "="},
		{IDENTIFIER, "IDENTIFIER"},
		{NUMBER, "NUMBER"},
		{MULT, "*"},
		{WHILE, "while"},
	}

	for _, tt := range tests {
		if got := tt.tokenType.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.tokenType, got, tt.want)
		}
	}
}

func TestKeyWordsLookup(t *testing.T) {
	tests := []struct {
		lexeme string
		want   TokenType
		ok     bool
	}{
		{"and", AND, true},
		{"fun", FUN, true},
		{"nil", NULL, true},
		{"class", CLASS, true},
		{"foo", 0, false},
	}

	for _, tt := range tests {
		got, ok := KeyWords[tt.lexeme]
		if ok != tt.ok {
			t.Fatalf("KeyWords[%q] ok = %v, want %v", tt.lexeme, ok, tt.ok)
		}
		if ok && got != tt.want {
			t.Errorf("KeyWords[%q] = %v, want %v", tt.lexeme, got, tt.want)
		}
	}
}
