package lexer

import (
	"testing"

	"github.com/w4ffl35/curlee/internal/token"
)

func TestLexSimpleFunction(t *testing.T) {
	src := `fn main() -> Int { let x: Int = 1; return x + 2; }`
	toks, diag := Lex(src)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		t.Fatalf("expected EOF terminator, got %+v", toks)
	}
	for _, tok := range toks {
		if tok.Kind == token.EOF {
			continue
		}
		if got := tok.Span.Slice(src); got != tok.Lexeme {
			t.Errorf("lexeme invariant broken: span slice %q != lexeme %q", got, tok.Lexeme)
		}
	}
}

func TestLexIdentifier(t *testing.T) {
	toks, diag := Lex("abc")
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if len(toks) != 2 {
		t.Fatalf("expected ident + eof, got %d tokens", len(toks))
	}
	if toks[0].Kind != token.IDENT || toks[0].Lexeme != "abc" {
		t.Fatalf("expected identifier 'abc', got %+v", toks[0])
	}
}

func TestLexTwoCharOperatorsWinOverOneChar(t *testing.T) {
	toks, diag := Lex("a == b != c <= d >= e && f || g -> h::i")
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []token.Kind{
		token.IDENT, token.EQ, token.IDENT, token.NEQ, token.IDENT, token.LE,
		token.IDENT, token.GE, token.IDENT, token.AND, token.IDENT, token.OR,
		token.IDENT, token.ARROW, token.IDENT, token.COLONCOLON, token.IDENT, token.EOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("token count mismatch: got %v", kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %s want %s", i, kinds[i], want[i])
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, diag := Lex(`"a\nb\"c"`)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %v", diag)
	}
	if toks[0].Decoded != "a\nb\"c" {
		t.Fatalf("decoded mismatch: %q", toks[0].Decoded)
	}
	if toks[0].Lexeme != `"a\nb\"c"` {
		t.Fatalf("lexeme mismatch: %q", toks[0].Lexeme)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, diag := Lex(`"abc`)
	if diag == nil {
		t.Fatal("expected diagnostic for unterminated string")
	}
	if diag.Message != "unterminated string literal" {
		t.Fatalf("unexpected message: %s", diag.Message)
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	_, diag := Lex("/* never closed")
	if diag == nil {
		t.Fatal("expected diagnostic")
	}
}

func TestLexRawNewlineInStringIsError(t *testing.T) {
	_, diag := Lex("\"abc\ndef\"")
	if diag == nil {
		t.Fatal("expected diagnostic for embedded raw newline")
	}
}
