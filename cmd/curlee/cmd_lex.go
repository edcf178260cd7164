package main

import (
	"fmt"
	"os"

	"github.com/w4ffl35/curlee/internal/lexer"
	"github.com/w4ffl35/curlee/internal/source"
)

// cmdLex tokenizes FILE and prints one line per token: `KIND "lexeme"
// start:end`, with the lexeme Go-quoted. A lex error is reported like any
// other diagnostic.
func cmdLex(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: curlee lex FILE")
		return 2
	}
	src, ok := readSource(args[0])
	if !ok {
		return 2
	}

	toks, diag := lexer.Lex(src)
	if diag != nil {
		printDiagnostics(args[0], src, []source.Diagnostic{*diag})
		return 1
	}
	for _, t := range toks {
		fmt.Printf("%s %q %d:%d\n", t.Kind, t.Lexeme, t.Span.Start, t.Span.End)
	}
	return 0
}
