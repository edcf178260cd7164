package main

import (
	"fmt"
	"os"

	"github.com/w4ffl35/curlee/internal/lexer"
	"github.com/w4ffl35/curlee/internal/parser"
	"github.com/w4ffl35/curlee/internal/printer"
	"github.com/w4ffl35/curlee/internal/source"
)

// cmdParse parses FILE alone (no import resolution) and prints the
// resulting AST in canonical form via internal/printer, the most direct way
// to surface a successful parse's shape without inventing a second
// textual AST dump format.
func cmdParse(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: curlee parse FILE")
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
	prog, diags := parser.Parse(toks, args[0])
	if len(diags) > 0 {
		printDiagnostics(args[0], src, diags)
		return 1
	}
	fmt.Print(printer.Print(prog))
	return 0
}
