package main

import (
	"fmt"
	"os"

	"github.com/w4ffl35/curlee/internal/lexer"
	"github.com/w4ffl35/curlee/internal/parser"
	"github.com/w4ffl35/curlee/internal/printer"
	"github.com/w4ffl35/curlee/internal/source"
)

// cmdFmt implements `fmt --check FILE | fmt --write FILE` (spec §6). It
// parses FILE on its own (no import resolution — formatting is a purely
// syntactic, single-file operation) and prints or rewrites its canonical
// form.
func cmdFmt(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: curlee fmt --check FILE | fmt --write FILE")
		return 2
	}
	mode, file := args[0], args[1]
	if mode != "--check" && mode != "--write" {
		fmt.Fprintf(os.Stderr, "usage error: unrecognized flag '%s'\n", mode)
		return 2
	}

	src, ok := readSource(file)
	if !ok {
		return 2
	}

	toks, diag := lexer.Lex(src)
	if diag != nil {
		printDiagnostics(file, src, []source.Diagnostic{*diag})
		return 1
	}
	prog, diags := parser.Parse(toks, file)
	if len(diags) > 0 {
		printDiagnostics(file, src, diags)
		return 1
	}

	formatted := printer.Print(prog)

	if mode == "--check" {
		if formatted == src {
			return 0
		}
		fmt.Fprintf(os.Stderr, "%s is not canonically formatted\n", file)
		return 1
	}

	if err := os.WriteFile(file, []byte(formatted), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "usage error: %s\n", err)
		return 2
	}
	return 0
}
