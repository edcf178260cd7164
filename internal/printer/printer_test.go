package printer

import (
	"strings"
	"testing"

	"github.com/w4ffl35/curlee/internal/lexer"
	"github.com/w4ffl35/curlee/internal/parser"
)

func mustParse(t *testing.T, src string) string {
	t.Helper()
	toks, diag := lexer.Lex(src)
	if diag != nil {
		t.Fatalf("lex error: %v", diag)
	}
	prog, diags := parser.Parse(toks, "test.curlee")
	if len(diags) > 0 {
		t.Fatalf("parse errors: %v", diags)
	}
	return Print(prog)
}

func TestPrintSimpleFunction(t *testing.T) {
	out := mustParse(t, `fn main() -> int { return 1; }`)
	want := "fn main() -> int {\n    return 1;\n}\n"
	if out != want {
		t.Fatalf("got:\n%q\nwant:\n%q", out, want)
	}
}

func TestPrintBlankLineBetweenItems(t *testing.T) {
	out := mustParse(t, `
fn a() -> int { return 1; }
fn b() -> int { return 2; }
`)
	if !strings.Contains(out, "}\n\nfn b") {
		t.Fatalf("expected a blank line between top-level items, got:\n%s", out)
	}
}

func TestPrintStructAndEnum(t *testing.T) {
	out := mustParse(t, `
struct Point {
  x: int,
  y: int,
}

enum Shape {
  Circle(int),
  Square,
}
`)
	if !strings.Contains(out, "struct Point {\n    x: int,\n    y: int,\n}\n") {
		t.Fatalf("unexpected struct rendering:\n%s", out)
	}
	if !strings.Contains(out, "enum Shape {\n    Circle(int),\n    Square,\n}\n") {
		t.Fatalf("unexpected enum rendering:\n%s", out)
	}
}

func TestPrintIfWhileUnsafe(t *testing.T) {
	out := mustParse(t, `
fn f(n: int) -> int {
  if (n > 0) {
    return n;
  } else {
    return 0;
  }
  while (n > 0) {
    n - 1;
  }
  unsafe {
    python_ffi.call();
  }
  return n;
}
`)
	for _, want := range []string{"if (n > 0) {", "} else {", "while (n > 0) {", "unsafe {"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintIsIdempotent(t *testing.T) {
	src := `fn main() -> int { return 1 + 2; }`
	once := mustParse(t, src)

	toks, diag := lexer.Lex(once)
	if diag != nil {
		t.Fatalf("lex error re-lexing printed output: %v", diag)
	}
	prog, diags := parser.Parse(toks, "test.curlee")
	if len(diags) > 0 {
		t.Fatalf("parse error re-parsing printed output: %v", diags)
	}
	twice := Print(prog)
	if once != twice {
		t.Fatalf("expected printing to be idempotent:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
}
