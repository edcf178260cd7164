// Package e2e exercises spec §8's end-to-end scenarios by driving the real
// lexer -> parser -> resolver -> types -> verifier -> bytecode -> vm chain
// over complete source texts, the way internal/verifier's own tests do but
// one layer further out (through codegen and execution, not just
// verification).
package e2e

import (
	"strings"
	"testing"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/bytecode"
	"github.com/w4ffl35/curlee/internal/codec"
	"github.com/w4ffl35/curlee/internal/lexer"
	"github.com/w4ffl35/curlee/internal/parser"
	"github.com/w4ffl35/curlee/internal/resolver"
	"github.com/w4ffl35/curlee/internal/smt"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/types"
	"github.com/w4ffl35/curlee/internal/verifier"
	"github.com/w4ffl35/curlee/internal/vm"
)

// checkProgram runs every static pass (parse through verify) and returns
// the resulting diagnostics from whichever pass failed first, or nil.
func checkProgram(t *testing.T, src string) (*ast.Program, *types.TypeInfo, []source.Diagnostic) {
	t.Helper()
	toks, diag := lexer.Lex(src)
	if diag != nil {
		return nil, nil, []source.Diagnostic{*diag}
	}
	prog, diags := parser.Parse(toks, "main.curlee")
	if len(diags) > 0 {
		return nil, nil, diags
	}
	if _, diags := resolver.Resolve(prog); len(diags) > 0 {
		return nil, nil, diags
	}
	info, diags := types.Check(prog)
	if len(diags) > 0 {
		return nil, nil, diags
	}
	s := smt.NewFakeSolver()
	if diags := verifier.Verify(s, info, prog); len(diags) > 0 {
		return prog, info, diags
	}
	return prog, info, nil
}

func compile(t *testing.T, src string) *bytecode.Chunk {
	t.Helper()
	prog, info, diags := checkProgram(t, src)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	chunk, ediags := bytecode.Emit(prog, info)
	if len(ediags) > 0 {
		t.Fatalf("emit errors: %v", ediags)
	}
	return chunk
}

// Scenario 1: arithmetic round-trip.
func TestArithmeticRoundTrip(t *testing.T) {
	chunk := compile(t, `fn main() -> int { let x: int = 1; return x + 2; }`)

	result, err := vm.New(nil).Run(chunk, 1_000_000)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if result.Kind != bytecode.KindInt || result.I != 3 {
		t.Fatalf("expected Int(3), got %v", result)
	}
}

// Scenario 2: short-circuit avoids division.
func TestShortCircuitAvoidsDivision(t *testing.T) {
	chunk := compile(t, `fn main() -> int {
  if (false && ((1 / 0) == 0)) { return 1; }
  return 2;
}`)

	result, err := vm.New(nil).Run(chunk, 1_000_000)
	if err != nil {
		t.Fatalf("unexpected divide-by-zero or other error: %v", err)
	}
	if result.I != 2 {
		t.Fatalf("expected Int(2), got %v", result)
	}
}

// Scenario 3: requires failure at call site.
func TestRequiresFailureAtCallSite(t *testing.T) {
	src := `
fn take_nonzero(x: int where x > 0) -> int [ requires x != 0; ] { return x; }
fn main() -> int { return take_nonzero(0); }
`
	_, _, diags := checkProgram(t, src)
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %v", len(diags), diags)
	}
	if !strings.Contains(diags[0].Message, "requires clause not satisfied") {
		t.Fatalf("expected a requires-obligation diagnostic, got: %s", diags[0].Message)
	}
}

// Scenario 4: ensures failure on return.
func TestEnsuresFailureOnReturn(t *testing.T) {
	src := `
fn pos() -> int [ ensures result > 0; ] { return 0; }
fn main() -> int { return pos(); }
`
	_, _, diags := checkProgram(t, src)
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic, got none")
	}
	if !strings.Contains(diags[0].Message, "ensures clause not satisfied") {
		t.Fatalf("expected an ensures-obligation diagnostic, got: %s", diags[0].Message)
	}
}

// Scenario 5: non-linear multiplication rejected.
func TestNonLinearMultiplicationRejected(t *testing.T) {
	src := `
fn mul(a: int, b: int) -> int [ ensures result == a * b; ] { return a * b; }
fn main() -> int { return mul(2, 3); }
`
	_, _, diags := checkProgram(t, src)
	if len(diags) == 0 {
		t.Fatalf("expected a diagnostic, got none")
	}
	if !strings.Contains(diags[0].Message, "non-linear multiplication is not supported") {
		t.Fatalf("expected a non-linear-multiplication diagnostic, got: %s", diags[0].Message)
	}
}

// Scenario 7: VM fuel exhaustion.
func TestFuelExhaustion(t *testing.T) {
	chunk := compile(t, `fn main() -> int { return 1 + 2; }`)

	_, err := vm.New(nil).Run(chunk, 0)
	if err == nil {
		t.Fatalf("expected an out-of-fuel error, got none")
	}
	if !strings.Contains(err.Error(), "out of fuel") {
		t.Fatalf("expected 'out of fuel', got: %v", err)
	}
}

// Universal invariant: chunk.Spans.len() == chunk.Code.len(), and the
// encode/decode round-trip preserves it.
func TestChunkSpansInvariantSurvivesCodec(t *testing.T) {
	chunk := compile(t, `fn main() -> int { let x: int = 1; return x + 2; }`)
	if len(chunk.Spans) != len(chunk.Code) {
		t.Fatalf("spans/code length mismatch: %d vs %d", len(chunk.Spans), len(chunk.Code))
	}

	for _, version := range []codec.Version{codec.V1, codec.V2} {
		data, err := codec.Encode(chunk, version)
		if err != nil {
			t.Fatalf("encode v%d: %v", version, err)
		}
		decoded, err := codec.Decode(data)
		if err != nil {
			t.Fatalf("decode v%d: %v", version, err)
		}
		if len(decoded.Code) != len(chunk.Code) || len(decoded.Constants) != len(chunk.Constants) {
			t.Fatalf("v%d round-trip mismatch", version)
		}
	}
}

// Universal invariant: TypeInfo.ExprTypes covers every Expr.ID reachable in
// a function body for a well-typed program.
func TestTypeInfoCoversEveryExpr(t *testing.T) {
	prog, info, diags := checkProgram(t, `fn main() -> int { let x: int = 1 + 2; return x; }`)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if info == nil {
		t.Fatalf("expected non-nil TypeInfo")
	}
	var walk func(e *ast.Expr)
	walk = func(e *ast.Expr) {
		if _, ok := info.ExprTypes[e.ID]; !ok {
			t.Fatalf("no recorded type for expr %d (%T)", e.ID, e.Node)
		}
		if b, ok := e.Node.(ast.BinaryExpr); ok {
			walk(b.Lhs)
			walk(b.Rhs)
		}
	}
	fn := prog.Items[0].(*ast.Function)
	walk(fn.Body.Stmts[0].(*ast.LetStmt).Value)
	walk(fn.Body.Stmts[1].(*ast.ReturnStmt).Value)
}
