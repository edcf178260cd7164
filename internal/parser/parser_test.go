package parser

import (
	"testing"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/lexer"
)

func parseSrc(t *testing.T, src string) (*ast.Program, []error) {
	t.Helper()
	toks, diag := lexer.Lex(src)
	if diag != nil {
		t.Fatalf("lex error: %v", diag)
	}
	prog, diags := Parse(toks, "test.cur")
	var errs []error
	for _, d := range diags {
		errs = append(errs, errAdapter{d.Message})
	}
	return prog, errs
}

type errAdapter struct{ msg string }

func (e errAdapter) Error() string { return e.msg }

func TestParseSimpleFunction(t *testing.T) {
	src := `fn add(a: int, b: int) -> int {
		return a + b;
	}`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(prog.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(prog.Items))
	}
	fn, ok := prog.Items[0].(*ast.Function)
	if !ok {
		t.Fatalf("expected *ast.Function, got %T", prog.Items[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	if fn.ReturnType == nil || fn.ReturnType.Name != "int" {
		t.Fatalf("expected return type int, got %+v", fn.ReturnType)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 stmt, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected *ast.ReturnStmt, got %T", fn.Body.Stmts[0])
	}
	if ret.Value == nil {
		t.Fatalf("expected non-nil return value")
	}
	if _, ok := ret.Value.Node.(ast.BinaryExpr); !ok {
		t.Fatalf("expected BinaryExpr return value, got %T", ret.Value.Node)
	}
}

func TestParseBareReturn(t *testing.T) {
	src := `fn noop() { return; }`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := prog.Items[0].(*ast.Function)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if ret.Value != nil {
		t.Fatalf("expected nil return value for bare return, got %+v", ret.Value)
	}
}

func TestParseContractClauses(t *testing.T) {
	src := `fn div(a: int, b: int where b != 0) -> int [
		requires b != 0;
		ensures result >= 0;
	] {
		return a / b;
	}`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := prog.Items[0].(*ast.Function)
	if len(fn.RequiresClauses) != 1 || len(fn.Ensures) != 1 {
		t.Fatalf("expected 1 requires and 1 ensures, got %d/%d", len(fn.RequiresClauses), len(fn.Ensures))
	}
	if fn.Params[1].Refinement == nil {
		t.Fatalf("expected param refinement on b")
	}
}

func TestParseIfElseWhile(t *testing.T) {
	src := `fn f(n: int) -> int {
		let total: int = 0;
		while (n > 0) {
			if (n == 1) {
				total;
			} else {
				total;
			}
		}
		return total;
	}`
	_, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestParseStruct(t *testing.T) {
	src := `struct Point { x: int, y: int }`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	st := prog.Items[0].(*ast.Struct)
	if st.Name != "Point" || len(st.Fields) != 2 {
		t.Fatalf("unexpected struct shape: %+v", st)
	}
}

func TestParseStructDuplicateField(t *testing.T) {
	src := `struct Point { x: int, x: int }`
	_, errs := parseSrc(t, src)
	if len(errs) == 0 {
		t.Fatalf("expected duplicate-field error")
	}
}

func TestParseEnumWithPayload(t *testing.T) {
	src := `enum Option { Some(int), None }`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	en := prog.Items[0].(*ast.Enum)
	if en.Name != "Option" || len(en.Variants) != 2 {
		t.Fatalf("unexpected enum shape: %+v", en)
	}
	if en.Variants[0].Payload == nil || en.Variants[0].Payload.Name != "int" {
		t.Fatalf("expected Some to carry int payload, got %+v", en.Variants[0].Payload)
	}
	if en.Variants[1].Payload != nil {
		t.Fatalf("expected None to carry no payload")
	}
}

func TestParseEnumDuplicateVariant(t *testing.T) {
	src := `enum E { A, A }`
	_, errs := parseSrc(t, src)
	if len(errs) == 0 {
		t.Fatalf("expected duplicate-variant error")
	}
}

func TestParseImportWithAlias(t *testing.T) {
	src := `import a.b.c as abc;`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	im := prog.Items[0].(*ast.Import)
	if im.Alias != "abc" || len(im.PathSegments) != 3 {
		t.Fatalf("unexpected import shape: %+v", im)
	}
}

func TestParseStructLiteralAndCall(t *testing.T) {
	src := `fn f() -> int {
		let p: Point = Point{x: 1, y: 2};
		return add(p.x, p.y);
	}`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := prog.Items[0].(*ast.Function)
	letStmt := fn.Body.Stmts[0].(*ast.LetStmt)
	lit, ok := letStmt.Value.Node.(ast.StructLiteralExpr)
	if !ok {
		t.Fatalf("expected StructLiteralExpr, got %T", letStmt.Value.Node)
	}
	if lit.TypeName != "Point" || len(lit.Fields) != 2 {
		t.Fatalf("unexpected struct literal shape: %+v", lit)
	}
	ret := fn.Body.Stmts[1].(*ast.ReturnStmt)
	call, ok := ret.Value.Node.(ast.CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr, got %T", ret.Value.Node)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 call args, got %d", len(call.Args))
	}
	if _, ok := call.Args[0].Node.(ast.MemberExpr); !ok {
		t.Fatalf("expected MemberExpr arg, got %T", call.Args[0].Node)
	}
}

func TestParseScopedName(t *testing.T) {
	src := `fn f() -> bool {
		return Option::None == Option::None;
	}`
	_, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestParseUnsafeBlock(t *testing.T) {
	src := `fn f() -> int {
		unsafe {
			return python_ffi(0);
		}
	}`
	_, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestParseErrorRecoveryAtTopLevel(t *testing.T) {
	src := `fn f( { }
	fn g() -> int { return 1; }`
	prog, errs := parseSrc(t, src)
	if len(errs) == 0 {
		t.Fatalf("expected parse errors for malformed first function")
	}
	found := false
	for _, item := range prog.Items {
		if fn, ok := item.(*ast.Function); ok && fn.Name == "g" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected recovery to still parse function g, items=%+v", prog.Items)
	}
}

func TestExprIDsAssignedAfterSuccessfulParse(t *testing.T) {
	src := `fn f() -> int { return 1 + 2; }`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := prog.Items[0].(*ast.Function)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	bin := ret.Value.Node.(ast.BinaryExpr)
	if ret.Value.ID == bin.Lhs.ID || bin.Lhs.ID == bin.Rhs.ID {
		t.Fatalf("expected distinct expr IDs, got root=%d lhs=%d rhs=%d", ret.Value.ID, bin.Lhs.ID, bin.Rhs.ID)
	}
}

func TestParsePredicateGrammar(t *testing.T) {
	src := `fn f(n: int where n > 0 && n <= 100) -> int { return n; }`
	prog, errs := parseSrc(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	fn := prog.Items[0].(*ast.Function)
	refinement := fn.Params[0].Refinement
	if refinement == nil {
		t.Fatalf("expected refinement on n")
	}
	if _, ok := refinement.Node.(ast.PredBinary); !ok {
		t.Fatalf("expected top-level PredBinary (&&), got %T", refinement.Node)
	}
}
