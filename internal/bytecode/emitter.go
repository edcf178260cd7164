package bytecode

import (
	"fmt"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/types"
)

// fixup records a Call operand that needs the callee's entry offset
// patched in once every function has been emitted (spec §4.8 "Calls":
// functions may call each other regardless of declaration order, including
// recursively).
type fixup struct {
	operandOffset int
	calleeName    string
}

type emitter struct {
	chunk   *Chunk
	info    *types.TypeInfo
	diags   []source.Diagnostic
	funcOff map[string]int
	fixups  []fixup

	locals   map[string]int
	nextSlot int
}

// Emit walks prog and produces one Chunk containing every reachable
// function's body as a single linear code stream (spec §4.8). Entry is
// `main`; every other function terminates with Ret instead of Return.
func Emit(prog *ast.Program, info *types.TypeInfo) (*Chunk, []source.Diagnostic) {
	e := &emitter{
		chunk:   NewChunk(),
		info:    info,
		funcOff: map[string]int{},
	}

	var fns []*ast.Function
	var mainFn *ast.Function
	seen := map[string]source.Span{}
	for _, item := range prog.Items {
		fn, ok := item.(*ast.Function)
		if !ok {
			continue
		}
		if fn.Name == "print" {
			e.errorf(fn.Span, "'print' is a reserved builtin and cannot be declared as a function")
			continue
		}
		if first, dup := seen[fn.Name]; dup {
			firstCopy := first
			e.diags = append(e.diags, source.NewError(
				fmt.Sprintf("duplicate function declaration: '%s'", fn.Name), fn.Span).
				WithNote("first occurrence", &firstCopy))
			continue
		}
		seen[fn.Name] = fn.Span
		if fn.Name == "main" {
			mainFn = fn
			continue
		}
		fns = append(fns, fn)
	}

	if mainFn == nil {
		e.errorf(source.Span{}, "missing 'main' function")
		return nil, e.diags
	}

	e.emitFunction(mainFn, true)
	for _, fn := range fns {
		e.emitFunction(fn, false)
	}

	for _, fx := range e.fixups {
		off, ok := e.funcOff[fx.calleeName]
		if !ok {
			// Already diagnosed at the call site; leave the placeholder.
			continue
		}
		e.chunk.PatchU16(fx.operandOffset, uint16(off))
	}

	e.chunk.MaxLocals = e.nextSlot

	if len(e.diags) > 0 {
		return nil, e.diags
	}
	return e.chunk, nil
}

func (e *emitter) errorf(sp source.Span, format string, args ...interface{}) {
	e.diags = append(e.diags, source.NewError(fmt.Sprintf(format, args...), sp))
}

func (e *emitter) emitFunction(fn *ast.Function, isEntry bool) {
	e.funcOff[fn.Name] = e.chunk.Len()
	e.locals = map[string]int{}

	sig, ok := e.info.Funcs[fn.Name]
	if !ok {
		e.errorf(fn.Span, "internal error: no signature recorded for function '%s'", fn.Name)
		return
	}
	for i, p := range fn.Params {
		if i < len(sig.Params) && !isBytecodeScalar(sig.Params[i]) {
			e.errorf(p.Span, "unsupported parameter type '%s' in emitted code: only Int, Bool, and String participate in bytecode", sig.Params[i])
			continue
		}
		e.locals[p.Name] = e.allocSlot()
	}

	e.emitBlock(fn.Body)

	if isEntry {
		e.chunk.WriteOp(OpReturn, fn.Body.Span)
	} else {
		e.chunk.WriteOp(OpRet, fn.Body.Span)
	}
}

func (e *emitter) allocSlot() int {
	s := e.nextSlot
	e.nextSlot++
	return s
}

func isBytecodeScalar(t types.Type) bool {
	return t.Kind == types.Int || t.Kind == types.Bool || t.Kind == types.String
}

func (e *emitter) emitBlock(b ast.Block) {
	for _, stmt := range b.Stmts {
		e.emitStmt(stmt)
	}
}

func (e *emitter) emitStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		e.emitExpr(s.Value)
		slot := e.allocSlot()
		e.locals[s.Name] = slot
		e.chunk.WriteOp(OpStoreLocal, s.Span)
		e.chunk.WriteU16(uint16(slot), s.Span)
	case *ast.ReturnStmt:
		if s.Value != nil {
			e.emitExpr(s.Value)
		}
	case *ast.ExprStmt:
		e.emitExpr(s.Expr)
		e.chunk.WriteOp(OpPop, s.Span)
	case *ast.IfStmt:
		e.emitIf(s)
	case *ast.WhileStmt:
		e.emitWhile(s)
	case *ast.BlockStmt:
		e.emitBlock(s.Block)
	case *ast.UnsafeStmt:
		e.emitBlock(s.Body)
	}
}

// emitIf lowers `if (c) T else E` to `c; JumpIfFalse Lelse; T; Jump Lend;
// Lelse: E; Lend:` (spec §4.8 "Control flow").
func (e *emitter) emitIf(s *ast.IfStmt) {
	e.emitExpr(s.Cond)
	jifOperand := e.chunk.Len() + 1
	e.chunk.WriteOp(OpJumpIfFalse, s.Span)
	e.chunk.WriteU16(0, s.Span)

	e.emitBlock(s.Then)

	if s.Else == nil {
		e.chunk.PatchU16(jifOperand, uint16(e.chunk.Len()))
		return
	}

	jmpOperand := e.chunk.Len() + 1
	e.chunk.WriteOp(OpJump, s.Span)
	e.chunk.WriteU16(0, s.Span)

	e.chunk.PatchU16(jifOperand, uint16(e.chunk.Len()))
	e.emitBlock(*s.Else)
	e.chunk.PatchU16(jmpOperand, uint16(e.chunk.Len()))
}

// emitWhile lowers `while (c) B` to `Lhead: c; JumpIfFalse Lend; B; Jump
// Lhead; Lend:` (spec §4.8 "Control flow").
func (e *emitter) emitWhile(s *ast.WhileStmt) {
	head := e.chunk.Len()
	e.emitExpr(s.Cond)
	jifOperand := e.chunk.Len() + 1
	e.chunk.WriteOp(OpJumpIfFalse, s.Span)
	e.chunk.WriteU16(0, s.Span)

	e.emitBlock(s.Body)
	e.chunk.WriteOp(OpJump, s.Span)
	e.chunk.WriteU16(uint16(head), s.Span)

	e.chunk.PatchU16(jifOperand, uint16(e.chunk.Len()))
}

func (e *emitter) emitExpr(expr *ast.Expr) {
	if expr == nil {
		return
	}
	switch n := expr.Node.(type) {
	case ast.IntExpr:
		v, _ := parseIntLexeme(n.Lexeme)
		idx := e.chunk.AddConstant(Int(v))
		e.chunk.WriteOp(OpConstant, expr.Span)
		e.chunk.WriteU16(uint16(idx), expr.Span)
	case ast.BoolExpr:
		idx := e.chunk.AddConstant(Bool(n.Value))
		e.chunk.WriteOp(OpConstant, expr.Span)
		e.chunk.WriteU16(uint16(idx), expr.Span)
	case ast.StringExpr:
		idx := e.chunk.AddConstant(String(n.Decoded))
		e.chunk.WriteOp(OpConstant, expr.Span)
		e.chunk.WriteU16(uint16(idx), expr.Span)
	case ast.NameExpr:
		slot, ok := e.locals[n.Name]
		if !ok {
			e.errorf(expr.Span, "internal error: unresolved local '%s' at emission time", n.Name)
			return
		}
		e.chunk.WriteOp(OpLoadLocal, expr.Span)
		e.chunk.WriteU16(uint16(slot), expr.Span)
	case ast.GroupExpr:
		e.emitExpr(n.Inner)
	case ast.UnaryExpr:
		e.emitUnary(expr, n)
	case ast.BinaryExpr:
		e.emitBinary(expr, n)
	case ast.CallExpr:
		e.emitCall(expr, n)
	case ast.MemberExpr, ast.StructLiteralExpr, ast.ScopedNameExpr:
		e.errorf(expr.Span, "unsupported expression in bytecode emission: structs and enums have no runtime representation")
	default:
		e.errorf(expr.Span, "unsupported expression in bytecode emission")
	}
}

func (e *emitter) emitUnary(expr *ast.Expr, n ast.UnaryExpr) {
	e.emitExpr(n.Rhs)
	switch n.Op {
	case ast.OpNeg:
		e.chunk.WriteOp(OpNeg, expr.Span)
	case ast.OpNot:
		e.chunk.WriteOp(OpNot, expr.Span)
	}
}

func (e *emitter) emitBinary(expr *ast.Expr, n ast.BinaryExpr) {
	switch n.Op {
	case ast.OpAnd:
		e.emitShortCircuit(expr, n, true)
		return
	case ast.OpOr:
		e.emitShortCircuit(expr, n, false)
		return
	}

	e.emitExpr(n.Lhs)
	e.emitExpr(n.Rhs)
	switch n.Op {
	case ast.OpAdd:
		e.chunk.WriteOp(OpAdd, expr.Span)
	case ast.OpSub:
		e.chunk.WriteOp(OpSub, expr.Span)
	case ast.OpMul:
		e.chunk.WriteOp(OpMul, expr.Span)
	case ast.OpDiv:
		e.chunk.WriteOp(OpDiv, expr.Span)
	case ast.OpEq:
		e.chunk.WriteOp(OpEqual, expr.Span)
	case ast.OpNeq:
		e.chunk.WriteOp(OpNotEqual, expr.Span)
	case ast.OpLt:
		e.chunk.WriteOp(OpLess, expr.Span)
	case ast.OpLe:
		e.chunk.WriteOp(OpLessEqual, expr.Span)
	case ast.OpGt:
		e.chunk.WriteOp(OpGreater, expr.Span)
	case ast.OpGe:
		e.chunk.WriteOp(OpGreaterEqual, expr.Span)
	}
}

// emitShortCircuit lowers `&&`/`||` so the right-hand side is only
// evaluated when necessary (spec §4.8): for `&&`, false lhs skips rhs and
// the expression is false; for `||`, true lhs skips rhs and the expression
// is true. Both arms leave exactly one Bool on the stack at the merge
// point, keeping stack depth consistent.
func (e *emitter) emitShortCircuit(expr *ast.Expr, n ast.BinaryExpr, isAnd bool) {
	e.emitExpr(n.Lhs)
	shortOperand := e.chunk.Len() + 1
	e.chunk.WriteOp(OpJumpIfFalse, expr.Span)
	e.chunk.WriteU16(0, expr.Span)

	if isAnd {
		e.emitExpr(n.Rhs)
		jmpOperand := e.chunk.Len() + 1
		e.chunk.WriteOp(OpJump, expr.Span)
		e.chunk.WriteU16(0, expr.Span)

		e.chunk.PatchU16(shortOperand, uint16(e.chunk.Len()))
		idx := e.chunk.AddConstant(Bool(false))
		e.chunk.WriteOp(OpConstant, expr.Span)
		e.chunk.WriteU16(uint16(idx), expr.Span)
		e.chunk.PatchU16(jmpOperand, uint16(e.chunk.Len()))
		return
	}

	// OR: lhs false falls through to evaluate rhs; lhs true short-circuits
	// straight to pushing `true`.
	jmpTrueOperand := e.chunk.Len() + 1
	e.chunk.WriteOp(OpJump, expr.Span)
	e.chunk.WriteU16(0, expr.Span)
	// JumpIfFalse above jumped here when lhs was false — correct that: we
	// actually want JumpIfFalse to fall through into rhs evaluation, so the
	// jump target for shortOperand is the rhs-evaluation point, and the
	// jmpTrueOperand (reached only when lhs was true) jumps past rhs to the
	// `true` constant.
	rhsStart := e.chunk.Len()
	e.emitExpr(n.Rhs)
	mergeJmpOperand := e.chunk.Len() + 1
	e.chunk.WriteOp(OpJump, expr.Span)
	e.chunk.WriteU16(0, expr.Span)

	trueConstAt := e.chunk.Len()
	idx := e.chunk.AddConstant(Bool(true))
	e.chunk.WriteOp(OpConstant, expr.Span)
	e.chunk.WriteU16(uint16(idx), expr.Span)
	end := e.chunk.Len()

	e.chunk.PatchU16(shortOperand, uint16(rhsStart))
	e.chunk.PatchU16(jmpTrueOperand, uint16(trueConstAt))
	e.chunk.PatchU16(mergeJmpOperand, uint16(end))
}

func (e *emitter) emitCall(expr *ast.Expr, n ast.CallExpr) {
	name, ok := n.Callee.Node.(ast.NameExpr)
	if !ok {
		if mem, ok := n.Callee.Node.(ast.MemberExpr); ok {
			if base, ok := mem.Base.Node.(ast.NameExpr); ok && base.Name == "python_ffi" && mem.Member == "call" {
				e.chunk.WriteOp(OpPythonCall, expr.Span)
				return
			}
			e.errorf(expr.Span, "unknown module qualifier in call")
			return
		}
		e.errorf(expr.Span, "unsupported call target: expected a function name or python_ffi.call")
		return
	}

	if name.Name == "print" {
		for _, a := range n.Args {
			e.emitExpr(a)
		}
		e.chunk.WriteOp(OpPrint, expr.Span)
		return
	}

	if _, ok := e.info.Funcs[name.Name]; !ok {
		e.errorf(expr.Span, "unknown function: '%s'", name.Name)
		return
	}

	for _, a := range n.Args {
		e.emitExpr(a)
	}

	e.chunk.WriteOp(OpCall, expr.Span)
	operandOffset := e.chunk.Len()
	e.chunk.WriteU16(0, expr.Span)
	e.fixups = append(e.fixups, fixup{operandOffset: operandOffset, calleeName: name.Name})
}

func parseIntLexeme(lexeme string) (int64, error) {
	var v int64
	_, err := fmt.Sscanf(lexeme, "%d", &v)
	return v, err
}
