// Package verifier discharges a program's refinement and contract
// obligations against an SMT backend (spec §4.7 "Verifier"): every
// `requires` must hold at each call site, every `ensures` must hold on
// each return, and every `where` refinement becomes a fact available to
// later obligations in the same scope.
package verifier

import (
	"fmt"
	"strings"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/lowering"
	"github.com/w4ffl35/curlee/internal/smt"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/types"
)

const hint = "add or strengthen preconditions/refinements to satisfy this contract"

// Verifier holds the shared state for checking one Program: the solver, the
// type information produced by internal/types, and a running fact list.
type Verifier struct {
	solver smt.Solver
	info   *types.TypeInfo
	diags  []source.Diagnostic
	allFns map[string]*ast.Function

	facts   []smt.Term
	callSeq int
}

// New returns a Verifier over solver, using info to resolve function
// signatures for call-site obligations.
func New(solver smt.Solver, info *types.TypeInfo, prog *ast.Program) *Verifier {
	v := &Verifier{solver: solver, info: info, allFns: map[string]*ast.Function{}}
	for _, item := range prog.Items {
		if fn, ok := item.(*ast.Function); ok {
			v.allFns[fn.Name] = fn
		}
	}
	return v
}

// Verify checks every function in prog and returns the accumulated
// diagnostics; an empty slice means verification succeeded.
func Verify(solver smt.Solver, info *types.TypeInfo, prog *ast.Program) []source.Diagnostic {
	v := New(solver, info, prog)
	for _, item := range prog.Items {
		fn, ok := item.(*ast.Function)
		if !ok {
			continue
		}
		v.verifyFunction(fn)
	}
	return v.diags
}

func (v *Verifier) errorf(sp source.Span, format string, args ...interface{}) source.Diagnostic {
	return source.NewError(fmt.Sprintf(format, args...), sp)
}

// pushScope snapshots the fact list and lowering context so a later
// popScope restores the environment exactly (spec §4.7 "Scopes").
func (v *Verifier) pushScope(ctx *lowering.Context) (*lowering.Context, int) {
	v.solver.Push()
	return ctx.Clone(), len(v.facts)
}

func (v *Verifier) popScope(mark int) {
	v.solver.Pop()
	v.facts = v.facts[:mark]
}

func (v *Verifier) assertFact(t smt.Term) {
	v.solver.Assert(t)
	v.facts = append(v.facts, t)
}

func (v *Verifier) verifyFunction(fn *ast.Function) {
	sig, ok := v.info.Funcs[fn.Name]
	if !ok {
		return
	}

	ctx, mark := v.pushScope(lowering.NewContext())
	defer v.popScope(mark)

	for i, p := range fn.Params {
		if i >= len(sig.Params) {
			break
		}
		pt := sig.Params[i]
		sym := v.solver.DeclareConst(fmt.Sprintf("%s::%s", fn.Name, p.Name), paramSort(pt))
		switch pt.Kind {
		case types.Int:
			ctx.IntVars[p.Name] = sym
		case types.Bool:
			ctx.BoolVars[p.Name] = sym
		}
		if p.Refinement != nil {
			if !pt.IsScalar() {
				v.diags = append(v.diags, v.errorf(p.Refinement.Span,
					"parameter '%s' does not support refinements on non-scalar type '%s'", p.Name, pt))
				continue
			}
			term, diag := lowering.LowerPred(v.solver, ctx, p.Refinement)
			if diag != nil {
				v.diags = append(v.diags, *diag)
				continue
			}
			v.assertFact(term)
		}
	}

	for _, req := range fn.RequiresClauses {
		term, diag := lowering.LowerPred(v.solver, ctx, &req)
		if diag != nil {
			v.diags = append(v.diags, *diag)
			continue
		}
		v.assertFact(term)
	}

	v.verifyBlock(fn, sig, ctx, fn.Body)
}

func paramSort(t types.Type) smt.Sort {
	if t.Kind == types.Bool {
		return smt.SortBool
	}
	return smt.SortInt
}

// verifyBlock pushes a fresh scope for the block's own lexical facts (spec
// §4.7 "Scopes": pushed "for each explicit block"), walks its statements,
// and checks call-site/return-site obligations as it goes.
func (v *Verifier) verifyBlock(fn *ast.Function, sig types.Signature, outer *lowering.Context, b ast.Block) {
	ctx, mark := v.pushScope(outer)
	defer v.popScope(mark)

	for _, stmt := range b.Stmts {
		v.verifyStmt(fn, sig, ctx, stmt)
	}
}

func (v *Verifier) verifyStmt(fn *ast.Function, sig types.Signature, ctx *lowering.Context, stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		v.checkExprForCalls(ctx, s.Value)
		vt := typeOfName(v.info, s.Type)
		if s.Refinement != nil && !vt.IsScalar() {
			v.diags = append(v.diags, v.errorf(s.Refinement.Span,
				"let binding '%s' does not support refinements on non-scalar type '%s'", s.Name, vt))
			return
		}
		if vt.IsScalar() && s.Value != nil {
			ety := v.info.ExprTypes[s.Value.ID]
			sym := v.bindExprResult(ctx, s.Value, ety)
			switch vt.Kind {
			case types.Int:
				ctx.IntVars[s.Name] = sym
			case types.Bool:
				ctx.BoolVars[s.Name] = sym
			}
			if s.Refinement != nil {
				term, diag := lowering.LowerPred(v.solver, ctx, s.Refinement)
				if diag != nil {
					v.diags = append(v.diags, *diag)
					return
				}
				v.assertFact(term)
			}
		}
	case *ast.ReturnStmt:
		v.checkExprForCalls(ctx, s.Value)
		v.verifyReturn(fn, sig, ctx, s)
	case *ast.ExprStmt:
		v.checkExprForCalls(ctx, s.Expr)
	case *ast.IfStmt:
		v.checkExprForCalls(ctx, s.Cond)
		v.verifyIf(fn, sig, ctx, s)
	case *ast.WhileStmt:
		v.checkExprForCalls(ctx, s.Cond)
		v.verifyBlock(fn, sig, ctx, s.Body)
	case *ast.BlockStmt:
		v.verifyBlock(fn, sig, ctx, s.Block)
	case *ast.UnsafeStmt:
		v.verifyBlock(fn, sig, ctx, s.Body)
	}
}

// verifyIf pushes a scope per branch (spec §4.7 "Scopes": "for both arms of
// if/else") and, when the condition is itself expressible as a Pred,
// narrows that branch's facts with the condition (then-arm) or its negation
// (else-arm) so path-dependent obligations — e.g. an else-arm return that's
// only valid because the condition is false — can be discharged.
func (v *Verifier) verifyIf(fn *ast.Function, sig types.Signature, ctx *lowering.Context, s *ast.IfStmt) {
	condPred, hasCond := exprToPred(s.Cond)

	v.withBranchFact(ctx, condPred, hasCond, false, func(bctx *lowering.Context) {
		v.verifyBlock(fn, sig, bctx, s.Then)
	})
	if s.Else != nil {
		v.withBranchFact(ctx, condPred, hasCond, true, func(bctx *lowering.Context) {
			v.verifyBlock(fn, sig, bctx, *s.Else)
		})
	}
}

// withBranchFact runs body under a fresh push/pop scope with condPred (or
// its negation, when negate is true) asserted as a fact, when the condition
// could be lowered; otherwise it runs body with no extra narrowing.
func (v *Verifier) withBranchFact(ctx *lowering.Context, condPred *ast.Pred, has, negate bool, body func(*lowering.Context)) {
	bctx, mark := v.pushScope(ctx)
	defer v.popScope(mark)
	if has {
		term, diag := lowering.LowerPred(v.solver, bctx, condPred)
		if diag == nil {
			if negate {
				term = v.solver.Not(term)
			}
			v.assertFact(term)
		}
	}
	body(bctx)
}

// bindExprResult builds or looks up an SMT symbol standing for the value of
// e, declaring a fresh opaque constant when e is not already a simple name
// the context knows about. This keeps verification sound for lets whose
// initializer isn't itself expressible as a Pred (e.g. a call) without
// having to fully lower arbitrary Exprs.
func (v *Verifier) bindExprResult(ctx *lowering.Context, e *ast.Expr, ty types.Type) smt.Term {
	if e != nil {
		if n, ok := e.Node.(ast.NameExpr); ok {
			if t, ok := ctx.IntVars[n.Name]; ok {
				return t
			}
			if t, ok := ctx.BoolVars[n.Name]; ok {
				return t
			}
		}
	}
	name := fmt.Sprintf("let::%d", e.ID)
	return v.solver.DeclareConst(name, paramSort(ty))
}

func typeOfName(info *types.TypeInfo, tn ast.TypeName) types.Type {
	switch tn.Name {
	case "int":
		return types.TInt
	case "bool":
		return types.TBool
	case "string":
		return types.TString
	case "unit":
		return types.TUnit
	}
	if _, ok := info.Structs[tn.Name]; ok {
		return types.Type{Kind: types.Struct, Name: tn.Name}
	}
	if _, ok := info.Enums[tn.Name]; ok {
		return types.Type{Kind: types.Enum, Name: tn.Name}
	}
	return types.Type{Kind: types.Capability, Name: tn.Name}
}

// verifyReturn discharges the function's ensures clauses against the
// returned value (spec §4.7 "Return-site obligations").
func (v *Verifier) verifyReturn(fn *ast.Function, sig types.Signature, ctx *lowering.Context, ret *ast.ReturnStmt) {
	if len(fn.Ensures) == 0 {
		return
	}
	if !sig.Return.IsScalar() {
		return
	}
	rctx := ctx.Clone()
	var resultTerm smt.Term
	if ret.Value != nil {
		predForm, ok := exprToPred(ret.Value)
		if ok {
			term, diag := lowering.LowerRaw(v.solver, ctx, predForm)
			if diag != nil {
				v.diags = append(v.diags, *diag)
				return
			}
			resultTerm = term
		} else {
			resultTerm = v.bindExprResult(ctx, ret.Value, sig.Return)
		}
	} else {
		resultTerm = v.solver.DeclareConst(fmt.Sprintf("result::%d", ret.Span.Start), paramSort(sig.Return))
	}

	switch sig.Return.Kind {
	case types.Int:
		rctx.ResultInt = resultTerm
	case types.Bool:
		rctx.ResultBool = resultTerm
	}

	for _, ens := range fn.Ensures {
		v.checkObligation(ens.Span, &ens, rctx, "ensures")
	}
}

// exprToPred attempts to re-express e as a Pred so it can go through the
// same linear-multiplication-checked lowering path as refinements. Returns
// ok=false for any expression shape the predicate grammar cannot represent
// (calls, member access, strings, struct literals, scoped names) — callers
// fall back to an opaque symbol for those.
func exprToPred(e *ast.Expr) (*ast.Pred, bool) {
	if e == nil {
		return nil, false
	}
	switch n := e.Node.(type) {
	case ast.IntExpr:
		return &ast.Pred{Span: e.Span, Node: ast.PredInt{Lexeme: n.Lexeme}}, true
	case ast.BoolExpr:
		return &ast.Pred{Span: e.Span, Node: ast.PredBool{Value: n.Value}}, true
	case ast.NameExpr:
		return &ast.Pred{Span: e.Span, Node: ast.PredName{Name: n.Name}}, true
	case ast.UnaryExpr:
		rhs, ok := exprToPred(n.Rhs)
		if !ok {
			return nil, false
		}
		return &ast.Pred{Span: e.Span, Node: ast.PredUnary{Op: n.Op, Rhs: rhs}}, true
	case ast.BinaryExpr:
		lhs, ok := exprToPred(n.Lhs)
		if !ok {
			return nil, false
		}
		rhs, ok := exprToPred(n.Rhs)
		if !ok {
			return nil, false
		}
		return &ast.Pred{Span: e.Span, Node: ast.PredBinary{Op: n.Op, Lhs: lhs, Rhs: rhs}}, true
	case ast.GroupExpr:
		inner, ok := exprToPred(n.Inner)
		if !ok {
			return nil, false
		}
		return &ast.Pred{Span: e.Span, Node: ast.PredGroup{Inner: inner}}, true
	default:
		return nil, false
	}
}

// checkObligation asks the SMT solver whether `facts ∧ ¬goal` is
// satisfiable inside a push/pop pair, attaching the goal/model/hint notes
// on violation (spec §4.7 "Diagnostics").
func (v *Verifier) checkObligation(sp source.Span, goal *ast.Pred, ctx *lowering.Context, label string) {
	term, diag := lowering.LowerPred(v.solver, ctx, goal)
	if diag != nil {
		v.diags = append(v.diags, *diag)
		return
	}

	v.solver.Push()
	v.solver.Assert(v.solver.Not(term))
	result := v.solver.Check()
	var model map[string]string
	if result == smt.Sat {
		model = v.solver.Model()
	}
	v.solver.Pop()

	switch result {
	case smt.Unsat:
		return
	case smt.Sat:
		d := v.errorf(sp, "%s clause not satisfied (obligation may not hold)", label)
		d = d.WithNote("goal: "+ast.RenderPred(goal), &sp)
		if len(model) > 0 {
			d = d.WithNote("model:\n"+renderModel(model), nil)
		}
		d = d.WithNote(hint, nil)
		v.diags = append(v.diags, d)
	default:
		d := v.errorf(sp, "%s clause not satisfied (solver returned unknown)", label)
		d = d.WithNote("goal: "+ast.RenderPred(goal), &sp)
		d = d.WithNote(hint, nil)
		v.diags = append(v.diags, d)
	}
}

func renderModel(m map[string]string) string {
	var sb strings.Builder
	for k, v := range m {
		fmt.Fprintf(&sb, "  %s = %s\n", k, v)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// checkExprForCalls walks e looking for CallExprs that carry a known
// callee signature and discharges their requires obligations at the call
// site (spec §4.7 "Call-site obligations"). `python_ffi.call(...)` is
// treated as a no-op per spec §4.7; its arguments are still walked.
func (v *Verifier) checkExprForCalls(ctx *lowering.Context, e *ast.Expr) {
	if e == nil {
		return
	}
	switch n := e.Node.(type) {
	case ast.UnaryExpr:
		v.checkExprForCalls(ctx, n.Rhs)
	case ast.BinaryExpr:
		v.checkExprForCalls(ctx, n.Lhs)
		v.checkExprForCalls(ctx, n.Rhs)
	case ast.GroupExpr:
		v.checkExprForCalls(ctx, n.Inner)
	case ast.MemberExpr:
		v.checkExprForCalls(ctx, n.Base)
	case ast.StructLiteralExpr:
		for _, f := range n.Fields {
			v.checkExprForCalls(ctx, f.Value)
		}
	case ast.CallExpr:
		for _, a := range n.Args {
			v.checkExprForCalls(ctx, a)
		}
		if isPythonFFICall(n) {
			return
		}
		v.checkCallSite(ctx, e.Span, n)
	}
}

func isPythonFFICall(call ast.CallExpr) bool {
	mem, ok := call.Callee.Node.(ast.MemberExpr)
	if !ok || mem.Member != "call" {
		return false
	}
	base, ok := mem.Base.Node.(ast.NameExpr)
	return ok && base.Name == "python_ffi"
}

func (v *Verifier) checkCallSite(ctx *lowering.Context, sp source.Span, call ast.CallExpr) {
	name, ok := call.Callee.Node.(ast.NameExpr)
	if !ok {
		return
	}
	sig, ok := v.info.Funcs[name.Name]
	if !ok {
		return
	}
	fn := v.lookupFunction(name.Name)
	if fn == nil || len(fn.RequiresClauses) == 0 {
		return
	}

	v.callSeq++
	callID := v.callSeq

	callCtx := lowering.NewContext()
	var callFacts []smt.Term
	for i, pt := range sig.Params {
		if i >= len(call.Args) {
			break
		}
		if !pt.IsScalar() {
			continue
		}
		argTerm, ok := v.lowerArg(ctx, call.Args[i], pt)
		if !ok {
			continue
		}
		sym := v.solver.DeclareConst(fmt.Sprintf("%s::call%d::p%d", name.Name, callID, i), paramSort(pt))
		switch pt.Kind {
		case types.Int:
			callCtx.IntVars[fn.Params[i].Name] = sym
		case types.Bool:
			callCtx.BoolVars[fn.Params[i].Name] = sym
		}
		callFacts = append(callFacts, v.solver.Eq(sym, argTerm))
	}

	v.solver.Push()
	for _, f := range callFacts {
		v.solver.Assert(f)
	}
	for _, req := range fn.RequiresClauses {
		v.checkObligation(sp, &req, callCtx, "requires")
	}
	v.solver.Pop()
}

func (v *Verifier) lowerArg(ctx *lowering.Context, arg *ast.Expr, pt types.Type) (smt.Term, bool) {
	p, ok := exprToPred(arg)
	if !ok {
		return v.bindExprResult(ctx, arg, pt), true
	}
	term, diag := lowering.LowerRaw(v.solver, ctx, p)
	if diag != nil {
		return nil, false
	}
	return term, true
}

func (v *Verifier) lookupFunction(name string) *ast.Function {
	return v.allFns[name]
}
