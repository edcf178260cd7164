// Package lowering turns a refinement/contract Pred into an SMT bool term
// (spec §4.6 "Predicate lowering"), under a LoweringContext that tracks
// each in-scope name's SMT variable and sort.
package lowering

import (
	"fmt"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/smt"
	"github.com/w4ffl35/curlee/internal/source"
)

// Context maps in-scope names to their SMT term and sort, plus an optional
// bound result variable for ensures-clause lowering.
type Context struct {
	IntVars  map[string]smt.Term
	BoolVars map[string]smt.Term

	ResultInt  smt.Term
	ResultBool smt.Term
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{IntVars: map[string]smt.Term{}, BoolVars: map[string]smt.Term{}}
}

// Clone returns a shallow copy safe to mutate independently of c (used by
// the verifier's push_scope/pop_scope, spec §4.7 "Scopes").
func (c *Context) Clone() *Context {
	cl := &Context{
		IntVars:    map[string]smt.Term{},
		BoolVars:   map[string]smt.Term{},
		ResultInt:  c.ResultInt,
		ResultBool: c.ResultBool,
	}
	for k, v := range c.IntVars {
		cl.IntVars[k] = v
	}
	for k, v := range c.BoolVars {
		cl.BoolVars[k] = v
	}
	return cl
}

// litFlag records whether a lowered subterm is statically known to be an
// integer literal, to support the linear-multiplication-only restriction.
type litFlag struct {
	term    smt.Term
	isInt   bool
	isBool  bool
	literal bool
}

// LowerPred lowers p to an SMT bool term under ctx using s to build terms.
// It rejects non-bool top-level predicates and non-linear multiplication
// with a source.Diagnostic (spec §4.6).
func LowerPred(s smt.Solver, ctx *Context, p *ast.Pred) (smt.Term, *source.Diagnostic) {
	lf, diag := lower(s, ctx, p)
	if diag != nil {
		return nil, diag
	}
	if !lf.isBool {
		d := source.NewError("predicate must resolve to Bool", p.Span)
		return nil, &d
	}
	return lf.term, nil
}

// LowerRaw lowers p to its raw SMT term regardless of sort, unlike LowerPred
// which additionally requires the result to be Bool. The verifier uses this
// for call-argument and return-value lowering, where the term may be
// Int-sorted (spec §4.7 "Call-site obligations", "Return-site obligations").
func LowerRaw(s smt.Solver, ctx *Context, p *ast.Pred) (smt.Term, *source.Diagnostic) {
	lf, diag := lower(s, ctx, p)
	if diag != nil {
		return nil, diag
	}
	return lf.term, nil
}

func lower(s smt.Solver, ctx *Context, p *ast.Pred) (litFlag, *source.Diagnostic) {
	switch n := p.Node.(type) {
	case ast.PredInt:
		v, err := parseIntLexeme(n.Lexeme)
		if err != nil {
			d := source.NewError(fmt.Sprintf("invalid integer literal: %s", n.Lexeme), p.Span)
			return litFlag{}, &d
		}
		return litFlag{term: s.IntConst(v), isInt: true, literal: true}, nil
	case ast.PredBool:
		return litFlag{term: s.BoolConst(n.Value), isBool: true, literal: true}, nil
	case ast.PredName:
		return lowerName(s, ctx, p, n.Name)
	case ast.PredUnary:
		return lowerUnary(s, ctx, p, n)
	case ast.PredBinary:
		return lowerBinary(s, ctx, p, n)
	case ast.PredGroup:
		return lower(s, ctx, n.Inner)
	}
	d := source.NewError("unsupported expression in verification", p.Span)
	return litFlag{}, &d
}

func lowerName(s smt.Solver, ctx *Context, p *ast.Pred, name string) (litFlag, *source.Diagnostic) {
	if name == "result" {
		if ctx.ResultInt != nil {
			return litFlag{term: ctx.ResultInt, isInt: true}, nil
		}
		if ctx.ResultBool != nil {
			return litFlag{term: ctx.ResultBool, isBool: true}, nil
		}
		d := source.NewError("unknown predicate name: 'result'", p.Span)
		return litFlag{}, &d
	}
	if t, ok := ctx.IntVars[name]; ok {
		return litFlag{term: t, isInt: true}, nil
	}
	if t, ok := ctx.BoolVars[name]; ok {
		return litFlag{term: t, isBool: true}, nil
	}
	d := source.NewError(fmt.Sprintf("unknown predicate name: '%s'", name), p.Span)
	return litFlag{}, &d
}

func lowerUnary(s smt.Solver, ctx *Context, p *ast.Pred, n ast.PredUnary) (litFlag, *source.Diagnostic) {
	rhs, diag := lower(s, ctx, n.Rhs)
	if diag != nil {
		return litFlag{}, diag
	}
	switch n.Op {
	case ast.OpNeg:
		if !rhs.isInt {
			d := source.NewError("unary '-' in a predicate requires an Int operand", p.Span)
			return litFlag{}, &d
		}
		return litFlag{term: s.Neg(rhs.term), isInt: true, literal: rhs.literal}, nil
	case ast.OpNot:
		if !rhs.isBool {
			d := source.NewError("unary '!' in a predicate requires a Bool operand", p.Span)
			return litFlag{}, &d
		}
		return litFlag{term: s.Not(rhs.term), isBool: true}, nil
	}
	d := source.NewError("unsupported expression in verification", p.Span)
	return litFlag{}, &d
}

func lowerBinary(s smt.Solver, ctx *Context, p *ast.Pred, n ast.PredBinary) (litFlag, *source.Diagnostic) {
	lhs, diag := lower(s, ctx, n.Lhs)
	if diag != nil {
		return litFlag{}, diag
	}
	rhs, diag := lower(s, ctx, n.Rhs)
	if diag != nil {
		return litFlag{}, diag
	}
	switch n.Op {
	case ast.OpAdd:
		if !lhs.isInt || !rhs.isInt {
			d := source.NewError("'+' in a predicate requires Int operands", p.Span)
			return litFlag{}, &d
		}
		return litFlag{term: s.Add(lhs.term, rhs.term), isInt: true}, nil
	case ast.OpSub:
		if !lhs.isInt || !rhs.isInt {
			d := source.NewError("'-' in a predicate requires Int operands", p.Span)
			return litFlag{}, &d
		}
		return litFlag{term: s.Sub(lhs.term, rhs.term), isInt: true}, nil
	case ast.OpMul:
		if !lhs.isInt || !rhs.isInt {
			d := source.NewError("'*' in a predicate requires Int operands", p.Span)
			return litFlag{}, &d
		}
		if !lhs.literal && !rhs.literal {
			d := source.NewError("non-linear multiplication is not supported in verification", p.Span)
			return litFlag{}, &d
		}
		return litFlag{term: s.Mul(lhs.term, rhs.term), isInt: true}, nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if !lhs.isInt || !rhs.isInt {
			d := source.NewError(fmt.Sprintf("'%s' in a predicate requires Int operands", n.Op), p.Span)
			return litFlag{}, &d
		}
		return litFlag{term: cmpTerm(s, n.Op, lhs.term, rhs.term), isBool: true}, nil
	case ast.OpEq, ast.OpNeq:
		if lhs.isInt != rhs.isInt || lhs.isBool != rhs.isBool {
			d := source.NewError("'=='/'!=' in a predicate require operands of matching sort", p.Span)
			return litFlag{}, &d
		}
		eq := s.Eq(lhs.term, rhs.term)
		if n.Op == ast.OpNeq {
			eq = s.Not(eq)
		}
		return litFlag{term: eq, isBool: true}, nil
	case ast.OpAnd:
		if !lhs.isBool || !rhs.isBool {
			d := source.NewError("'&&' in a predicate requires Bool operands", p.Span)
			return litFlag{}, &d
		}
		return litFlag{term: s.And(lhs.term, rhs.term), isBool: true}, nil
	case ast.OpOr:
		if !lhs.isBool || !rhs.isBool {
			d := source.NewError("'||' in a predicate requires Bool operands", p.Span)
			return litFlag{}, &d
		}
		return litFlag{term: s.Or(lhs.term, rhs.term), isBool: true}, nil
	}
	d := source.NewError("unsupported expression in verification", p.Span)
	return litFlag{}, &d
}

func cmpTerm(s smt.Solver, op ast.BinaryOp, a, b smt.Term) smt.Term {
	switch op {
	case ast.OpLt:
		return s.Lt(a, b)
	case ast.OpLe:
		return s.Le(a, b)
	case ast.OpGt:
		return s.Gt(a, b)
	default:
		return s.Ge(a, b)
	}
}

func parseIntLexeme(lexeme string) (int64, error) {
	var v int64
	_, err := fmt.Sscanf(lexeme, "%d", &v)
	return v, err
}
