package smt

import (
	"strconv"

	z3 "github.com/mitchellh/go-z3"
)

// defaultRlimit bounds the resource count Z3 spends per Check() call (spec
// §5 "obligation queries should be submitted with a bounded rlimit", §9
// "rlimit (for the Unknown path)"). Z3's rlimit counts internal resource
// units, not wall-clock time, so this is generous enough for the linear
// arithmetic + booleans + equality fragment the verifier emits while still
// guaranteeing every Check() call terminates with Sat/Unsat/Unknown rather
// than hanging on a pathological query.
const defaultRlimit = 4_000_000

// z3Term wraps a go-z3 AST node so it satisfies Term.
type z3Term struct{ ast *z3.AST }

func (*z3Term) isTerm() {}

func unwrap(t Term) *z3.AST { return t.(*z3Term).ast }

// Z3Solver is the real backend: a thin adapter from the Solver interface
// onto github.com/mitchellh/go-z3's Context/Solver pair (spec §9 "any
// target-language binding for Z3 suffices"). It keeps one context and one
// incremental solver for its whole lifetime so Push/Pop map directly onto
// Z3's own scoped assertion stack.
type Z3Solver struct {
	cfg    *z3.Config
	ctx    *z3.Context
	solver *z3.Solver
}

// NewZ3Solver constructs a Z3Solver with default tactics. Callers should
// defer Close().
func NewZ3Solver() *Z3Solver {
	cfg := z3.NewConfig()
	cfg.SetParamValue("rlimit", strconv.Itoa(defaultRlimit))
	ctx := z3.NewContext(cfg)
	s := ctx.NewSolver()
	return &Z3Solver{cfg: cfg, ctx: ctx, solver: s}
}

func (s *Z3Solver) Push() { s.solver.Push() }
func (s *Z3Solver) Pop()  { s.solver.Pop() }

func (s *Z3Solver) DeclareConst(name string, sort Sort) Term {
	var zsort *z3.Sort
	switch sort {
	case SortBool:
		zsort = s.ctx.BoolSort()
	default:
		zsort = s.ctx.IntSort()
	}
	sym := s.ctx.Symbol(name)
	return &z3Term{ast: s.ctx.Const(sym, zsort)}
}

func (s *Z3Solver) IntConst(v int64) Term {
	return &z3Term{ast: s.ctx.Int64(v, s.ctx.IntSort())}
}

func (s *Z3Solver) BoolConst(v bool) Term {
	if v {
		return &z3Term{ast: s.ctx.True()}
	}
	return &z3Term{ast: s.ctx.False()}
}

func (s *Z3Solver) Neg(x Term) Term { return &z3Term{ast: unwrap(x).Neg()} }
func (s *Z3Solver) Not(x Term) Term { return &z3Term{ast: unwrap(x).Not()} }

func (s *Z3Solver) Add(a, b Term) Term { return &z3Term{ast: unwrap(a).Add(unwrap(b))} }
func (s *Z3Solver) Sub(a, b Term) Term { return &z3Term{ast: unwrap(a).Sub(unwrap(b))} }
func (s *Z3Solver) Mul(a, b Term) Term { return &z3Term{ast: unwrap(a).Mul(unwrap(b))} }
func (s *Z3Solver) Eq(a, b Term) Term  { return &z3Term{ast: unwrap(a).Eq(unwrap(b))} }
func (s *Z3Solver) Lt(a, b Term) Term  { return &z3Term{ast: unwrap(a).Lt(unwrap(b))} }
func (s *Z3Solver) Le(a, b Term) Term  { return &z3Term{ast: unwrap(a).Le(unwrap(b))} }
func (s *Z3Solver) Gt(a, b Term) Term  { return &z3Term{ast: unwrap(a).Gt(unwrap(b))} }
func (s *Z3Solver) Ge(a, b Term) Term  { return &z3Term{ast: unwrap(a).Ge(unwrap(b))} }
func (s *Z3Solver) And(a, b Term) Term { return &z3Term{ast: unwrap(a).And(unwrap(b))} }
func (s *Z3Solver) Or(a, b Term) Term  { return &z3Term{ast: unwrap(a).Or(unwrap(b))} }

func (s *Z3Solver) Assert(t Term) { s.solver.Assert(unwrap(t)) }

func (s *Z3Solver) Check() CheckResult {
	switch s.solver.Check() {
	case z3.True:
		return Sat
	case z3.False:
		return Unsat
	default:
		return Unknown
	}
}

// Model extracts variable bindings from the most recent Sat check via
// go-z3's model string rendering. The verifier only uses this for a
// diagnostic note (spec §4.7 "model:\n<bindings>"), so a best-effort
// single-string rendering under a synthetic key is an acceptable fallback
// when the installed go-z3 version doesn't expose per-declaration values.
func (s *Z3Solver) Model() map[string]string {
	m := s.solver.Model()
	if m == nil {
		return map[string]string{}
	}
	rendered := m.String()
	if rendered == "" {
		return map[string]string{}
	}
	return map[string]string{"model": rendered}
}

func (s *Z3Solver) Close() {
	s.solver.Close()
	s.ctx.Close()
	s.cfg.Close()
}
