// Package smt defines the solver capability the contract verifier depends
// on (spec §4.6, §4.7), keeping the verifier decoupled from any one SMT
// backend's API surface. The real backend (z3solver.go) wraps
// github.com/mitchellh/go-z3; fakesolver.go is a small bounded-search
// solver used by tests.
package smt

// Sort is the SMT sort of a declared variable or literal.
type Sort int

const (
	SortInt Sort = iota
	SortBool
)

// Term is an opaque handle to a built SMT expression. Its only valid uses
// are as an argument to another Solver method or to Assert.
type Term interface {
	isTerm()
}

// CheckResult is the three-valued outcome of a Check call (spec §4.7
// "Sat ⇒ violation ... Unsat ⇒ pass ... Unknown ⇒ violation").
type CheckResult int

const (
	Unsat CheckResult = iota
	Sat
	Unknown
)

func (r CheckResult) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Solver is the push/pop/assert/check/model capability the verifier needs.
// Implementations must support nested Push/Pop pairs (spec §4.7 "Scopes").
type Solver interface {
	Push()
	Pop()

	DeclareConst(name string, sort Sort) Term
	IntConst(v int64) Term
	BoolConst(v bool) Term

	Neg(x Term) Term
	Not(x Term) Term
	Add(a, b Term) Term
	Sub(a, b Term) Term
	Mul(a, b Term) Term
	Eq(a, b Term) Term
	Lt(a, b Term) Term
	Le(a, b Term) Term
	Gt(a, b Term) Term
	Ge(a, b Term) Term
	And(a, b Term) Term
	Or(a, b Term) Term

	Assert(t Term)
	Check() CheckResult

	// Model returns a best-effort variable-name -> value-string map for the
	// most recent Sat Check() result (spec §4.7 "model:\n<bindings>").
	// Implementations may return a partial or empty map when extraction
	// isn't possible; callers must treat an empty map as "no model shown".
	Model() map[string]string

	// Close releases backend resources. Safe to call multiple times.
	Close()
}
