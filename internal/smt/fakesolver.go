package smt

import "fmt"

// term node kinds for the in-memory fake solver's expression tree.
type termKind int

const (
	tIntLit termKind = iota
	tBoolLit
	tVar
	tNeg
	tNot
	tAdd
	tSub
	tMul
	tEq
	tLt
	tLe
	tGt
	tGe
	tAnd
	tOr
)

type fakeTerm struct {
	kind termKind
	i    int64
	b    bool
	name string
	sort Sort
	a, c Term // binary/unary operands (a unused for unary, c holds rhs)
}

func (*fakeTerm) isTerm() {}

// FakeSolver is a small bounded-domain search solver: it tries every
// assignment of declared variables within a fixed integer range and both
// booleans until it finds one satisfying every asserted term, or exhausts
// the space. It is not a general SMT solver — it exists so
// internal/verifier can be tested without a real Z3 installation (spec §4.7
// "push/pop solver environment").
type FakeSolver struct {
	vars       []fakeVarDecl
	frames     [][]Term // one slice of asserted terms per push frame
	lastModel  map[string]string
	intLow     int64
	intHigh    int64
}

type fakeVarDecl struct {
	name string
	sort Sort
}

// NewFakeSolver returns a FakeSolver that searches integers in [-16, 16]
// inclusive, which is ample for the small contracts exercised in tests.
func NewFakeSolver() *FakeSolver {
	return &FakeSolver{frames: [][]Term{{}}, intLow: -16, intHigh: 16}
}

func (s *FakeSolver) Push() { s.frames = append(s.frames, nil) }
func (s *FakeSolver) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func (s *FakeSolver) DeclareConst(name string, sort Sort) Term {
	s.vars = append(s.vars, fakeVarDecl{name: name, sort: sort})
	return &fakeTerm{kind: tVar, name: name, sort: sort}
}

func (s *FakeSolver) IntConst(v int64) Term   { return &fakeTerm{kind: tIntLit, i: v} }
func (s *FakeSolver) BoolConst(v bool) Term   { return &fakeTerm{kind: tBoolLit, b: v} }
func (s *FakeSolver) Neg(x Term) Term         { return &fakeTerm{kind: tNeg, c: x} }
func (s *FakeSolver) Not(x Term) Term         { return &fakeTerm{kind: tNot, c: x} }
func (s *FakeSolver) Add(a, b Term) Term      { return &fakeTerm{kind: tAdd, a: a, c: b} }
func (s *FakeSolver) Sub(a, b Term) Term      { return &fakeTerm{kind: tSub, a: a, c: b} }
func (s *FakeSolver) Mul(a, b Term) Term      { return &fakeTerm{kind: tMul, a: a, c: b} }
func (s *FakeSolver) Eq(a, b Term) Term       { return &fakeTerm{kind: tEq, a: a, c: b} }
func (s *FakeSolver) Lt(a, b Term) Term       { return &fakeTerm{kind: tLt, a: a, c: b} }
func (s *FakeSolver) Le(a, b Term) Term       { return &fakeTerm{kind: tLe, a: a, c: b} }
func (s *FakeSolver) Gt(a, b Term) Term       { return &fakeTerm{kind: tGt, a: a, c: b} }
func (s *FakeSolver) Ge(a, b Term) Term       { return &fakeTerm{kind: tGe, a: a, c: b} }
func (s *FakeSolver) And(a, b Term) Term      { return &fakeTerm{kind: tAnd, a: a, c: b} }
func (s *FakeSolver) Or(a, b Term) Term       { return &fakeTerm{kind: tOr, a: a, c: b} }

func (s *FakeSolver) Assert(t Term) {
	top := len(s.frames) - 1
	s.frames[top] = append(s.frames[top], t)
}

func (s *FakeSolver) allAsserted() []Term {
	var all []Term
	for _, f := range s.frames {
		all = append(all, f...)
	}
	return all
}

// Check performs a bounded brute-force search over every declared
// variable's domain. With more than a handful of variables this is
// exponential, which is acceptable for the small hand-written test
// contracts this solver exists for.
func (s *FakeSolver) Check() CheckResult {
	asserted := s.allAsserted()
	assignment := map[string]int64{}
	boolAssignment := map[string]bool{}

	if ok := s.search(0, assignment, boolAssignment, asserted); ok {
		return Sat
	}
	return Unsat
}

func (s *FakeSolver) search(i int, ints map[string]int64, bools map[string]bool, asserted []Term) bool {
	if i == len(s.vars) {
		for _, t := range asserted {
			v, ok := evalBool(t, ints, bools)
			if !ok || !v {
				return false
			}
		}
		s.lastModel = renderModel(ints, bools)
		return true
	}
	v := s.vars[i]
	if v.sort == SortBool {
		for _, b := range []bool{false, true} {
			bools[v.name] = b
			if s.search(i+1, ints, bools, asserted) {
				return true
			}
		}
		delete(bools, v.name)
		return false
	}
	for n := s.intLow; n <= s.intHigh; n++ {
		ints[v.name] = n
		if s.search(i+1, ints, bools, asserted) {
			return true
		}
	}
	delete(ints, v.name)
	return false
}

func renderModel(ints map[string]int64, bools map[string]bool) map[string]string {
	m := map[string]string{}
	for k, v := range ints {
		m[k] = fmt.Sprintf("%d", v)
	}
	for k, v := range bools {
		m[k] = fmt.Sprintf("%v", v)
	}
	return m
}

func (s *FakeSolver) Model() map[string]string {
	if s.lastModel == nil {
		return map[string]string{}
	}
	return s.lastModel
}

func (s *FakeSolver) Close() {}

func evalInt(t Term, ints map[string]int64, bools map[string]bool) (int64, bool) {
	ft := t.(*fakeTerm)
	switch ft.kind {
	case tIntLit:
		return ft.i, true
	case tVar:
		v, ok := ints[ft.name]
		return v, ok
	case tNeg:
		v, ok := evalInt(ft.c, ints, bools)
		return -v, ok
	case tAdd, tSub, tMul:
		a, aok := evalInt(ft.a, ints, bools)
		b, bok := evalInt(ft.c, ints, bools)
		if !aok || !bok {
			return 0, false
		}
		switch ft.kind {
		case tAdd:
			return a + b, true
		case tSub:
			return a - b, true
		default:
			return a * b, true
		}
	}
	return 0, false
}

func evalBool(t Term, ints map[string]int64, bools map[string]bool) (bool, bool) {
	ft := t.(*fakeTerm)
	switch ft.kind {
	case tBoolLit:
		return ft.b, true
	case tVar:
		v, ok := bools[ft.name]
		return v, ok
	case tNot:
		v, ok := evalBool(ft.c, ints, bools)
		return !v, ok
	case tAnd:
		a, aok := evalBool(ft.a, ints, bools)
		b, bok := evalBool(ft.c, ints, bools)
		return a && b, aok && bok
	case tOr:
		a, aok := evalBool(ft.a, ints, bools)
		b, bok := evalBool(ft.c, ints, bools)
		return a || b, aok && bok
	case tEq:
		if isIntTerm(ft.a) {
			a, aok := evalInt(ft.a, ints, bools)
			b, bok := evalInt(ft.c, ints, bools)
			return a == b, aok && bok
		}
		a, aok := evalBool(ft.a, ints, bools)
		b, bok := evalBool(ft.c, ints, bools)
		return a == b, aok && bok
	case tLt, tLe, tGt, tGe:
		a, aok := evalInt(ft.a, ints, bools)
		b, bok := evalInt(ft.c, ints, bools)
		if !aok || !bok {
			return false, false
		}
		switch ft.kind {
		case tLt:
			return a < b, true
		case tLe:
			return a <= b, true
		case tGt:
			return a > b, true
		default:
			return a >= b, true
		}
	}
	return false, false
}

// isIntTerm makes a best-effort guess at whether t denotes an Int-sorted
// subterm, so Eq can dispatch to the right evaluator.
func isIntTerm(t Term) bool {
	ft := t.(*fakeTerm)
	switch ft.kind {
	case tIntLit, tNeg, tAdd, tSub, tMul:
		return true
	case tVar:
		return ft.sort == SortInt
	case tEq, tLt, tLe, tGt, tGe, tAnd, tOr, tNot, tBoolLit:
		return false
	}
	return false
}
