package ast

import "github.com/w4ffl35/curlee/internal/source"

// Pred is a refinement/contract predicate. It mirrors Expr but is
// restricted to the node kinds verification can reason about: PredInt,
// PredBool, PredName, PredUnary, PredBinary, PredGroup (spec §3 "AST").
// The distinguished name `result` binds to the return value inside an
// `ensures` clause.
type Pred struct {
	Span source.Span
	Node PredNode
}

// PredNode is the variant payload of a Pred.
type PredNode interface {
	predNode()
}

// PredInt is an integer literal inside a predicate.
type PredInt struct{ Lexeme string }

func (PredInt) predNode() {}

// PredBool is a `true`/`false` literal inside a predicate.
type PredBool struct{ Value bool }

func (PredBool) predNode() {}

// PredName is an identifier reference inside a predicate (including the
// distinguished name `result`).
type PredName struct{ Name string }

func (PredName) predNode() {}

// PredUnary is a prefix operator applied to a predicate.
type PredUnary struct {
	Op  UnaryOp
	Rhs *Pred
}

func (PredUnary) predNode() {}

// PredBinary is an infix operator applied to two predicates.
type PredBinary struct {
	Op  BinaryOp
	Lhs *Pred
	Rhs *Pred
}

func (PredBinary) predNode() {}

// PredGroup is a parenthesized predicate.
type PredGroup struct{ Inner *Pred }

func (PredGroup) predNode() {}
