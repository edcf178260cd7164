package ast

import "github.com/w4ffl35/curlee/internal/source"

// Expr is one expression node. Every Expr carries a unique ID (assigned by
// ReassignExprIDs after a full parse) and its source span; Node holds the
// variant-specific payload (spec §3 "AST").
type Expr struct {
	ID   ExprID
	Span source.Span
	Node ExprNode
}

// ExprNode is the variant payload of an Expr: IntExpr, BoolExpr, StringExpr,
// NameExpr, ScopedNameExpr, MemberExpr, UnaryExpr, BinaryExpr, CallExpr,
// GroupExpr or StructLiteralExpr.
type ExprNode interface {
	exprNode()
}

// IntExpr is an integer literal; Lexeme preserves the original digits.
type IntExpr struct{ Lexeme string }

func (IntExpr) exprNode() {}

// BoolExpr is a `true`/`false` literal.
type BoolExpr struct{ Value bool }

func (BoolExpr) exprNode() {}

// StringExpr is a string literal; Lexeme is the raw source text (with
// quotes/escapes), Decoded is the escape-processed value.
type StringExpr struct {
	Lexeme  string
	Decoded string
}

func (StringExpr) exprNode() {}

// NameExpr is a bare identifier reference.
type NameExpr struct{ Name string }

func (NameExpr) exprNode() {}

// ScopedNameExpr is `Lhs::Rhs` (enum-variant or module-qualified reference).
type ScopedNameExpr struct {
	Lhs string
	Rhs string
}

func (ScopedNameExpr) exprNode() {}

// MemberExpr is `Base.Member` (struct field access).
type MemberExpr struct {
	Base   *Expr
	Member string
}

func (MemberExpr) exprNode() {}

// UnaryOp is a prefix operator: `-` or `!`.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// UnaryExpr is `Op Rhs`.
type UnaryExpr struct {
	Op  UnaryOp
	Rhs *Expr
}

func (UnaryExpr) exprNode() {}

// BinaryOp is an infix operator.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpEq  BinaryOp = "=="
	OpNeq BinaryOp = "!="
	OpLt  BinaryOp = "<"
	OpLe  BinaryOp = "<="
	OpGt  BinaryOp = ">"
	OpGe  BinaryOp = ">="
	OpAnd BinaryOp = "&&"
	OpOr  BinaryOp = "||"
)

// BinaryExpr is `Lhs Op Rhs`.
type BinaryExpr struct {
	Op  BinaryOp
	Lhs *Expr
	Rhs *Expr
}

func (BinaryExpr) exprNode() {}

// CallExpr is `Callee(Args...)`.
type CallExpr struct {
	Callee *Expr
	Args   []*Expr
}

func (CallExpr) exprNode() {}

// GroupExpr is a parenthesized expression, kept distinct from its Inner so
// span information about the parentheses is not lost.
type GroupExpr struct{ Inner *Expr }

func (GroupExpr) exprNode() {}

// StructLiteralField is one `name: value` pair inside a struct literal.
type StructLiteralField struct {
	Span  source.Span
	Name  string
	Value *Expr
}

// StructLiteralExpr is `TypeName{field: expr, ...}`.
type StructLiteralExpr struct {
	TypeName string
	Fields   []StructLiteralField
}

func (StructLiteralExpr) exprNode() {}

// ReassignExprIDs walks prog in pre-order and assigns each Expr a fresh,
// monotonically increasing ID, establishing the spec §3 uniqueness
// invariant. It must be the final step of parsing a merged Program.
func ReassignExprIDs(prog *Program) {
	next := ExprID(0)
	var walkExpr func(e *Expr)
	walkExpr = func(e *Expr) {
		if e == nil {
			return
		}
		e.ID = next
		next++
		switch n := e.Node.(type) {
		case UnaryExpr:
			walkExpr(n.Rhs)
		case BinaryExpr:
			walkExpr(n.Lhs)
			walkExpr(n.Rhs)
		case CallExpr:
			walkExpr(n.Callee)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case GroupExpr:
			walkExpr(n.Inner)
		case MemberExpr:
			walkExpr(n.Base)
		case StructLiteralExpr:
			for _, f := range n.Fields {
				walkExpr(f.Value)
			}
		}
	}
	var walkBlock func(b Block)
	var walkStmt func(s Stmt)
	walkStmt = func(s Stmt) {
		switch st := s.(type) {
		case *LetStmt:
			walkExpr(st.Value)
		case *ReturnStmt:
			walkExpr(st.Value)
		case *ExprStmt:
			walkExpr(st.Expr)
		case *IfStmt:
			walkExpr(st.Cond)
			walkBlock(st.Then)
			if st.Else != nil {
				walkBlock(*st.Else)
			}
		case *WhileStmt:
			walkExpr(st.Cond)
			walkBlock(st.Body)
		case *BlockStmt:
			walkBlock(st.Block)
		case *UnsafeStmt:
			walkBlock(st.Body)
		}
	}
	walkBlock = func(b Block) {
		for _, s := range b.Stmts {
			walkStmt(s)
		}
	}
	for _, item := range prog.Items {
		if fn, ok := item.(*Function); ok {
			walkBlock(fn.Body)
		}
	}
}
