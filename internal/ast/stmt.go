package ast

import "github.com/w4ffl35/curlee/internal/source"

// Stmt is a statement node: *LetStmt, *ReturnStmt, *ExprStmt, *IfStmt,
// *WhileStmt, *BlockStmt or *UnsafeStmt (spec §3 "AST").
type Stmt interface {
	stmtNode()
	GetSpan() source.Span
}

// LetStmt is `let NAME: TYPE (where PRED)? = EXPR;`.
type LetStmt struct {
	Span       source.Span
	Name       string
	Type       TypeName
	Refinement *Pred
	Value      *Expr
}

func (s *LetStmt) stmtNode()             {}
func (s *LetStmt) GetSpan() source.Span { return s.Span }

// ReturnStmt is `return EXPR? ;`.
type ReturnStmt struct {
	Span  source.Span
	Value *Expr // nil for a bare `return;`
}

func (s *ReturnStmt) stmtNode()             {}
func (s *ReturnStmt) GetSpan() source.Span { return s.Span }

// ExprStmt wraps a bare expression used as a statement.
type ExprStmt struct {
	Span source.Span
	Expr *Expr
}

func (s *ExprStmt) stmtNode()             {}
func (s *ExprStmt) GetSpan() source.Span { return s.Span }

// IfStmt is `if (COND) THEN (else ELSE)?`.
type IfStmt struct {
	Span source.Span
	Cond *Expr
	Then Block
	Else *Block // nil when no else clause
}

func (s *IfStmt) stmtNode()             {}
func (s *IfStmt) GetSpan() source.Span { return s.Span }

// WhileStmt is `while (COND) BODY`.
type WhileStmt struct {
	Span source.Span
	Cond *Expr
	Body Block
}

func (s *WhileStmt) stmtNode()             {}
func (s *WhileStmt) GetSpan() source.Span { return s.Span }

// BlockStmt wraps a nested, explicit `{ ... }` block used as a statement.
type BlockStmt struct {
	Span  source.Span
	Block Block
}

func (s *BlockStmt) stmtNode()             {}
func (s *BlockStmt) GetSpan() source.Span { return s.Span }

// UnsafeStmt is `unsafe { ... }`, the only place `python_ffi.call` is legal.
type UnsafeStmt struct {
	Span source.Span
	Body Block
}

func (s *UnsafeStmt) stmtNode()             {}
func (s *UnsafeStmt) GetSpan() source.Span { return s.Span }
