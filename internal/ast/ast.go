// Package ast defines Curlee's typed AST (spec §3 "AST").
package ast

import "github.com/w4ffl35/curlee/internal/source"

// ExprID uniquely identifies an Expr within a Program after the final
// reassign-ids pass (spec §3 invariant).
type ExprID int

// Program is the root of a compilation unit: a sequence of top-level items
// in source order (spec §3 "AST").
type Program struct {
	File  string
	Items []Item
}

// Item is a top-level declaration: *Function, *Struct, *Enum or *Import.
type Item interface {
	itemNode()
}

// TypeName names a type reference, optionally marked as a capability type
// (spec §3 "AST").
type TypeName struct {
	Span        source.Span
	Name        string
	IsCapability bool
}

// Param is one function parameter, with an optional refinement predicate.
type Param struct {
	Span       source.Span
	Name       string
	Type       TypeName
	Refinement *Pred
}

// Function is a top-level `fn` declaration.
type Function struct {
	Span             source.Span
	Name             string
	Params           []Param
	ReturnType       *TypeName
	Body             Block
	RequiresClauses  []Pred
	Ensures          []Pred
}

func (*Function) itemNode() {}

// StructField is one field of a Struct declaration.
type StructField struct {
	Span source.Span
	Name string
	Type TypeName
}

// Struct is a top-level `struct` declaration; field names are unique.
type Struct struct {
	Span   source.Span
	Name   string
	Fields []StructField
}

func (*Struct) itemNode() {}

// EnumVariant is one variant of an Enum declaration, with an optional
// payload type.
type EnumVariant struct {
	Span    source.Span
	Name    string
	Payload *TypeName
}

// Enum is a top-level `enum` declaration; variant names are unique.
type Enum struct {
	Span     source.Span
	Name     string
	Variants []EnumVariant
}

func (*Enum) itemNode() {}

// Import is a top-level `import a.b.c (as alias)?` declaration.
type Import struct {
	Span         source.Span
	PathSegments []string
	Alias        string // empty when no `as` clause
}

func (*Import) itemNode() {}

// Block is a brace-delimited statement sequence.
type Block struct {
	Span  source.Span
	Stmts []Stmt
}
