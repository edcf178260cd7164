// Package types assigns a Type to every typed expression in a Program
// (spec §4.5 "Type checker"), following the teacher's declare-signatures-
// then-check-bodies phase split.
package types

import "github.com/w4ffl35/curlee/internal/ast"

// Kind is one of the small closed set of Curlee type kinds.
type Kind string

const (
	Int        Kind = "Int"
	Bool       Kind = "Bool"
	String     Kind = "String"
	Unit       Kind = "Unit"
	Struct     Kind = "Struct"
	Enum       Kind = "Enum"
	Capability Kind = "Capability"
)

// Type is a Curlee type. Struct/Enum/Capability carry the declared name;
// types compare by structural equality (spec §3 "Types").
type Type struct {
	Kind Kind
	Name string
}

func (t Type) String() string {
	switch t.Kind {
	case Struct, Enum, Capability:
		return t.Name
	default:
		return string(t.Kind)
	}
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool { return t.Kind == o.Kind && t.Name == o.Name }

// IsScalar reports whether t is Int or Bool — the only kinds the verifier
// can reason about (spec §4.7 "Unsupported param types").
func (t Type) IsScalar() bool { return t.Kind == Int || t.Kind == Bool }

var (
	TInt    = Type{Kind: Int}
	TBool   = Type{Kind: Bool}
	TString = Type{Kind: String}
	TUnit   = Type{Kind: Unit}
)

// Signature is a function's parameter and return types.
type Signature struct {
	Params []Type
	Return Type
}

// StructDef records a struct's field types in declaration order.
type StructDef struct {
	Name        string
	FieldOrder  []string
	FieldTypes  map[string]Type
}

// EnumDef records an enum's variants; a nil payload type means the variant
// carries no payload.
type EnumDef struct {
	Name         string
	VariantOrder []string
	Payloads     map[string]*Type
}

// TypeInfo is the successful output of Check: every type-checked
// expression's type, keyed by its unique Expr.ID. Entries are omitted for
// expressions that failed to type (spec §3 "partial expr_types are not
// leaked").
type TypeInfo struct {
	ExprTypes map[ast.ExprID]Type
	Funcs     map[string]Signature
	Structs   map[string]*StructDef
	Enums     map[string]*EnumDef
}
