// Package bytecode defines Curlee's VM-level Value/Chunk/OpCode data model
// (spec §3 "Bytecode") and the emitter that lowers a typed Program into a
// Chunk (spec §4.8).
package bytecode

import "fmt"

// ValueKind is the closed set of runtime value kinds the VM operates on.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindBool
	KindString
	KindUnit
)

// Value is a VM-level runtime value. Strings are immutable and
// value-semantic: copying a Value never aliases mutable state.
type Value struct {
	Kind ValueKind
	I    int64
	B    bool
	S    string
}

func Int(i int64) Value    { return Value{Kind: KindInt, I: i} }
func Bool(b bool) Value    { return Value{Kind: KindBool, B: b} }
func String(s string) Value { return Value{Kind: KindString, S: s} }
func Unit() Value          { return Value{Kind: KindUnit} }

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindBool:
		return fmt.Sprintf("%v", v.B)
	case KindString:
		return v.S
	default:
		return "unit"
	}
}

func (v Value) TypeName() string {
	switch v.Kind {
	case KindInt:
		return "Int"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	default:
		return "Unit"
	}
}
