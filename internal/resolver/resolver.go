// Package resolver binds name uses to symbol definitions across a merged
// Program (spec §4.4), following the teacher's two-pass (collect, then
// descend) scope-stack shape.
package resolver

import (
	"fmt"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/source"
)

// SymID uniquely identifies a Symbol within a Resolution.
type SymID int

// SymKind classifies what a Symbol names.
type SymKind int

const (
	SymFunction SymKind = iota
	SymParam
	SymLocal
	SymType
	SymEnumVariant
	SymImport
)

func (k SymKind) String() string {
	switch k {
	case SymFunction:
		return "function"
	case SymParam:
		return "param"
	case SymLocal:
		return "local"
	case SymType:
		return "type"
	case SymEnumVariant:
		return "enum variant"
	case SymImport:
		return "import"
	}
	return "unknown"
}

// Symbol is one declared name.
type Symbol struct {
	ID   SymID
	Name string
	Span source.Span
	Kind SymKind
}

// Use records one resolved name reference.
type Use struct {
	Span   source.Span
	Target SymID
}

// Resolution is the output of a successful resolve pass: every declared
// symbol and every resolved use, keyed by the Expr.ID of the referencing
// name/scoped-name/member expression for uses that originate from
// expressions.
type Resolution struct {
	Symbols  []Symbol
	Uses     []Use
	ExprUse  map[ast.ExprID]SymID
	reserved map[string]bool
}

// reservedBuiltins names that are not ordinary identifiers: using them as a
// plain value outside their special forms is reserved behavior (spec §4.4).
var reservedBuiltins = map[string]bool{
	"print":      true,
	"python_ffi": true,
}

type scope struct {
	names map[string]SymID
}

// resolver carries mutable state across the two passes.
type resolver struct {
	res    *Resolution
	nextID SymID
	scopes []scope
	diags  []source.Diagnostic

	funcs   map[string]SymID
	types   map[string]SymID // structs and enums
	imports map[string]SymID
	enumVariants map[string]map[string]SymID // enum name -> variant name -> sym
}

// Resolve runs the resolver over prog, returning a Resolution on success or
// a non-empty diagnostics slice on failure.
func Resolve(prog *ast.Program) (*Resolution, []source.Diagnostic) {
	r := &resolver{
		res: &Resolution{
			ExprUse: map[ast.ExprID]SymID{},
		},
		funcs:        map[string]SymID{},
		types:        map[string]SymID{},
		imports:      map[string]SymID{},
		enumVariants: map[string]map[string]SymID{},
	}
	r.pushScope()
	r.collectTopLevel(prog)
	for _, item := range prog.Items {
		if fn, ok := item.(*ast.Function); ok {
			r.resolveFunction(fn)
		}
	}
	r.popScope()
	if len(r.diags) > 0 {
		return nil, r.diags
	}
	return r.res, nil
}

func (r *resolver) errorf(sp source.Span, format string, args ...interface{}) {
	r.diags = append(r.diags, source.NewError(fmt.Sprintf(format, args...), sp))
}

func (r *resolver) newSymbol(name string, sp source.Span, kind SymKind) SymID {
	id := r.nextID
	r.nextID++
	r.res.Symbols = append(r.res.Symbols, Symbol{ID: id, Name: name, Span: sp, Kind: kind})
	return id
}

func (r *resolver) pushScope() { r.scopes = append(r.scopes, scope{names: map[string]SymID{}}) }
func (r *resolver) popScope()  { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *resolver) declare(name string, sp source.Span, kind SymKind) SymID {
	id := r.newSymbol(name, sp, kind)
	r.scopes[len(r.scopes)-1].names[name] = id
	return id
}

func (r *resolver) lookup(name string) (SymID, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if id, ok := r.scopes[i].names[name]; ok {
			return id, true
		}
	}
	return 0, false
}

func (r *resolver) use(sp source.Span, target SymID) {
	r.res.Uses = append(r.res.Uses, Use{Span: sp, Target: target})
}

// collectTopLevel is pass 1: functions, structs, enums (and their variants),
// and imports all land in the root scope before any body is resolved, so
// forward references (a function calling one declared later) work.
func (r *resolver) collectTopLevel(prog *ast.Program) {
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.Function:
			if _, dup := r.funcs[it.Name]; dup {
				r.errorf(it.Span, "duplicate function: '%s'", it.Name)
				continue
			}
			id := r.declare(it.Name, it.Span, SymFunction)
			r.funcs[it.Name] = id
		case *ast.Struct:
			if _, dup := r.types[it.Name]; dup {
				r.errorf(it.Span, "duplicate type: '%s'", it.Name)
				continue
			}
			id := r.declare(it.Name, it.Span, SymType)
			r.types[it.Name] = id
		case *ast.Enum:
			if _, dup := r.types[it.Name]; dup {
				r.errorf(it.Span, "duplicate type: '%s'", it.Name)
				continue
			}
			id := r.declare(it.Name, it.Span, SymType)
			r.types[it.Name] = id
			variants := map[string]SymID{}
			for _, v := range it.Variants {
				vid := r.newSymbol(v.Name, v.Span, SymEnumVariant)
				variants[v.Name] = vid
			}
			r.enumVariants[it.Name] = variants
		case *ast.Import:
			alias := it.Alias
			if alias == "" && len(it.PathSegments) > 0 {
				alias = it.PathSegments[len(it.PathSegments)-1]
			}
			if _, dup := r.imports[alias]; dup {
				r.errorf(it.Span, "duplicate import alias: '%s'", alias)
				continue
			}
			id := r.declare(alias, it.Span, SymImport)
			r.imports[alias] = id
		}
	}
}

func (r *resolver) resolveFunction(fn *ast.Function) {
	r.pushScope()
	for i := range fn.Params {
		p := &fn.Params[i]
		if reservedBuiltins[p.Name] {
			r.errorf(p.Span, "'%s' is a reserved builtin and cannot be used as a parameter name", p.Name)
		}
		r.declare(p.Name, p.Span, SymParam)
		if p.Refinement != nil {
			r.resolvePred(p.Refinement)
		}
	}
	for i := range fn.RequiresClauses {
		r.resolvePred(&fn.RequiresClauses[i])
	}
	for i := range fn.Ensures {
		r.resolvePred(&fn.Ensures[i])
	}
	r.resolveBlock(fn.Body)
	r.popScope()
}

func (r *resolver) resolveBlock(b ast.Block) {
	r.pushScope()
	for _, s := range b.Stmts {
		r.resolveStmt(s)
	}
	r.popScope()
}

func (r *resolver) resolveStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.LetStmt:
		if reservedBuiltins[st.Name] {
			r.errorf(st.Span, "'%s' is a reserved builtin and cannot be used as a let name", st.Name)
		}
		// Let is declared before its initializer is resolved (spec §4.4).
		r.declare(st.Name, st.Span, SymLocal)
		if st.Refinement != nil {
			r.resolvePred(st.Refinement)
		}
		r.resolveExpr(st.Value)
	case *ast.ReturnStmt:
		if st.Value != nil {
			r.resolveExpr(st.Value)
		}
	case *ast.ExprStmt:
		r.resolveExpr(st.Expr)
	case *ast.IfStmt:
		r.resolveExpr(st.Cond)
		r.resolveBlock(st.Then)
		if st.Else != nil {
			r.resolveBlock(*st.Else)
		}
	case *ast.WhileStmt:
		r.resolveExpr(st.Cond)
		r.resolveBlock(st.Body)
	case *ast.BlockStmt:
		r.resolveBlock(st.Block)
	case *ast.UnsafeStmt:
		r.resolveBlock(st.Body)
	}
}

func (r *resolver) resolveExpr(e *ast.Expr) {
	if e == nil {
		return
	}
	switch n := e.Node.(type) {
	case ast.NameExpr:
		r.resolveName(e, n.Name)
	case ast.ScopedNameExpr:
		if variants, ok := r.enumVariants[n.Lhs]; ok {
			if vid, ok := variants[n.Rhs]; ok {
				r.res.ExprUse[e.ID] = vid
				r.use(e.Span, vid)
				return
			}
			r.errorf(e.Span, "unknown enum variant: '%s::%s'", n.Lhs, n.Rhs)
			return
		}
		// Module-qualified lookup is deferred to type-checking (spec §4.4).
	case ast.MemberExpr:
		r.resolveExpr(n.Base)
	case ast.UnaryExpr:
		r.resolveExpr(n.Rhs)
	case ast.BinaryExpr:
		r.resolveExpr(n.Lhs)
		r.resolveExpr(n.Rhs)
	case ast.CallExpr:
		r.resolveCallCallee(n.Callee)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}
	case ast.GroupExpr:
		r.resolveExpr(n.Inner)
	case ast.StructLiteralExpr:
		if id, ok := r.types[n.TypeName]; ok {
			r.res.ExprUse[e.ID] = id
			r.use(e.Span, id)
		} else {
			r.errorf(e.Span, "unknown type: '%s'", n.TypeName)
		}
		for _, f := range n.Fields {
			r.resolveExpr(f.Value)
		}
	}
}

// resolveCallCallee resolves the callee position of a Call specially: a bare
// NameExpr there is allowed to name a function (function names are otherwise
// not values, spec §4.4 "function name as value is an error").
func (r *resolver) resolveCallCallee(callee *ast.Expr) {
	switch n := callee.Node.(type) {
	case ast.NameExpr:
		if id, ok := r.lookup(n.Name); ok {
			r.res.ExprUse[callee.ID] = id
			r.use(callee.Span, id)
			return
		}
		if reservedBuiltins[n.Name] {
			return
		}
		r.errorf(callee.Span, "unknown name: '%s'", n.Name)
	case ast.MemberExpr:
		// `alias.call(...)`-shaped: base resolution (alias/qualifier) is
		// deferred to type-checking, per spec §4.4. A reserved-builtin base
		// (e.g. `python_ffi.call`) names the builtin itself, not a value.
		if base, ok := n.Base.Node.(ast.NameExpr); ok && reservedBuiltins[base.Name] {
			return
		}
		r.resolveExpr(n.Base)
	case ast.ScopedNameExpr:
		r.resolveExpr(callee)
	default:
		r.resolveExpr(callee)
	}
}

func (r *resolver) resolveName(e *ast.Expr, name string) {
	if name == "" {
		return
	}
	if reservedBuiltins[name] {
		r.errorf(e.Span, "'%s' is a reserved builtin and cannot be used as an ordinary name", name)
		return
	}
	id, ok := r.lookup(name)
	if !ok {
		r.errorf(e.Span, "unknown name: '%s'", name)
		return
	}
	if sym := r.symbolByID(id); sym != nil && sym.Kind == SymFunction {
		r.errorf(e.Span, "function '%s' used as a value", name)
		return
	}
	r.res.ExprUse[e.ID] = id
	r.use(e.Span, id)
}

func (r *resolver) symbolByID(id SymID) *Symbol {
	for i := range r.res.Symbols {
		if r.res.Symbols[i].ID == id {
			return &r.res.Symbols[i]
		}
	}
	return nil
}

func (r *resolver) resolvePred(p *ast.Pred) {
	if p == nil {
		return
	}
	switch n := p.Node.(type) {
	case ast.PredName:
		if n.Name == "result" {
			return
		}
		if _, ok := r.lookup(n.Name); !ok {
			r.errorf(p.Span, "unknown name in predicate: '%s'", n.Name)
		}
	case ast.PredUnary:
		r.resolvePred(n.Rhs)
	case ast.PredBinary:
		r.resolvePred(n.Lhs)
		r.resolvePred(n.Rhs)
	case ast.PredGroup:
		r.resolvePred(n.Inner)
	}
}
