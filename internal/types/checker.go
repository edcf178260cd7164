package types

import (
	"fmt"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/source"
)

var builtinTypes = map[string]Type{
	"int":    TInt,
	"bool":   TBool,
	"string": TString,
	"unit":   TUnit,
}

type checker struct {
	structs map[string]*StructDef
	enums   map[string]*EnumDef
	funcs   map[string]Signature
	imports map[string]bool
	scopes  []map[string]Type
	exprTy   map[ast.ExprID]Type
	diags    []source.Diagnostic
	curFn    *ast.Function
	inUnsafe bool
}

// Check computes TypeInfo for prog, or returns a non-empty diagnostics
// slice on failure (spec §4.5).
func Check(prog *ast.Program) (*TypeInfo, []source.Diagnostic) {
	c := &checker{
		structs: map[string]*StructDef{},
		enums:   map[string]*EnumDef{},
		funcs:   map[string]Signature{},
		imports: map[string]bool{},
		exprTy:  map[ast.ExprID]Type{},
	}
	c.collectTypes(prog)
	c.collectSignatures(prog)
	c.collectImports(prog)
	if len(c.diags) > 0 {
		return nil, c.diags
	}
	for _, item := range prog.Items {
		if fn, ok := item.(*ast.Function); ok {
			c.checkFunction(fn)
		}
	}
	if len(c.diags) > 0 {
		return nil, c.diags
	}
	return &TypeInfo{ExprTypes: c.exprTy, Funcs: c.funcs, Structs: c.structs, Enums: c.enums}, nil
}

func (c *checker) errorf(sp source.Span, format string, args ...interface{}) {
	c.diags = append(c.diags, source.NewError(fmt.Sprintf(format, args...), sp))
}

func (c *checker) resolveTypeName(tn ast.TypeName) (Type, bool) {
	if tn.IsCapability {
		return Type{Kind: Capability, Name: tn.Name}, true
	}
	if t, ok := builtinTypes[tn.Name]; ok {
		return t, true
	}
	if _, ok := c.structs[tn.Name]; ok {
		return Type{Kind: Struct, Name: tn.Name}, true
	}
	if _, ok := c.enums[tn.Name]; ok {
		return Type{Kind: Enum, Name: tn.Name}, true
	}
	c.errorf(tn.Span, "unknown type: '%s'", tn.Name)
	return Type{}, false
}

func (c *checker) collectTypes(prog *ast.Program) {
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.Struct:
			if _, dup := c.structs[it.Name]; dup {
				c.errorf(it.Span, "duplicate type: '%s'", it.Name)
				continue
			}
			c.structs[it.Name] = &StructDef{Name: it.Name, FieldTypes: map[string]Type{}}
		case *ast.Enum:
			if _, dup := c.enums[it.Name]; dup {
				c.errorf(it.Span, "duplicate type: '%s'", it.Name)
				continue
			}
			c.enums[it.Name] = &EnumDef{Name: it.Name, Payloads: map[string]*Type{}}
		}
	}
	// Field/variant types resolved in a second sub-pass so struct/enum
	// names used as field types can appear in any declaration order.
	for _, item := range prog.Items {
		switch it := item.(type) {
		case *ast.Struct:
			def := c.structs[it.Name]
			for _, f := range it.Fields {
				ft, ok := c.resolveTypeName(f.Type)
				if !ok {
					continue
				}
				def.FieldOrder = append(def.FieldOrder, f.Name)
				def.FieldTypes[f.Name] = ft
			}
		case *ast.Enum:
			def := c.enums[it.Name]
			for _, v := range it.Variants {
				def.VariantOrder = append(def.VariantOrder, v.Name)
				if v.Payload != nil {
					pt, ok := c.resolveTypeName(*v.Payload)
					if ok {
						def.Payloads[v.Name] = &pt
					}
				} else {
					def.Payloads[v.Name] = nil
				}
			}
		}
	}
}

func (c *checker) collectSignatures(prog *ast.Program) {
	for _, item := range prog.Items {
		fn, ok := item.(*ast.Function)
		if !ok {
			continue
		}
		if _, dup := c.funcs[fn.Name]; dup {
			c.errorf(fn.Span, "duplicate function: '%s'", fn.Name)
			continue
		}
		if fn.ReturnType == nil {
			c.errorf(fn.Span, "missing return type annotation on function '%s'", fn.Name)
			continue
		}
		ret, ok := c.resolveTypeName(*fn.ReturnType)
		if !ok {
			continue
		}
		var params []Type
		ok = true
		for _, p := range fn.Params {
			pt, good := c.resolveTypeName(p.Type)
			if !good {
				ok = false
				continue
			}
			params = append(params, pt)
		}
		if !ok {
			continue
		}
		c.funcs[fn.Name] = Signature{Params: params, Return: ret}
	}
}

// collectImports records every import alias visible at the entry module's
// top level (spec §4.3: the loader merges every module's functions into one
// flat namespace, so an alias only needs recording, not a per-module
// function table — `alias.fn(...)` and `fn(...)` resolve to the same merged
// signature once alias is confirmed to name a real import).
func (c *checker) collectImports(prog *ast.Program) {
	for _, item := range prog.Items {
		imp, ok := item.(*ast.Import)
		if !ok {
			continue
		}
		alias := imp.Alias
		if alias == "" && len(imp.PathSegments) > 0 {
			alias = imp.PathSegments[len(imp.PathSegments)-1]
		}
		if alias != "" {
			c.imports[alias] = true
		}
	}
}

func (c *checker) pushScope() { c.scopes = append(c.scopes, map[string]Type{}) }
func (c *checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *checker) declare(name string, t Type) { c.scopes[len(c.scopes)-1][name] = t }

func (c *checker) lookup(name string) (Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return Type{}, false
}

func (c *checker) checkFunction(fn *ast.Function) {
	c.curFn = fn
	sig := c.funcs[fn.Name]
	c.pushScope()
	for i, p := range fn.Params {
		if i < len(sig.Params) {
			c.declare(p.Name, sig.Params[i])
		}
	}
	c.checkBlock(fn.Body, sig.Return)
	c.popScope()
	c.curFn = nil
}

func (c *checker) checkBlock(b ast.Block, returnType Type) {
	c.pushScope()
	for _, s := range b.Stmts {
		c.checkStmt(s, returnType)
	}
	c.popScope()
}

func (c *checker) checkStmt(s ast.Stmt, returnType Type) {
	switch st := s.(type) {
	case *ast.LetStmt:
		declared, ok := c.resolveTypeName(st.Type)
		if !ok {
			declared = Type{}
		}
		// Let is declared before its initializer is checked (spec §4.5).
		c.declare(st.Name, declared)
		vt, ok := c.checkExpr(st.Value)
		if ok && !vt.Equal(declared) {
			c.errorf(st.Span, "let '%s' declared as %s but initializer has type %s", st.Name, declared, vt)
		}
	case *ast.ReturnStmt:
		if st.Value == nil {
			if returnType.Kind != Unit {
				c.errorf(st.Span, "bare return is only legal in a Unit-returning function")
			}
			return
		}
		vt, ok := c.checkExpr(st.Value)
		if ok && !vt.Equal(returnType) {
			c.errorf(st.Value.Span, "return value has type %s but function returns %s", vt, returnType)
		}
	case *ast.ExprStmt:
		c.checkExpr(st.Expr)
	case *ast.IfStmt:
		ct, ok := c.checkExpr(st.Cond)
		if ok && ct.Kind != Bool {
			c.errorf(st.Cond.Span, "if condition must be Bool, found %s", ct)
		}
		c.checkBlock(st.Then, returnType)
		if st.Else != nil {
			c.checkBlock(*st.Else, returnType)
		}
	case *ast.WhileStmt:
		ct, ok := c.checkExpr(st.Cond)
		if ok && ct.Kind != Bool {
			c.errorf(st.Cond.Span, "while condition must be Bool, found %s", ct)
		}
		c.checkBlock(st.Body, returnType)
	case *ast.BlockStmt:
		c.checkBlock(st.Block, returnType)
	case *ast.UnsafeStmt:
		prev := c.inUnsafe
		c.inUnsafe = true
		c.checkBlock(st.Body, returnType)
		c.inUnsafe = prev
	}
}

// checkExpr type-checks e, records its type into c.exprTy on success, and
// reports whether checking succeeded.
func (c *checker) checkExpr(e *ast.Expr) (Type, bool) {
	if e == nil {
		return Type{}, false
	}
	t, ok := c.checkExprNode(e)
	if ok {
		c.exprTy[e.ID] = t
	}
	return t, ok
}

func (c *checker) checkExprNode(e *ast.Expr) (Type, bool) {
	switch n := e.Node.(type) {
	case ast.IntExpr:
		return TInt, true
	case ast.BoolExpr:
		return TBool, true
	case ast.StringExpr:
		return TString, true
	case ast.NameExpr:
		return c.checkName(e, n.Name)
	case ast.ScopedNameExpr:
		return c.checkScopedName(e, n)
	case ast.MemberExpr:
		return c.checkMember(e, n)
	case ast.UnaryExpr:
		return c.checkUnary(e, n)
	case ast.BinaryExpr:
		return c.checkBinary(e, n)
	case ast.CallExpr:
		return c.checkCall(e, n)
	case ast.GroupExpr:
		return c.checkExpr(n.Inner)
	case ast.StructLiteralExpr:
		return c.checkStructLiteral(e, n)
	}
	c.errorf(e.Span, "internal error: unhandled expression node")
	return Type{}, false
}

func (c *checker) checkName(e *ast.Expr, name string) (Type, bool) {
	if _, isFn := c.funcs[name]; isFn {
		c.errorf(e.Span, "function '%s' used as a value", name)
		return Type{}, false
	}
	t, ok := c.lookup(name)
	if !ok {
		c.errorf(e.Span, "unknown name: '%s'", name)
		return Type{}, false
	}
	return t, true
}

func (c *checker) checkScopedName(e *ast.Expr, n ast.ScopedNameExpr) (Type, bool) {
	en, ok := c.enums[n.Lhs]
	if !ok {
		c.errorf(e.Span, "unknown enum: '%s'", n.Lhs)
		return Type{}, false
	}
	payload, known := en.Payloads[n.Rhs]
	if !known {
		c.errorf(e.Span, "unknown enum variant: '%s::%s'", n.Lhs, n.Rhs)
		return Type{}, false
	}
	if payload != nil {
		c.errorf(e.Span, "enum variant '%s::%s' carries a payload; use %s::%s(...)", n.Lhs, n.Rhs, n.Lhs, n.Rhs)
		return Type{}, false
	}
	return Type{Kind: Enum, Name: n.Lhs}, true
}

func (c *checker) checkMember(e *ast.Expr, n ast.MemberExpr) (Type, bool) {
	bt, ok := c.checkExpr(n.Base)
	if !ok {
		return Type{}, false
	}
	if bt.Kind != Struct {
		c.errorf(e.Span, "member access requires a struct base, found %s", bt)
		return Type{}, false
	}
	def := c.structs[bt.Name]
	ft, ok := def.FieldTypes[n.Member]
	if !ok {
		c.errorf(e.Span, "struct '%s' has no field '%s'", bt.Name, n.Member)
		return Type{}, false
	}
	return ft, true
}

func (c *checker) checkUnary(e *ast.Expr, n ast.UnaryExpr) (Type, bool) {
	rt, ok := c.checkExpr(n.Rhs)
	if !ok {
		return Type{}, false
	}
	switch n.Op {
	case ast.OpNeg:
		if rt.Kind != Int {
			c.errorf(e.Span, "unary '-' requires Int, found %s", rt)
			return Type{}, false
		}
		return TInt, true
	case ast.OpNot:
		if rt.Kind != Bool {
			c.errorf(e.Span, "unary '!' requires Bool, found %s", rt)
			return Type{}, false
		}
		return TBool, true
	}
	return Type{}, false
}

func (c *checker) checkBinary(e *ast.Expr, n ast.BinaryExpr) (Type, bool) {
	lt, lok := c.checkExpr(n.Lhs)
	rt, rok := c.checkExpr(n.Rhs)
	if !lok || !rok {
		return Type{}, false
	}
	switch n.Op {
	case ast.OpAdd:
		if lt.Kind == Int && rt.Kind == Int {
			return TInt, true
		}
		if lt.Kind == String && rt.Kind == String {
			return TString, true
		}
		c.errorf(e.Span, "'+' requires Int+Int or String+String, found %s and %s", lt, rt)
		return Type{}, false
	case ast.OpSub, ast.OpMul, ast.OpDiv:
		if lt.Kind != Int || rt.Kind != Int {
			c.errorf(e.Span, "'%s' requires Int operands, found %s and %s", n.Op, lt, rt)
			return Type{}, false
		}
		return TInt, true
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if lt.Kind != Int || rt.Kind != Int {
			c.errorf(e.Span, "'%s' requires Int operands, found %s and %s", n.Op, lt, rt)
			return Type{}, false
		}
		return TBool, true
	case ast.OpEq, ast.OpNeq:
		if !lt.Equal(rt) {
			c.errorf(e.Span, "'%s' requires operands of the same type, found %s and %s", n.Op, lt, rt)
			return Type{}, false
		}
		return TBool, true
	case ast.OpAnd, ast.OpOr:
		if lt.Kind != Bool || rt.Kind != Bool {
			c.errorf(e.Span, "'%s' requires Bool operands, found %s and %s", n.Op, lt, rt)
			return Type{}, false
		}
		return TBool, true
	}
	return Type{}, false
}

func (c *checker) checkCall(e *ast.Expr, n ast.CallExpr) (Type, bool) {
	switch callee := n.Callee.Node.(type) {
	case ast.NameExpr:
		if callee.Name == "print" {
			return c.checkPrintCall(e, n)
		}
		sig, ok := c.funcs[callee.Name]
		if !ok {
			c.errorf(e.Span, "unknown function: '%s'", callee.Name)
			c.checkArgsIgnoringResult(n.Args)
			return Type{}, false
		}
		return c.checkArgsAgainst(e, callee.Name, sig, n.Args)
	case ast.ScopedNameExpr:
		return c.checkEnumVariantCall(e, callee, n.Args)
	case ast.MemberExpr:
		if base, ok := callee.Base.Node.(ast.NameExpr); ok && base.Name == "python_ffi" && callee.Member == "call" {
			return c.checkPythonFFICall(e, n)
		}
		return c.checkQualifiedCall(e, callee, n.Args)
	default:
		c.errorf(e.Span, "call base must be a name, module path, or enum variant")
		c.checkArgsIgnoringResult(n.Args)
		return Type{}, false
	}
}

// checkQualifiedCall handles an alias-qualified callee, `alias.fn(...)`
// (spec §4.5's third legal call form). The module loader already flattens
// every imported module's functions into one namespace, so once base names
// a real import alias the lookup is the same c.funcs lookup an unqualified
// call would use.
func (c *checker) checkQualifiedCall(e *ast.Expr, callee ast.MemberExpr, args []*ast.Expr) (Type, bool) {
	base, ok := callee.Base.Node.(ast.NameExpr)
	if !ok || !c.imports[base.Name] {
		c.errorf(e.Span, "unknown module qualifier in call")
		c.checkArgsIgnoringResult(args)
		return Type{}, false
	}
	sig, ok := c.funcs[callee.Member]
	if !ok {
		c.errorf(e.Span, "unknown function '%s' in module '%s'", callee.Member, base.Name)
		c.checkArgsIgnoringResult(args)
		return Type{}, false
	}
	return c.checkArgsAgainst(e, callee.Member, sig, args)
}

func (c *checker) checkArgsIgnoringResult(args []*ast.Expr) {
	for _, a := range args {
		c.checkExpr(a)
	}
}

func (c *checker) checkArgsAgainst(e *ast.Expr, name string, sig Signature, args []*ast.Expr) (Type, bool) {
	if len(args) != len(sig.Params) {
		c.errorf(e.Span, "function '%s' expects %d argument(s), found %d", name, len(sig.Params), len(args))
		c.checkArgsIgnoringResult(args)
		return Type{}, false
	}
	ok := true
	for i, a := range args {
		at, good := c.checkExpr(a)
		if !good {
			ok = false
			continue
		}
		if !at.Equal(sig.Params[i]) {
			c.errorf(a.Span, "argument %d to '%s' has type %s, expected %s", i+1, name, at, sig.Params[i])
			ok = false
		}
	}
	if !ok {
		return Type{}, false
	}
	return sig.Return, true
}

func (c *checker) checkEnumVariantCall(e *ast.Expr, scoped ast.ScopedNameExpr, args []*ast.Expr) (Type, bool) {
	en, ok := c.enums[scoped.Lhs]
	if !ok {
		c.errorf(e.Span, "unknown enum: '%s'", scoped.Lhs)
		c.checkArgsIgnoringResult(args)
		return Type{}, false
	}
	payload, known := en.Payloads[scoped.Rhs]
	if !known {
		c.errorf(e.Span, "unknown enum variant: '%s::%s'", scoped.Lhs, scoped.Rhs)
		c.checkArgsIgnoringResult(args)
		return Type{}, false
	}
	if payload == nil {
		if len(args) != 0 {
			c.errorf(e.Span, "enum variant '%s::%s' carries no payload", scoped.Lhs, scoped.Rhs)
			c.checkArgsIgnoringResult(args)
			return Type{}, false
		}
		return Type{Kind: Enum, Name: scoped.Lhs}, true
	}
	if len(args) != 1 {
		c.errorf(e.Span, "enum variant '%s::%s' expects exactly one argument", scoped.Lhs, scoped.Rhs)
		c.checkArgsIgnoringResult(args)
		return Type{}, false
	}
	at, ok := c.checkExpr(args[0])
	if !ok {
		return Type{}, false
	}
	if !at.Equal(*payload) {
		c.errorf(args[0].Span, "enum variant '%s::%s' payload has type %s, expected %s", scoped.Lhs, scoped.Rhs, at, *payload)
		return Type{}, false
	}
	return Type{Kind: Enum, Name: scoped.Lhs}, true
}

func (c *checker) checkPrintCall(e *ast.Expr, n ast.CallExpr) (Type, bool) {
	if len(n.Args) != 1 {
		c.errorf(e.Span, "print expects exactly 1 argument, found %d", len(n.Args))
		c.checkArgsIgnoringResult(n.Args)
		return Type{}, false
	}
	at, ok := c.checkExpr(n.Args[0])
	if !ok {
		return Type{}, false
	}
	if at.Kind != Int && at.Kind != Bool && at.Kind != String {
		c.errorf(n.Args[0].Span, "print argument must be Int, Bool, or String, found %s", at)
		return Type{}, false
	}
	return TUnit, true
}

func (c *checker) checkPythonFFICall(e *ast.Expr, n ast.CallExpr) (Type, bool) {
	if !c.inUnsafe {
		c.errorf(e.Span, "python_ffi.call is only allowed inside an unsafe block")
		c.checkArgsIgnoringResult(n.Args)
		return Type{}, false
	}
	if len(n.Args) != 0 {
		c.errorf(e.Span, "python_ffi.call is currently stubbed to zero arguments")
	}
	c.checkArgsIgnoringResult(n.Args)
	return TUnit, true
}

func (c *checker) checkStructLiteral(e *ast.Expr, n ast.StructLiteralExpr) (Type, bool) {
	def, ok := c.structs[n.TypeName]
	if !ok {
		c.errorf(e.Span, "unknown type: '%s'", n.TypeName)
		for _, f := range n.Fields {
			c.checkExpr(f.Value)
		}
		return Type{}, false
	}
	seen := map[string]bool{}
	ok = true
	for _, f := range n.Fields {
		ft, good := c.checkExpr(f.Value)
		want, known := def.FieldTypes[f.Name]
		if !known {
			c.errorf(f.Span, "struct '%s' has no field '%s'", n.TypeName, f.Name)
			ok = false
			continue
		}
		seen[f.Name] = true
		if !good {
			ok = false
			continue
		}
		if !ft.Equal(want) {
			c.errorf(f.Span, "field '%s' has type %s, expected %s", f.Name, ft, want)
			ok = false
		}
	}
	for _, name := range def.FieldOrder {
		if !seen[name] {
			c.errorf(e.Span, "struct literal '%s' is missing field '%s'", n.TypeName, name)
			ok = false
		}
	}
	if !ok {
		return Type{}, false
	}
	return Type{Kind: Struct, Name: n.TypeName}, true
}
