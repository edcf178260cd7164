// Package printer implements the `curlee fmt` canonical pretty-printer
// (SPEC_FULL.md §C.1): 4-space indentation, one blank line between
// top-level items, grounded in the shape of the teacher's own
// internal/prettyprinter (a single-purpose printer separate from the
// parser) adapted to Curlee's much smaller grammar.
package printer

import (
	"fmt"
	"strings"

	"github.com/w4ffl35/curlee/internal/ast"
)

const indentUnit = "    "

// Print renders prog in canonical form.
func Print(prog *ast.Program) string {
	p := &printer{}
	for i, item := range prog.Items {
		if i > 0 {
			p.blankLine()
		}
		p.item(item)
	}
	return p.sb.String()
}

type printer struct {
	sb    strings.Builder
	depth int
}

func (p *printer) blankLine() { p.sb.WriteString("\n") }

func (p *printer) indent() string { return strings.Repeat(indentUnit, p.depth) }

func (p *printer) writeLine(s string) {
	p.sb.WriteString(p.indent())
	p.sb.WriteString(s)
	p.sb.WriteString("\n")
}

func (p *printer) item(it ast.Item) {
	switch v := it.(type) {
	case *ast.Import:
		p.importItem(v)
	case *ast.Function:
		p.function(v)
	case *ast.Struct:
		p.structItem(v)
	case *ast.Enum:
		p.enumItem(v)
	}
}

func (p *printer) importItem(im *ast.Import) {
	path := strings.Join(im.PathSegments, ".")
	if im.Alias != "" {
		p.writeLine(fmt.Sprintf("import %s as %s;", path, im.Alias))
	} else {
		p.writeLine(fmt.Sprintf("import %s;", path))
	}
}

func (p *printer) typeName(t ast.TypeName) string {
	if t.IsCapability {
		return "cap " + t.Name
	}
	return t.Name
}

func (p *printer) param(param ast.Param) string {
	s := fmt.Sprintf("%s: %s", param.Name, p.typeName(param.Type))
	if param.Refinement != nil {
		s += fmt.Sprintf(" where %s", p.pred(*param.Refinement))
	}
	return s
}

func (p *printer) function(fn *ast.Function) {
	params := make([]string, len(fn.Params))
	for i, prm := range fn.Params {
		params[i] = p.param(prm)
	}
	sig := fmt.Sprintf("fn %s(%s)", fn.Name, strings.Join(params, ", "))
	if fn.ReturnType != nil {
		sig += " -> " + p.typeName(*fn.ReturnType)
	}

	var contracts []string
	for _, req := range fn.RequiresClauses {
		contracts = append(contracts, "requires "+p.pred(req)+";")
	}
	for _, ens := range fn.Ensures {
		contracts = append(contracts, "ensures "+p.pred(ens)+";")
	}
	if len(contracts) > 0 {
		sig += " [" + strings.Join(contracts, " ") + "]"
	}
	sig += " {"
	p.writeLine(sig)

	p.depth++
	p.stmts(fn.Body.Stmts)
	p.depth--
	p.writeLine("}")
}

func (p *printer) structItem(s *ast.Struct) {
	p.writeLine(fmt.Sprintf("struct %s {", s.Name))
	p.depth++
	for _, f := range s.Fields {
		p.writeLine(fmt.Sprintf("%s: %s,", f.Name, p.typeName(f.Type)))
	}
	p.depth--
	p.writeLine("}")
}

func (p *printer) enumItem(e *ast.Enum) {
	p.writeLine(fmt.Sprintf("enum %s {", e.Name))
	p.depth++
	for _, v := range e.Variants {
		if v.Payload != nil {
			p.writeLine(fmt.Sprintf("%s(%s),", v.Name, p.typeName(*v.Payload)))
		} else {
			p.writeLine(v.Name + ",")
		}
	}
	p.depth--
	p.writeLine("}")
}

func (p *printer) stmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		p.stmt(s)
	}
}

func (p *printer) stmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.LetStmt:
		line := fmt.Sprintf("let %s: %s", v.Name, p.typeName(v.Type))
		if v.Refinement != nil {
			line += fmt.Sprintf(" where %s", p.pred(*v.Refinement))
		}
		line += fmt.Sprintf(" = %s;", p.expr(v.Value))
		p.writeLine(line)
	case *ast.ReturnStmt:
		if v.Value != nil {
			p.writeLine(fmt.Sprintf("return %s;", p.expr(v.Value)))
		} else {
			p.writeLine("return;")
		}
	case *ast.ExprStmt:
		p.writeLine(p.expr(v.Expr) + ";")
	case *ast.IfStmt:
		p.writeLine(fmt.Sprintf("if (%s) {", p.expr(v.Cond)))
		p.depth++
		p.stmts(v.Then.Stmts)
		p.depth--
		if v.Else != nil {
			p.writeLine("} else {")
			p.depth++
			p.stmts(v.Else.Stmts)
			p.depth--
		}
		p.writeLine("}")
	case *ast.WhileStmt:
		p.writeLine(fmt.Sprintf("while (%s) {", p.expr(v.Cond)))
		p.depth++
		p.stmts(v.Body.Stmts)
		p.depth--
		p.writeLine("}")
	case *ast.BlockStmt:
		p.writeLine("{")
		p.depth++
		p.stmts(v.Block.Stmts)
		p.depth--
		p.writeLine("}")
	case *ast.UnsafeStmt:
		p.writeLine("unsafe {")
		p.depth++
		p.stmts(v.Body.Stmts)
		p.depth--
		p.writeLine("}")
	}
}

func (p *printer) expr(e *ast.Expr) string {
	if e == nil {
		return ""
	}
	switch n := e.Node.(type) {
	case ast.IntExpr:
		return n.Lexeme
	case ast.BoolExpr:
		return fmt.Sprintf("%t", n.Value)
	case ast.StringExpr:
		return n.Lexeme
	case ast.NameExpr:
		return n.Name
	case ast.ScopedNameExpr:
		return n.Lhs + "::" + n.Rhs
	case ast.MemberExpr:
		return p.expr(n.Base) + "." + n.Member
	case ast.UnaryExpr:
		return string(n.Op) + p.expr(n.Rhs)
	case ast.BinaryExpr:
		return fmt.Sprintf("%s %s %s", p.expr(n.Lhs), n.Op, p.expr(n.Rhs))
	case ast.CallExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.expr(a)
		}
		return fmt.Sprintf("%s(%s)", p.expr(n.Callee), strings.Join(args, ", "))
	case ast.GroupExpr:
		return "(" + p.expr(n.Inner) + ")"
	case ast.StructLiteralExpr:
		fields := make([]string, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = fmt.Sprintf("%s: %s", f.Name, p.expr(f.Value))
		}
		return fmt.Sprintf("%s{%s}", n.TypeName, strings.Join(fields, ", "))
	default:
		return ""
	}
}

func (p *printer) pred(pr ast.Pred) string {
	switch n := pr.Node.(type) {
	case ast.PredInt:
		return n.Lexeme
	case ast.PredBool:
		return fmt.Sprintf("%t", n.Value)
	case ast.PredName:
		return n.Name
	case ast.PredUnary:
		return string(n.Op) + p.pred(*n.Rhs)
	case ast.PredBinary:
		return fmt.Sprintf("%s %s %s", p.pred(*n.Lhs), n.Op, p.pred(*n.Rhs))
	case ast.PredGroup:
		return "(" + p.pred(*n.Inner) + ")"
	default:
		return ""
	}
}
