// Package parser turns a Curlee token stream into a *ast.Program, with
// statement/top-level error recovery (spec §4.2).
package parser

import (
	"fmt"

	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/token"
)

// Parser is a recursive-descent, precedence-climbing parser over a fixed
// token slice.
type Parser struct {
	toks  []token.Token
	pos   int
	file  string
	diags []source.Diagnostic
}

// New creates a Parser over toks (as produced by lexer.Lex), labeling
// diagnostics with file.
func New(toks []token.Token, file string) *Parser {
	return &Parser{toks: toks, file: file}
}

// Parse parses the full token stream into a Program. Diagnostics collected
// during top-level or statement recovery are returned even when a partial
// Program is also returned; callers should treat a non-empty diagnostics
// slice as failure (spec §4.2 "error recovery").
func Parse(toks []token.Token, file string) (*ast.Program, []source.Diagnostic) {
	p := New(toks, file)
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return prog, p.diags
	}
	ast.ReassignExprIDs(prog)
	return prog, nil
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}
func (p *Parser) advance() token.Token {
	t := p.cur()
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}
func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }
func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(sp source.Span, format string, args ...interface{}) {
	d := source.NewError(fmt.Sprintf(format, args...), sp)
	p.diags = append(p.diags, d)
}

// expect consumes a token of kind k or records a diagnostic naming what was
// expected vs what was actually seen, per spec §4.2. On mismatch it still
// consumes the unexpected token so that loops driven by repeated expect()
// calls always make forward progress, unless the token is EOF or begins a
// new top-level item (FN/IMPORT/STRUCT/ENUM) — those are left in place so
// an enclosing synchronize call can realign on them instead of having them
// swallowed as part of a malformed inner construct.
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	t := p.cur()
	p.errorf(t.Span, "expected '%s' but found '%s'", k, t.Kind)
	if t.Kind != token.EOF && !p.atTopLevelStart() {
		p.advance()
	}
	return t, false
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{File: p.file}
	for !p.check(token.EOF) {
		item := p.parseItem()
		if item != nil {
			prog.Items = append(prog.Items, item)
		}
	}
	return prog
}

func (p *Parser) parseItem() ast.Item {
	before := len(p.diags)
	switch p.cur().Kind {
	case token.FN:
		fn := p.parseFunction()
		if len(p.diags) > before {
			p.synchronizeTopLevel()
		}
		return fn
	case token.STRUCT:
		st := p.parseStruct()
		if len(p.diags) > before {
			p.synchronizeTopLevel()
		}
		return st
	case token.ENUM:
		en := p.parseEnum()
		if len(p.diags) > before {
			p.synchronizeTopLevel()
		}
		return en
	case token.IMPORT:
		im := p.parseImport()
		if len(p.diags) > before {
			p.synchronizeTopLevel()
		}
		return im
	default:
		t := p.cur()
		p.errorf(t.Span, "expected item (fn, struct, enum or import) but found '%s'", t.Kind)
		p.synchronizeTopLevel()
		return nil
	}
}

// synchronizeTopLevel advances to the next `fn`, `import`, `struct`, `enum`
// keyword or EOF (spec §4.2).
func (p *Parser) synchronizeTopLevel() {
	for !p.check(token.EOF) {
		switch p.cur().Kind {
		case token.FN, token.IMPORT, token.STRUCT, token.ENUM:
			return
		}
		p.advance()
	}
}

// atTopLevelStart reports whether the current token begins a new top-level
// item. List-parsing loops (params, fields, variants) check this so that a
// malformed list cannot cascade into swallowing the next item entirely.
func (p *Parser) atTopLevelStart() bool {
	switch p.cur().Kind {
	case token.FN, token.IMPORT, token.STRUCT, token.ENUM:
		return true
	}
	return false
}

// synchronizeStmt advances to the next statement boundary: `;` or `}`
// (spec §4.2). The boundary token itself is consumed when it is `;`.
func (p *Parser) synchronizeStmt() {
	for !p.check(token.EOF) {
		if p.check(token.SEMI) {
			p.advance()
			return
		}
		if p.check(token.RBRACE) || p.atTopLevelStart() {
			return
		}
		p.advance()
	}
}
