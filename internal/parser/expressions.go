package parser

import (
	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/token"
)

// parseExpr parses the full expression grammar, lowest to highest
// precedence: or, and, equality, comparison, term, factor, unary, call,
// primary (spec §4.2).
func (p *Parser) parseExpr() *ast.Expr { return p.parseOr() }

func (p *Parser) parseOr() *ast.Expr {
	left := p.parseAnd()
	for p.check(token.OR) {
		opTok := p.advance()
		right := p.parseAnd()
		left = p.mkBinary(ast.OpOr, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parseAnd() *ast.Expr {
	left := p.parseEquality()
	for p.check(token.AND) {
		opTok := p.advance()
		right := p.parseEquality()
		left = p.mkBinary(ast.OpAnd, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parseEquality() *ast.Expr {
	left := p.parseComparison()
	for p.check(token.EQ) || p.check(token.NEQ) {
		opTok := p.advance()
		op := ast.OpEq
		if opTok.Kind == token.NEQ {
			op = ast.OpNeq
		}
		right := p.parseComparison()
		left = p.mkBinary(op, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parseComparison() *ast.Expr {
	left := p.parseTerm()
	for p.check(token.LESS) || p.check(token.LE) || p.check(token.GREATER) || p.check(token.GE) {
		opTok := p.advance()
		op := tokToBinOp(opTok.Kind)
		right := p.parseTerm()
		left = p.mkBinary(op, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parseTerm() *ast.Expr {
	left := p.parseFactor()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		opTok := p.advance()
		op := tokToBinOp(opTok.Kind)
		right := p.parseFactor()
		left = p.mkBinary(op, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parseFactor() *ast.Expr {
	left := p.parseUnary()
	for p.check(token.STAR) || p.check(token.SLASH) {
		opTok := p.advance()
		op := tokToBinOp(opTok.Kind)
		right := p.parseUnary()
		left = p.mkBinary(op, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parseUnary() *ast.Expr {
	if p.check(token.BANG) || p.check(token.MINUS) {
		opTok := p.advance()
		op := ast.OpNot
		if opTok.Kind == token.MINUS {
			op = ast.OpNeg
		}
		rhs := p.parseUnary()
		return &ast.Expr{Span: source.Join(opTok.Span, rhs.Span), Node: ast.UnaryExpr{Op: op, Rhs: rhs}}
	}
	return p.parseCall()
}

func (p *Parser) parseCall() *ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.LPAREN:
			p.advance()
			var args []*ast.Expr
			for !p.check(token.RPAREN) && !p.check(token.EOF) {
				args = append(args, p.parseExpr())
				if !p.check(token.RPAREN) {
					if !p.match(token.COMMA) {
						break
					}
				}
			}
			end, _ := p.expect(token.RPAREN)
			expr = &ast.Expr{Span: source.Join(expr.Span, end.Span), Node: ast.CallExpr{Callee: expr, Args: args}}
		case token.DOT:
			p.advance()
			nameTok, _ := p.expect(token.IDENT)
			expr = &ast.Expr{Span: source.Join(expr.Span, nameTok.Span), Node: ast.MemberExpr{Base: expr, Member: nameTok.Lexeme}}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() *ast.Expr {
	t := p.cur()
	switch t.Kind {
	case token.INT_LITERAL:
		p.advance()
		return &ast.Expr{Span: t.Span, Node: ast.IntExpr{Lexeme: t.Lexeme}}
	case token.TRUE:
		p.advance()
		return &ast.Expr{Span: t.Span, Node: ast.BoolExpr{Value: true}}
	case token.FALSE:
		p.advance()
		return &ast.Expr{Span: t.Span, Node: ast.BoolExpr{Value: false}}
	case token.STRING_LIT:
		p.advance()
		return &ast.Expr{Span: t.Span, Node: ast.StringExpr{Lexeme: t.Lexeme, Decoded: t.Decoded}}
	case token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		end, _ := p.expect(token.RPAREN)
		return &ast.Expr{Span: source.Join(t.Span, end.Span), Node: ast.GroupExpr{Inner: inner}}
	case token.IDENT:
		p.advance()
		if p.check(token.COLONCOLON) {
			p.advance()
			rhsTok, _ := p.expect(token.IDENT)
			scoped := &ast.Expr{Span: source.Join(t.Span, rhsTok.Span), Node: ast.ScopedNameExpr{Lhs: t.Lexeme, Rhs: rhsTok.Lexeme}}
			return scoped
		}
		if p.check(token.LBRACE) && p.isStructLiteralAhead() {
			return p.parseStructLiteral(t)
		}
		return &ast.Expr{Span: t.Span, Node: ast.NameExpr{Name: t.Lexeme}}
	default:
		p.errorf(t.Span, "expected expression but found '%s'", t.Kind)
		if t.Kind != token.EOF && !p.atTopLevelStart() {
			p.advance()
		}
		return &ast.Expr{Span: t.Span, Node: ast.NameExpr{Name: ""}}
	}
}

// isStructLiteralAhead disambiguates `Name{` as a struct literal (always,
// in Curlee's grammar there is no other meaning for IDENT immediately
// followed by `{`: blocks never begin with a bare identifier token).
func (p *Parser) isStructLiteralAhead() bool { return true }

func (p *Parser) parseStructLiteral(nameTok token.Token) *ast.Expr {
	p.expect(token.LBRACE)
	var fields []ast.StructLiteralField
	seen := map[string]source.Span{}
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		fStart := p.cur().Span
		fNameTok, _ := p.expect(token.IDENT)
		p.expect(token.COLON)
		val := p.parseExpr()
		field := ast.StructLiteralField{Span: source.Join(fStart, val.Span), Name: fNameTok.Lexeme, Value: val}
		if first, dup := seen[field.Name]; dup {
			firstCopy := first
			p.diags = append(p.diags, source.NewError("duplicate struct-literal field: '"+field.Name+"'", field.Span).
				WithNote("first occurrence", &firstCopy))
		} else {
			seen[field.Name] = field.Span
			fields = append(fields, field)
		}
		if !p.check(token.RBRACE) {
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	end, _ := p.expect(token.RBRACE)
	return &ast.Expr{Span: source.Join(nameTok.Span, end.Span), Node: ast.StructLiteralExpr{TypeName: nameTok.Lexeme, Fields: fields}}
}

func (p *Parser) mkBinary(op ast.BinaryOp, lhs, rhs *ast.Expr, opSpan source.Span) *ast.Expr {
	return &ast.Expr{Span: source.Join(lhs.Span, rhs.Span), Node: ast.BinaryExpr{Op: op, Lhs: lhs, Rhs: rhs}}
}

func tokToBinOp(k token.Kind) ast.BinaryOp {
	switch k {
	case token.PLUS:
		return ast.OpAdd
	case token.MINUS:
		return ast.OpSub
	case token.STAR:
		return ast.OpMul
	case token.SLASH:
		return ast.OpDiv
	case token.LESS:
		return ast.OpLt
	case token.LE:
		return ast.OpLe
	case token.GREATER:
		return ast.OpGt
	case token.GE:
		return ast.OpGe
	case token.EQ:
		return ast.OpEq
	case token.NEQ:
		return ast.OpNeq
	}
	return ""
}
