package parser

import (
	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/token"
)

func (p *Parser) parseBlock() ast.Block {
	start, _ := p.expect(token.LBRACE)
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.check(token.EOF) && !p.atTopLevelStart() {
		before := len(p.diags)
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
		if len(p.diags) > before {
			p.synchronizeStmt()
		}
	}
	end, _ := p.expect(token.RBRACE)
	return ast.Block{Span: source.Join(start.Span, end.Span), Stmts: stmts}
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur().Kind {
	case token.LET:
		return p.parseLetStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.UNSAFE:
		return p.parseUnsafeStmt()
	case token.LBRACE:
		b := p.parseBlock()
		return &ast.BlockStmt{Span: b.Span, Block: b}
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.LET)
	nameTok, _ := p.expect(token.IDENT)
	p.expect(token.COLON)
	ty := p.parseTypeName()

	var refinement *ast.Pred
	if p.match(token.WHERE) {
		pr := p.parsePred()
		refinement = &pr
	}
	p.expect(token.ASSIGN)
	value := p.parseExpr()
	end, _ := p.expect(token.SEMI)

	return &ast.LetStmt{
		Span:       source.Join(start, end.Span),
		Name:       nameTok.Lexeme,
		Type:       ty,
		Refinement: refinement,
		Value:      value,
	}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.RETURN)
	var value *ast.Expr
	if !p.check(token.SEMI) {
		value = p.parseExpr()
	}
	end, _ := p.expect(token.SEMI)
	return &ast.ReturnStmt{Span: source.Join(start, end.Span), Value: value}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseBlock()
	stmt := &ast.IfStmt{Cond: cond, Then: then}
	end := then.Span
	if p.match(token.ELSE) {
		elseBlock := p.parseBlock()
		stmt.Else = &elseBlock
		end = elseBlock.Span
	}
	stmt.Span = source.Join(start, end)
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return &ast.WhileStmt{Span: source.Join(start, body.Span), Cond: cond, Body: body}
}

func (p *Parser) parseUnsafeStmt() ast.Stmt {
	start := p.cur().Span
	p.expect(token.UNSAFE)
	body := p.parseBlock()
	return &ast.UnsafeStmt{Span: source.Join(start, body.Span), Body: body}
}

func (p *Parser) parseExprStmt() ast.Stmt {
	start := p.cur().Span
	e := p.parseExpr()
	end, _ := p.expect(token.SEMI)
	return &ast.ExprStmt{Span: source.Join(start, end.Span), Expr: e}
}
