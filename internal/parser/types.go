package parser

import (
	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/token"
)

func (p *Parser) parseTypeName() ast.TypeName {
	isCap := false
	if p.check(token.CAP) {
		p.advance()
		isCap = true
	}
	tok, ok := p.expect(token.IDENT)
	if !ok {
		return ast.TypeName{Span: tok.Span, IsCapability: isCap, Name: tok.Lexeme}
	}
	return ast.TypeName{Span: tok.Span, IsCapability: isCap, Name: tok.Lexeme}
}
