package parser

import (
	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/token"
)

// parsePred parses the restricted predicate grammar used by `where`,
// `requires` and `ensures` clauses: Int, Bool, Name, Unary, Binary and
// Group only — no calls, member access or struct literals (spec §3
// "Pred mirrors Expr but restricted to ...").
func (p *Parser) parsePred() ast.Pred { return p.parsePredOr() }

func (p *Parser) parsePredOr() ast.Pred {
	left := p.parsePredAnd()
	for p.check(token.OR) {
		opTok := p.advance()
		right := p.parsePredAnd()
		left = p.mkPredBinary(ast.OpOr, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parsePredAnd() ast.Pred {
	left := p.parsePredEquality()
	for p.check(token.AND) {
		opTok := p.advance()
		right := p.parsePredEquality()
		left = p.mkPredBinary(ast.OpAnd, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parsePredEquality() ast.Pred {
	left := p.parsePredComparison()
	for p.check(token.EQ) || p.check(token.NEQ) {
		opTok := p.advance()
		op := ast.OpEq
		if opTok.Kind == token.NEQ {
			op = ast.OpNeq
		}
		right := p.parsePredComparison()
		left = p.mkPredBinary(op, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parsePredComparison() ast.Pred {
	left := p.parsePredTerm()
	for p.check(token.LESS) || p.check(token.LE) || p.check(token.GREATER) || p.check(token.GE) {
		opTok := p.advance()
		op := tokToBinOp(opTok.Kind)
		right := p.parsePredTerm()
		left = p.mkPredBinary(op, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parsePredTerm() ast.Pred {
	left := p.parsePredFactor()
	for p.check(token.PLUS) || p.check(token.MINUS) {
		opTok := p.advance()
		op := tokToBinOp(opTok.Kind)
		right := p.parsePredFactor()
		left = p.mkPredBinary(op, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parsePredFactor() ast.Pred {
	left := p.parsePredUnary()
	for p.check(token.STAR) || p.check(token.SLASH) {
		opTok := p.advance()
		op := tokToBinOp(opTok.Kind)
		right := p.parsePredUnary()
		left = p.mkPredBinary(op, left, right, opTok.Span)
	}
	return left
}

func (p *Parser) parsePredUnary() ast.Pred {
	if p.check(token.BANG) || p.check(token.MINUS) {
		opTok := p.advance()
		op := ast.OpNot
		if opTok.Kind == token.MINUS {
			op = ast.OpNeg
		}
		rhs := p.parsePredUnary()
		return ast.Pred{Span: source.Join(opTok.Span, rhs.Span), Node: ast.PredUnary{Op: op, Rhs: &rhs}}
	}
	return p.parsePredPrimary()
}

func (p *Parser) parsePredPrimary() ast.Pred {
	t := p.cur()
	switch t.Kind {
	case token.INT_LITERAL:
		p.advance()
		return ast.Pred{Span: t.Span, Node: ast.PredInt{Lexeme: t.Lexeme}}
	case token.TRUE:
		p.advance()
		return ast.Pred{Span: t.Span, Node: ast.PredBool{Value: true}}
	case token.FALSE:
		p.advance()
		return ast.Pred{Span: t.Span, Node: ast.PredBool{Value: false}}
	case token.LPAREN:
		p.advance()
		inner := p.parsePred()
		end, _ := p.expect(token.RPAREN)
		return ast.Pred{Span: source.Join(t.Span, end.Span), Node: ast.PredGroup{Inner: &inner}}
	case token.IDENT:
		p.advance()
		return ast.Pred{Span: t.Span, Node: ast.PredName{Name: t.Lexeme}}
	default:
		p.errorf(t.Span, "expected predicate expression but found '%s'", t.Kind)
		if t.Kind != token.EOF && !p.atTopLevelStart() {
			p.advance()
		}
		return ast.Pred{Span: t.Span, Node: ast.PredName{Name: ""}}
	}
}

func (p *Parser) mkPredBinary(op ast.BinaryOp, lhs, rhs ast.Pred, opSpan source.Span) ast.Pred {
	return ast.Pred{Span: source.Join(lhs.Span, rhs.Span), Node: ast.PredBinary{Op: op, Lhs: &lhs, Rhs: &rhs}}
}
