package parser

import (
	"github.com/w4ffl35/curlee/internal/ast"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/token"
)

// parseFunction parses:
//   fn NAME(PARAMS) (-> TYPE)? CONTRACT? BLOCK
// where CONTRACT = `[ (requires PRED ; | ensures PRED ;)* ]`.
func (p *Parser) parseFunction() *ast.Function {
	start := p.cur().Span
	p.expect(token.FN)
	nameTok, _ := p.expect(token.IDENT)

	fn := &ast.Function{Name: nameTok.Lexeme}

	p.expect(token.LPAREN)
	for !p.check(token.RPAREN) && !p.check(token.EOF) && !p.atTopLevelStart() {
		before := len(p.diags)
		fn.Params = append(fn.Params, p.parseParam())
		if len(p.diags) > before {
			break
		}
		if !p.check(token.RPAREN) {
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)

	if p.match(token.ARROW) {
		tn := p.parseTypeName()
		fn.ReturnType = &tn
	}

	if p.check(token.LBRACKET) {
		p.parseContract(fn)
	}

	fn.Body = p.parseBlock()
	fn.Span = source.Join(start, fn.Body.Span)
	return fn
}

func (p *Parser) parseParam() ast.Param {
	start := p.cur().Span
	nameTok, _ := p.expect(token.IDENT)
	p.expect(token.COLON)
	ty := p.parseTypeName()
	param := ast.Param{Name: nameTok.Lexeme, Type: ty}
	if p.match(token.WHERE) {
		pr := p.parsePred()
		param.Refinement = &pr
	}
	param.Span = source.Join(start, p.toks[p.pos-1].Span)
	return param
}

func (p *Parser) parseContract(fn *ast.Function) {
	p.expect(token.LBRACKET)
	for !p.check(token.RBRACKET) && !p.check(token.EOF) {
		switch p.cur().Kind {
		case token.REQUIRES:
			p.advance()
			pr := p.parsePred()
			fn.RequiresClauses = append(fn.RequiresClauses, pr)
			p.expect(token.SEMI)
		case token.ENSURES:
			p.advance()
			pr := p.parsePred()
			fn.Ensures = append(fn.Ensures, pr)
			p.expect(token.SEMI)
		default:
			t := p.cur()
			p.errorf(t.Span, "expected 'requires' or 'ensures' inside contract but found '%s'", t.Kind)
			p.advance()
		}
	}
	p.expect(token.RBRACKET)
}

func (p *Parser) parseStruct() *ast.Struct {
	start := p.cur().Span
	p.expect(token.STRUCT)
	nameTok, _ := p.expect(token.IDENT)
	st := &ast.Struct{Name: nameTok.Lexeme}

	p.expect(token.LBRACE)
	seen := map[string]source.Span{}
	for !p.check(token.RBRACE) && !p.check(token.EOF) && !p.atTopLevelStart() {
		fieldStart := p.cur().Span
		fNameTok, _ := p.expect(token.IDENT)
		p.expect(token.COLON)
		fType := p.parseTypeName()
		field := ast.StructField{Span: source.Join(fieldStart, fType.Span), Name: fNameTok.Lexeme, Type: fType}
		if first, dup := seen[field.Name]; dup {
			firstCopy := first
			p.diags = append(p.diags, source.NewError("duplicate struct field: '"+field.Name+"'", field.Span).
				WithNote("first occurrence", &firstCopy))
		} else {
			seen[field.Name] = field.Span
			st.Fields = append(st.Fields, field)
		}
		if !p.check(token.RBRACE) {
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	end, _ := p.expect(token.RBRACE)
	st.Span = source.Join(start, end.Span)
	return st
}

func (p *Parser) parseEnum() *ast.Enum {
	start := p.cur().Span
	p.expect(token.ENUM)
	nameTok, _ := p.expect(token.IDENT)
	en := &ast.Enum{Name: nameTok.Lexeme}

	p.expect(token.LBRACE)
	seen := map[string]source.Span{}
	for !p.check(token.RBRACE) && !p.check(token.EOF) && !p.atTopLevelStart() {
		vStart := p.cur().Span
		vNameTok, _ := p.expect(token.IDENT)
		variant := ast.EnumVariant{Span: vStart, Name: vNameTok.Lexeme}
		if p.match(token.LPAREN) {
			ty := p.parseTypeName()
			variant.Payload = &ty
			end, _ := p.expect(token.RPAREN)
			variant.Span = source.Join(vStart, end.Span)
		}
		if first, dup := seen[variant.Name]; dup {
			firstCopy := first
			p.diags = append(p.diags, source.NewError("duplicate enum variant: '"+variant.Name+"'", variant.Span).
				WithNote("first occurrence", &firstCopy))
		} else {
			seen[variant.Name] = variant.Span
			en.Variants = append(en.Variants, variant)
		}
		if !p.check(token.RBRACE) {
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	end, _ := p.expect(token.RBRACE)
	en.Span = source.Join(start, end.Span)
	return en
}

// parseImport parses `import p.q.r (as alias)? ;`.
func (p *Parser) parseImport() *ast.Import {
	start := p.cur().Span
	p.expect(token.IMPORT)
	im := &ast.Import{}

	first, _ := p.expect(token.IDENT)
	im.PathSegments = append(im.PathSegments, first.Lexeme)
	for p.match(token.DOT) {
		seg, _ := p.expect(token.IDENT)
		im.PathSegments = append(im.PathSegments, seg.Lexeme)
	}
	if p.match(token.AS) {
		aliasTok, _ := p.expect(token.IDENT)
		im.Alias = aliasTok.Lexeme
	}
	end, _ := p.expect(token.SEMI)
	im.Span = source.Join(start, end.Span)
	return im
}
