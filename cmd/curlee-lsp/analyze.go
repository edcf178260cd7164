package main

import (
	"github.com/w4ffl35/curlee/internal/lexer"
	"github.com/w4ffl35/curlee/internal/parser"
	"github.com/w4ffl35/curlee/internal/resolver"
	"github.com/w4ffl35/curlee/internal/source"
	"github.com/w4ffl35/curlee/internal/types"
)

// docState holds everything derived from one open document's text. The LSP
// analyzes each file on its own (no import resolution) — this is a per-file
// editor surface, not the `check` pipeline's whole-program view.
type docState struct {
	uri   string
	text  string
	lm    *source.LineMap
	res   *resolver.Resolution // nil if resolution failed
	diags []source.Diagnostic
}

func analyze(uri, text string) *docState {
	d := &docState{uri: uri, text: text, lm: source.NewLineMap(text)}

	toks, diag := lexer.Lex(text)
	if diag != nil {
		d.diags = []source.Diagnostic{*diag}
		return d
	}

	prog, diags := parser.Parse(toks, uri)
	if len(diags) > 0 {
		d.diags = diags
		return d
	}

	res, diags := resolver.Resolve(prog)
	if len(diags) > 0 {
		d.diags = diags
		return d
	}
	d.res = res

	if _, diags := types.Check(prog); len(diags) > 0 {
		d.diags = diags
	}
	return d
}

// offsetAt converts a 0-based LSP position to a byte offset into d.text.
func (d *docState) offsetAt(pos Position) int {
	return d.lm.LineStartOffset(pos.Line+1) + pos.Character
}

// rangeFor converts a byte span to a 0-based LSP range.
func (d *docState) rangeFor(sp source.Span) Range {
	sl, sc := d.lm.OffsetToLineCol(sp.Start)
	el, ec := d.lm.OffsetToLineCol(sp.End)
	return Range{
		Start: Position{Line: sl - 1, Character: sc - 1},
		End:   Position{Line: el - 1, Character: ec - 1},
	}
}

// useAt finds the resolved use (if any) covering offset.
func (d *docState) useAt(offset int) (resolver.Use, bool) {
	if d.res == nil {
		return resolver.Use{}, false
	}
	for _, u := range d.res.Uses {
		if offset >= u.Span.Start && offset < u.Span.End {
			return u, true
		}
	}
	return resolver.Use{}, false
}

// symbol looks up a Symbol by id.
func (d *docState) symbol(id resolver.SymID) (resolver.Symbol, bool) {
	for _, s := range d.res.Symbols {
		if s.ID == id {
			return s, true
		}
	}
	return resolver.Symbol{}, false
}

func (d *docState) lspDiagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, len(d.diags))
	for _, diag := range d.diags {
		sev := severityError
		if diag.Severity == source.SeverityWarning {
			sev = severityWarning
		}
		rng := Range{}
		if diag.Span != nil {
			rng = d.rangeFor(*diag.Span)
		}
		out = append(out, Diagnostic{
			Range:    rng,
			Severity: sev,
			Message:  diag.Message,
			Source:   "curlee",
		})
	}
	return out
}
