package ast

import "fmt"

// RenderPred renders p back to source-like syntax, used by the verifier's
// "goal: ..." diagnostic note (spec §4.7).
func RenderPred(p *Pred) string {
	if p == nil {
		return "<pred>"
	}
	switch n := p.Node.(type) {
	case PredInt:
		return n.Lexeme
	case PredBool:
		if n.Value {
			return "true"
		}
		return "false"
	case PredName:
		return n.Name
	case PredUnary:
		return fmt.Sprintf("%s%s", n.Op, RenderPred(n.Rhs))
	case PredBinary:
		return fmt.Sprintf("%s %s %s", RenderPred(n.Lhs), n.Op, RenderPred(n.Rhs))
	case PredGroup:
		return fmt.Sprintf("(%s)", RenderPred(n.Inner))
	default:
		return "<pred>"
	}
}
