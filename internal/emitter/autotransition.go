package emitter

import "github.com/aretw0/flowbot/internal/codegen"

// autoTransition emits the guarded hand-off to the next node:
//
//	if !s.Armed() {
//		return s.Chain(handleNext)
//	}
//
// It is the last statement before the handler returns, so a wait slot armed
// anywhere earlier in the activation always suppresses it.
func (g *nodeGen) autoTransition() []codegen.Stmt {
	c := g.node.Content()
	if c == nil || !c.EnableAutoTransition {
		return nil
	}
	id := g.node.ID
	if g.node.IsMultiSelect() {
		g.e.warn(id, "auto-transition ignored on a multi-select node")
		return nil
	}
	target := c.AutoTransitionTo
	if target == "" {
		target = g.e.graph.FirstSuccessor(id)
	}
	if target == "" {
		g.e.warn(id, "auto-transition has no target")
		return nil
	}
	h, ok := g.e.resolve(target)
	if !ok {
		g.e.warn(id, "auto-transition targets missing node %q", target)
		return nil
	}
	if _, waits := g.inputWait(); waits && !g.condWaits {
		g.e.warn(id, "auto-transition never fires: the node always waits for input")
	}
	return []codegen.Stmt{codegen.If{
		Cond: codegen.Not{X: codegen.CallOf("s.Armed")},
		Body: []codegen.Stmt{codegen.ReturnOf(codegen.CallOf("s.Chain", codegen.Ident(h)))},
	}}
}
