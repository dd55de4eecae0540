package emitter

import (
	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/pkg/domain"
)

// conditions returns the enabled conditions of the node in evaluation
// order: descending priority, authored order on ties. Conditions that test
// no variable or use an unknown kind are dropped with a warning.
func (g *nodeGen) conditions() []domain.ConditionalMessage {
	c := g.node.Content()
	if c == nil || !c.EnableConditionalMessages {
		return nil
	}
	var out []domain.ConditionalMessage
	for _, cm := range domain.SortByPriority(c.ConditionalMessages) {
		if len(cm.Variables()) == 0 {
			g.e.warn(g.node.ID, "condition %q tests no variable, skipped", cm.ID)
			continue
		}
		switch cm.Condition {
		case domain.ConditionExists, domain.ConditionNotExists, domain.ConditionEquals, domain.ConditionContains:
		default:
			g.e.warn(g.node.ID, "condition %q has unknown kind %q, skipped", cm.ID, cm.Condition)
			continue
		}
		out = append(out, cm)
	}
	return out
}

// guard builds the predicate of one condition: one term per variable,
// joined by the condition's logic operator.
func guard(cm domain.ConditionalMessage) codegen.Expr {
	var terms []codegen.Expr
	for _, v := range cm.Variables() {
		name := codegen.String(v)
		switch cm.Condition {
		case domain.ConditionExists:
			terms = append(terms, codegen.CallOf("s.Has", name))
		case domain.ConditionNotExists:
			terms = append(terms, codegen.Not{X: codegen.CallOf("s.Has", name)})
		case domain.ConditionEquals:
			terms = append(terms, codegen.CallOf("s.Equals", name, codegen.String(cm.ExpectedValue)))
		case domain.ConditionContains:
			terms = append(terms, codegen.CallOf("s.Contains", name, codegen.String(cm.ExpectedValue)))
		}
	}
	if len(terms) == 1 {
		return terms[0]
	}
	op := "&&"
	if cm.Operator() == domain.LogicOr {
		op = "||"
	}
	return codegen.Binary{Op: op, Terms: terms}
}

// conditionChain emits the if/else-if chain over conds. The first branch
// whose guard holds overrides the text and keyboard, and may arm the wait
// slot; no branch taken keeps the base message.
func (g *nodeGen) conditionChain(conds []domain.ConditionalMessage, multi bool) ([]codegen.Stmt, error) {
	branches := make([]codegen.If, 0, len(conds))
	for _, cm := range conds {
		var body []codegen.Stmt
		if cm.MessageText != "" {
			body = append(body, codegen.Assign{LHS: "text", RHS: codegen.String(cm.MessageText)})
		}

		var qs *quickSet
		if cm.WaitForTextInput {
			if wait := g.conditionWait(cm); wait != nil {
				body = append(body, wait)
				qs = &quickSet{variable: g.conditionVariable(cm), next: g.conditionNext(cm)}
			}
		}

		if cm.HasKeyboard() {
			if multi {
				g.e.warn(g.node.ID, "condition %q keyboard ignored on a multi-select node", cm.ID)
			} else {
				kb, err := g.keyboard("kb", false, cm.KeyboardType, 0, cm.Buttons, qs)
				if err != nil {
					return nil, err
				}
				body = append(kb, body...)
			}
		}

		if len(body) == 0 {
			body = []codegen.Stmt{codegen.Comment("base message")}
		}
		branches = append(branches, codegen.If{Cond: guard(cm), Body: body})
	}

	for i := len(branches) - 2; i >= 0; i-- {
		branches[i].Else = []codegen.Stmt{branches[i+1]}
	}
	return []codegen.Stmt{branches[0]}, nil
}

// conditionVariable is the variable a waiting condition fills.
func (g *nodeGen) conditionVariable(cm domain.ConditionalMessage) string {
	if cm.TextInputVariable != "" {
		return cm.TextInputVariable
	}
	if c := g.node.Content(); c != nil {
		return c.InputVariable
	}
	return ""
}

// conditionNext is the node a waiting condition continues to.
func (g *nodeGen) conditionNext(cm domain.ConditionalMessage) string {
	if cm.NextNodeAfterInput != "" {
		return cm.NextNodeAfterInput
	}
	return g.inputNext()
}
