package emitter

import (
	"fmt"
	"strconv"

	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/pkg/domain"
)

// DefaultDoneText labels the button finalising a multi-select node.
const DefaultDoneText = "Done"

// multiSelectColumns is fixed so the Done button lines up with the options.
const multiSelectColumns = 2

// selectVariable is the variable a multi-select node commits to.
func (g *nodeGen) selectVariable() string {
	c := g.node.Content()
	switch {
	case c.MultiSelectVariable != "":
		return c.MultiSelectVariable
	case c.InputVariable != "":
		return c.InputVariable
	}
	return g.node.ID
}

func (g *nodeGen) restoreSelection() codegen.Stmt {
	return codegen.ExprStmt{X: codegen.CallOf("s.RestoreSelection", codegen.String(g.node.ID), codegen.String(g.selectVariable()))}
}

// multiSelect emits the keyboard builder, the toggle handler factory and
// the done handler of a multi-select node, registers their tokens, and
// returns the handler statements rendering the keyboard.
func (g *nodeGen) multiSelect() ([]codegen.Stmt, error) {
	e, n := g.e, g.node
	c := n.Content()
	variable := g.selectVariable()
	nodeID := codegen.String(n.ID)

	kbName := e.names.helper("keyboard", n.ID)
	toggleName := e.names.helper("toggle", n.ID)
	doneName := e.names.helper("done", n.ID)

	var toggles []codegen.Stmt
	var others []domain.Button
	for _, b := range c.Buttons {
		if b.Action != domain.ActionSelection {
			others = append(others, b)
			continue
		}
		token := e.alloc.Option(n.ID, b)
		toggles = append(toggles, codegen.ExprStmt{X: codegen.CallOf("kb.Toggle", codegen.Ident("sel"), codegen.String(b.Text), codegen.String(token))})
		e.addCallback(n.ID, token, fmt.Sprintf("%s(%s)", toggleName, strconv.Quote(b.Text)))
	}

	var kbBody []codegen.Stmt
	if len(toggles) > 0 {
		kbBody = append(kbBody, codegen.Assign{LHS: "sel", Define: true, RHS: codegen.CallOf("s.Selection", nodeID)})
	} else {
		e.warn(n.ID, "multi-select node has no selection buttons")
	}
	if c.Columns > 0 && c.Columns != multiSelectColumns {
		e.warn(n.ID, "column override ignored on multi-select node")
	}
	kbBody = append(kbBody, codegen.Assign{LHS: "kb", Define: true, RHS: codegen.CallOf("botkit.NewInlineKeyboard", codegen.Int(multiSelectColumns))})
	kbBody = append(kbBody, toggles...)
	for _, b := range others {
		st, err := g.button("kb", b, false, nil)
		if err != nil {
			return nil, err
		}
		kbBody = append(kbBody, st)
	}
	doneText := c.ContinueButtonText
	if doneText == "" {
		doneText = DefaultDoneText
	}
	doneToken := e.alloc.Done(n.ID)
	kbBody = append(kbBody,
		codegen.ExprStmt{X: codegen.CallOf("kb.Callback", codegen.String(doneText), codegen.String(doneToken))},
		codegen.ReturnOf(codegen.Ident("kb")),
	)
	e.addCallback(n.ID, doneToken, doneName)

	toggleLit := fmt.Sprintf("func(s *botkit.Session) error {\ns.Toggle(%s, label)\nreturn s.EditKeyboard(%s(s))\n}", strconv.Quote(n.ID), kbName)

	next := c.ContinueButtonTarget
	if next == "" {
		next = e.graph.FirstSuccessor(n.ID)
	}
	doneTail := codegen.ReturnOf(codegen.Nil)
	if next != "" {
		if h, ok := e.resolve(next); ok {
			doneTail = codegen.ReturnOf(codegen.CallOf(h, codegen.Ident("s")))
		} else {
			e.warn(n.ID, "multi-select continues to missing node %q", next)
		}
	}

	g.helpers = append(g.helpers,
		codegen.Func{
			Doc:     fmt.Sprintf("%s renders the options of node %s with the current selection.", kbName, strconv.Quote(n.ID)),
			Name:    kbName,
			Params:  "s *botkit.Session",
			Results: "*botkit.Keyboard",
			Body:    kbBody,
		},
		codegen.Func{
			Doc:     fmt.Sprintf("%s returns the handler toggling one option of node %s.", toggleName, strconv.Quote(n.ID)),
			Name:    toggleName,
			Params:  "label string",
			Results: "botkit.Handler",
			Body:    []codegen.Stmt{codegen.ReturnOf(codegen.Ident(toggleLit))},
		},
		codegen.Func{
			Doc:     fmt.Sprintf("%s commits the selection of node %s to %s.", doneName, strconv.Quote(n.ID), strconv.Quote(variable)),
			Name:    doneName,
			Params:  "s *botkit.Session",
			Results: "error",
			Body: []codegen.Stmt{
				codegen.ExprStmt{X: codegen.CallOf("s.CommitSelection", nodeID, codegen.String(variable))},
				doneTail,
			},
		},
	)

	return []codegen.Stmt{codegen.Assign{LHS: "kb", Define: true, RHS: codegen.CallOf(kbName, codegen.Ident("s"))}}, nil
}
