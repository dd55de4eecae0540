package emitter

import (
	"fmt"
	"strconv"

	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/internal/tokens"
	"github.com/aretw0/flowbot/pkg/callback"
	"github.com/aretw0/flowbot/pkg/domain"
)

// quickSet turns goto buttons into answers: pressing one stores the
// button's value into variable before moving on.
type quickSet struct {
	variable string
	// next is the continuation for buttons without a target of their own.
	next string
}

// keyboardType resolves the declared keyboard type; buttons without a type
// render inline.
func keyboardType(declared string, buttons []domain.Button) string {
	if len(buttons) == 0 || declared == domain.KeyboardNone {
		return domain.KeyboardNone
	}
	if declared == domain.KeyboardReply {
		return domain.KeyboardReply
	}
	return domain.KeyboardInline
}

// columns lays out 1 to 5 buttons in one column and more in two.
// An explicit override wins.
func columns(n, override int) int {
	if override > 0 {
		return override
	}
	if n > 5 {
		return 2
	}
	return 1
}

// keyboard emits the construction of a keyboard into name.
func (g *nodeGen) keyboard(name string, define bool, declared string, override int, buttons []domain.Button, qs *quickSet) ([]codegen.Stmt, error) {
	kind := keyboardType(declared, buttons)
	if kind == domain.KeyboardNone {
		return nil, nil
	}
	ctor := "botkit.NewInlineKeyboard"
	if kind == domain.KeyboardReply {
		ctor = "botkit.NewReplyKeyboard"
	}
	stmts := []codegen.Stmt{codegen.Assign{
		LHS:    name,
		Define: define,
		RHS:    codegen.CallOf(ctor, codegen.Int(columns(len(buttons), override))),
	}}
	for _, b := range buttons {
		st, err := g.button(name, b, kind == domain.KeyboardReply, qs)
		if err != nil {
			return nil, err
		}
		if st != nil {
			stmts = append(stmts, st)
		}
	}
	return stmts, nil
}

// button emits one "kb.Method(...)" call and registers what pressing it
// triggers.
func (g *nodeGen) button(kb string, b domain.Button, reply bool, qs *quickSet) (codegen.Stmt, error) {
	e, id := g.e, g.node.ID
	add := func(method string, args ...codegen.Expr) codegen.Stmt {
		return codegen.ExprStmt{X: codegen.CallOf(kb+"."+method, args...)}
	}
	label := codegen.String(b.Text)
	if b.Text == "" {
		e.warn(id, "button %q has no label", b.ID)
	}

	switch b.Action {
	case domain.ActionURL:
		if b.URL == "" {
			e.warn(id, "link button %q has no url", b.Text)
			return add("Callback", label, codegen.String(e.inert(id))), nil
		}
		return add("URL", label, codegen.String(b.URL)), nil
	case domain.ActionContact:
		return add("Contact", label), nil
	case domain.ActionLocation:
		return add("Location", label), nil
	case domain.ActionCommand:
		return g.commandButton(add, b, reply), nil
	}

	if reply && b.RequestContact {
		return add("Contact", label), nil
	}
	if reply && b.RequestLocation {
		return add("Location", label), nil
	}

	if qs != nil && !b.SkipDataCollection {
		answer, token := g.quickSetAnswer(b, qs)
		if reply {
			e.addButton(id, b.Text, answer)
			return add("Text", label), nil
		}
		e.addCallback(id, token, answer)
		return add("Callback", label, codegen.String(token)), nil
	}

	if b.Target == "" {
		e.warn(id, "button %q has no target", b.Text)
		if reply {
			return add("Text", label), nil
		}
		return add("Callback", label, codegen.String(e.inert(id))), nil
	}
	handler, ok := e.resolve(b.Target)
	if !ok {
		if e.opts.DanglingPolicy == DanglingError {
			return nil, fmt.Errorf("%w: node %q button %q targets %q", domain.ErrDanglingTarget, id, b.Text, b.Target)
		}
		e.warn(id, "button %q targets missing node %q, emitted as not configured", b.Text, b.Target)
		if reply {
			return add("Text", label), nil
		}
		return add("Callback", label, codegen.String(e.inert(b.Target))), nil
	}
	if reply {
		e.addButton(id, b.Text, handler)
		return add("Text", label), nil
	}
	return add("Callback", label, codegen.String(e.token(b.Target))), nil
}

// commandButton emits a button that runs a command handler. Inline buttons
// carry a cmd_ token resolved by the runtime; reply buttons bind their label.
func (g *nodeGen) commandButton(add func(string, ...codegen.Expr) codegen.Stmt, b domain.Button, reply bool) codegen.Stmt {
	e, id := g.e, g.node.ID
	cmd := normalizeCommand(b.Target)
	if cmd == "" {
		e.warn(id, "command button %q has no command", b.Text)
		return add("Callback", codegen.String(b.Text), codegen.String(e.inert(id)))
	}
	handler, known := e.commands[cmd]
	if !known {
		e.warn(id, "command button %q runs %s, which no node handles", b.Text, cmd)
	}
	if reply {
		if known {
			e.addButton(id, b.Text, handler)
		}
		return add("Text", codegen.String(b.Text))
	}
	token, _ := e.alloc.Reserve(callback.Command(cmd), "cmd:"+cmd)
	return add("Callback", codegen.String(b.Text), codegen.String(token))
}

// quickSetAnswer emits the handler storing the value of b and returns its
// name and callback token.
func (g *nodeGen) quickSetAnswer(b domain.Button, qs *quickSet) (string, string) {
	e, id := g.e, g.node.ID
	value := b.OptionValue()
	token, _ := e.alloc.Reserve(callback.QuickSet(qs.variable, value), "quickset:"+id+"/"+qs.variable+"/"+value)

	target := b.Target
	if target == "" {
		target = qs.next
	}
	tail := codegen.ReturnOf(codegen.Nil)
	if target != "" {
		if h, ok := e.resolve(target); ok {
			tail = codegen.ReturnOf(codegen.CallOf(h, codegen.Ident("s")))
		} else {
			e.warn(id, "answer %q continues to missing node %q", b.Text, target)
		}
	}

	name := e.names.helper("answer", id)
	g.helpers = append(g.helpers, codegen.Func{
		Doc:     fmt.Sprintf("%s records %s as the answer to %s.", name, strconv.Quote(value), strconv.Quote(qs.variable)),
		Name:    name,
		Params:  "s *botkit.Session",
		Results: "error",
		Body: []codegen.Stmt{
			codegen.ExprStmt{X: codegen.CallOf("s.Set", codegen.String(qs.variable), codegen.String(value))},
			codegen.ExprStmt{X: codegen.CallOf("s.ClearWaitFor", codegen.String(qs.variable))},
			tail,
		},
	})
	return name, token
}

// inert returns the token of a button that only answers "not configured".
func (e *emitter) inert(ref string) string {
	stem := e.alloc.Node(ref)
	if stem == "" {
		stem = tokens.Sanitize(ref)
	}
	if stem == "" {
		stem = "button"
	}
	token, _ := e.alloc.Reserve(callback.Inert(stem), "inert:"+ref)
	return token
}

func anyKeyboard(conds []domain.ConditionalMessage) bool {
	for _, c := range conds {
		if c.HasKeyboard() {
			return true
		}
	}
	return false
}

func anyText(conds []domain.ConditionalMessage) bool {
	for _, c := range conds {
		if c.MessageText != "" {
			return true
		}
	}
	return false
}
