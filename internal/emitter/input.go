package emitter

import (
	"fmt"
	"strconv"

	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/pkg/domain"
)

// waitSpec is what a node's wait slot expects.
type waitSpec struct {
	kind     string // botkit constant name
	variable string
	media    bool
}

// inputWait resolves the wait kind of an input node. Media flags take
// precedence over each other in the order photo, video, audio, document;
// text is the default.
func (g *nodeGen) inputWait() (waitSpec, bool) {
	if !g.node.CollectsInput() {
		return waitSpec{}, false
	}
	c := g.node.Content()
	if c == nil {
		return waitSpec{}, false
	}
	pick := func(variable string) string {
		if variable != "" {
			return variable
		}
		if c.InputVariable != "" {
			return c.InputVariable
		}
		return g.node.ID
	}
	switch {
	case c.EnablePhotoInput:
		return waitSpec{kind: "WaitPhoto", variable: pick(c.PhotoInputVariable), media: true}, true
	case c.EnableVideoInput:
		return waitSpec{kind: "WaitVideo", variable: pick(c.VideoInputVariable), media: true}, true
	case c.EnableAudioInput:
		return waitSpec{kind: "WaitAudio", variable: pick(c.AudioInputVariable), media: true}, true
	case c.EnableDocInput:
		return waitSpec{kind: "WaitDocument", variable: pick(c.DocInputVariable), media: true}, true
	}
	switch c.InputType {
	case domain.InputPhoto:
		return waitSpec{kind: "WaitPhoto", variable: pick(""), media: true}, true
	case domain.InputVideo:
		return waitSpec{kind: "WaitVideo", variable: pick(""), media: true}, true
	case domain.InputAudio:
		return waitSpec{kind: "WaitAudio", variable: pick(""), media: true}, true
	case domain.InputDocument:
		return waitSpec{kind: "WaitDocument", variable: pick(""), media: true}, true
	}
	return waitSpec{kind: "WaitText", variable: pick("")}, true
}

// inputNext is the node an input node continues to after a valid answer.
func (g *nodeGen) inputNext() string {
	if c := g.node.Content(); c != nil && c.InputTargetNodeID != "" {
		return c.InputTargetNodeID
	}
	return g.e.graph.FirstSuccessor(g.node.ID)
}

// inputQuickSet makes the goto buttons of an input node answer it.
func (g *nodeGen) inputQuickSet() *quickSet {
	if g.node.IsMultiSelect() {
		return nil
	}
	w, ok := g.inputWait()
	if !ok || w.media {
		return nil
	}
	return &quickSet{variable: w.variable, next: g.inputNext()}
}

// inputArm arms the node's wait slot after the prompt is sent. When a
// condition branch may already have armed it, the node's own wait only
// applies if none did.
func (g *nodeGen) inputArm() []codegen.Stmt {
	if g.node.IsMultiSelect() {
		return nil
	}
	w, ok := g.inputWait()
	if !ok {
		return nil
	}
	c := g.node.Content()
	rules := textRules(c)
	if w.media {
		rules = nil
	}
	collector := g.collector(w, g.inputNext(), rules, c.RetryMessage, c.SuccessMessage)
	arm := codegen.ExprStmt{X: codegen.CallOf("s.Wait", codegen.Ident("botkit."+w.kind), codegen.String(w.variable), codegen.Ident(collector))}
	if g.condWaits {
		return []codegen.Stmt{codegen.If{Cond: codegen.Not{X: codegen.CallOf("s.Armed")}, Body: []codegen.Stmt{arm}}}
	}
	return []codegen.Stmt{arm}
}

// conditionWait arms a text wait for a condition branch and emits its
// collector. It returns nil when the condition names no variable.
func (g *nodeGen) conditionWait(cm domain.ConditionalMessage) codegen.Stmt {
	variable := g.conditionVariable(cm)
	if variable == "" {
		g.e.warn(g.node.ID, "condition %q waits for input but names no variable", cm.ID)
		return nil
	}
	g.condWaits = true
	c := g.node.Content()
	w := waitSpec{kind: "WaitText", variable: variable}
	collector := g.collector(w, g.conditionNext(cm), textRules(c), c.RetryMessage, "")
	return codegen.ExprStmt{X: codegen.CallOf("s.Wait", codegen.Ident("botkit.WaitText"), codegen.String(variable), codegen.Ident(collector))}
}

// textRules returns the validation of collected text, or nil when none is
// configured.
func textRules(c *domain.Content) []codegen.Field {
	var fields []codegen.Field
	if c.MinLength > 0 {
		fields = append(fields, codegen.Field{Name: "MinLength", Value: codegen.Int(c.MinLength)})
	}
	if c.MaxLength > 0 {
		fields = append(fields, codegen.Field{Name: "MaxLength", Value: codegen.Int(c.MaxLength)})
	}
	switch c.InputFormat {
	case domain.FormatEmail:
		fields = append(fields, codegen.Field{Name: "Format", Value: codegen.Ident("botkit.FormatEmail")})
	case domain.FormatPhone:
		fields = append(fields, codegen.Field{Name: "Format", Value: codegen.Ident("botkit.FormatPhone")})
	case domain.FormatNumber:
		fields = append(fields, codegen.Field{Name: "Format", Value: codegen.Ident("botkit.FormatNumber")})
	}
	return fields
}

// collector emits the function consuming the awaited input and returns its
// name: validate (retry keeps the slot armed), store, clear, confirm,
// continue.
func (g *nodeGen) collector(w waitSpec, next string, rules []codegen.Field, retry, success string) string {
	e, id := g.e, g.node.ID
	name := e.names.helper("collect", id)

	var body []codegen.Stmt
	value := codegen.Ident("in.Text")
	if w.media {
		value = codegen.Ident("in.FileID")
	}
	if len(rules) > 0 {
		msg := codegen.Expr(codegen.Ident("err.Error()"))
		if retry != "" {
			msg = codegen.String(retry)
		}
		body = append(body, codegen.If{
			Init: codegen.Assign{LHS: "err", Define: true, RHS: codegen.CallOf("botkit.CheckText", codegen.Ident("in.Text"),
				codegen.Composite{Type: "botkit.TextRules", Fields: rules})},
			Cond: codegen.Ident("err != nil"),
			Body: []codegen.Stmt{codegen.ReturnOf(codegen.CallOf("s.Retry", msg))},
		})
	}
	body = append(body,
		codegen.ExprStmt{X: codegen.CallOf("s.Set", codegen.String(w.variable), value)},
		codegen.ExprStmt{X: codegen.CallOf("s.ClearWait")},
	)
	if success != "" {
		body = append(body, codegen.CheckErr(codegen.CallOf("s.Reply", codegen.String(success), codegen.Nil)))
	}
	tail := codegen.ReturnOf(codegen.Nil)
	if next != "" {
		if h, ok := e.resolve(next); ok {
			tail = codegen.ReturnOf(codegen.CallOf(h, codegen.Ident("s")))
		} else {
			e.warn(id, "input continues to missing node %q", next)
		}
	}
	body = append(body, tail)

	g.helpers = append(g.helpers, codegen.Func{
		Doc:     fmt.Sprintf("%s stores the answer to node %s in %s.", name, strconv.Quote(id), strconv.Quote(w.variable)),
		Name:    name,
		Params:  "s *botkit.Session, in botkit.Input",
		Results: "error",
		Body:    body,
	})
	return name
}
