package emitter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/pkg/domain"
)

// nodeGen builds the declarations of one node.
type nodeGen struct {
	e       *emitter
	node    *domain.Node
	handler string
	helpers []codegen.Decl

	// condWaits reports whether a condition branch may arm the wait slot.
	condWaits bool
}

func (e *emitter) emitNode(n *domain.Node) error {
	g := &nodeGen{e: e, node: n, handler: e.handlers[n.ID]}
	e.addCallback(n.ID, e.alloc.Node(n.ID), g.handler)

	var body []codegen.Stmt
	var err error
	if n.Type.IsModeration() {
		body = g.moderationBody()
	} else {
		body, err = g.contentBody()
		if err != nil {
			return err
		}
	}

	fn := codegen.Func{
		Doc:     fmt.Sprintf("%s handles node %s (%s).", g.handler, strconv.Quote(n.ID), n.Type),
		Name:    g.handler,
		Params:  "s *botkit.Session",
		Results: "error",
		Body:    body,
	}
	e.decls = append(e.decls, codegen.Span{NodeID: n.ID, Decls: append([]codegen.Decl{fn}, g.helpers...)})

	g.triggers()

	if e.opts.Hooks.OnNodeEmitted != nil {
		e.opts.Hooks.OnNodeEmitted(e.ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventNodeEmitted},
			NodeID:    n.ID,
			NodeType:  n.Type,
			Tokens:    len(e.alloc.Ledger()),
		})
	}
	return nil
}

// triggers registers the command, menu entry and synonyms of the node.
// Each synonym gets an alias function in its own span.
func (g *nodeGen) triggers() {
	e, n := g.e, g.node
	cmd, synonyms := n.Trigger()
	if cmd = normalizeCommand(cmd); cmd != "" && e.commands[cmd] == g.handler {
		e.addCommand(n.ID, cmd, g.handler)
		if c := n.Content(); c != nil && c.ShowInMenu {
			desc := c.Description
			if desc == "" {
				desc = strings.TrimPrefix(cmd, "/")
			}
			e.describe(cmd, desc)
		}
	}
	for _, syn := range synonyms {
		if strings.TrimSpace(syn) == "" {
			continue
		}
		alias := e.names.helper("alias", n.ID)
		if !e.addText(n.ID, syn, alias) {
			continue
		}
		e.decls = append(e.decls, codegen.Span{NodeID: n.ID, Decls: []codegen.Decl{codegen.Func{
			Doc:     fmt.Sprintf("%s triggers node %s on %s.", alias, strconv.Quote(n.ID), strconv.Quote(syn)),
			Name:    alias,
			Params:  "s *botkit.Session",
			Results: "error",
			Body:    []codegen.Stmt{codegen.ReturnOf(codegen.CallOf(g.handler, codegen.Ident("s")))},
		}}})
	}
}

// contentBody assembles the handler of every node kind that sends a
// message: text, keyboard, condition chain, send call, wait-state arming and
// auto-transition, in that order.
func (g *nodeGen) contentBody() ([]codegen.Stmt, error) {
	c := g.node.Content()
	if c == nil {
		c = &domain.Content{}
	}
	var body []codegen.Stmt

	multi := c.AllowMultipleSelection
	if multi {
		body = append(body, g.restoreSelection())
	}

	conds := g.conditions()
	hasText := c.Text != "" || anyText(conds)
	if hasText {
		body = append(body, codegen.Assign{LHS: "text", Define: true, RHS: codegen.String(c.Text)})
	}

	hasKeyboard := false
	switch {
	case multi:
		kb, err := g.multiSelect()
		if err != nil {
			return nil, err
		}
		body = append(body, kb...)
		hasKeyboard = true
	case keyboardType(c.KeyboardType, c.Buttons) != domain.KeyboardNone:
		kb, err := g.keyboard("kb", true, c.KeyboardType, c.Columns, c.Buttons, g.inputQuickSet())
		if err != nil {
			return nil, err
		}
		body = append(body, kb...)
		hasKeyboard = true
	case anyKeyboard(conds):
		body = append(body, codegen.VarDecl{Name: "kb", Type: "*botkit.Keyboard"})
		hasKeyboard = true
	}

	if len(conds) > 0 {
		chain, err := g.conditionChain(conds, multi)
		if err != nil {
			return nil, err
		}
		body = append(body, chain...)
	}

	var kb codegen.Expr = codegen.Nil
	if hasKeyboard {
		kb = codegen.Ident("kb")
	}
	body = append(body, g.send(c, hasText, kb)...)
	body = append(body, g.inputArm()...)
	body = append(body, g.autoTransition()...)
	return append(body, codegen.ReturnOf(codegen.Nil)), nil
}

// send emits the call delivering the node's message.
func (g *nodeGen) send(c *domain.Content, hasText bool, kb codegen.Expr) []codegen.Stmt {
	text := codegen.Expr(codegen.Ident("text"))
	if !hasText {
		text = codegen.String("")
	}
	parse := parseMode(c.ParseMode)

	switch d := g.node.Data.(type) {
	case *domain.MediaData:
		if d.MediaURL == "" {
			g.e.warn(g.node.ID, "media node without mediaUrl is sent as text")
			break
		}
		kind := codegen.Ident("botkit." + mediaKind(g.node.Type))
		if parse == "" {
			return []codegen.Stmt{codegen.CheckErr(codegen.CallOf("s.SendMedia", kind, codegen.String(d.MediaURL), text, kb))}
		}
		return []codegen.Stmt{codegen.CheckErr(codegen.CallOf("s.Send", codegen.Composite{Type: "botkit.Message", Fields: []codegen.Field{
			{Name: "Text", Value: text},
			{Name: "ParseMode", Value: codegen.Ident(parse)},
			{Name: "Keyboard", Value: kb},
			{Name: "Media", Value: codegen.Composite{Type: "&botkit.Media", Fields: []codegen.Field{
				{Name: "Kind", Value: kind},
				{Name: "URL", Value: codegen.String(d.MediaURL)},
			}}},
		}}))}

	case *domain.LocationData:
		fields := []codegen.Field{
			{Name: "Latitude", Value: codegen.Lit{Value: d.Latitude}},
			{Name: "Longitude", Value: codegen.Lit{Value: d.Longitude}},
		}
		if d.Title != "" {
			fields = append(fields, codegen.Field{Name: "Title", Value: codegen.String(d.Title)})
		}
		if d.Address != "" {
			fields = append(fields, codegen.Field{Name: "Address", Value: codegen.String(d.Address)})
		}
		loc := codegen.Composite{Type: "botkit.Location", Fields: fields}
		return append(g.caption(hasText), codegen.CheckErr(codegen.CallOf("s.SendLocation", loc, kb)))

	case *domain.ContactData:
		fields := []codegen.Field{
			{Name: "PhoneNumber", Value: codegen.String(d.PhoneNumber)},
			{Name: "FirstName", Value: codegen.String(d.FirstName)},
		}
		if d.LastName != "" {
			fields = append(fields, codegen.Field{Name: "LastName", Value: codegen.String(d.LastName)})
		}
		contact := codegen.Composite{Type: "botkit.Contact", Fields: fields}
		return append(g.caption(hasText), codegen.CheckErr(codegen.CallOf("s.SendContact", contact, kb)))
	}

	if !hasText {
		if kb == codegen.Nil {
			g.e.warn(g.node.ID, "node has no message text, nothing is sent")
			return nil
		}
		g.e.warn(g.node.ID, "node has a keyboard but no message text")
	}
	var call codegen.Expr = codegen.CallOf("s.Reply", text, kb)
	if parse != "" {
		call = codegen.CallOf("s.Send", codegen.Composite{Type: "botkit.Message", Fields: []codegen.Field{
			{Name: "Text", Value: text},
			{Name: "ParseMode", Value: codegen.Ident(parse)},
			{Name: "Keyboard", Value: kb},
		}})
	}
	send := codegen.CheckErr(call)
	if c.Text == "" && hasText {
		// Only some condition branches set a text.
		return []codegen.Stmt{codegen.If{Cond: codegen.Ident(`text != ""`), Body: []codegen.Stmt{send}}}
	}
	return []codegen.Stmt{send}
}

// caption sends the node text ahead of a location or contact card.
func (g *nodeGen) caption(hasText bool) []codegen.Stmt {
	if !hasText {
		return nil
	}
	return []codegen.Stmt{codegen.If{
		Cond: codegen.Ident(`text != ""`),
		Body: []codegen.Stmt{codegen.CheckErr(codegen.CallOf("s.Reply", codegen.Ident("text"), codegen.Nil))},
	}}
}

func parseMode(mode string) string {
	switch strings.ToLower(mode) {
	case "html":
		return "botkit.ParseHTML"
	case "markdown", "markdownv2":
		return "botkit.ParseMarkdown"
	}
	return ""
}

func mediaKind(t domain.NodeType) string {
	switch t {
	case domain.NodeVideo:
		return "MediaVideo"
	case domain.NodeAudio:
		return "MediaAudio"
	case domain.NodeDocument:
		return "MediaDocument"
	case domain.NodeSticker:
		return "MediaSticker"
	case domain.NodeVoice:
		return "MediaVoice"
	case domain.NodeAnimation:
		return "MediaAnimation"
	}
	return "MediaPhoto"
}

// normalizeCommand returns cmd with exactly one leading slash, or "".
func normalizeCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return ""
	}
	return "/" + strings.TrimLeft(cmd, "/")
}
