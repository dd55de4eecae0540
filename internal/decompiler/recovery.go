package decompiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowbot/pkg/callback"
	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/google/uuid"
)

// ref is a handler expression in the register function: a function name,
// or a factory call such as toggleColors("Red").
type ref struct {
	fn  string
	arg string
}

type binding struct {
	key string
	to  ref
}

// rawButton is one keyboard builder call before its token is resolved.
type rawButton struct {
	method string // Callback, URL, Text, Contact, Location or Toggle
	label  string
	arg    string // token or url
}

type rawCondition struct {
	msg       domain.ConditionalMessage
	kbType    string
	buttons   []rawButton
	collector string
}

// nodeRec accumulates what is known about one node.
type nodeRec struct {
	id      string
	typ     domain.NodeType
	handler string

	text      string
	parseMode string
	kbType    string
	columns   int
	buttons   []rawButton
	kbHelper  string
	conds     []rawCondition

	waitKind  string
	waitVar   string
	collector string
	chain     string

	multi     bool
	selectVar string

	mediaKind  string
	mediaURL   string
	location   *domain.LocationData
	contact    *domain.ContactData
	moderation *domain.ModerationData
	modAction  string
}

// helperRec summarises a helper function: a collector, quick-set answer,
// keyboard builder, done handler or alias.
type helperRec struct {
	next     string // handler the helper continues to
	setVar   string
	setValue string
	commit   string // variable committed by a done handler
	rules    domain.InputConfig
	retry    string
	success  string
	buttons  []rawButton
}

type recovery struct {
	name       string
	persistent bool
	projectID  *int64
	groups     []domain.Group

	nodes     []*nodeRec
	byID      map[string]*nodeRec
	owner     map[string]string // function name → node id
	handlerOf map[string]string // handler name → node id
	helpers   map[string]*helperRec

	commands  []binding
	texts     []binding
	menu      map[string]string
	callbacks map[string]ref
	buttons   map[string]ref

	warnings []string
}

func newRecovery() *recovery {
	return &recovery{
		byID:      make(map[string]*nodeRec),
		owner:     make(map[string]string),
		handlerOf: make(map[string]string),
		helpers:   make(map[string]*helperRec),
		menu:      make(map[string]string),
		callbacks: make(map[string]ref),
		buttons:   make(map[string]ref),
	}
}

func (r *recovery) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// node returns the record of id, creating it on first sight.
func (r *recovery) node(id string) *nodeRec {
	if n, ok := r.byID[id]; ok {
		return n
	}
	n := &nodeRec{id: id}
	r.byID[id] = n
	r.nodes = append(r.nodes, n)
	return n
}

// claim records that fn belongs to node id. The first function of a node is
// its handler.
func (r *recovery) claim(id, fn string) *nodeRec {
	n := r.node(id)
	r.owner[fn] = id
	if n.handler == "" {
		n.handler = fn
		r.handlerOf[fn] = id
	}
	return n
}

func (r *recovery) helper(fn string) *helperRec {
	h, ok := r.helpers[fn]
	if !ok {
		h = &helperRec{}
		r.helpers[fn] = h
	}
	return h
}

// target returns the node a handler reference activates, or "".
func (r *recovery) target(fn string) string {
	return r.handlerOf[fn]
}

// project assembles the recovered nodes into a single-sheet project.
func (r *recovery) project() *domain.Project {
	b := &builder{r: r, seen: make(map[[2]string]bool)}
	sheet := domain.Sheet{ID: "main", Name: "main", Nodes: []domain.Node{}}
	for _, n := range r.nodes {
		sheet.Nodes = append(sheet.Nodes, b.build(n))
	}
	sheet.Connections = b.edges

	return &domain.Project{
		Name:              r.name,
		ProjectID:         r.projectID,
		PersistentStorage: r.persistent,
		Groups:            r.groups,
		Sheets:            []domain.Sheet{sheet},
	}
}

// builder turns node records into domain nodes and collects edges.
type builder struct {
	r     *recovery
	edges []domain.Connection
	seen  map[[2]string]bool
}

func (b *builder) connect(src, dst string) {
	key := [2]string{src, dst}
	if dst == "" || b.r.byID[dst] == nil || b.seen[key] {
		return
	}
	b.seen[key] = true
	b.edges = append(b.edges, domain.Connection{ID: src + "->" + dst, Source: src, Target: dst})
}

func (b *builder) build(n *nodeRec) domain.Node {
	r := b.r
	c := domain.Content{Text: n.text, ParseMode: n.parseMode}

	cmd, synonyms := r.triggers(n.id)
	c.Command = cmd
	c.Synonyms = synonyms
	if desc, ok := r.menu[cmd]; ok && cmd != "" {
		c.ShowInMenu = true
		if desc != strings.TrimPrefix(cmd, "/") {
			c.Description = desc
		}
	}

	typ := n.typ
	if !typ.Valid() {
		typ = n.inferType()
		if typ == domain.NodeMessage && cmd == domain.DefaultStartCommand {
			typ = domain.NodeStart
		}
	}

	// Keyboard.
	buttons := n.buttons
	if n.kbHelper != "" {
		n.multi = true
		if h, ok := r.helpers[n.kbHelper]; ok {
			buttons = h.buttons
		}
	}
	if n.multi {
		c.AllowMultipleSelection = true
		c.MultiSelectVariable = n.selectVar
		if n.selectVar == n.id {
			c.MultiSelectVariable = ""
		}
	} else if n.kbType == "reply" {
		c.KeyboardType = domain.KeyboardReply
	}
	c.Buttons = b.buttons(n, &c, buttons)
	if n.columns > 0 && n.columns != defaultColumns(len(c.Buttons), n.multi) {
		c.Columns = n.columns
	}

	// Conditions.
	for _, rc := range n.conds {
		cm := rc.msg
		if rc.kbType != "" {
			cm.KeyboardType = rc.kbType
			cm.Buttons = b.buttons(n, nil, rc.buttons)
		}
		if h, ok := r.helpers[rc.collector]; ok && rc.collector != "" {
			if next := r.target(h.next); next != "" {
				cm.NextNodeAfterInput = next
				b.connect(n.id, next)
			}
		}
		c.EnableConditionalMessages = true
		c.ConditionalMessages = append(c.ConditionalMessages, cm)
	}

	// Input.
	if n.waitKind != "" {
		c.CollectUserInput = true
		c.InputType = waitInputs[n.waitKind]
		if n.waitVar != n.id {
			c.InputVariable = n.waitVar
		}
		if h, ok := r.helpers[n.collector]; ok {
			c.MinLength = h.rules.MinLength
			c.MaxLength = h.rules.MaxLength
			c.InputFormat = h.rules.InputFormat
			c.RetryMessage = h.retry
			c.SuccessMessage = h.success
			if next := r.target(h.next); next != "" {
				c.InputTargetNodeID = next
				b.connect(n.id, next)
			}
		}
	}

	// Auto-transition.
	if next := r.target(n.chain); next != "" {
		c.EnableAutoTransition = true
		c.AutoTransitionTo = next
		b.connect(n.id, next)
	}

	node := domain.Node{ID: n.id, Type: typ}
	switch {
	case typ.IsModeration():
		d := n.moderation
		if d == nil {
			d = &domain.ModerationData{}
		}
		d.Command, d.Synonyms, d.Text = cmd, synonyms, n.text
		node.Data = d
	case typ.IsMedia():
		node.Data = &domain.MediaData{Content: c, MediaURL: n.mediaURL}
	case typ == domain.NodeLocation:
		d := n.location
		if d == nil {
			d = &domain.LocationData{}
		}
		d.Content = c
		node.Data = d
	case typ == domain.NodeContact:
		d := n.contact
		if d == nil {
			d = &domain.ContactData{}
		}
		d.Content = c
		node.Data = d
	case typ == domain.NodeUserInput:
		node.Data = &domain.InputData{Content: c}
	default:
		node.Data = &domain.MessageData{Content: c}
	}
	return node
}

// buttons resolves raw keyboard calls. The multi-select done button is not a
// graph button: it sets the continuation of c instead.
func (b *builder) buttons(n *nodeRec, c *domain.Content, raw []rawButton) []domain.Button {
	r := b.r
	var out []domain.Button
	for i, rb := range raw {
		btn := domain.Button{
			ID:   uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "flowbot:%s/%d/%s", n.id, i, rb.label)).String(),
			Text: rb.label,
		}
		switch rb.method {
		case "URL":
			btn.Action, btn.URL = domain.ActionURL, rb.arg
		case "Contact":
			btn.Action = domain.ActionContact
		case "Location":
			btn.Action = domain.ActionLocation
		case "Toggle":
			btn.Action = domain.ActionSelection
		case "Text":
			btn.Action = domain.ActionGoto
			if to, ok := r.buttons[rb.label]; ok {
				b.resolve(n, &btn, to)
			}
		case "Callback":
			btn.Action = domain.ActionGoto
			if to, ok := r.callbacks[rb.arg]; ok {
				if h, isDone := r.helpers[to.fn]; isDone && h.commit != "" {
					if c != nil {
						b.done(n, c, rb.label, h)
					}
					continue
				}
				b.resolve(n, &btn, to)
				break
			}
			switch tok := callback.Classify(rb.arg); tok.Kind {
			case callback.KindCommand:
				btn.Action, btn.Target = domain.ActionCommand, "/"+tok.Payload
			case callback.KindDone:
				if c != nil && rb.label != "" && rb.label != domain.DefaultDoneText {
					c.ContinueButtonText = rb.label
				}
				continue
			}
		default:
			continue
		}
		out = append(out, btn)
	}
	return out
}

// resolve points btn at what the handler reference to activates.
func (b *builder) resolve(n *nodeRec, btn *domain.Button, to ref) {
	r := b.r
	if id := r.target(to.fn); id != "" && to.arg == "" {
		btn.Target = id
		b.connect(n.id, id)
		return
	}
	h, ok := r.helpers[to.fn]
	if !ok {
		return
	}
	if h.setVar != "" && h.setValue != btn.Text {
		btn.Value = h.setValue
	}
	if next := r.target(h.next); next != "" {
		btn.Target = next
		b.connect(n.id, next)
	}
}

func (b *builder) done(n *nodeRec, c *domain.Content, label string, h *helperRec) {
	if label != domain.DefaultDoneText {
		c.ContinueButtonText = label
	}
	if h.commit != "" && c.MultiSelectVariable == "" && h.commit != n.id {
		c.MultiSelectVariable = h.commit
	}
	if next := b.r.target(h.next); next != "" {
		c.ContinueButtonTarget = next
		b.connect(n.id, next)
	}
}

// triggers returns the command and synonyms bound to a node. Commands and
// text triggers bound to any function of the node count.
func (r *recovery) triggers(id string) (string, []string) {
	var cmd string
	for _, bnd := range r.commands {
		if r.owner[bnd.to.fn] == id && bnd.to.arg == "" {
			cmd = bnd.key
			break
		}
	}
	var synonyms []string
	for _, bnd := range r.texts {
		if r.owner[bnd.to.fn] == id {
			synonyms = append(synonyms, bnd.key)
		}
	}
	return cmd, synonyms
}

// inferType guesses the node type from the idioms seen in its handler.
func (n *nodeRec) inferType() domain.NodeType {
	switch {
	case n.modAction != "":
		if t, ok := moderationTypes[n.modAction]; ok {
			return t
		}
	case n.mediaKind != "":
		if t, ok := mediaTypes[n.mediaKind]; ok {
			return t
		}
	case n.location != nil:
		return domain.NodeLocation
	case n.contact != nil:
		return domain.NodeContact
	case n.waitKind != "":
		return domain.NodeUserInput
	}
	return domain.NodeMessage
}

func defaultColumns(n int, multi bool) int {
	if multi {
		return 2
	}
	if n > 5 {
		return 2
	}
	return 1
}
