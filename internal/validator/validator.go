// Package validator reports structural problems of a flow.
//
// Problems are warnings: a partially built flow still compiles, and the
// emitter degrades what it cannot wire. The validator exists so editors and
// the CLI can show them before compiling.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowbot/pkg/domain"
)

// Code identifies the kind of an Issue.
type Code string

const (
	CodeNoStart          Code = "no_start"
	CodeDuplicateStart   Code = "duplicate_start"
	CodeDuplicateID      Code = "duplicate_id"
	CodeUnknownType      Code = "unknown_type"
	CodeEmptyLabel       Code = "empty_label"
	CodeMissingURL       Code = "missing_url"
	CodeDanglingTarget   Code = "dangling_target"
	CodeDanglingEdge     Code = "dangling_edge"
	CodeDuplicateCommand Code = "duplicate_command"
	CodeNoOptions        Code = "no_options"
	CodeUnreachable      Code = "unreachable"
	CodeMissingMedia     Code = "missing_media"
	CodeNoVariable       Code = "condition_no_variable"
)

// Issue is one structural warning.
type Issue struct {
	Code    Code   `json:"code"`
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return i.Message
	}
	return fmt.Sprintf("node %q: %s", i.NodeID, i.Message)
}

// Validate checks g and returns its issues in node order.
func Validate(g *domain.Graph) []Issue {
	v := &validation{graph: g, seen: make(map[string]bool), commands: make(map[string]string)}
	v.entries()
	for i := range g.Nodes {
		v.node(&g.Nodes[i])
	}
	for _, c := range g.Connections {
		for _, end := range []string{c.Source, c.Target} {
			if !g.Has(end) {
				v.add(CodeDanglingEdge, c.Source, "connection %s -> %s references missing node %q", c.Source, c.Target, end)
			}
		}
	}
	v.reachability()
	return v.issues
}

// Strings renders issues one per element.
func Strings(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.String()
	}
	return out
}

type validation struct {
	graph    *domain.Graph
	issues   []Issue
	seen     map[string]bool
	commands map[string]string
}

func (v *validation) add(code Code, nodeID, format string, args ...any) {
	v.issues = append(v.issues, Issue{Code: code, NodeID: nodeID, Message: fmt.Sprintf(format, args...)})
}

func (v *validation) entries() {
	starts := v.graph.StartNodes()
	switch {
	case len(v.graph.Nodes) == 0:
		v.add(CodeNoStart, "", "flow has no nodes")
	case len(starts) == 0:
		v.add(CodeNoStart, "", "flow has no start node")
	case len(starts) > 1:
		ids := make([]string, len(starts))
		for i, n := range starts {
			ids[i] = n.ID
		}
		v.add(CodeDuplicateStart, "", "flow has %d start nodes: %s", len(starts), strings.Join(ids, ", "))
	}
}

func (v *validation) node(n *domain.Node) {
	if v.seen[n.ID] {
		v.add(CodeDuplicateID, n.ID, "duplicate node id")
		return
	}
	v.seen[n.ID] = true

	if !n.Type.Valid() {
		v.add(CodeUnknownType, n.ID, "unknown node type %q", n.Type)
	}

	if cmd, _ := n.Trigger(); strings.TrimSpace(cmd) != "" {
		cmd = "/" + strings.TrimLeft(strings.TrimSpace(cmd), "/")
		if owner, taken := v.commands[cmd]; taken {
			v.add(CodeDuplicateCommand, n.ID, "command %s is already handled by node %q", cmd, owner)
		} else {
			v.commands[cmd] = n.ID
		}
	}

	if d, ok := n.Data.(*domain.MediaData); ok && d.MediaURL == "" {
		v.add(CodeMissingMedia, n.ID, "media node has no media url")
	}

	c := n.Content()
	if c == nil {
		return
	}
	v.buttons(n.ID, c.Buttons)
	if c.AllowMultipleSelection {
		options := 0
		for _, b := range c.Buttons {
			if b.Action == domain.ActionSelection {
				options++
			}
		}
		if options == 0 {
			v.add(CodeNoOptions, n.ID, "multi-select node has no selection buttons")
		}
	}
	if c.EnableConditionalMessages {
		for _, cm := range c.ConditionalMessages {
			if len(cm.Variables()) == 0 {
				v.add(CodeNoVariable, n.ID, "condition %q tests no variable", cm.ID)
			}
			v.buttons(n.ID, cm.Buttons)
		}
	}
	for _, ref := range []struct{ what, target string }{
		{"input target", c.InputTargetNodeID},
		{"auto-transition", c.AutoTransitionTo},
		{"continue button", c.ContinueButtonTarget},
	} {
		if ref.target != "" && !v.graph.Has(ref.target) {
			v.add(CodeDanglingTarget, n.ID, "%s targets missing node %q", ref.what, ref.target)
		}
	}
}

func (v *validation) buttons(nodeID string, buttons []domain.Button) {
	for _, b := range buttons {
		label := b.Text
		if strings.TrimSpace(label) == "" {
			v.add(CodeEmptyLabel, nodeID, "button %q has an empty label", b.ID)
			label = b.ID
		}
		switch b.Action {
		case domain.ActionURL:
			if b.URL == "" {
				v.add(CodeMissingURL, nodeID, "link button %q has no url", label)
			}
		case domain.ActionGoto, "":
			if b.Target != "" && !v.graph.Has(b.Target) {
				v.add(CodeDanglingTarget, nodeID, "button %q targets missing node %q", label, b.Target)
			}
		}
	}
}

// reachability walks the flow from its entry points, start nodes and nodes
// with a command or synonym, and reports every node never reached.
func (v *validation) reachability() {
	g := v.graph
	if len(g.StartNodes()) == 0 {
		return
	}

	var queue []string
	for _, n := range g.Nodes {
		cmd, synonyms := n.Trigger()
		if n.Type == domain.NodeStart || cmd != "" || len(synonyms) > 0 {
			queue = append(queue, n.ID)
		}
	}

	visited := make(map[string]bool)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		for _, next := range successors(g, n, v.commands) {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	reported := make(map[string]bool)
	for _, n := range g.Nodes {
		if !visited[n.ID] && !reported[n.ID] {
			reported[n.ID] = true
			v.add(CodeUnreachable, n.ID, "node is not reachable from any entry point")
		}
	}
}

// successors lists every node n can hand control to.
func successors(g *domain.Graph, n *domain.Node, commands map[string]string) []string {
	out := g.Successors(n.ID)
	c := n.Content()
	if c == nil {
		return out
	}
	follow := func(buttons []domain.Button) {
		for _, b := range buttons {
			switch b.Action {
			case domain.ActionCommand:
				if owner, ok := commands["/"+strings.TrimLeft(b.Target, "/")]; ok {
					out = append(out, owner)
				}
			case domain.ActionURL, domain.ActionContact, domain.ActionLocation, domain.ActionSelection:
			default:
				if b.Target != "" {
					out = append(out, b.Target)
				}
			}
		}
	}
	follow(c.Buttons)
	for _, cm := range c.ConditionalMessages {
		follow(cm.Buttons)
		if cm.NextNodeAfterInput != "" {
			out = append(out, cm.NextNodeAfterInput)
		}
	}
	for _, t := range []string{c.InputTargetNodeID, c.AutoTransitionTo, c.ContinueButtonTarget} {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
