package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/flowbot/pkg/domain"
)

// Builder manages the flow construction.
type Builder struct {
	project domain.Project
	order   []string
	nodes   map[string]*NodeBuilder
	edges   []domain.Connection
}

// New creates a new flow builder for a bot named name.
func New(name string) *Builder {
	return &Builder{
		project: domain.Project{Name: name},
		nodes:   make(map[string]*NodeBuilder),
	}
}

// ProjectID sets the id that namespaces persisted variables.
func (b *Builder) ProjectID(id int64) *Builder {
	b.project.ProjectID = &id
	return b
}

// Persistent enables persistent variable storage in the emitted program.
func (b *Builder) Persistent() *Builder {
	b.project.PersistentStorage = true
	return b
}

// Group binds the bot to a chat.
func (b *Builder) Group(g domain.Group) *Builder {
	b.project.Groups = append(b.project.Groups, g)
	return b
}

// Add creates a new node in the flow.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{id: id, typ: domain.NodeMessage, builder: b}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build assembles the project. Connections and targets must name nodes
// added to the builder.
func (b *Builder) Build() (*domain.Project, error) {
	sheet := domain.Sheet{ID: "main", Name: "main", Connections: b.edges}
	var errs []error
	for _, id := range b.order {
		node := b.nodes[id].Build()
		for _, target := range targets(&node) {
			if _, ok := b.nodes[target]; !ok {
				errs = append(errs, fmt.Errorf("node %q targets unknown node %q", id, target))
			}
		}
		sheet.Nodes = append(sheet.Nodes, node)
	}
	for _, c := range b.edges {
		if _, ok := b.nodes[c.Target]; !ok {
			errs = append(errs, fmt.Errorf("connection %s references unknown node %q", c.ID, c.Target))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to build flow: %w", errors.Join(errs...))
	}

	p := b.project
	p.Sheets = []domain.Sheet{sheet}
	return &p, nil
}

func targets(n *domain.Node) []string {
	c := n.Content()
	if c == nil {
		return nil
	}
	var out []string
	for _, btn := range c.Buttons {
		if btn.Action == domain.ActionGoto && btn.Target != "" {
			out = append(out, btn.Target)
		}
	}
	for _, t := range []string{c.InputTargetNodeID, c.AutoTransitionTo, c.ContinueButtonTarget} {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
