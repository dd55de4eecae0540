package domain

// Group is a chat the bot is bound to. It is emitted verbatim as static data.
type Group struct {
	Name        string          `json:"name" yaml:"name"`
	ExternalID  string          `json:"groupId" yaml:"groupId"`
	Admin       bool            `json:"isAdmin,omitempty" yaml:"isAdmin,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// Sheet is one canvas of the editor.
type Sheet struct {
	ID          string       `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes       []Node       `json:"nodes" yaml:"nodes"`
	Connections []Connection `json:"connections,omitempty" yaml:"connections,omitempty"`
}

// Project is the compiler input: bot metadata plus the authored sheets.
type Project struct {
	Name              string  `json:"name" yaml:"name"`
	ProjectID         *int64  `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	PersistentStorage bool    `json:"persistentStorage,omitempty" yaml:"persistentStorage,omitempty"`
	Groups            []Group `json:"groups,omitempty" yaml:"groups,omitempty"`
	Sheets            []Sheet `json:"sheets" yaml:"sheets"`
}

// Graph merges every sheet into one node list and one connection list.
// Sheets are concatenated in order; ids are not deduplicated.
func (p *Project) Graph() *Graph {
	g := &Graph{}
	for _, s := range p.Sheets {
		g.Nodes = append(g.Nodes, s.Nodes...)
		g.Connections = append(g.Connections, s.Connections...)
	}
	return g
}

// Graph is the merged flow model.
type Graph struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
}

// Node returns the first node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Has reports whether a node with the given id exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.Node(id)
	return ok
}

// Successors returns the targets of the connections leaving id, in authored order.
func (g *Graph) Successors(id string) []string {
	var out []string
	for _, c := range g.Connections {
		if c.Source == id {
			out = append(out, c.Target)
		}
	}
	return out
}

// FirstSuccessor returns the first connection target of id, or "".
func (g *Graph) FirstSuccessor(id string) string {
	if s := g.Successors(id); len(s) > 0 {
		return s[0]
	}
	return ""
}

// StartNodes returns every node of type start.
func (g *Graph) StartNodes() []*Node {
	var out []*Node
	for i := range g.Nodes {
		if g.Nodes[i].Type == NodeStart {
			out = append(out, &g.Nodes[i])
		}
	}
	return out
}
