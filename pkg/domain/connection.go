package domain

// Connection is a directed edge between two nodes.
// It carries the transition when the source node has no explicit button for it.
type Connection struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}
