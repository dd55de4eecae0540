package domain

import "sort"

// GraphDiff describes how a recovered graph differs from a reference graph.
// It compares node identities, node types and edges only; text and flags are
// outside the comparison because decompilation is lossy by contract.
type GraphDiff struct {
	MissingNodes []string               `json:"missing_nodes,omitempty"`
	ExtraNodes   []string               `json:"extra_nodes,omitempty"`
	TypeChanges  map[string][2]NodeType `json:"type_changes,omitempty"`
	MissingEdges []Connection           `json:"missing_edges,omitempty"`
}

// Empty reports whether the graphs agree on nodes, types and edges.
func (d *GraphDiff) Empty() bool {
	return len(d.MissingNodes) == 0 && len(d.ExtraNodes) == 0 &&
		len(d.TypeChanges) == 0 && len(d.MissingEdges) == 0
}

// Diff compares want against got.
// Edges in want are only reported missing when both endpoints exist in got.
func Diff(want, got *Graph) *GraphDiff {
	diff := &GraphDiff{TypeChanges: make(map[string][2]NodeType)}
	if want == nil {
		want = &Graph{}
	}
	if got == nil {
		got = &Graph{}
	}

	wantTypes := make(map[string]NodeType, len(want.Nodes))
	for _, n := range want.Nodes {
		if _, seen := wantTypes[n.ID]; !seen {
			wantTypes[n.ID] = n.Type
		}
	}
	gotTypes := make(map[string]NodeType, len(got.Nodes))
	for _, n := range got.Nodes {
		if _, seen := gotTypes[n.ID]; !seen {
			gotTypes[n.ID] = n.Type
		}
	}

	for id, t := range wantTypes {
		gt, ok := gotTypes[id]
		if !ok {
			diff.MissingNodes = append(diff.MissingNodes, id)
			continue
		}
		if gt != t {
			diff.TypeChanges[id] = [2]NodeType{t, gt}
		}
	}
	for id := range gotTypes {
		if _, ok := wantTypes[id]; !ok {
			diff.ExtraNodes = append(diff.ExtraNodes, id)
		}
	}

	gotEdges := make(map[[2]string]bool, len(got.Connections))
	for _, c := range got.Connections {
		gotEdges[[2]string{c.Source, c.Target}] = true
	}
	for _, c := range want.Connections {
		_, srcOK := gotTypes[c.Source]
		_, dstOK := gotTypes[c.Target]
		if srcOK && dstOK && !gotEdges[[2]string{c.Source, c.Target}] {
			diff.MissingEdges = append(diff.MissingEdges, c)
		}
	}

	sort.Strings(diff.MissingNodes)
	sort.Strings(diff.ExtraNodes)
	if len(diff.TypeChanges) == 0 {
		diff.TypeChanges = nil
	}
	return diff
}
