package botkit

import (
	"slices"
	"strings"
)

// ListSeparator joins multi-select answers in the variable store.
const ListSeparator = ", "

// selection is the per-user, per-node set of toggled option labels.
// Labels keep the order in which they were selected.
type selection struct {
	variable string
	labels   []string
}

func (sel *selection) toggle(label string) {
	if i := slices.Index(sel.labels, label); i >= 0 {
		sel.labels = slices.Delete(sel.labels, i, i+1)
		return
	}
	sel.labels = append(sel.labels, label)
}

// SplitList parses a stored multi-select answer. Only ListSeparator splits,
// so labels holding a bare comma survive. Blank parts are dropped.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ListSeparator) {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}

// mergeLists appends the labels of b missing from a, keeping first-seen order.
func mergeLists(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, l := range slices.Concat(a, b) {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}
