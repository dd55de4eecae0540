package emitter

import (
	"strconv"
	"strings"
	"unicode"
)

// namer derives Go identifiers from node ids. Identifiers are unique per
// compilation; a node keeps one stem for all of its helpers.
type namer struct {
	used      map[string]bool
	stems     map[string]string
	stemTaken map[string]bool
}

func newNamer() *namer {
	return &namer{
		used:      make(map[string]bool),
		stems:     make(map[string]string),
		stemTaken: make(map[string]bool),
	}
}

// claim returns prefix+stem for a node and reserves it.
func (n *namer) claim(prefix, nodeID string) string {
	stem := n.stem(nodeID)
	name := prefix + stem
	n.used[name] = true
	return name
}

// stem returns the CamelCase stem of a node id, unique across nodes.
func (n *namer) stem(nodeID string) string {
	if s, ok := n.stems[nodeID]; ok {
		return s
	}
	base := camel(nodeID)
	stem := base
	for i := 2; n.stemTaken[stem]; i++ {
		stem = base + strconv.Itoa(i)
	}
	n.stems[nodeID] = stem
	n.stemTaken[stem] = true
	return stem
}

// helper returns a fresh identifier for a node helper, such as
// collectWelcome or answerWelcome2.
func (n *namer) helper(prefix, nodeID string) string {
	name := prefix + n.stem(nodeID)
	if !n.used[name] {
		n.used[name] = true
		return name
	}
	for i := 2; ; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if !n.used[candidate] {
			n.used[candidate] = true
			return candidate
		}
	}
}

// camel turns "step-1.welcome_msg" into "Step1WelcomeMsg".
func camel(id string) string {
	var b strings.Builder
	upper := true
	for _, r := range id {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Node"
	}
	return b.String()
}
