// Package tokens allocates the short callback tokens carried by buttons.
//
// Node tokens are derived from node ids so recompiling a flow yields the same
// tokens. The derivation is a heuristic: a fixed trailing slice of the id,
// falling back to a denser slice when two ids share a suffix. What happens
// when the dense form still collides is decided by a Policy.
package tokens

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/flowbot/pkg/callback"
	"github.com/aretw0/flowbot/pkg/domain"
)

const (
	primaryLen = 10
	denseLen   = 8
	optionLen  = 6
	separators = "_-.:/"
)

// Policy decides what to do when two nodes derive the same token.
type Policy string

const (
	// PolicyFirstWins keeps the first node and marks later ones as skipped.
	PolicyFirstWins Policy = "first-wins"
	// PolicyError fails allocation with domain.ErrTokenCollision.
	PolicyError Policy = "error"
	// PolicyRederive derives a longer token from the full id.
	PolicyRederive Policy = "rederive"
)

// ParsePolicy validates a policy name. The empty string selects PolicyRederive.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "":
		return PolicyRederive, nil
	case PolicyFirstWins, PolicyError, PolicyRederive:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown collision policy %q", s)
	}
}

// Collision records two distinct nodes that derived the same token.
type Collision struct {
	Token    string
	NodeID   string
	Owner    string
	Resolved string // token finally assigned to NodeID
}

// Allocator assigns tokens to nodes and keeps the ledger of every token
// handed out during one compilation. It is not safe for concurrent use.
type Allocator struct {
	policy     Policy
	byNode     map[string]string
	owners     map[string]string
	skipped    map[string]bool
	options    map[string]map[string]string
	collisions []Collision
}

// New derives the token of every node. Nodes sharing an id share a token.
func New(nodes []domain.Node, policy Policy) (*Allocator, error) {
	if policy == "" {
		policy = PolicyRederive
	}
	a := &Allocator{
		policy:  policy,
		byNode:  make(map[string]string),
		owners:  make(map[string]string),
		skipped: make(map[string]bool),
		options: make(map[string]map[string]string),
	}

	ids := uniqueIDs(nodes)

	suffixOwners := make(map[string]int)
	for _, id := range ids {
		suffixOwners[Primary(id)]++
	}

	for _, id := range ids {
		candidate := Primary(id)
		if suffixOwners[candidate] > 1 {
			candidate = Dense(id)
		}
		if candidate == "" {
			candidate = "node"
		}
		if err := a.assign(id, candidate); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func uniqueIDs(nodes []domain.Node) []string {
	seen := make(map[string]bool, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		ids = append(ids, n.ID)
	}
	return ids
}

func (a *Allocator) assign(id, candidate string) error {
	owner, taken := a.owners[candidate]
	if !taken {
		a.byNode[id] = candidate
		a.owners[candidate] = id
		return nil
	}

	c := Collision{Token: candidate, NodeID: id, Owner: owner}
	switch a.policy {
	case PolicyError:
		return fmt.Errorf("%w: nodes %q and %q both map to %q", domain.ErrTokenCollision, owner, id, candidate)
	case PolicyFirstWins:
		a.byNode[id] = candidate
		a.skipped[id] = true
		c.Resolved = candidate
	default:
		resolved := a.unique(callback.Clamp(Sanitize(id)))
		a.byNode[id] = resolved
		a.owners[resolved] = id
		c.Resolved = resolved
	}
	a.collisions = append(a.collisions, c)
	return nil
}

// unique returns base, or base with the smallest numeric discriminator
// that is not yet owned.
func (a *Allocator) unique(base string) string {
	if base == "" {
		base = "node"
	}
	if _, taken := a.owners[base]; !taken {
		return base
	}
	for n := 2; ; n++ {
		suffix := "_" + strconv.Itoa(n)
		stem := base
		if limit := callback.MaxBytes - len(suffix); len(stem) > limit {
			for limit > 0 && stem[limit]&0xC0 == 0x80 {
				limit--
			}
			stem = stem[:limit]
		}
		if _, taken := a.owners[stem+suffix]; !taken {
			return stem + suffix
		}
	}
}

// Policy returns the collision policy in effect.
func (a *Allocator) Policy() Policy { return a.policy }

// Node returns the token of a node id, or "" if the id is unknown.
func (a *Allocator) Node(id string) string { return a.byNode[id] }

// Skipped reports whether a node lost its token to an earlier node under
// PolicyFirstWins. The emitter does not emit a handler for it.
func (a *Allocator) Skipped(id string) bool { return a.skipped[id] }

// Collisions returns every collision seen so far, in detection order.
func (a *Allocator) Collisions() []Collision { return a.collisions }

// Reserve claims token for owner. A token already held by the same owner is
// reused; a token held by someone else is disambiguated. The second result
// reports whether the token is new to the ledger.
func (a *Allocator) Reserve(token, owner string) (string, bool) {
	token = callback.Clamp(token)
	if cur, taken := a.owners[token]; taken {
		if cur == owner {
			return token, false
		}
		token = a.unique(token)
	}
	a.owners[token] = owner
	return token, true
}

// Option returns the multi-select toggle token of one option of a node.
// The option key is the button id, or its value when the id is empty.
func (a *Allocator) Option(nodeID string, b domain.Button) string {
	key := b.ID
	if key == "" {
		key = b.OptionValue()
	}
	perNode := a.options[nodeID]
	if perNode == nil {
		perNode = make(map[string]string)
		a.options[nodeID] = perNode
	}
	if tok, ok := perNode[key]; ok {
		return tok
	}
	short := tail(denseChars(key), optionLen)
	if short == "" {
		short = "opt"
	}
	tok, _ := a.Reserve(callback.Toggle(a.Node(nodeID), short), "option:"+nodeID+"/"+key)
	perNode[key] = tok
	return tok
}

// Done returns the multi-select finalisation token of a node.
func (a *Allocator) Done(nodeID string) string {
	tok, _ := a.Reserve(callback.Done(nodeID, a.Node(nodeID)), "done:"+nodeID)
	return tok
}

// Ledger returns a copy of token → owner for every token handed out.
// Node tokens are owned by their node id; other tokens by a kind-prefixed key.
func (a *Allocator) Ledger() map[string]string {
	out := make(map[string]string, len(a.owners))
	for k, v := range a.owners {
		out[k] = v
	}
	return out
}

// Primary returns the primary token of an id: its last ten bytes with
// leading separators stripped. Ids ending in an input-companion suffix use
// the short-circuit rule.
func Primary(id string) string {
	if base, ok := strings.CutSuffix(id, "_input"); ok && base != "" {
		return head(denseChars(base), denseLen) + "_in"
	}
	if base, ok := strings.CutSuffix(id, "_response"); ok && base != "" {
		return head(denseChars(base), denseLen) + "_rs"
	}
	return strings.TrimLeft(tail(id, primaryLen), separators)
}

// Dense returns the collision fallback of an id: its alphanumeric
// characters, last eight.
func Dense(id string) string {
	return tail(denseChars(id), denseLen)
}

// Sanitize keeps the characters of id that are safe in a token.
func Sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		if isAlnum(r) || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func denseChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// tail returns the last n bytes of s, moved forward to a rune boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := len(s) - n
	for i < len(s) && s[i]&0xC0 == 0x80 {
		i++
	}
	return s[i:]
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
