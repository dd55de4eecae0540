// Package emitter compiles a flow graph into the Go source of a Telegram bot
// built on pkg/botkit.
//
// Every node becomes a handler function wrapped in NODE_START/NODE_END
// marker comments, followed by the helper functions the node needs
// (collectors, quick-set answers, multi-select keyboards). A register
// function wires commands, text triggers, reply-keyboard labels and callback
// tokens to those handlers, and main starts the bot.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/internal/logging"
	"github.com/aretw0/flowbot/internal/tokens"
	"github.com/aretw0/flowbot/pkg/domain"
)

// DefaultModule is the import path of the module providing botkit.
const DefaultModule = "github.com/aretw0/flowbot"

// DanglingPolicy decides what a button targeting a missing node becomes.
type DanglingPolicy string

const (
	// DanglingInert emits a button that answers "not configured".
	DanglingInert DanglingPolicy = "inert"
	// DanglingError fails compilation with domain.ErrDanglingTarget.
	DanglingError DanglingPolicy = "error"
)

// ParseDanglingPolicy validates a policy name. The empty string selects
// DanglingInert.
func ParseDanglingPolicy(s string) (DanglingPolicy, error) {
	switch DanglingPolicy(s) {
	case "":
		return DanglingInert, nil
	case DanglingInert, DanglingError:
		return DanglingPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown dangling policy %q", s)
	}
}

// Options configures one compilation.
type Options struct {
	// Package is the package clause of the output. Programs in package main
	// get a main function; other packages export Register instead.
	Package string

	// PersistentStorage overrides the project flag when set.
	PersistentStorage *bool

	CollisionPolicy tokens.Policy
	DanglingPolicy  DanglingPolicy

	// Module is the import path prefix of botkit and the store adapters.
	Module string

	Hooks  domain.CompileHooks
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Package == "" {
		o.Package = "main"
	}
	if o.CollisionPolicy == "" {
		o.CollisionPolicy = tokens.PolicyRederive
	}
	if o.DanglingPolicy == "" {
		o.DanglingPolicy = DanglingInert
	}
	if o.Module == "" {
		o.Module = DefaultModule
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	return o
}

// Result is the output of Compile.
type Result struct {
	Source []byte
	Spans  []codegen.SpanInfo
	// Tokens maps every callback token to its owner: a node id, or a
	// kind-prefixed key for option, done, quick-set and command tokens.
	Tokens   map[string]string
	Warnings []string
}

// emitter holds the state of one compilation.
type emitter struct {
	ctx   context.Context
	opts  Options
	proj  *domain.Project
	graph *domain.Graph
	alloc *tokens.Allocator
	names *namer

	handlers map[string]string // node id → handler name
	owners   map[string]string // first-wins skipped node id → owning node id
	commands map[string]string // command → handler of the node declaring it

	reg      registry
	decls    []codegen.Decl
	imports  map[string]bool
	warnings []string
}

// Compile turns p into bot source.
//
// Structural gaps never fail compilation: they degrade and are reported in
// Result.Warnings. Only the strict collision and dangling policies return
// errors.
func Compile(ctx context.Context, p *domain.Project, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	graph := p.Graph()

	alloc, err := tokens.New(graph.Nodes, opts.CollisionPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate callback tokens: %w", err)
	}

	e := &emitter{
		ctx:      ctx,
		opts:     opts,
		proj:     p,
		graph:    graph,
		alloc:    alloc,
		names:    newNamer(),
		handlers: make(map[string]string),
		owners:   make(map[string]string),
		commands: make(map[string]string),
		reg:      newRegistry(),
		imports:  make(map[string]bool),
	}
	e.use(e.pkg("botkit"))

	for _, c := range alloc.Collisions() {
		msg := fmt.Sprintf("nodes %q and %q share callback token %q", c.Owner, c.NodeID, c.Token)
		if alloc.Skipped(c.NodeID) {
			e.owners[c.NodeID] = c.Owner
			msg += fmt.Sprintf("; %q is not emitted", c.NodeID)
		} else {
			msg += fmt.Sprintf("; %q uses %q", c.NodeID, c.Resolved)
		}
		e.warnings = append(e.warnings, msg)
		if opts.Hooks.OnCollision != nil {
			opts.Hooks.OnCollision(ctx, &domain.WarningEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCollision},
				NodeID:    c.NodeID,
				Message:   msg,
			})
		}
		opts.Logger.Warn("Callback token collision", "node_id", c.NodeID, "owner", c.Owner, "token", c.Token)
	}

	order := e.plan()
	for _, n := range order {
		if err := e.emitNode(n); err != nil {
			return nil, err
		}
	}
	e.emitRouter()

	file := &codegen.File{
		Header:  []string{fmt.Sprintf("Code generated by flowbot from %s. DO NOT EDIT.", strconv.Quote(e.flowName()))},
		Package: opts.Package,
		Imports: e.importList(),
		Decls:   e.decls,
	}
	src, spans, err := codegen.Print(file)
	if err != nil {
		return nil, fmt.Errorf("failed to print bot source: %w", err)
	}

	opts.Logger.Info("Flow compiled", "name", e.flowName(), "nodes", len(order), "warnings", len(e.warnings))
	return &Result{
		Source:   src,
		Spans:    spans,
		Tokens:   alloc.Ledger(),
		Warnings: e.warnings,
	}, nil
}

// plan names every emitted node before any code is generated, so handlers
// can reference nodes declared later in the file.
func (e *emitter) plan() []*domain.Node {
	var order []*domain.Node
	seen := make(map[string]bool)
	for i := range e.graph.Nodes {
		n := &e.graph.Nodes[i]
		if seen[n.ID] {
			e.warn(n.ID, "duplicate node id %q, only the first node is emitted", n.ID)
			continue
		}
		seen[n.ID] = true
		if e.alloc.Skipped(n.ID) {
			continue
		}
		e.handlers[n.ID] = e.names.claim("handle", n.ID)
		order = append(order, n)
	}
	for _, n := range order {
		cmd, _ := n.Trigger()
		if cmd = normalizeCommand(cmd); cmd == "" {
			continue
		}
		if owner, taken := e.commands[cmd]; taken {
			e.warn(n.ID, "command %s is already handled by %s, ignored", cmd, owner)
			continue
		}
		e.commands[cmd] = e.handlers[n.ID]
	}
	return order
}

// resolve returns the handler of target. Targets skipped under the
// first-wins policy resolve to the node that kept their token.
func (e *emitter) resolve(target string) (string, bool) {
	if owner, ok := e.owners[target]; ok {
		target = owner
	}
	h, ok := e.handlers[target]
	return h, ok
}

// token returns the callback token that activates target.
func (e *emitter) token(target string) string {
	if owner, ok := e.owners[target]; ok {
		target = owner
	}
	return e.alloc.Node(target)
}

func (e *emitter) warn(nodeID, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if nodeID != "" {
		msg = fmt.Sprintf("node %q: %s", nodeID, msg)
	}
	e.warnings = append(e.warnings, msg)
	e.opts.Logger.Warn("Compile warning", "node_id", nodeID, "msg", msg)
	if e.opts.Hooks.OnWarning != nil {
		e.opts.Hooks.OnWarning(e.ctx, &domain.WarningEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventWarning},
			NodeID:    nodeID,
			Message:   msg,
		})
	}
}

func (e *emitter) pkg(name string) string {
	return e.opts.Module + "/pkg/" + name
}

func (e *emitter) use(path string) {
	e.imports[path] = true
}

func (e *emitter) importList() []string {
	out := make([]string, 0, len(e.imports))
	for p := range e.imports {
		out = append(out, p)
	}
	return out
}

func (e *emitter) flowName() string {
	if e.proj.Name != "" {
		return e.proj.Name
	}
	return "flow"
}

func (e *emitter) persistent() bool {
	if e.opts.PersistentStorage != nil {
		return *e.opts.PersistentStorage
	}
	return e.proj.PersistentStorage
}
