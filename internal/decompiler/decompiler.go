// Package decompiler recovers a partial flow from bot source produced by
// internal/emitter.
//
// The source is parsed as Go and each NODE_START/NODE_END span is walked
// structurally: the handler's doc comment names the node type, botkit calls
// reveal what the node sends and waits for, and the register function maps
// callback tokens back to handlers. Source that does not parse is recovered
// by a line scan between the markers instead.
//
// Recovery is lossy and never fails: unrecognised code is skipped.
package decompiler

import (
	"go/parser"
	"go/token"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/flowbot/internal/logging"
	"github.com/aretw0/flowbot/pkg/domain"
)

const quoted = `("(?:[^"\\]|\\.)*")`

var (
	generatedRe  = regexp.MustCompile(`(?m)^// Code generated by flowbot from ` + quoted + `\. DO NOT EDIT\.$`)
	handlerDocRe = regexp.MustCompile(`^(\w+) handles node ` + quoted + ` \((\w+)\)\.$`)
	prefixRe     = regexp.MustCompile(`^flowbot:(\d+):vars:$`)
)

// handlerType matches one handler doc comment line, without its slashes,
// against the node id.
func handlerType(line, id string) (domain.NodeType, bool) {
	m := handlerDocRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	if got, err := strconv.Unquote(m[2]); err != nil || got != id {
		return "", false
	}
	return domain.NodeType(m[3]), true
}

// Result is a recovered flow.
type Result struct {
	Project *domain.Project
	// Structural reports whether the source parsed as Go. Line-scanned
	// results carry buttons and text but no conditions or validation rules.
	Structural bool
	Warnings   []string
}

// Decompiler recovers flows from emitted source.
type Decompiler struct {
	logger *slog.Logger
}

// Option configures a Decompiler.
type Option func(*Decompiler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decompiler) {
		d.logger = logger
	}
}

// New creates a Decompiler.
func New(opts ...Option) *Decompiler {
	d := &Decompiler{}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.NewNop()
	}
	return d
}

// Decompile recovers a flow with default options.
func Decompile(src []byte) *Result {
	return New().Decompile(src)
}

// Decompile recovers the flow emitted into src.
func (d *Decompiler) Decompile(src []byte) *Result {
	r := newRecovery()
	if m := generatedRe.FindSubmatch(src); m != nil {
		if name, err := strconv.Unquote(string(m[1])); err == nil {
			r.name = name
		}
	}

	file, err := parser.ParseFile(token.NewFileSet(), "bot.go", src, parser.ParseComments)
	structural := err == nil
	if structural {
		r.walk(file)
	} else {
		d.logger.Debug("Source does not parse, scanning lines", "err", err)
		r.scan(src)
	}

	p := r.project()
	for _, w := range r.warnings {
		d.logger.Warn("Decompile warning", "msg", w)
	}
	d.logger.Info("Flow decompiled", "name", p.Name, "nodes", len(r.nodes), "structural", structural)
	return &Result{Project: p, Structural: structural, Warnings: r.warnings}
}
