package flowbot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/flowbot/internal/codegen"
	"github.com/aretw0/flowbot/internal/compiler"
	"github.com/aretw0/flowbot/internal/decompiler"
	"github.com/aretw0/flowbot/internal/emitter"
	"github.com/aretw0/flowbot/internal/logging"
	"github.com/aretw0/flowbot/internal/presentation/graph"
	"github.com/aretw0/flowbot/internal/tokens"
	"github.com/aretw0/flowbot/internal/validator"
	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/observability"
)

// Span locates the emitted text of one node.
type Span = codegen.SpanInfo

// Issue is a structural problem found by Validate.
type Issue = validator.Issue

// CompileOptions selects how a project is emitted. Empty fields fall back to
// the compiler defaults.
type CompileOptions struct {
	Package           string `json:"package,omitempty"`
	PersistentStorage *bool  `json:"persistentStorage,omitempty"`
	CollisionPolicy   string `json:"collisionPolicy,omitempty"`
	DanglingPolicy    string `json:"danglingPolicy,omitempty"`
	RuntimeModule     string `json:"runtimeModule,omitempty"`
}

func (o CompileOptions) merge(defaults CompileOptions) CompileOptions {
	if o.Package == "" {
		o.Package = defaults.Package
	}
	if o.PersistentStorage == nil {
		o.PersistentStorage = defaults.PersistentStorage
	}
	if o.CollisionPolicy == "" {
		o.CollisionPolicy = defaults.CollisionPolicy
	}
	if o.DanglingPolicy == "" {
		o.DanglingPolicy = defaults.DanglingPolicy
	}
	if o.RuntimeModule == "" {
		o.RuntimeModule = defaults.RuntimeModule
	}
	return o
}

// CompileResult is an emitted bot program.
type CompileResult struct {
	Source   []byte            `json:"source"`
	Spans    []Span            `json:"spans"`
	Tokens   map[string]string `json:"tokens"`
	Warnings []string          `json:"warnings"`
}

// DecompileResult is a recovered flow.
type DecompileResult struct {
	Project    *domain.Project `json:"project"`
	Structural bool            `json:"structural"`
	Warnings   []string        `json:"warnings"`
}

// Compiler is the high-level entry point for the flowbot library.
// It wraps the loader, emitter, decompiler and validator behind one API.
type Compiler struct {
	logger   *slog.Logger
	hooks    domain.CompileHooks
	metrics  *observability.Metrics
	defaults CompileOptions
	strict   bool
}

// Option defines a functional option for configuring the Compiler.
type Option func(*Compiler)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithCompileHooks registers observability hooks.
func WithCompileHooks(hooks domain.CompileHooks) Option {
	return func(c *Compiler) {
		c.hooks = hooks
	}
}

// WithMetrics records compile and decompile activity into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Compiler) {
		c.metrics = m
	}
}

// WithDefaults sets the options used for fields a Compile call leaves empty.
func WithDefaults(opts CompileOptions) Option {
	return func(c *Compiler) {
		c.defaults = opts
	}
}

// WithStrictLoading makes schema violations in node data a load error.
func WithStrictLoading(strict bool) Option {
	return func(c *Compiler) {
		c.strict = strict
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	return c
}

// Load decodes an editor document. format is "json", "yaml" or "" to sniff.
// The returned warnings list node data that was decoded best-effort.
func (c *Compiler) Load(data []byte, format string) (*domain.Project, []string, error) {
	res, err := compiler.NewLoader(compiler.WithLogger(c.logger), compiler.WithStrict(c.strict)).
		Load(data, compiler.Format(format))
	if err != nil {
		return nil, nil, err
	}
	return res.Project, res.Warnings, nil
}

// LoadFile reads and decodes the document at path.
func (c *Compiler) LoadFile(path string) (*domain.Project, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read flow: %w", err)
	}
	return c.Load(data, string(compiler.FormatFromPath(path)))
}

// Encode writes p in the document format read by Load.
func Encode(p *domain.Project, format string) ([]byte, error) {
	return compiler.Encode(p, compiler.Format(format))
}

// Compile emits the bot program for p.
func (c *Compiler) Compile(ctx context.Context, p *domain.Project, opts CompileOptions) (res *CompileResult, err error) {
	opts = opts.merge(c.defaults)

	collision, err := tokens.ParsePolicy(opts.CollisionPolicy)
	if err != nil {
		return nil, err
	}
	dangling, err := emitter.ParseDanglingPolicy(opts.DanglingPolicy)
	if err != nil {
		return nil, err
	}

	hooks := c.hooks
	if c.metrics != nil {
		start := time.Now()
		defer func() { c.metrics.ObserveCompile(time.Since(start), err) }()
		hooks = observability.Combine(c.hooks, c.metrics.Hooks())
	}

	out, err := emitter.Compile(ctx, p, emitter.Options{
		Package:           opts.Package,
		PersistentStorage: opts.PersistentStorage,
		CollisionPolicy:   collision,
		DanglingPolicy:    dangling,
		Module:            opts.RuntimeModule,
		Hooks:             hooks,
		Logger:            c.logger,
	})
	if err != nil {
		return nil, err
	}
	return &CompileResult{
		Source:   out.Source,
		Spans:    out.Spans,
		Tokens:   out.Tokens,
		Warnings: out.Warnings,
	}, nil
}

// Decompile recovers a flow from emitted source. It never fails; what could
// not be recovered is reported in the warnings.
func (c *Compiler) Decompile(src []byte) *DecompileResult {
	res := decompiler.New(decompiler.WithLogger(c.logger)).Decompile(src)
	if c.metrics != nil {
		c.metrics.ObserveDecompile(res.Structural)
	}
	return &DecompileResult{
		Project:    res.Project,
		Structural: res.Structural,
		Warnings:   res.Warnings,
	}
}

// Validate reports the structural problems of p.
func (c *Compiler) Validate(p *domain.Project) []Issue {
	issues := validator.Validate(p.Graph())
	for _, issue := range issues {
		c.logger.Debug("Flow issue", "code", issue.Code, "node_id", issue.NodeID, "message", issue.Message)
	}
	return issues
}

// Graph renders p as a Mermaid flowchart. With flagIssues set, nodes that
// Validate reports are highlighted.
func (c *Compiler) Graph(p *domain.Project, flagIssues bool) string {
	g := p.Graph()
	var overlay *graph.GraphOverlay
	if flagIssues {
		overlay = &graph.GraphOverlay{}
		for _, issue := range validator.Validate(g) {
			if issue.NodeID != "" {
				overlay.Flagged = append(overlay.Flagged, issue.NodeID)
			}
		}
	}
	return graph.GenerateMermaid(g, overlay)
}
