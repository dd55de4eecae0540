package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/flowbot"
	"github.com/aretw0/flowbot/internal/logging"
	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Compiler defines the flowbot surface exposed as MCP tools. *flowbot.Compiler implements it.
type Compiler interface {
	Load(data []byte, format string) (*domain.Project, []string, error)
	Compile(ctx context.Context, p *domain.Project, opts flowbot.CompileOptions) (*flowbot.CompileResult, error)
	Decompile(src []byte) *flowbot.DecompileResult
	Validate(p *domain.Project) []flowbot.Issue
	Graph(p *domain.Project, flagIssues bool) string
}

// FlowArgs carries a flow document in a tool call.
type FlowArgs struct {
	Flow   string `json:"flow"`
	Format string `json:"format,omitempty"`
}

// CompileArgs are the arguments of the compile_flow tool.
type CompileArgs struct {
	FlowArgs
	Package         string `json:"package,omitempty"`
	CollisionPolicy string `json:"collision_policy,omitempty"`
	DanglingPolicy  string `json:"dangling_policy,omitempty"`
}

// CompileResponse is the structured result of compile_flow.
type CompileResponse struct {
	Source   string            `json:"source" jsonschema_description:"Emitted Go source of the bot program"`
	Tokens   map[string]string `json:"tokens" jsonschema_description:"Callback token to owner ledger"`
	Warnings []string          `json:"warnings" jsonschema_description:"Non-fatal compilation warnings"`
}

// DecompileArgs are the arguments of the decompile_source tool.
type DecompileArgs struct {
	Source string `json:"source"`
}

// ValidateResponse is the structured result of validate_flow.
type ValidateResponse struct {
	Issues []flowbot.Issue `json:"issues" jsonschema_description:"Structural problems, empty when the flow is sound"`
}

// GraphArgs are the arguments of the graph_flow tool.
type GraphArgs struct {
	FlowArgs
	FlagIssues bool `json:"flag_issues,omitempty"`
}

// Server wraps the flowbot Compiler and exposes it as an MCP Server.
type Server struct {
	compiler  Compiler
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(compiler Compiler, opts ...Option) *Server {
	s := &Server{
		compiler:  compiler,
		mcpServer: server.NewMCPServer("flowbot-mcp", strings.TrimSpace(flowbot.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func flowOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow document (JSON or YAML)")),
		mcp.WithString("format", mcp.Description("Document format"), mcp.Enum("json", "yaml")),
	}
}

func (s *Server) registerTools() {
	// TOOL: compile_flow
	compileOpts := append(flowOptions(),
		mcp.WithDescription("Compile a flow document into a Telegram bot program."),
		mcp.WithString("package", mcp.Description("Package clause of the output (default main)")),
		mcp.WithString("collision_policy", mcp.Description("Callback token collision policy"), mcp.Enum("first-wins", "error", "rederive")),
		mcp.WithString("dangling_policy", mcp.Description("Policy for buttons targeting missing nodes"), mcp.Enum("inert", "error")),
		mcp.WithOutputSchema[CompileResponse](),
	)
	s.mcpServer.AddTool(mcp.NewTool("compile_flow", compileOpts...), mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: decompile_source
	s.mcpServer.AddTool(mcp.NewTool("decompile_source",
		mcp.WithDescription("Recover a flow document from previously emitted bot source."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Go source emitted by compile_flow")),
	), mcp.NewStructuredToolHandler(s.handleDecompile))

	// TOOL: validate_flow
	validateOpts := append(flowOptions(),
		mcp.WithDescription("Report structural problems of a flow document."),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(mcp.NewTool("validate_flow", validateOpts...), mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: graph_flow
	graphOpts := append(flowOptions(),
		mcp.WithDescription("Render a flow document as a Mermaid flowchart."),
		mcp.WithBoolean("flag_issues", mcp.Description("Highlight nodes with validation issues")),
	)
	s.mcpServer.AddTool(mcp.NewTool("graph_flow", graphOpts...), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GraphArgs
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		p, err := s.load(args.FlowArgs)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(s.compiler.Graph(p, args.FlagIssues)), nil
	})
}

// Handler methods for structured tools

func (s *Server) load(args FlowArgs) (*domain.Project, error) {
	p, warnings, err := s.compiler.Load([]byte(args.Flow), args.Format)
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}
	for _, w := range warnings {
		s.logger.Debug("MCP: flow load warning", "warning", w)
	}
	return p, nil
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args CompileArgs) (CompileResponse, error) {
	p, err := s.load(args.FlowArgs)
	if err != nil {
		return CompileResponse{}, err
	}
	res, err := s.compiler.Compile(ctx, p, flowbot.CompileOptions{
		Package:         args.Package,
		CollisionPolicy: args.CollisionPolicy,
		DanglingPolicy:  args.DanglingPolicy,
	})
	if err != nil {
		s.logger.Warn("MCP Compile failed", "error", err)
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return CompileResponse{Source: string(res.Source), Tokens: res.Tokens, Warnings: warnings}, nil
}

func (s *Server) handleDecompile(ctx context.Context, request mcp.CallToolRequest, args DecompileArgs) (*flowbot.DecompileResult, error) {
	if strings.TrimSpace(args.Source) == "" {
		return nil, errors.New("source is empty")
	}
	return s.compiler.Decompile([]byte(args.Source)), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args FlowArgs) (ValidateResponse, error) {
	p, err := s.load(args)
	if err != nil {
		return ValidateResponse{}, err
	}
	issues := s.compiler.Validate(p)
	if issues == nil {
		issues = []flowbot.Issue{}
	}
	return ValidateResponse{Issues: issues}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: flowbot://node-types
	s.mcpServer.AddResource(mcp.NewResource("flowbot://node-types", "Supported node types",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(domain.NodeTypes())
		if err != nil {
			return nil, fmt.Errorf("failed to encode node types: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "flowbot://node-types",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
