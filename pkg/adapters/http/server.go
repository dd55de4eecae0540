package http

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/flowbot"
	"github.com/aretw0/flowbot/internal/logging"
	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed openapi.yaml
var rawSpec []byte

// Compiler is the flowbot surface served over HTTP. *flowbot.Compiler implements it.
type Compiler interface {
	Load(data []byte, format string) (*domain.Project, []string, error)
	Compile(ctx context.Context, p *domain.Project, opts flowbot.CompileOptions) (*flowbot.CompileResult, error)
	Decompile(src []byte) *flowbot.DecompileResult
	Validate(p *domain.Project) []flowbot.Issue
	Graph(p *domain.Project, flagIssues bool) string
}

var _ Compiler = (*flowbot.Compiler)(nil)

// Server serves the compile API.
type Server struct {
	Compiler Compiler
	Cache    ports.ArtifactCache
	Metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithCache caches compiled programs by request content.
func WithCache(cache ports.ArtifactCache) Option {
	return func(s *Server) {
		s.Cache = cache
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Spec returns the embedded OpenAPI document.
func Spec() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	return doc, nil
}

// NewHandler creates a new HTTP handler for the compiler.
func NewHandler(compiler Compiler, opts ...Option) (http.Handler, error) {
	s := &Server{Compiler: compiler}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	validate, err := requestValidator(s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(validate)
		r.Post("/compile", s.Compile)
		r.Post("/decompile", s.Decompile)
		r.Post("/validate", s.Validate)
		r.Post("/graph", s.Graph)
		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
	})
	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type compileRequest struct {
	Project json.RawMessage        `json:"project"`
	Options flowbot.CompileOptions `json:"options"`
}

type compileResponse struct {
	Source   string            `json:"source"`
	Spans    []flowbot.Span    `json:"spans"`
	Tokens   map[string]string `json:"tokens"`
	Warnings []string          `json:"warnings"`
}

type projectRequest struct {
	Project    json.RawMessage `json:"project"`
	FlagIssues bool            `json:"flagIssues"`
}

type decompileRequest struct {
	Source string `json:"source"`
}

// Compile handles the POST /compile request.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	var body compileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	key := cacheKey(body)
	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(r.Context(), key)
		if err != nil {
			s.logger.Warn("Artifact cache read failed", "error", err, "key", key)
		}
		if ok {
			w.Header().Set("X-Cache", "hit")
			s.writeRaw(w, cached)
			return
		}
	}

	project, ok := s.load(w, r, body.Project)
	if !ok {
		return
	}
	res, err := s.Compiler.Compile(r.Context(), project, body.Options)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, domain.ErrDanglingTarget) || errors.Is(err, domain.ErrTokenCollision) {
			status = http.StatusConflict
		}
		s.fail(w, r, status, err)
		return
	}

	data, err := json.Marshal(compileResponse{
		Source:   string(res.Source),
		Spans:    res.Spans,
		Tokens:   res.Tokens,
		Warnings: res.Warnings,
	})
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if s.Cache != nil {
		if err := s.Cache.Put(r.Context(), key, data); err != nil {
			s.logger.Warn("Artifact cache write failed", "error", err, "key", key)
		}
		w.Header().Set("X-Cache", "miss")
	}
	s.writeRaw(w, data)
}

// Decompile handles the POST /decompile request.
func (s *Server) Decompile(w http.ResponseWriter, r *http.Request) {
	var body decompileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.writeJSON(w, s.Compiler.Decompile([]byte(body.Source)))
}

// Validate handles the POST /validate request.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var body projectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	project, ok := s.load(w, r, body.Project)
	if !ok {
		return
	}
	issues := s.Compiler.Validate(project)
	if issues == nil {
		issues = []flowbot.Issue{}
	}
	s.writeJSON(w, map[string]any{"issues": issues})
}

// Graph handles the POST /graph request.
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	var body projectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	project, ok := s.load(w, r, body.Project)
	if !ok {
		return
	}
	s.writeJSON(w, map[string]string{"mermaid": s.Compiler.Graph(project, body.FlagIssues)})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}

	s.writeJSON(w, map[string]string{
		"app":         "flowbot-http",
		"version":     strings.TrimSpace(flowbot.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) load(w http.ResponseWriter, r *http.Request, raw json.RawMessage) (*domain.Project, bool) {
	project, warnings, err := s.Compiler.Load(raw, "json")
	if err != nil {
		s.fail(w, r, http.StatusUnprocessableEntity, err)
		return nil, false
	}
	for _, warning := range warnings {
		s.logger.Debug("Flow load warning", "warning", warning, "request_id", RequestID(r.Context()))
	}
	return project, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	id := RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err, "path", r.URL.Path, "request_id", id)
	} else {
		s.logger.Warn("Request rejected", "error", err, "path", r.URL.Path, "request_id", id)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "requestId": id})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}

func (s *Server) writeRaw(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// cacheKey hashes the project document and the options that shape the output.
func cacheKey(body compileRequest) string {
	h := sha256.New()
	h.Write(body.Project)
	opts, _ := json.Marshal(body.Options)
	h.Write([]byte{0})
	h.Write(opts)
	h.Write([]byte{0})
	h.Write([]byte(flowbot.Version))
	return hex.EncodeToString(h.Sum(nil))
}
