package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the compiler collectors.
type Metrics struct {
	nodes      *prometheus.CounterVec
	warnings   prometheus.Counter
	collisions prometheus.Counter
	compiles   *prometheus.CounterVec
	duration   prometheus.Histogram
	decompiles *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		nodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowbot_nodes_emitted_total",
				Help: "Total number of node handlers emitted",
			},
			[]string{"node_type"},
		),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowbot_compile_warnings_total",
			Help: "Total number of non-fatal compile warnings",
		}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowbot_token_collisions_total",
			Help: "Total number of callback token collisions",
		}),
		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowbot_compiles_total",
				Help: "Total number of compilations by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowbot_compile_duration_seconds",
			Help:    "Duration of compilations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		decompiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowbot_decompiles_total",
				Help: "Total number of decompilations by recovery path",
			},
			[]string{"path"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.nodes, m.warnings, m.collisions, m.compiles, m.duration, m.decompiles)
	}
	return m
}

// Hooks returns compile hooks that record into m.
func (m *Metrics) Hooks() domain.CompileHooks {
	return domain.CompileHooks{
		OnNodeEmitted: func(_ context.Context, e *domain.NodeEvent) {
			m.nodes.WithLabelValues(string(e.NodeType)).Inc()
		},
		OnWarning: func(context.Context, *domain.WarningEvent) {
			m.warnings.Inc()
		},
		OnCollision: func(context.Context, *domain.WarningEvent) {
			m.collisions.Inc()
		},
	}
}

// ObserveCompile records the outcome and duration of one compilation.
func (m *Metrics) ObserveCompile(elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.compiles.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveDecompile records which recovery path a decompilation took.
func (m *Metrics) ObserveDecompile(structural bool) {
	path := "structural"
	if !structural {
		path = "line_scan"
	}
	m.decompiles.WithLabelValues(path).Inc()
}

// LogHooks returns compile hooks that write each event to logger.
func LogHooks(logger *slog.Logger) domain.CompileHooks {
	return domain.CompileHooks{
		OnNodeEmitted: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_emitted", "node_id", e.NodeID, "type", e.NodeType, "tokens", e.Tokens)
		},
		OnWarning: func(ctx context.Context, e *domain.WarningEvent) {
			logger.WarnContext(ctx, "compile_warning", "node_id", e.NodeID, "message", e.Message)
		},
		OnCollision: func(ctx context.Context, e *domain.WarningEvent) {
			logger.WarnContext(ctx, "token_collision", "node_id", e.NodeID, "message", e.Message)
		},
	}
}

// Combine fans every event out to each hook set in order.
func Combine(sets ...domain.CompileHooks) domain.CompileHooks {
	return domain.CompileHooks{
		OnNodeEmitted: func(ctx context.Context, e *domain.NodeEvent) {
			for _, s := range sets {
				if s.OnNodeEmitted != nil {
					s.OnNodeEmitted(ctx, e)
				}
			}
		},
		OnWarning: func(ctx context.Context, e *domain.WarningEvent) {
			for _, s := range sets {
				if s.OnWarning != nil {
					s.OnWarning(ctx, e)
				}
			}
		},
		OnCollision: func(ctx context.Context, e *domain.WarningEvent) {
			for _, s := range sets {
				if s.OnCollision != nil {
					s.OnCollision(ctx, e)
				}
			}
		},
	}
}
