package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnNodeEmitted(ctx, &domain.NodeEvent{NodeID: "a", NodeType: domain.NodeMessage})
	hooks.OnNodeEmitted(ctx, &domain.NodeEvent{NodeID: "b", NodeType: domain.NodeMessage})
	hooks.OnNodeEmitted(ctx, &domain.NodeEvent{NodeID: "c", NodeType: domain.NodePhoto})
	hooks.OnWarning(ctx, &domain.WarningEvent{Message: "dangling"})
	hooks.OnCollision(ctx, &domain.WarningEvent{Message: "collision"})
	m.ObserveCompile(20*time.Millisecond, nil)
	m.ObserveCompile(time.Millisecond, errors.New("boom"))
	m.ObserveDecompile(false)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "flowbot_compile_duration_seconds"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "flowbot_nodes_emitted_total"))
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "flowbot_compiles_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "flowbot_decompiles_total"))
}

func TestCombine(t *testing.T) {
	var seen []string
	a := domain.CompileHooks{OnWarning: func(context.Context, *domain.WarningEvent) { seen = append(seen, "a") }}
	b := domain.CompileHooks{OnWarning: func(context.Context, *domain.WarningEvent) { seen = append(seen, "b") }}

	hooks := observability.Combine(a, domain.CompileHooks{}, b)
	hooks.OnWarning(context.Background(), &domain.WarningEvent{})
	hooks.OnCollision(context.Background(), &domain.WarningEvent{})

	assert.Equal(t, []string{"a", "b"}, seen)
}
