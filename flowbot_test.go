package flowbot_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/aretw0/flowbot"
	"github.com/aretw0/flowbot/internal/validator"
	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadShop(t *testing.T, c *flowbot.Compiler) *domain.Project {
	t.Helper()
	p, warnings, err := c.LoadFile(filepath.Join("testdata", "shop.yaml"))
	require.NoError(t, err)
	require.Empty(t, warnings)
	return p
}

func nodeTypes(p *domain.Project) map[string]domain.NodeType {
	out := make(map[string]domain.NodeType)
	for _, n := range p.Graph().Nodes {
		out[n.ID] = n.Type
	}
	return out
}

func TestCompileDecompile_RoundTrip(t *testing.T) {
	c := flowbot.New()
	p := loadShop(t, c)

	res, err := c.Compile(context.Background(), p, flowbot.CompileOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	back := c.Decompile(res.Source)
	require.True(t, back.Structural)
	assert.Empty(t, back.Warnings)
	assert.Equal(t, "Shop", back.Project.Name)
	assert.Equal(t, nodeTypes(p), nodeTypes(back.Project))

	g := back.Project.Graph()
	colors, ok := g.Node("colors")
	require.True(t, ok)
	assert.True(t, colors.IsMultiSelect())
	assert.Equal(t, "ask_name", colors.Content().ContinueButtonTarget)

	greet, ok := g.Node("greet")
	require.True(t, ok)
	assert.Equal(t, "promo", greet.Content().AutoTransitionTo)
	require.Len(t, greet.Content().ConditionalMessages, 1)
	assert.Equal(t, domain.ConditionExists, greet.Content().ConditionalMessages[0].Condition)
}

func TestShopFixture_PlainText(t *testing.T) {
	placeholder := regexp.MustCompile(`\{\w+\}`)
	for _, n := range loadShop(t, flowbot.New()).Graph().Nodes {
		c := n.Content()
		if c == nil {
			continue
		}
		assert.NotRegexp(t, placeholder, c.Text, n.ID)
		for _, cm := range c.ConditionalMessages {
			assert.NotRegexp(t, placeholder, cm.MessageText, n.ID)
		}
	}
}

func TestCompile_LineScanFallback(t *testing.T) {
	c := flowbot.New()
	res, err := c.Compile(context.Background(), loadShop(t, c), flowbot.CompileOptions{})
	require.NoError(t, err)

	broken := append(append([]byte{}, res.Source...), []byte("\nfunc broken( {\n")...)
	back := c.Decompile(broken)
	assert.False(t, back.Structural)
	assert.Contains(t, nodeTypes(back.Project), "start")
}

func TestCompile_Defaults(t *testing.T) {
	c := flowbot.New(flowbot.WithDefaults(flowbot.CompileOptions{Package: "shopbot"}))
	p := loadShop(t, c)

	res, err := c.Compile(context.Background(), p, flowbot.CompileOptions{})
	require.NoError(t, err)
	assert.Contains(t, string(res.Source), "package shopbot")

	res, err = c.Compile(context.Background(), p, flowbot.CompileOptions{Package: "main"})
	require.NoError(t, err)
	assert.Contains(t, string(res.Source), "package main")
}

func TestCompile_RejectsUnknownPolicies(t *testing.T) {
	c := flowbot.New()
	p := loadShop(t, c)

	_, err := c.Compile(context.Background(), p, flowbot.CompileOptions{CollisionPolicy: "random"})
	assert.ErrorContains(t, err, "collision policy")

	_, err = c.Compile(context.Background(), p, flowbot.CompileOptions{DanglingPolicy: "explode"})
	assert.ErrorContains(t, err, "dangling policy")
}

func TestCompile_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := flowbot.New(flowbot.WithMetrics(observability.NewMetrics(reg)))

	_, err := c.Compile(context.Background(), loadShop(t, c), flowbot.CompileOptions{})
	require.NoError(t, err)
	c.Decompile([]byte("not go"))

	assert.Equal(t, 1, testutil.CollectAndCount(reg, "flowbot_compile_duration_seconds"))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(reg, "flowbot_nodes_emitted_total"), 4)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "flowbot_decompiles_total"))
}

func TestValidateAndGraph(t *testing.T) {
	c := flowbot.New()
	p := loadShop(t, c)
	assert.Empty(t, c.Validate(p))

	p.Sheets[0].Nodes = append(p.Sheets[0].Nodes, domain.Node{
		ID: "island", Type: domain.NodeMessage, Data: &domain.MessageData{Content: domain.Content{Text: "alone"}},
	})
	issues := c.Validate(p)
	require.Len(t, issues, 1)
	assert.Equal(t, validator.CodeUnreachable, issues[0].Code)

	mermaid := c.Graph(p, true)
	assert.Contains(t, mermaid, "class island flagged;")
	assert.Contains(t, mermaid, `start -- "Pick colours" --> colors`)
	assert.NotContains(t, c.Graph(p, false), "classDef")
}

func TestEncodeLoad(t *testing.T) {
	c := flowbot.New()
	p := loadShop(t, c)

	data, err := flowbot.Encode(p, "json")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "shop.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	again, _, err := c.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, nodeTypes(p), nodeTypes(again))
}
