package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopFlow = "../../testdata/shop.yaml"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCompileCmd_Stdout(t *testing.T) {
	out, _, err := run(t, "compile", shopFlow, "--package", "shopbot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `// Code generated by flowbot from "Shop". DO NOT EDIT.`))
	assert.Contains(t, out, "package shopbot")
}

func TestCompileDecompileCmd_File(t *testing.T) {
	dir := t.TempDir()
	bot := filepath.Join(dir, "bot.go")

	_, stderr, err := run(t, "compile", shopFlow, "-o", bot, "--report")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Compiled Shop")

	flow := filepath.Join(dir, "flow.json")
	_, _, err = run(t, "decompile", bot, "-o", flow, "--format", "json")
	require.NoError(t, err)

	data, err := os.ReadFile(flow)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "Shop"`)
	assert.Contains(t, string(data), `"id": "ask_name"`)

	// The recovered document compiles again.
	out, _, err := run(t, "compile", flow)
	require.NoError(t, err)
	assert.Contains(t, out, "// NODE_START:ask_name")
}

func TestCompileCmd_Errors(t *testing.T) {
	_, _, err := run(t, "compile", "does-not-exist.yaml")
	assert.ErrorContains(t, err, "failed to read flow")

	_, _, err = run(t, "compile", shopFlow, "--collision-policy", "random")
	assert.ErrorContains(t, err, "collision policy")

	_, _, err = run(t, "compile")
	assert.Error(t, err)
}

func TestValidateCmd(t *testing.T) {
	out, _, err := run(t, "validate", shopFlow)
	require.NoError(t, err)
	assert.Contains(t, out, "No problems found.")

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte(`
name: Broken
nodes:
  - id: start
    type: start
    data:
      buttons:
        - {id: b, text: Go, targetNodeId: ghost}
`), 0o600))
	out, _, err = run(t, "validate", broken)
	assert.ErrorContains(t, err, "1 issue(s)")
	assert.Contains(t, out, "ghost")
}

func TestGraphCmd(t *testing.T) {
	out, _, err := run(t, "graph", shopFlow)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "greet ==> promo")
}

func TestVersionCmd(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "flowbot version ")
}

func TestRootCmd_BadLogLevel(t *testing.T) {
	_, _, err := run(t, "--log-level", "loud", "graph", shopFlow)
	assert.ErrorContains(t, err, "unsupported log level")
}
