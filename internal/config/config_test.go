package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Compile, cfg.Compile)
	assert.Equal(t, ":8080", cfg.Serve.Addr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
compile:
  dangling_policy: error
serve:
  redis_addr: localhost:6379
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "error", cfg.Compile.DanglingPolicy)
	assert.Equal(t, "rederive", cfg.Compile.CollisionPolicy)
	assert.Equal(t, "localhost:6379", cfg.Serve.RedisAddr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config file")
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"FLOWBOT_LOG_FORMAT":        "json",
		"FLOWBOT_COMPILE_PACKAGE":   " bot ",
		"FLOWBOT_SERVE_ADDR":        "   ",
		"FLOWBOT_SERVE_CACHE_TTL":   "10m",
		"UNRELATED_COMPILE_PACKAGE": "x",
	}
	cfg := Default()
	applyEnvOverrides(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "bot", cfg.Compile.Package)
	assert.Equal(t, ":8080", cfg.Serve.Addr, "blank values are ignored")
	assert.Equal(t, "10m", cfg.Serve.CacheTTL)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))
	t.Setenv("FLOWBOT_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}
