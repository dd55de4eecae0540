// Package config loads the flowbot.yaml settings file and the FLOWBOT_*
// environment overrides shared by the CLI and the service surfaces.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the settings file looked up in the working directory.
const DefaultPath = "flowbot.yaml"

const envPrefix = "FLOWBOT_"

// Config is the root configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Compile CompileConfig `yaml:"compile"`
	Serve   ServeConfig   `yaml:"serve"`
}

// LogConfig controls structured log output format and verbosity.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CompileConfig holds the emitter defaults.
type CompileConfig struct {
	Package         string `yaml:"package"`
	CollisionPolicy string `yaml:"collision_policy"`
	DanglingPolicy  string `yaml:"dangling_policy"`
	RuntimeImport   string `yaml:"runtime_import"`
}

// ServeConfig configures the HTTP compile service.
type ServeConfig struct {
	Addr      string `yaml:"addr"`
	RedisAddr string `yaml:"redis_addr"`
	// CacheTTL is a Go duration string; empty keeps cached artifacts forever.
	CacheTTL string `yaml:"cache_ttl"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: "text"},
		Compile: CompileConfig{Package: "main", CollisionPolicy: "rederive", DanglingPolicy: "inert"},
		Serve:   ServeConfig{Addr: ":8080"},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error; an empty path means DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg, os.LookupEnv)
	return cfg, nil
}

// applyEnvOverrides injects FLOWBOT_* settings on top of file config.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) {
	overrides := map[string]*string{
		"LOG_LEVEL":                &cfg.Log.Level,
		"LOG_FORMAT":               &cfg.Log.Format,
		"COMPILE_PACKAGE":          &cfg.Compile.Package,
		"COMPILE_COLLISION_POLICY": &cfg.Compile.CollisionPolicy,
		"COMPILE_DANGLING_POLICY":  &cfg.Compile.DanglingPolicy,
		"COMPILE_RUNTIME_IMPORT":   &cfg.Compile.RuntimeImport,
		"SERVE_ADDR":               &cfg.Serve.Addr,
		"SERVE_REDIS_ADDR":         &cfg.Serve.RedisAddr,
		"SERVE_CACHE_TTL":          &cfg.Serve.CacheTTL,
	}
	for key, dst := range overrides {
		if value, ok := lookup(envPrefix + key); ok && strings.TrimSpace(value) != "" {
			*dst = strings.TrimSpace(value)
		}
	}
}
