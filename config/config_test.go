package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	t.Run("empty config gets working defaults", func(t *testing.T) {
		var cfg Config
		cfg.ApplyDefaults()
		if cfg.Name != "mediakit" {
			t.Errorf("expected name 'mediakit', got %q", cfg.Name)
		}
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Engine.Strategy != "sequential" {
			t.Errorf("expected sequential strategy, got %q", cfg.Engine.Strategy)
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("logging level: %q", cfg.Logging.Level)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := Config{Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "Environment"},
		{"bad strategy", func(c *Config) { c.Engine.Strategy = "speculative" }, "Strategy"},
		{"negative workers", func(c *Config) { c.Engine.Workers = -1 }, "Workers"},
		{"negative cache budget", func(c *Config) { c.Cache.MaxBytes = -1 }, "MaxBytes"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_FromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `
name: mediakit
environment: production
engine:
  strategy: parallel
  workers: 8
  stage_timeout: 30s
cache:
  enabled: true
  max_bytes: 1048576
pipelines:
  dir: ./pipelines
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load("mediakit", WithConfigFile(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("environment: %q", cfg.Environment)
	}
	if cfg.Engine.Strategy != "parallel" || cfg.Engine.Workers != 8 {
		t.Errorf("engine: %+v", cfg.Engine)
	}
	if cfg.Engine.StageTimeout != 30*time.Second {
		t.Errorf("stage timeout: %s", cfg.Engine.StageTimeout)
	}
	if !cfg.Cache.Enabled || cfg.Cache.MaxBytes != 1<<20 {
		t.Errorf("cache: %+v", cfg.Cache)
	}
	if cfg.Pipelines.Dir != "./pipelines" {
		t.Errorf("pipelines dir: %q", cfg.Pipelines.Dir)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "name: mediakit\nengine:\n  workers: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("ENGINE_WORKERS", "16")

	cfg, err := Load("mediakit", WithConfigFile(path))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Engine.Workers != 16 {
		t.Errorf("expected env override to win, got workers=%d", cfg.Engine.Workers)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := "name: mediakit\nengine:\n  strategy: speculative\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load("mediakit", WithConfigFile(path)); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("CACHE_MAX_BYTES=2048\n"), 0o644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("CACHE_MAX_BYTES") })

	cfg, err := Load("mediakit", WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Cache.MaxBytes != 2048 {
		t.Errorf("expected .env value, got max_bytes=%d", cfg.Cache.MaxBytes)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("ENGINE_STAGE_TIMEOUT")
	want := map[string]bool{
		"engine_stage_timeout": false,
		"engine.stage.timeout": false,
		"engine.stage_timeout": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("missing variant %q", k)
		}
	}
}
