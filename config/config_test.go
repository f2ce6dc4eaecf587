package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagesnap.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.PageTimeout != 15*time.Second || cfg.AssetTimeout != 10*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.PageTimeout, cfg.AssetTimeout)
	}
	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d", cfg.Workers)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
user_agent: "pagesnap-test/1.0"
page_timeout: 30s
asset_timeout: 2s
workers: 8
archive_dir: /var/snapshots
allowed_origins:
  - https://app.example.com
  - https://admin.example.com
log_format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.UserAgent != "pagesnap-test/1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.PageTimeout != 30*time.Second || cfg.AssetTimeout != 2*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.PageTimeout, cfg.AssetTimeout)
	}
	if cfg.Workers != 8 || cfg.ArchiveDir != "/var/snapshots" {
		t.Errorf("Workers = %d, ArchiveDir = %q", cfg.Workers, cfg.ArchiveDir)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	// Untouched keys keep their defaults.
	if cfg.ListenAddr != ":8000" || cfg.MaxAssetBytes != 50<<20 {
		t.Errorf("defaults lost: %q %d", cfg.ListenAddr, cfg.MaxAssetBytes)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "workers: 8\nlisten_addr: \":9000\"\n")
	t.Setenv("PAGESNAP_WORKERS", "2")
	t.Setenv("PAGESNAP_PAGE_TIMEOUT", "1m")
	t.Setenv("PAGESNAP_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want env value 2", cfg.Workers)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want file value", cfg.ListenAddr)
	}
	if cfg.PageTimeout != time.Minute {
		t.Errorf("PageTimeout = %v", cfg.PageTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("PAGESNAP_ASSET_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "workers: [1, 2\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative page timeout", func(c *Config) { c.PageTimeout = -time.Second }},
		{"zero asset timeout", func(c *Config) { c.AssetTimeout = 0 }},
		{"zero page cap", func(c *Config) { c.MaxPageBytes = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"
	log, err := cfg.Logger()
	if err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v", log.GetLevel())
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T", log.Formatter)
	}
}

func TestLoad_LeavesValidationToCaller(t *testing.T) {
	t.Setenv("PAGESNAP_WORKERS", "0")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load must not validate before flag overrides: %v", err)
	}
	if cfg.Workers != 0 {
		t.Fatalf("Workers = %d, want env value 0", cfg.Workers)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should reject zero workers")
	}
	cfg.Workers = 4
	if err := cfg.Validate(); err != nil {
		t.Errorf("override should make the config valid: %v", err)
	}
}
