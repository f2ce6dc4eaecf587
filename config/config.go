// Package config loads pagesnap settings from a YAML file, the environment,
// and finally command-line flags (applied by cmd).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAGESNAP_"

// Config holds the full pagesnap configuration.
type Config struct {
	UserAgent     string        `yaml:"user_agent"`
	PageTimeout   time.Duration `yaml:"page_timeout"`
	AssetTimeout  time.Duration `yaml:"asset_timeout"`
	MaxPageBytes  int64         `yaml:"max_page_bytes"`
	MaxAssetBytes int64         `yaml:"max_asset_bytes"`
	Workers       int           `yaml:"workers"`
	WorkDir       string        `yaml:"work_dir"`    // parent of capture workspaces; "" = os temp dir
	ArchiveDir    string        `yaml:"archive_dir"` // where archives are written; "" = os temp dir

	// Front door
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text | json
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		PageTimeout:    15 * time.Second,
		AssetTimeout:   10 * time.Second,
		MaxPageBytes:   10 << 20,
		MaxAssetBytes:  50 << 20,
		Workers:        4,
		ListenAddr:     ":8000",
		AllowedOrigins: []string{"http://localhost:3000"},
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; an empty path
// skips the file entirely. A .env file in the working directory, if any,
// is loaded into the environment first. The result is not validated: call
// Validate once every override layer has been applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)
	c.WorkDir = getEnv("WORK_DIR", c.WorkDir)
	c.ArchiveDir = getEnv("ARCHIVE_DIR", c.ArchiveDir)
	c.ListenAddr = getEnv("LISTEN_ADDR", c.ListenAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	if v, ok := lookupEnv("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}

	var err error
	if c.PageTimeout, err = envDuration("PAGE_TIMEOUT", c.PageTimeout); err != nil {
		return err
	}
	if c.AssetTimeout, err = envDuration("ASSET_TIMEOUT", c.AssetTimeout); err != nil {
		return err
	}
	if c.MaxPageBytes, err = envInt64("MAX_PAGE_BYTES", c.MaxPageBytes); err != nil {
		return err
	}
	if c.MaxAssetBytes, err = envInt64("MAX_ASSET_BYTES", c.MaxAssetBytes); err != nil {
		return err
	}
	workers, err := envInt64("WORKERS", int64(c.Workers))
	if err != nil {
		return err
	}
	c.Workers = int(workers)
	return nil
}

// Validate checks that values are sane.
func (c *Config) Validate() error {
	if c.PageTimeout <= 0 {
		return fmt.Errorf("page_timeout must be > 0")
	}
	if c.AssetTimeout <= 0 {
		return fmt.Errorf("asset_timeout must be > 0")
	}
	if c.MaxPageBytes <= 0 {
		return fmt.Errorf("max_page_bytes must be > 0")
	}
	if c.MaxAssetBytes <= 0 {
		return fmt.Errorf("max_asset_bytes must be > 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log_format %q (use text or json)", c.LogFormat)
	}
	return nil
}

// Logger builds a logrus logger from the level and format settings.
func (c *Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + key)
}

func getEnv(key, fallback string) string {
	if value, ok := lookupEnv(key); ok {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := lookupEnv(key)
	if !ok {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return d, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v, ok := lookupEnv(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
