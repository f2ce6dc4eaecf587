// Package cmd implements the CLI commands for pagesnap using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/gaurav-prasanna/pagesnap/config"
	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/gaurav-prasanna/pagesnap/core/archive"
	"github.com/gaurav-prasanna/pagesnap/core/capture"
	"github.com/gaurav-prasanna/pagesnap/core/fetch"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Persistent flag variables.
var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagWorkers   int
)

// Loaded in PersistentPreRunE.
var (
	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pagesnap",
	Short: "pagesnap: capture web pages as self-contained zip snapshots",
	Long: `pagesnap fetches a web page, downloads the stylesheets, scripts, images,
and fonts it references from its own host, rewrites the page to point at the
local copies, and packs everything into a zip archive.

Usage:
  pagesnap capture <url> [flags]
  pagesnap serve [flags]
  pagesnap inspect <archive.zip>`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "pagesnap.yaml", "Config file (YAML); missing file means defaults")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "Concurrent asset downloads (default from config)")
}

// loadConfig layers flags over the config file and environment.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		c.LogLevel = flagLogLevel
	}
	if flagLogFormat != "" {
		c.LogFormat = flagLogFormat
	}
	if flagWorkers > 0 {
		c.Workers = flagWorkers
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	l, err := c.Logger()
	if err != nil {
		return err
	}
	cfg, log = c, l
	return nil
}

// newCapturer wires the pipeline from the loaded config. Every capture opens
// its own fetcher session and releases its connection pool when done.
func newCapturer() *capture.Capturer {
	fetchCfg := fetch.Config{
		UserAgent:     cfg.UserAgent,
		PageTimeout:   cfg.PageTimeout,
		AssetTimeout:  cfg.AssetTimeout,
		MaxPageBytes:  cfg.MaxPageBytes,
		MaxAssetBytes: cfg.MaxAssetBytes,
	}
	session := func() (core.PageFetcher, func()) {
		f := fetch.New(fetchCfg, log)
		return f, f.Close
	}
	return capture.New(nil, archive.New(cfg.ArchiveDir), capture.Options{
		Workers: cfg.Workers,
		WorkDir: cfg.WorkDir,
		Session: session,
	}, log)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
