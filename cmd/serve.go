package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gaurav-prasanna/pagesnap/server"
	"github.com/spf13/cobra"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve captures over HTTP (POST /scrape)",
	Long: `Serve starts the HTTP front door. POST /scrape with {"url": "..."} returns
the snapshot archive as application/zip.

Examples:
  pagesnap serve
  pagesnap serve --listen :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config, :8000)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := cfg.ListenAddr
	if flagListen != "" {
		addr = flagListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(newCapturer(), server.Options{AllowedOrigins: cfg.AllowedOrigins}, log)
	return srv.ListenAndServe(ctx, addr)
}
