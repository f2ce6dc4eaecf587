// Package cmd — capture command.
// Runs one capture: fetch → discover → download → rewrite → archive, then
// moves the archive into --output_dir.
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/gaurav-prasanna/pagesnap/core/archive"
	"github.com/gaurav-prasanna/pagesnap/core/output"
	"github.com/spf13/cobra"
)

// Flag variables.
var (
	flagJSON      bool
	flagManifest  bool
	flagOutputDir string
)

var captureCmd = &cobra.Command{
	Use:   "capture <url>",
	Short: "Capture a URL into a zip snapshot",
	Long: `Capture fetches a webpage, downloads its same-host CSS, JavaScript, images,
and fonts, rewrites the page to reference the local copies, and writes
<host>.zip to the output directory.

Examples:
  pagesnap capture https://example.com
  pagesnap capture https://example.com/docs/ --output_dir ./snapshots
  pagesnap capture https://example.com --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the capture result as JSON")
	captureCmd.Flags().BoolVar(&flagManifest, "manifest", false, "Also write <name>.json with the capture result")
	captureCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
}

func runCapture(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	if _, err := core.ValidateURL(rawURL); err != nil {
		return fmt.Errorf("%w (must include scheme, e.g. https://example.com)", err)
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return fmt.Errorf("initializing output writer: %w", err)
	}

	result, err := newCapturer().Capture(cmd.Context(), rawURL)
	if err != nil {
		return err
	}

	path, err := writer.Place(result.ArchivePath)
	archive.Discard(result.ArchivePath)
	if err != nil {
		return err
	}
	result.ArchivePath = path

	if flagManifest {
		if _, err := writer.WriteManifest(result); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintf(out, "✓ Written: %s (%d assets, %d removed)\n",
		path, result.Downloaded(), len(result.Assets)-result.Downloaded())
	return nil
}
