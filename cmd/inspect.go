package cmd

import (
	"fmt"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/gaurav-prasanna/pagesnap/core/archive"
	"github.com/gaurav-prasanna/pagesnap/core/preview"
	"github.com/spf13/cobra"
)

var flagPreviewLines int

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive.zip>",
	Short: "List a snapshot's files and preview its page as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&flagPreviewLines, "lines", 40, "Preview length in lines (0 = whole page)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	snap, err := archive.Open(args[0])
	if err != nil {
		return err
	}
	defer snap.Close()

	out := cmd.OutOrStdout()
	groups := snap.ByCategory()
	for _, c := range core.Categories {
		entries := groups[c]
		fmt.Fprintf(out, "%s/ (%d)\n", c.Dir(), len(entries))
		for _, e := range entries {
			fmt.Fprintf(out, "  %s  %d bytes\n", e.Name, e.Size)
		}
	}

	index, err := snap.ReadFile("index.html")
	if err != nil {
		return err
	}
	md, err := preview.New(flagPreviewLines).Markdown(string(index))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nindex.html\n----------\n%s\n", md)
	return nil
}
