// Package preview renders a snapshot's root document as Markdown so it can
// be read in a terminal.
package preview

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Previewer converts HTML to a bounded Markdown preview.
type Previewer struct {
	MaxLines int // 0 means no limit
}

// New creates a Previewer that keeps at most maxLines lines.
func New(maxLines int) *Previewer {
	return &Previewer{MaxLines: maxLines}
}

// Markdown converts an HTML document to Markdown, truncated to MaxLines.
func (p *Previewer) Markdown(html string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)

	if p.MaxLines <= 0 {
		return markdown, nil
	}
	lines := strings.Split(markdown, "\n")
	if len(lines) <= p.MaxLines {
		return markdown, nil
	}
	omitted := len(lines) - p.MaxLines
	return strings.Join(lines[:p.MaxLines], "\n") + fmt.Sprintf("\n\n… (%d more lines)", omitted), nil
}
