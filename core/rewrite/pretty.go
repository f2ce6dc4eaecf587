// Package rewrite — indented HTML output.
// Serializes the document tree one node per line, keeping raw-text elements verbatim.
package rewrite

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/net/html"
)

const indentUnit = " "

// voidElements never have children or an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// verbatimElements keep their content byte-for-byte: re-indenting them would
// change what the page shows or runs.
var verbatimElements = map[string]bool{
	"pre": true, "textarea": true, "script": true, "style": true,
	"xmp": true, "plaintext": true, "iframe": true, "noembed": true,
	"noframes": true, "listing": true,
}

// RenderPretty writes n and its subtree with one node per line, indenting
// children one space deeper than their parent. Text is trimmed; elements in
// verbatimElements are written unchanged on a single indented line.
func RenderPretty(w io.Writer, n *html.Node) error {
	bw := bufio.NewWriter(w)
	if err := renderNode(bw, n, 0); err != nil {
		return err
	}
	return bw.Flush()
}

func renderNode(w *bufio.Writer, n *html.Node, depth int) error {
	switch n.Type {
	case html.DocumentNode:
		return renderChildren(w, n, depth)

	case html.DoctypeNode:
		if err := html.Render(w, n); err != nil {
			return err
		}
		return w.WriteByte('\n')

	case html.CommentNode:
		writeIndent(w, depth)
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->\n")
		return nil

	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return nil
		}
		writeIndent(w, depth)
		w.WriteString(html.EscapeString(text))
		return w.WriteByte('\n')

	case html.ElementNode:
		writeIndent(w, depth)
		if verbatimElements[n.Data] || (n.Data == "noscript" && onlyText(n)) {
			if err := html.Render(w, n); err != nil {
				return err
			}
			return w.WriteByte('\n')
		}
		writeStartTag(w, n)
		if voidElements[n.Data] {
			return nil
		}
		if err := renderChildren(w, n, depth+1); err != nil {
			return err
		}
		writeIndent(w, depth)
		w.WriteString("</")
		w.WriteString(n.Data)
		w.WriteString(">\n")
		return nil

	default:
		return nil
	}
}

func renderChildren(w *bufio.Writer, n *html.Node, depth int) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := renderNode(w, c, depth); err != nil {
			return err
		}
	}
	return nil
}

// onlyText reports whether every child of n is a text node, as happens to
// <noscript> when the page was parsed with scripting enabled.
func onlyText(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			return false
		}
	}
	return true
}

func writeStartTag(w *bufio.Writer, n *html.Node) {
	w.WriteByte('<')
	w.WriteString(n.Data)
	for _, a := range n.Attr {
		w.WriteByte(' ')
		if a.Namespace != "" {
			w.WriteString(a.Namespace)
			w.WriteByte(':')
		}
		w.WriteString(a.Key)
		w.WriteString(`="`)
		w.WriteString(html.EscapeString(a.Val))
		w.WriteByte('"')
	}
	w.WriteString(">\n")
}

func writeIndent(w *bufio.Writer, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString(indentUnit)
	}
}
