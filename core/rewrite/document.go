// Package rewrite discovers asset references in a captured page and
// rewrites the document tree to point at local copies.
//
// A Document is owned by one capture. References are collected first and
// all mutations (Rewrite / Remove) are applied afterwards by the owner, so
// the tree is never mutated while it is being walked.
package rewrite

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Target is a tag/attribute pair that may carry an asset reference.
type Target struct {
	Tag       string
	Attribute string
}

// Targets are processed in this order; within a target, document order.
var Targets = []Target{
	{Tag: "link", Attribute: "href"},
	{Tag: "script", Attribute: "src"},
	{Tag: "img", Attribute: "src"},
}

// Reference is one asset-bearing tag discovered in the document.
type Reference struct {
	Index     int // position in processing order
	Tag       string
	Attribute string
	Value     string   // attribute value as written in the page
	URL       *url.URL // resolved absolute URL; nil when skipped before resolution
	Filename  string
	Skip      SkipReason

	sel *goquery.Selection
}

// Downloadable reports whether the reference should be fetched.
func (r Reference) Downloadable() bool {
	return r.Skip == SkipNone
}

// Document is a parsed, mutable HTML page.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Parse reads an HTML page served at pageURL. Scripting is treated as
// disabled so that markup inside <noscript> is parsed as elements and its
// images and stylesheets are discovered too.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}
	root, err := html.ParseWithOptions(r, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root), base: base}, nil
}

// Title returns the trimmed text of the first <title> element.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// References walks every Target in order and classifies each matching tag.
// Skipped references are returned too (with Skip set) so callers can log them.
func (d *Document) References() []Reference {
	var refs []Reference
	for _, target := range Targets {
		d.doc.Find(target.Tag).Each(func(_ int, s *goquery.Selection) {
			ref := d.reference(target, s)
			ref.Index = len(refs)
			refs = append(refs, ref)
		})
	}
	return refs
}

func (d *Document) reference(target Target, s *goquery.Selection) Reference {
	ref := Reference{Tag: target.Tag, Attribute: target.Attribute, sel: s}

	val, exists := s.Attr(target.Attribute)
	ref.Value = val
	val = strings.TrimSpace(val)
	if !exists || val == "" {
		ref.Skip = SkipMissing
		return ref
	}
	if isInline(val) {
		ref.Skip = SkipInline
		return ref
	}

	resolved, ok := resolveURL(val, d.base)
	if !ok {
		ref.Skip = SkipUnparseable
		return ref
	}
	ref.URL = resolved

	if !isSameOrigin(resolved, d.base.Host) {
		ref.Skip = SkipCrossOrigin
		return ref
	}

	ref.Filename = filenameOf(resolved)
	if ref.Filename == "" {
		ref.Skip = SkipNoFilename
	}
	return ref
}

// Rewrite points the reference's attribute at dir/filename and returns the
// value written.
func (d *Document) Rewrite(ref Reference, dir string) string {
	val := localRef(dir, ref.Filename)
	ref.sel.SetAttr(ref.Attribute, val)
	return val
}

// Remove drops the reference's tag from the document.
func (d *Document) Remove(ref Reference) {
	ref.sel.Remove()
}

// Render writes the document as indented HTML.
func (d *Document) Render(w io.Writer) error {
	if len(d.doc.Nodes) == 0 {
		return fmt.Errorf("empty document")
	}
	return RenderPretty(w, d.doc.Nodes[0])
}
