package rewrite

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title> Sample Page </title>
  <link rel="stylesheet" href="css/site.css">
  <link rel="stylesheet" href="https://cdn.other.com/style.css">
  <link rel="canonical" href="#top">
  <script src="/static/app.js"></script>
  <script>console.log("inline")</script>
  <script src="data:text/javascript;base64,YWxlcnQoMSk="></script>
</head>
<body>
  <img src="logo.png">
  <img src="/images/">
  <img alt="no source">
  <img src="//example.com/abs/photo.jpg?v=2">
  <noscript><img src="/pixel.gif"></noscript>
</body>
</html>`

func parseSample(t *testing.T, pageURL string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(samplePage), pageURL)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestReferences_OrderAndSkips(t *testing.T) {
	doc := parseSample(t, "http://example.com/docs/page.html")
	refs := doc.References()

	want := []struct {
		tag      string
		skip     SkipReason
		url      string
		filename string
	}{
		{"link", SkipNone, "http://example.com/docs/css/site.css", "site.css"},
		{"link", SkipCrossOrigin, "https://cdn.other.com/style.css", ""},
		{"link", SkipInline, "", ""},
		{"script", SkipNone, "http://example.com/static/app.js", "app.js"},
		{"script", SkipMissing, "", ""},
		{"script", SkipInline, "", ""},
		{"img", SkipNone, "http://example.com/docs/logo.png", "logo.png"},
		{"img", SkipNoFilename, "http://example.com/images/", ""},
		{"img", SkipMissing, "", ""},
		{"img", SkipNone, "http://example.com/abs/photo.jpg?v=2", "photo.jpg"},
		{"img", SkipNone, "http://example.com/pixel.gif", "pixel.gif"},
	}
	if len(refs) != len(want) {
		t.Fatalf("got %d references, want %d", len(refs), len(want))
	}
	for i, w := range want {
		r := refs[i]
		if r.Index != i {
			t.Errorf("ref %d: Index = %d", i, r.Index)
		}
		if r.Tag != w.tag || r.Skip != w.skip {
			t.Errorf("ref %d: got %s/%q, want %s/%q", i, r.Tag, r.Skip, w.tag, w.skip)
		}
		if w.url != "" && (r.URL == nil || r.URL.String() != w.url) {
			t.Errorf("ref %d: URL = %v, want %s", i, r.URL, w.url)
		}
		if r.Filename != w.filename {
			t.Errorf("ref %d: Filename = %q, want %q", i, r.Filename, w.filename)
		}
	}
}

func TestReferences_HostIncludesPort(t *testing.T) {
	page := `<img src="http://example.com:8080/a.png"><img src="/b.png">`
	doc, err := Parse(strings.NewReader(page), "http://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	refs := doc.References()
	if refs[0].Skip != SkipCrossOrigin {
		t.Errorf("different port should be cross-origin, got %q", refs[0].Skip)
	}
	if refs[1].Skip != SkipNone {
		t.Errorf("same host should be downloadable, got %q", refs[1].Skip)
	}
}

func TestReferences_DotSegmentFilename(t *testing.T) {
	page := `<img src="/img/%2E%2E"><img src="/a/./b/../c.png">`
	doc, err := Parse(strings.NewReader(page), "http://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	refs := doc.References()
	if refs[0].Skip != SkipNoFilename {
		t.Errorf("encoded dot-dot must not become a filename, got %q (%q)", refs[0].Skip, refs[0].Filename)
	}
	if refs[1].Filename != "c.png" {
		t.Errorf("Filename = %q, want c.png", refs[1].Filename)
	}
}

func TestRewriteAndRemove(t *testing.T) {
	doc := parseSample(t, "http://example.com/docs/page.html")
	refs := doc.References()

	if got := doc.Rewrite(refs[0], "css"); got != "css/site.css" {
		t.Errorf("Rewrite returned %q", got)
	}
	doc.Remove(refs[3])
	doc.Rewrite(refs[6], "images")

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}

	if href, _ := out.Find(`link[rel="stylesheet"]`).First().Attr("href"); href != "css/site.css" {
		t.Errorf("link href = %q", href)
	}
	if out.Find(`script[src="/static/app.js"]`).Length() != 0 {
		t.Error("removed script tag is still present")
	}
	if out.Find(`img[src="images/logo.png"]`).Length() != 1 {
		t.Error("rewritten img not found")
	}
	if out.Find(`link[href="https://cdn.other.com/style.css"]`).Length() != 1 {
		t.Error("cross-origin link should be untouched")
	}
	if out.Find(`script[src^="data:text/javascript"]`).Length() != 1 {
		t.Error("data: script should be untouched")
	}
}

func TestRewrite_EscapesFilename(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<img src="/my%20logo.png">`), "http://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	refs := doc.References()
	if refs[0].Filename != "my logo.png" {
		t.Fatalf("Filename = %q", refs[0].Filename)
	}
	if got := doc.Rewrite(refs[0], "images"); got != "images/my%20logo.png" {
		t.Errorf("Rewrite = %q", got)
	}
}

func TestTitle(t *testing.T) {
	doc := parseSample(t, "http://example.com/")
	if got := doc.Title(); got != "Sample Page" {
		t.Errorf("Title() = %q", got)
	}
}
