package preview

import (
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	md, err := New(0).Markdown(`<html><body><h1>Hello</h1><p>World <a href="css/a.css">link</a></p></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md, "Hello") || !strings.Contains(md, "World") {
		t.Errorf("markdown = %q", md)
	}
	if !strings.Contains(md, "(css/a.css)") {
		t.Errorf("link target lost: %q", md)
	}
}

func TestMarkdown_Truncates(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("<p>para</p>")
	}
	md, err := New(3).Markdown(b.String())
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(md, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines: %q", len(lines), md)
	}
	if !strings.HasPrefix(lines[4], "… (") {
		t.Errorf("missing truncation marker: %q", lines[4])
	}
}
