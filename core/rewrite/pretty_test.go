package rewrite

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func renderString(t *testing.T, src string) string {
	t.Helper()
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderPretty(&buf, root); err != nil {
		t.Fatalf("RenderPretty: %v", err)
	}
	return buf.String()
}

func TestRenderPretty_Indents(t *testing.T) {
	got := renderString(t, `<!DOCTYPE html><html><head><title>T</title></head><body><p>Hello <b>world</b></p><br><!-- note --></body></html>`)
	want := `<!DOCTYPE html>
<html>
 <head>
  <title>
   T
  </title>
 </head>
 <body>
  <p>
   Hello
   <b>
    world
   </b>
  </p>
  <br>
  <!-- note -->
 </body>
</html>
`
	if got != want {
		t.Errorf("RenderPretty mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderPretty_VerbatimContent(t *testing.T) {
	src := "<html><body><pre>  line one\n    line two</pre><script>if (a < b && c) { run(); }</script><textarea>  keep  </textarea></body></html>"
	got := renderString(t, src)

	for _, want := range []string{
		"<pre>  line one\n    line two</pre>",
		"<script>if (a < b && c) { run(); }</script>",
		"<textarea>  keep  </textarea>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output lost verbatim content %q:\n%s", want, got)
		}
	}
}

func TestRenderPretty_EscapesAttributesAndText(t *testing.T) {
	got := renderString(t, `<html><body><a title="say &quot;hi&quot;" href="?a=1&amp;b=2">1 &lt; 2</a></body></html>`)
	if !strings.Contains(got, `title="say &#34;hi&#34;"`) {
		t.Errorf("attribute quote not escaped:\n%s", got)
	}
	if !strings.Contains(got, `href="?a=1&amp;b=2"`) {
		t.Errorf("attribute ampersand not escaped:\n%s", got)
	}
	if !strings.Contains(got, "1 &lt; 2") {
		t.Errorf("text not escaped:\n%s", got)
	}
}

func TestRenderPretty_RoundTrip(t *testing.T) {
	first := renderString(t, samplePage)
	second := renderString(t, first)
	if first != second {
		t.Errorf("pretty output is not stable under re-rendering\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}
