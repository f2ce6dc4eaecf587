package classify

import (
	"testing"

	"github.com/gaurav-prasanna/pagesnap/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     core.Category
	}{
		{"style.css", core.CategoryCSS},
		{"STYLE.CSS", core.CategoryCSS},
		{"app.js", core.CategoryJS},
		{"module.mjs", core.CategoryJS},
		{"logo.png", core.CategoryImages},
		{"photo.jpeg", core.CategoryImages},
		{"icon.svg", core.CategoryImages},
		{"favicon.ico", core.CategoryImages},
		{"hero.webp", core.CategoryImages},
		{"inter.woff2", core.CategoryFonts},
		{"inter.woff", core.CategoryFonts},
		{"roboto.ttf", core.CategoryFonts},
		{"manifest.json", core.CategoryAssets},
		{"feed.xml", core.CategoryAssets},
		{"README", core.CategoryAssets},
		{"archive.unknownext", core.CategoryAssets},
		{"", core.CategoryAssets},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, dir := Classify(tt.filename)
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.filename, got, tt.want)
			}
			if dir != string(tt.want) {
				t.Errorf("Classify(%q) dir = %q, want %q", tt.filename, dir, tt.want)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if cat, _ := Classify("a.css"); cat != core.CategoryCSS {
			t.Fatalf("run %d: got %q", i, cat)
		}
	}
}
