// Package classify routes asset filenames to their snapshot category.
// The category is guessed from the filename extension only; the response
// Content-Type is never consulted.
package classify

import (
	"mime"
	"path"
	"strings"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// extraTypes fills gaps in Go's builtin extension table so that
// classification does not depend on the host's mime.types files.
var extraTypes = map[string]string{
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".eot":   "application/vnd.ms-fontobject",
	".ico":   "image/vnd.microsoft.icon",
	".bmp":   "image/bmp",
	".jpe":   "image/jpeg",
	".tif":   "image/tiff",
	".tiff":  "image/tiff",
	".cjs":   "text/javascript",
}

func init() {
	for ext, typ := range extraTypes {
		mime.AddExtensionType(ext, typ)
	}
}

// Classify maps a filename to its category and relative directory name.
// It never fails: unknown or missing extensions fall back to the catch-all.
func Classify(filename string) (core.Category, string) {
	cat := categoryOf(TypeOf(filename))
	return cat, cat.Dir()
}

// TypeOf guesses the MIME type of filename from its extension. It returns ""
// when the extension is unknown.
func TypeOf(filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(strings.ToLower(ext))
}

func categoryOf(contentType string) core.Category {
	switch {
	case contentType == "":
		return core.CategoryAssets
	case strings.Contains(contentType, "css"):
		return core.CategoryCSS
	case strings.Contains(contentType, "javascript"):
		return core.CategoryJS
	case strings.Contains(contentType, "image"):
		return core.CategoryImages
	case strings.Contains(contentType, "font"):
		return core.CategoryFonts
	default:
		return core.CategoryAssets
	}
}
