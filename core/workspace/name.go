package workspace

import (
	"net/url"
	"strings"
	"unicode"
)

// ProjectName derives a filesystem-safe project name from the host of rawURL.
// Port and credentials are dropped; only ASCII letters, digits, '-' and '_'
// survive. A URL without a host yields "".
// Example: https://docs.example.com:8443/intro → docsexamplecom
func ProjectName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return sanitize(parsed.Hostname())
}

// sanitize keeps only characters that are safe in a directory or file name.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' {
			b.WriteRune(ch)
		}
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}
