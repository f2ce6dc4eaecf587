// Package rewrite — reference filtering rules.
// Provides helpers to skip, resolve, and name asset references found in a page.
package rewrite

import (
	"net/url"
	"strings"
)

// SkipReason explains why a reference is left untouched.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipMissing     SkipReason = "missing attribute"
	SkipInline      SkipReason = "inline data or fragment"
	SkipUnparseable SkipReason = "unparseable URL"
	SkipCrossOrigin SkipReason = "cross-origin"
	SkipNoFilename  SkipReason = "no filename"
)

// isInline reports whether an attribute value is an inline data URI or a
// fragment-only reference; neither is a downloadable asset.
func isInline(val string) bool {
	return strings.HasPrefix(val, "data:") || strings.HasPrefix(val, "#")
}

// resolveURL resolves a potentially relative reference against the page URL.
// Relative paths honour the page's directory, not just its origin.
func resolveURL(val string, base *url.URL) (*url.URL, bool) {
	parsed, err := url.Parse(val)
	if err != nil {
		return nil, false
	}
	return base.ResolveReference(parsed), true
}

// isSameOrigin checks that u is served by exactly the page's host (port included).
func isSameOrigin(u *url.URL, pageHost string) bool {
	return u.Host == pageHost
}

// filenameOf returns the final path segment of u, or "" when the path ends
// in a slash or the segment cannot be used as a file name.
func filenameOf(u *url.URL) string {
	p := u.Path
	name := p[strings.LastIndex(p, "/")+1:]
	switch name {
	case ".", "..":
		return ""
	}
	if strings.ContainsAny(name, "\x00\\") {
		return ""
	}
	return name
}

// localRef builds the rewritten attribute value for a stored asset.
func localRef(dir, filename string) string {
	return dir + "/" + url.PathEscape(filename)
}
