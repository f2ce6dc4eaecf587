// Package core defines the capture pipeline types and interfaces for pagesnap.
// Each stage of the pipeline is a clean, testable interface.
package core

import (
	"context"
	"fmt"
	"net/url"
)

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	HTML        string
}

// Category is the asset category a downloaded file is routed to. Its string
// value is both the workspace subdirectory and the rewritten path prefix.
type Category string

const (
	CategoryCSS    Category = "css"
	CategoryJS     Category = "js"
	CategoryImages Category = "images"
	CategoryFonts  Category = "fonts"
	CategoryAssets Category = "assets" // catch-all
)

// Categories lists every category in workspace creation order.
var Categories = []Category{CategoryCSS, CategoryJS, CategoryImages, CategoryFonts, CategoryAssets}

// Dir returns the relative directory name for the category.
func (c Category) Dir() string {
	return string(c)
}

// CaptureRequest is a validated capture input. It is immutable once built.
type CaptureRequest struct {
	raw    string
	parsed *url.URL
}

// NewCaptureRequest validates rawURL and wraps it in a CaptureRequest.
func NewCaptureRequest(rawURL string) (CaptureRequest, error) {
	parsed, err := ValidateURL(rawURL)
	if err != nil {
		return CaptureRequest{}, err
	}
	return CaptureRequest{raw: rawURL, parsed: parsed}, nil
}

// URL returns the request URL exactly as given.
func (r CaptureRequest) URL() string {
	return r.raw
}

// Host returns the authority (host and optional port) used for same-origin checks.
func (r CaptureRequest) Host() string {
	if r.parsed == nil {
		return ""
	}
	return r.parsed.Host
}

// ValidateURL checks that rawURL carries an explicit http or https scheme and a host.
func ValidateURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q has no http:// or https:// scheme", ErrInvalidURL, rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidURL, rawURL)
	}
	return parsed, nil
}

// AssetStatus is what happened to a processed asset tag.
type AssetStatus string

const (
	AssetRewritten AssetStatus = "rewritten"
	AssetRemoved   AssetStatus = "removed"
)

// AssetOutcome records a single processed asset reference.
type AssetOutcome struct {
	Tag       string      `json:"tag"`
	Attribute string      `json:"attribute"`
	SourceURL string      `json:"source_url"`
	LocalPath string      `json:"local_path"`
	Category  Category    `json:"category"`
	Status    AssetStatus `json:"status"`
}

// Result is the outcome of one capture. ArchivePath is owned by the caller.
type Result struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	ProjectName string         `json:"project_name"`
	Title       string         `json:"title"`
	ArchivePath string         `json:"archive_path"`
	Assets      []AssetOutcome `json:"assets"`
	CapturedAt  string         `json:"captured_at"` // ISO8601
}

// Downloaded returns the number of assets that made it into the snapshot.
func (r *Result) Downloaded() int {
	n := 0
	for _, a := range r.Assets {
		if a.Status == AssetRewritten {
			n++
		}
	}
	return n
}

// Fetcher retrieves the root HTML document of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Downloader streams a single asset to a local file. It reports failure as
// false and never returns an error to the caller.
type Downloader interface {
	Download(ctx context.Context, url string, destination string) bool
}

// PageFetcher is the fetcher used for a whole capture: one session for the
// root document and every asset.
type PageFetcher interface {
	Fetcher
	Downloader
}
