// Package fetch implements the core.PageFetcher interface.
// It performs HTTP GET requests over one reused connection pool: the root
// document is read into memory, assets are streamed straight to disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageTimeout   = 15 * time.Second
	defaultAssetTimeout  = 10 * time.Second
	defaultMaxPageBytes  = 10 << 20
	defaultMaxAssetBytes = 50 << 20

	// DefaultUserAgent is a conventional desktop browser string; many sites
	// refuse requests that look like bots.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config configures the fetcher. Zero values select the defaults.
type Config struct {
	UserAgent     string
	PageTimeout   time.Duration // root document. Default: 15s.
	AssetTimeout  time.Duration // each asset. Default: 10s.
	MaxPageBytes  int64         // Default: 10MB.
	MaxAssetBytes int64         // Default: 50MB.
}

func (c *Config) defaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.PageTimeout <= 0 {
		c.PageTimeout = defaultPageTimeout
	}
	if c.AssetTimeout <= 0 {
		c.AssetTimeout = defaultAssetTimeout
	}
	if c.MaxPageBytes <= 0 {
		c.MaxPageBytes = defaultMaxPageBytes
	}
	if c.MaxAssetBytes <= 0 {
		c.MaxAssetBytes = defaultMaxAssetBytes
	}
}

// HTTPFetcher fetches pages and assets via HTTP. One HTTPFetcher is one
// session: its client and transport are shared by every request it makes.
type HTTPFetcher struct {
	client *http.Client
	config Config
	log    logrus.FieldLogger
}

// New creates an HTTPFetcher with its own connection pool.
func New(cfg Config, log logrus.FieldLogger) *HTTPFetcher {
	cfg.defaults()
	if log == nil {
		log = logrus.StandardLogger()
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.AssetTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.AssetTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{Transport: transport},
		config: cfg,
		log:    log,
	}
}

// Close releases idle connections held by the session.
func (f *HTTPFetcher) Close() {
	f.client.CloseIdleConnections()
}

// Fetch retrieves the HTML content of the given URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.PageTimeout)
	defer cancel()

	resp, err := f.get(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxPageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxPageBytes {
		return nil, fmt.Errorf("page %s exceeds %d bytes", url, f.config.MaxPageBytes)
	}

	return &core.FetchResult{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		HTML:        string(body),
	}, nil
}

// Download streams the asset at url into destination. The file appears only
// when the whole body arrived; a failed download leaves any earlier file at
// destination untouched. Failures are logged and reported as false.
func (f *HTTPFetcher) Download(ctx context.Context, url string, destination string) bool {
	n, err := f.download(ctx, url, destination)
	if err != nil {
		f.log.WithFields(logrus.Fields{"asset": url, "error": err}).Warn("asset download failed")
		return false
	}
	f.log.WithFields(logrus.Fields{"asset": url, "path": destination, "bytes": n}).Debug("asset downloaded")
	return true
}

func (f *HTTPFetcher) download(ctx context.Context, url, destination string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.AssetTimeout)
	defer cancel()

	resp, err := f.get(ctx, url, "*/*")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destination), "."+filepath.Base(destination)+".part-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, f.config.MaxAssetBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("writing %s: %w", destination, err)
	}
	if n > f.config.MaxAssetBytes {
		return n, fmt.Errorf("asset exceeds %d bytes", f.config.MaxAssetBytes)
	}

	if err := os.Rename(tmpName, destination); err != nil {
		return n, fmt.Errorf("committing %s: %w", destination, err)
	}
	committed = true
	return n, nil
}

// get issues a GET and returns the response only for 2xx statuses.
func (f *HTTPFetcher) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
