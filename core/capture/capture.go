// Package capture orchestrates the snapshot pipeline:
// workspace → fetch → discover → download → rewrite → write → archive → cleanup.
//
// Asset failures are absorbed (the tag is dropped); a failed root fetch is
// reported as core.ErrUnreachable and anything else as core.ErrInternal. The
// workspace is removed before Capture returns, on every path.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gaurav-prasanna/pagesnap/core"
	"github.com/gaurav-prasanna/pagesnap/core/archive"
	"github.com/gaurav-prasanna/pagesnap/core/classify"
	"github.com/gaurav-prasanna/pagesnap/core/rewrite"
	"github.com/gaurav-prasanna/pagesnap/core/workspace"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers = 4

	// fallbackName names the archive when the URL has no usable host.
	fallbackName = "snapshot"
)

// SessionFunc opens a fetcher session for one capture. The returned
// function releases it when the capture ends.
type SessionFunc func() (core.PageFetcher, func())

// Options tunes a Capturer. Zero values select the defaults.
type Options struct {
	Workers int    // concurrent asset downloads; 1 downloads sequentially
	WorkDir string // parent of per-capture workspaces; "" means os.TempDir()

	// Session, when set, opens a fresh fetcher for every capture and the
	// fetcher passed to New is ignored.
	Session SessionFunc
}

// Capturer runs captures. It holds no per-capture state and is safe for
// concurrent use; every Capture gets its own workspace and archive directory.
type Capturer struct {
	session  SessionFunc
	archiver *archive.Archiver
	opts     Options
	log      logrus.FieldLogger
}

// New creates a Capturer. Without Options.Session every capture shares
// fetcher.
func New(fetcher core.PageFetcher, archiver *archive.Archiver, opts Options, log logrus.FieldLogger) *Capturer {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	session := opts.Session
	if session == nil {
		session = func() (core.PageFetcher, func()) { return fetcher, func() {} }
	}
	return &Capturer{session: session, archiver: archiver, opts: opts, log: log}
}

// job is one downloadable reference routed to its destination.
type job struct {
	ref      rewrite.Reference
	category core.Category
	dir      string
	dest     string
	ok       bool
}

// Capture snapshots the page at rawURL and returns the result; the archive
// at Result.ArchivePath belongs to the caller.
func (c *Capturer) Capture(ctx context.Context, rawURL string) (*core.Result, error) {
	req, err := core.NewCaptureRequest(rawURL)
	if err != nil {
		return nil, core.Internal(rawURL, err)
	}

	name := workspace.ProjectName(rawURL)
	result := &core.Result{
		ID:          uuid.NewString(),
		URL:         rawURL,
		ProjectName: name,
	}
	log := c.log.WithFields(logrus.Fields{"capture_id": result.ID, "url": rawURL})
	log.Info("capture started")
	start := time.Now()

	fetcher, release := c.session()
	defer release()

	err = workspace.With(c.opts.WorkDir, name, func(ws *workspace.Workspace) error {
		return c.run(ctx, log, fetcher, req, ws, result)
	})
	if err != nil {
		if result.ArchivePath != "" {
			archive.Discard(result.ArchivePath)
		}
		var ce *core.CaptureError
		if !errors.As(err, &ce) {
			err = core.Internal(rawURL, err)
		}
		log.WithField("error", err).Error("capture failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"archive":    result.ArchivePath,
		"downloaded": result.Downloaded(),
		"removed":    len(result.Assets) - result.Downloaded(),
		"elapsed":    time.Since(start).Round(time.Millisecond).String(),
	}).Info("capture finished")
	return result, nil
}

func (c *Capturer) run(ctx context.Context, log logrus.FieldLogger, fetcher core.PageFetcher, req core.CaptureRequest, ws *workspace.Workspace, result *core.Result) error {
	// 1. Fetch the root document.
	page, err := fetcher.Fetch(ctx, req.URL())
	if err != nil {
		return core.Unreachable(req.URL(), err)
	}

	// 2. Parse and discover references.
	doc, err := rewrite.Parse(strings.NewReader(page.HTML), req.URL())
	if err != nil {
		return core.Internal(req.URL(), fmt.Errorf("parse: %w", err))
	}
	result.Title = doc.Title()

	jobs := plan(log, doc.References(), ws)

	// 3. Download every asset; outcomes only, no tree access.
	c.downloadAll(ctx, fetcher, jobs)
	if err := ctx.Err(); err != nil {
		return core.Internal(req.URL(), fmt.Errorf("capture interrupted: %w", err))
	}

	// 4. Apply all tag mutations from this goroutine.
	for _, j := range jobs {
		outcome := core.AssetOutcome{
			Tag:       j.ref.Tag,
			Attribute: j.ref.Attribute,
			SourceURL: j.ref.URL.String(),
			Category:  j.category,
		}
		if j.ok {
			outcome.LocalPath = doc.Rewrite(j.ref, j.dir)
			outcome.Status = core.AssetRewritten
		} else {
			doc.Remove(j.ref)
			outcome.Status = core.AssetRemoved
		}
		result.Assets = append(result.Assets, outcome)
	}

	// 5. Write the document.
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return core.Internal(req.URL(), fmt.Errorf("render: %w", err))
	}
	if err := ws.WriteIndex(buf.Bytes()); err != nil {
		return core.Internal(req.URL(), err)
	}

	// 6. Archive.
	archiveName := result.ProjectName
	if archiveName == "" {
		archiveName = fallbackName
	}
	path, err := c.archiver.Archive(ctx, ws.Root, archiveName)
	if err != nil {
		return core.Internal(req.URL(), fmt.Errorf("archive: %w", err))
	}
	result.ArchivePath = path
	result.CapturedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// plan turns downloadable references into jobs and logs the skipped ones.
func plan(log logrus.FieldLogger, refs []rewrite.Reference, ws *workspace.Workspace) []*job {
	var jobs []*job
	for _, ref := range refs {
		if !ref.Downloadable() {
			log.WithFields(logrus.Fields{
				"tag":    ref.Tag,
				"value":  ref.Value,
				"reason": string(ref.Skip),
			}).Debug("reference skipped")
			continue
		}
		cat, dir := classify.Classify(ref.Filename)
		jobs = append(jobs, &job{
			ref:      ref,
			category: cat,
			dir:      dir,
			dest:     ws.AssetPath(cat, ref.Filename),
		})
	}
	return jobs
}

// downloadAll fetches every job on a bounded pool. Jobs sharing a
// destination run in order on one worker, so the last reference in
// processing order always wins a filename collision. Workers never return
// errors: one failed asset does not stop its siblings.
func (c *Capturer) downloadAll(ctx context.Context, fetcher core.Downloader, jobs []*job) {
	var order []string
	groups := make(map[string][]*job)
	for _, j := range jobs {
		if _, seen := groups[j.dest]; !seen {
			order = append(order, j.dest)
		}
		groups[j.dest] = append(groups[j.dest], j)
	}

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for _, dest := range order {
		group := groups[dest]
		g.Go(func() error {
			for _, j := range group {
				if ctx.Err() != nil {
					return nil
				}
				j.ok = fetcher.Download(ctx, j.ref.URL.String(), j.dest)
			}
			return nil
		})
	}
	g.Wait()
}
