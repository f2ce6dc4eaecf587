// Package archive packs a workspace tree into a zip archive and reads
// snapshots back for inspection.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/flate"
)

// Ext is the archive file extension.
const Ext = ".zip"

// modTime is stamped on every entry so that the same tree always produces
// the same bytes.
var modTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Archiver writes zip archives into a fixed directory.
type Archiver struct {
	Dir   string // destination directory; "" means os.TempDir()
	Level int    // deflate level; 0 means flate.DefaultCompression
}

// New creates an Archiver targeting dir.
func New(dir string) *Archiver {
	return &Archiver{Dir: dir}
}

func (a *Archiver) dir() string {
	if a.Dir == "" {
		return os.TempDir()
	}
	return a.Dir
}

// Archive walks root and writes every regular file into
// <Dir>/<name>-<random>/<name>.zip, using slash-separated paths relative to
// root as entry names. Every call gets its own directory, so concurrent
// captures of one host never share an archive path. The archive is written
// under a temporary name and renamed into place when complete; on failure
// the directory is removed.
func (a *Archiver) Archive(ctx context.Context, root, name string) (string, error) {
	files, err := collect(root)
	if err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp(a.dir(), name+"-")
	if err != nil {
		return "", fmt.Errorf("creating archive directory: %w", err)
	}
	dest := filepath.Join(dir, name+Ext)
	tmp, err := os.CreateTemp(dir, "."+name+Ext+".part-*")
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("creating archive: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.RemoveAll(dir)
		}
	}()

	zw := zip.NewWriter(tmp)
	level := a.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := addFile(zw, root, rel); err != nil {
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalizing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing archive: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf("committing archive %s: %w", dest, err)
	}
	committed = true
	return dest, nil
}

// Discard removes an archive written by Archive together with its
// per-call directory. The directory is only removed once empty; a missing
// archive is not an error.
func Discard(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing archive %s: %w", path, err)
	}
	os.Remove(filepath.Dir(path))
	return nil
}

// collect returns the slash-separated relative paths of every regular file
// under root, sorted.
func collect(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func addFile(zw *zip.Writer, root, rel string) error {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("opening %s: %w", rel, err)
	}
	defer f.Close()

	hdr := &zip.FileHeader{
		Name:     rel,
		Method:   zip.Deflate,
		Modified: modTime,
	}
	hdr.SetMode(0644)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("adding %s: %w", rel, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("writing %s: %w", rel, err)
	}
	return nil
}
