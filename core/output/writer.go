// Package output places finished snapshot archives into a user-chosen
// directory. Archives keep the name the capture gave them
// (e.g., example.com → examplecom.zip).
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// Writer moves archives and manifests to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	// Ensure the output directory exists.
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// Place moves the archive at src into the output directory and returns its
// new path. A same-named file in the output directory is replaced.
func (w *Writer) Place(src string) (string, error) {
	dest := filepath.Join(w.OutputDir, filepath.Base(src))
	if samePath(src, dest) {
		return dest, nil
	}
	if err := os.Rename(src, dest); err == nil {
		return dest, nil
	}

	// Rename fails across filesystems; fall back to copy + remove.
	if err := copyFile(src, dest); err != nil {
		return "", err
	}
	if err := os.Remove(src); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("removing %s: %w", src, err)
	}
	return dest, nil
}

// WriteManifest writes the capture result as JSON next to its archive
// (examplecom.zip → examplecom.json).
func (w *Writer) WriteManifest(result *core.Result) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(result.ArchivePath), filepath.Ext(result.ArchivePath)) + ".json"
	path := filepath.Join(w.OutputDir, name)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("copying to %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing file %s: %w", dest, err)
	}
	return nil
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
