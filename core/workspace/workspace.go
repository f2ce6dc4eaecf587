// Package workspace manages the per-capture temporary directory tree.
// A Workspace holds the document and its categorized assets until they are
// archived, and is always removed when the capture ends.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// IndexFile is the name of the captured document at the workspace root.
const IndexFile = "index.html"

// Workspace is an exclusively owned temporary directory with one
// subdirectory per asset category.
type Workspace struct {
	Root string
}

// Create makes a uniquely named directory under the OS temp dir, using
// prefix as a name hint, and creates every category subdirectory in it.
func Create(prefix string) (*Workspace, error) {
	return CreateIn("", prefix)
}

// CreateIn is Create with an explicit parent directory ("" means os.TempDir).
func CreateIn(parent, prefix string) (*Workspace, error) {
	root, err := os.MkdirTemp(parent, prefix)
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	ws := &Workspace{Root: root}

	for _, cat := range core.Categories {
		if err := os.MkdirAll(ws.Dir(cat), 0755); err != nil {
			ws.Remove()
			return nil, fmt.Errorf("creating directory %s: %w", cat, err)
		}
	}
	return ws, nil
}

// With creates a workspace, runs fn in it and removes it afterwards,
// whatever fn returns or however it exits. A removal failure is reported
// only when fn itself succeeded.
func With(parent, prefix string, fn func(ws *Workspace) error) (err error) {
	ws, err := CreateIn(parent, prefix)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := ws.Remove(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(ws)
}

// Dir returns the absolute path of a category subdirectory.
func (w *Workspace) Dir(cat core.Category) string {
	return filepath.Join(w.Root, cat.Dir())
}

// AssetPath returns where an asset of the given category is stored.
func (w *Workspace) AssetPath(cat core.Category, filename string) string {
	return filepath.Join(w.Dir(cat), filename)
}

// IndexPath returns the path of the captured document.
func (w *Workspace) IndexPath() string {
	return filepath.Join(w.Root, IndexFile)
}

// WriteIndex writes the final document at the workspace root.
func (w *Workspace) WriteIndex(data []byte) error {
	if err := os.WriteFile(w.IndexPath(), data, 0644); err != nil {
		return fmt.Errorf("writing file %s: %w", w.IndexPath(), err)
	}
	return nil
}

// Remove deletes the workspace and everything under it. Calling it again
// after a successful removal is a no-op.
func (w *Workspace) Remove() error {
	if w == nil || w.Root == "" {
		return nil
	}
	if err := os.RemoveAll(w.Root); err != nil {
		return fmt.Errorf("removing workspace %s: %w", w.Root, err)
	}
	return nil
}
