package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/gaurav-prasanna/pagesnap/core"
)

// Entry is one file stored in a snapshot archive.
type Entry struct {
	Name     string        `json:"name"`
	Size     uint64        `json:"size"`
	Category core.Category `json:"category,omitempty"` // empty for index.html
}

// Snapshot is an opened snapshot archive.
type Snapshot struct {
	rc      *zip.ReadCloser
	Entries []Entry
}

// Open reads the directory of a snapshot archive.
func Open(path string) (*Snapshot, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", path, err)
	}
	s := &Snapshot{rc: rc}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		s.Entries = append(s.Entries, Entry{
			Name:     f.Name,
			Size:     f.UncompressedSize64,
			Category: categoryOf(f.Name),
		})
	}
	return s, nil
}

// Close releases the archive.
func (s *Snapshot) Close() error {
	return s.rc.Close()
}

// ReadFile returns the content of a stored file.
func (s *Snapshot) ReadFile(name string) ([]byte, error) {
	f, err := s.rc.Open(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ByCategory groups asset entries by category; the root document is omitted.
func (s *Snapshot) ByCategory() map[core.Category][]Entry {
	out := make(map[core.Category][]Entry)
	for _, e := range s.Entries {
		if e.Category != "" {
			out[e.Category] = append(out[e.Category], e)
		}
	}
	return out
}

func categoryOf(name string) core.Category {
	dir, _, ok := strings.Cut(name, "/")
	if !ok {
		return ""
	}
	for _, c := range core.Categories {
		if c.Dir() == dir {
			return c
		}
	}
	return ""
}
