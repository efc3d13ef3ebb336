package audit

import (
	"fmt"
	"sort"

	"github.com/spf13/afero"
)

// FileLister enumerates the file identifiers matching a glob pattern.
// Any backend (local disk, object storage listing, in-memory) can implement it.
type FileLister interface {
	ListMatching(pattern string) ([]string, error)
}

// ListerFunc adapts a function to FileLister
type ListerFunc func(pattern string) ([]string, error)

// ListMatching calls f
func (f ListerFunc) ListMatching(pattern string) ([]string, error) {
	return f(pattern)
}

// GlobLister lists files of an afero filesystem with filepath.Match patterns
// (e.g. "/data/in/*/*.txt")
type GlobLister struct {
	fs afero.Fs
}

// NewGlobLister creates a GlobLister over fs
func NewGlobLister(fs afero.Fs) *GlobLister {
	return &GlobLister{fs: fs}
}

// NewOSLister creates a GlobLister over the local filesystem
func NewOSLister() *GlobLister {
	return NewGlobLister(afero.NewOsFs())
}

// ListMatching returns the sorted matches of pattern
func (g *GlobLister) ListMatching(pattern string) ([]string, error) {
	matches, err := afero.Glob(g.fs, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}
