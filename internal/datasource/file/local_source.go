// Package file opens tables and metadata documents from the local disk.
package file

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// Local reads one file.
type Local struct{ path string }

// NewLocal binds a Local to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// FromURL accepts a file:// URL or a bare path.
func FromURL(raw string) (*Local, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return NewLocal(raw), nil
	}
	if u.Scheme != "file" {
		return nil, fmt.Errorf("file: not a file URL: %s", raw)
	}
	if u.Host != "" && u.Host != "localhost" {
		return nil, fmt.Errorf("file: remote host in %s", raw)
	}
	return NewLocal(filepath.FromSlash(u.Path)), nil
}

// URL returns the absolute file:// URL of path, the form relative table
// references in metadata resolve against.
func URL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("file: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Path is the file path.
func (l *Local) Path() string { return l.path }

// Open opens the file. A context that is already done wins over the
// filesystem; errors keep os.ErrNotExist and friends reachable.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
