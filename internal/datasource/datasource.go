// Package datasource opens the documents a transformation reads: CSV tables
// and metadata files, addressed by bare path, file:// URL or http(s) URL.
package datasource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/theodi/csv2rdf/internal/datasource/file"
	"github.com/theodi/csv2rdf/internal/datasource/httpds"
)

// ErrUnsupportedScheme is returned for URLs that are neither files nor HTTP.
var ErrUnsupportedScheme = errors.New("datasource: unsupported scheme")

// Source is one openable document.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Kind is what a document looks like from its first bytes.
type Kind int

const (
	KindCSV Kind = iota
	KindMetadata
)

func (k Kind) String() string {
	if k == KindMetadata {
		return "metadata"
	}
	return "csv"
}

const sniffSize = 512

// Resolver maps URLs to sources. The zero value is not usable; use
// NewResolver.
type Resolver struct {
	http *httpds.Client
}

// NewResolver returns a Resolver fetching remote documents with c.
func NewResolver(c *httpds.Client) *Resolver {
	if c == nil {
		c = httpds.NewClient(httpds.Config{MaxRetries: 2})
	}
	return &Resolver{http: c}
}

var defaultResolver = NewResolver(nil)

// Open opens raw with the default resolver.
func Open(ctx context.Context, raw string) (io.ReadCloser, error) {
	return defaultResolver.Open(ctx, raw)
}

// Peek peeks at raw with the default resolver.
func Peek(ctx context.Context, raw string, n int) ([]byte, error) {
	return defaultResolver.Peek(ctx, raw, n)
}

// Sniff sniffs raw with the default resolver.
func Sniff(ctx context.Context, raw string) (Kind, error) {
	return defaultResolver.Sniff(ctx, raw)
}

// Source returns the source behind raw.
func (r *Resolver) Source(raw string) (Source, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return file.NewLocal(raw), nil
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return file.FromURL(raw)
	case "http", "https":
		return &remote{c: r.http, url: raw}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
}

// Open opens raw.
func (r *Resolver) Open(ctx context.Context, raw string) (io.ReadCloser, error) {
	src, err := r.Source(raw)
	if err != nil {
		return nil, err
	}
	return src.Open(ctx)
}

// Peek returns at most n leading bytes of raw. Remote documents are asked
// for a byte range.
func (r *Resolver) Peek(ctx context.Context, raw string, n int) ([]byte, error) {
	src, err := r.Source(raw)
	if err != nil {
		return nil, err
	}
	if rm, ok := src.(*remote); ok {
		return rm.c.Peek(ctx, rm.url, n)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, int64(n)))
}

// Sniff reports whether raw holds CSVW metadata (a JSON object) or a table.
func (r *Resolver) Sniff(ctx context.Context, raw string) (Kind, error) {
	head, err := r.Peek(ctx, raw, sniffSize)
	if err != nil {
		return KindCSV, err
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	if t := bytes.TrimSpace(head); len(t) > 0 && t[0] == '{' {
		return KindMetadata, nil
	}
	return KindCSV, nil
}

// Canonical turns a bare path into an absolute file:// URL and leaves URLs
// alone, so relative references resolve the same way for both.
func Canonical(raw string) (string, error) {
	if u, err := url.Parse(raw); err == nil && len(u.Scheme) > 1 {
		return raw, nil
	}
	return file.URL(raw)
}

type remote struct {
	c   *httpds.Client
	url string
}

func (s *remote) Open(ctx context.Context) (io.ReadCloser, error) { return s.c.Open(ctx, s.url) }
