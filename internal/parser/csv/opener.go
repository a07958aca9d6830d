package csv

import (
	"context"
	"io"
	"log/slog"

	"github.com/theodi/csv2rdf/internal/schema"
	"github.com/theodi/csv2rdf/internal/transformer"
)

// OpenFunc opens the bytes behind a table URL.
type OpenFunc func(ctx context.Context, url string) (io.ReadCloser, error)

// NewOpener returns a transformer.Opener that reads tables through open.
// base is the job-level dialect bag; a table's own dialect overrides it key
// by key.
func NewOpener(open OpenFunc, base map[string]any, log *slog.Logger) transformer.Opener {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx context.Context, tableURL string, t *schema.Table) (transformer.RowSource, error) {
		opts := make(map[string]any, len(base))
		for k, v := range base {
			opts[k] = v
		}
		if t != nil {
			for k, v := range t.Dialect {
				opts[k] = v
			}
		}
		d, warns, err := DecodeDialect(opts)
		if err != nil {
			return nil, err
		}
		rc, err := open(ctx, tableURL)
		if err != nil {
			return nil, err
		}
		v := NewValidator(rc, t, d, WithLogger(log.With("table", tableURL)))
		for _, w := range warns {
			v.warnf(TypeDialect, 0, 0, w)
		}
		return v, nil
	}
}
