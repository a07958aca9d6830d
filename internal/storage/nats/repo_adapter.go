package nats

import (
	"context"

	"github.com/theodi/csv2rdf/internal/storage"
)

// newRepository is swapped by tests.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("nats", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{URL: cfg.DSN, Subject: cfg.Table, Columns: cfg.Columns})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	// Subjects need no provisioning.
	storage.RegisterDDL("nats", func(context.Context, storage.Repository, string) error { return nil })
}
