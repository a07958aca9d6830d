package neo4j

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
	storage.Register("neo4j", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Columns: cfg.Columns})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	// The graph has no table; uniqueness constraints stand in for DDL.
	storage.RegisterDDL("neo4j", func(ctx context.Context, repo storage.Repository, _ string) error {
		for _, c := range Constraints {
			if err := repo.Exec(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}
