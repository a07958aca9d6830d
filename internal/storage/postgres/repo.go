// Package postgres stores statements in Postgres with pgx v5. Each batch is
// COPYed into a transaction-scoped staging table and merged into the target
// with ON CONFLICT DO NOTHING, so reloading a session is a no-op.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theodi/csv2rdf/internal/ddl"
)

// Config is the Postgres view of storage.Config.
type Config struct {
	DSN     string   // pgxpool connection string
	Table   string   // target, e.g. "public.statements"
	Columns []string // ordered columns for COPY and INSERT
}

// Repository is a Postgres statement sink.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// Dialect renders Postgres DDL.
var Dialect = ddl.Dialect{Name: "postgres", Quote: pgIdent, Wrap: ddl.IfNotExists}

// Types are the statement column types for Postgres.
var Types = ddl.Types{Key: "CHAR(16)", Text: "TEXT"}

const stageTable = "csv2rdf_stage"

// NewRepository opens a pool for cfg.DSN and returns it with its cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

// CopyFrom stages rows with COPY and merges them into the target. It
// returns the number of rows the merge inserted.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, stageSQL(r.cfg.Table)); err != nil {
		return 0, fmt.Errorf("create stage: %w", err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stageTable}, columns, pgx.CopyFromRows(rows)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("copy into stage: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("copy into stage: %w", err)
	}
	tag, err := tx.Exec(ctx, mergeSQL(r.cfg.Table, columns))
	if err != nil {
		return 0, fmt.Errorf("merge: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Exec runs one SQL statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	_, err := r.pool.Exec(ctx, sql)
	return err
}

func stageSQL(table string) string {
	return fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgIdent(stageTable), pgFQN(table),
	)
}

func mergeSQL(table string, columns []string) string {
	cols := strings.Join(mapIdent(columns), ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT DO NOTHING",
		pgFQN(table), cols, cols, pgIdent(stageTable),
	)
}

// pgIdent quotes one identifier segment.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes "public.statements" as "public"."statements".
func pgFQN(name string) string { return ddl.QuoteFQN(name, pgIdent) }

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
