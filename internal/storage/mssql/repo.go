// Package mssql stores statements in SQL Server through go-mssqldb. Each
// batch is bulk copied into a session temp table and merged into the target,
// skipping hashes the target already holds.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/theodi/csv2rdf/internal/ddl"
)

// Config is the SQL Server view of storage.Config.
type Config struct {
	DSN     string
	Table   string // e.g. "dbo.statements"
	Columns []string
}

// Repository is a SQL Server statement sink.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// Dialect renders SQL Server DDL guarded by OBJECT_ID.
var Dialect = ddl.Dialect{Name: "mssql", Quote: msIdent, Wrap: ifMissing}

// Types are the statement column types for SQL Server.
var Types = ddl.Types{Key: "CHAR(16)", Text: "NVARCHAR(MAX)", Short: "NVARCHAR(64)"}

const (
	stageTable = "#csv2rdf_stage"
	keyColumn  = "hash"
)

// NewRepository validates the DSN, connects and returns the repository with
// its cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom bulk copies rows into the stage and merges new hashes into the
// target. It returns the number of rows merged.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mssql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	if _, err := tx.ExecContext(ctx, stageSQL(r.cfg.Table, columns)); err != nil {
		rollback()
		return 0, fmt.Errorf("create stage: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(stageTable, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	_, err = stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}

	res, err := tx.ExecContext(ctx, mergeSQL(r.cfg.Table, columns))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("merge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DROP TABLE "+stageTable); err != nil {
		rollback()
		return 0, fmt.Errorf("drop stage: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Exec runs one T-SQL batch.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// stageSQL copies the target's column types into an empty temp table.
func stageSQL(table string, columns []string) string {
	return fmt.Sprintf("SELECT TOP 0 %s INTO %s FROM %s",
		strings.Join(mapIdent(columns), ", "), stageTable, msFQN(table))
}

func mergeSQL(table string, columns []string) string {
	cols := strings.Join(mapIdent(columns), ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s AS S WHERE NOT EXISTS (SELECT 1 FROM %s AS T WHERE T.%s = S.%s)",
		msFQN(table), cols, cols, stageTable, msFQN(table), msIdent(keyColumn), msIdent(keyColumn),
	)
}

func ifMissing(fqn, body string) string {
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n  %s\n  );\nEND;",
		strings.ReplaceAll(fqn, "'", "''"), fqn, body)
}

func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

func msFQN(name string) string { return ddl.QuoteFQN(name, msIdent) }

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = msIdent(c)
	}
	return out
}
