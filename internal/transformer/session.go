package transformer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/theodi/csv2rdf/internal/rdf"
	"github.com/theodi/csv2rdf/internal/schema"
)

// Opener opens the row source of one table. table is nil when the session
// runs without a schema.
type Opener func(ctx context.Context, tableURL string, table *schema.Table) (RowSource, error)

// Input names what a session transforms: a single CSV URL without a schema,
// or every table of a loaded schema.
type Input struct {
	URL    string
	Schema *schema.TableGroup
	Open   Opener
}

// Options tune a session.
type Options struct {
	// Minimal emits only the cell statements, without table, row and
	// annotation structure.
	Minimal bool
	Logger  *slog.Logger
}

// Result is the outcome of a session. Graph is nil when the session failed
// before producing output.
type Result struct {
	ID       string
	Graph    *rdf.Graph
	Errors   []ErrorMessage
	Warnings []ErrorMessage

	Tables    int
	Rows      int
	BlankRows int
	Duration  time.Duration
}

// Failed builds the result of a session that could not start, such as one
// whose metadata did not load.
func Failed(err error) *Result {
	typ := TypeSource
	var me *schema.MetadataError
	if errors.As(err, &me) {
		typ = TypeMetadata
	}
	return &Result{
		ID:     uuid.NewString(),
		Errors: []ErrorMessage{{Type: typ, Category: CategoryContext, Content: err.Error()}},
	}
}

type session struct {
	opt    Options
	log    *slog.Logger
	graph  *rdf.Graph
	group  rdf.BlankNode
	schema *schema.TableGroup

	groupAnnotated bool
	errors         []ErrorMessage
	warnings       []ErrorMessage
	rows           int
	blankRows      int
}

// Transform runs one transformation session. Without a schema the validator
// errors of the single table are session errors; with a schema every
// validator error and warning is reported as a warning. Blank rows, header
// problems and template failures are always errors. A non-nil error
// means the session aborted: the result then carries that error and no
// graph.
func Transform(ctx context.Context, in Input, opt Options) (*Result, error) {
	start := time.Now()
	if in.Open == nil || (in.URL == "" && in.Schema == nil) {
		return Failed(ErrNoInput), ErrNoInput
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	s := &session{
		opt:    opt,
		log:    log.With("session", id),
		graph:  rdf.NewGraph(),
		schema: in.Schema,
	}
	s.group = s.graph.NewBlankNode()
	if !opt.Minimal {
		s.graph.Add(s.group, rdf.RDFType, rdf.CSVWTableGroup)
	}

	res := &Result{ID: id}
	if in.Schema == nil {
		src, err := s.runTable(ctx, in.Open, in.URL, nil)
		if err != nil {
			return s.fail(res, err)
		}
		s.errors = append(s.errors, src.Errors()...)
		s.warnings = append(s.warnings, src.Warnings()...)
		res.Tables = 1
	} else {
		for _, t := range in.Schema.Tables {
			src, err := s.runTable(ctx, in.Open, t.URL, t)
			if err != nil {
				return s.fail(res, err)
			}
			s.warnings = append(s.warnings, src.Errors()...)
			s.warnings = append(s.warnings, src.Warnings()...)
			res.Tables++
		}
		for _, w := range in.Schema.Warnings {
			s.warnings = append(s.warnings, ErrorMessage{Type: TypeMetadata, Category: CategoryContext, Content: w})
		}
	}

	res.Graph = s.graph
	res.Errors = s.errors
	res.Warnings = s.warnings
	res.Rows = s.rows
	res.BlankRows = s.blankRows
	res.Duration = time.Since(start)
	s.log.Info("transform complete",
		"tables", res.Tables, "rows", res.Rows, "statements", s.graph.Len(),
		"errors", len(res.Errors), "warnings", len(res.Warnings),
		"elapsed", res.Duration.Round(time.Millisecond))
	return res, nil
}

// runTable drives one table through the row transformer. Suppressed tables
// are still read so their validation messages are reported.
func (s *session) runTable(ctx context.Context, open Opener, tableURL string, t *schema.Table) (RowSource, error) {
	source, err := url.Parse(tableURL)
	if err != nil {
		return nil, fmt.Errorf("table url %q: %w", tableURL, err)
	}
	src, err := open(ctx, tableURL, t)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", tableURL, err)
	}
	defer src.Close()

	emit := t == nil || !t.SuppressOutput
	tc := newTableContext(t, source)
	for {
		row, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", tableURL, err)
		}
		if emit {
			s.transformRow(tc, row)
		} else {
			s.checkSuppressedRow(row)
		}
	}
	s.log.Debug("table transformed", "url", tableURL, "rows", tc.rownum, "suppressed", !emit)
	return src, nil
}

// checkSuppressedRow reports, as warnings, what transformRow would have
// recorded for a row of a suppressed table.
func (s *session) checkSuppressedRow(row *Row) {
	s.warnings = append(s.warnings, row.Errors...)
	if row.Blank {
		s.warnings = append(s.warnings, ErrorMessage{Type: TypeBlankRows, Category: CategoryStructure, Row: row.Line})
		s.blankRows++
	}
}

func (s *session) fail(res *Result, err error) (*Result, error) {
	s.log.Error("transform aborted", "err", err)
	f := Failed(err)
	f.ID = res.ID
	return f, err
}
