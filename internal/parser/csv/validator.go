// Package csv reads CSV tables for the transformer. A Validator applies a
// dialect, separates header and data rows, flags blank and ragged rows and
// parses every cell according to its column datatype. Problems are collected
// as diagnostics; reading continues past them.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/unicode/norm"

	"github.com/theodi/csv2rdf/internal/schema"
	"github.com/theodi/csv2rdf/internal/transformer"
)

// Diagnostic types raised by the validator.
const (
	TypeRaggedRows      = "ragged-rows"
	TypeEmptyColumnName = "empty-column-name"
	TypeDuplicateColumn = "duplicate-column-name"
	TypeInvalidHeader   = "invalid-header"
	TypeRequired        = "required"
	TypeUnclosedQuote   = "unclosed-quote"
	TypeStrayQuote      = "stray-quote"
	TypeInvalidCSV      = "invalid-csv"
	TypeEncoding        = "unknown-encoding"
	TypeDialect         = "dialect"
)

const logEveryN = 50_000

// Validator reads one table and yields typed rows. It implements
// transformer.RowSource.
type Validator struct {
	src   io.ReadCloser
	table *schema.Table
	d     Dialect
	log   *slog.Logger

	cr    *csv.Reader
	lines *lineCounter

	nextLine   int // first line after the previous record
	headerLeft int
	header     []string
	width      int
	plans      []*cellPlan
	queue      []*transformer.Row
	done       bool
	closed     bool
	rows       int
	comments   []string

	errors   []transformer.ErrorMessage
	warnings []transformer.ErrorMessage
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for progress lines.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.log = l
		}
	}
}

// NewValidator prepares to read src as the given table. table may be nil,
// in which case every column is an untyped string column named by the
// header.
func NewValidator(src io.ReadCloser, table *schema.Table, d Dialect, opts ...Option) *Validator {
	v := &Validator{
		src:        src,
		table:      table,
		d:          d,
		log:        slog.Default(),
		nextLine:   1,
		headerLeft: d.HeaderRowCount,
	}
	for _, o := range opts {
		o(v)
	}

	var r io.Reader = src
	if enc := strings.ToLower(d.Encoding); enc != "" && enc != "utf-8" && enc != "utf8" {
		e, err := htmlindex.Get(enc)
		if err != nil {
			v.warnf(TypeEncoding, 0, 0, d.Encoding)
		} else {
			r = e.NewDecoder().Reader(src)
		}
	}
	v.lines = &lineCounter{r: r}

	cr := csv.NewReader(v.lines)
	cr.Comma = d.comma()
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = d.LazyQuotes
	cr.TrimLeadingSpace = d.SkipInitialSpace
	cr.ReuseRecord = true
	v.cr = cr
	return v
}

// Next returns the next row, io.EOF after the last one.
func (v *Validator) Next(ctx context.Context) (*transformer.Row, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(v.queue) > 0 {
			r := v.queue[0]
			v.queue = v.queue[1:]
			return r, nil
		}
		if v.done {
			return nil, io.EOF
		}
		if err := v.readRecord(); err != nil {
			return nil, err
		}
	}
}

// Errors returns the data-row errors found so far. Header errors travel on
// the header row instead.
func (v *Validator) Errors() []transformer.ErrorMessage { return v.errors }

// Warnings returns the warnings found so far.
func (v *Validator) Warnings() []transformer.ErrorMessage { return v.warnings }

// Comments returns the comment lines skipped so far.
func (v *Validator) Comments() []string { return v.comments }

// Close closes the underlying source. It is safe to call twice.
func (v *Validator) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	return v.src.Close()
}

func (v *Validator) readRecord() error {
	rec, err := v.cr.Read()
	if errors.Is(err, io.EOF) {
		v.blankLines(v.lines.terminatedLines() + 1)
		v.done = true
		v.log.Debug("reader done", "rows", v.rows, "errors", len(v.errors), "warnings", len(v.warnings))
		return nil
	}
	if err != nil {
		var pe *csv.ParseError
		if !errors.As(err, &pe) {
			return fmt.Errorf("csv: read: %w", err)
		}
		v.errorf(parseErrorType(pe), transformer.CategoryStructure, pe.StartLine, 0, pe.Err.Error())
		v.nextLine = v.lines.lineAt(v.cr.InputOffset())
		return nil
	}

	line, _ := v.cr.FieldPos(0)
	v.blankLines(line)
	v.nextLine = v.lines.lineAt(v.cr.InputOffset())

	switch {
	case line <= v.d.SkipRows:
	case v.d.CommentPrefix != "" && strings.HasPrefix(rec[0], v.d.CommentPrefix):
		v.comments = append(v.comments, strings.TrimPrefix(strings.Join(rec, string(v.d.comma())), v.d.CommentPrefix))
	case allEmpty(rec):
		v.blankRow(line)
	case v.headerLeft > 0:
		v.readHeader(rec, line)
	default:
		v.queue = append(v.queue, v.dataRow(rec, line))
	}
	return nil
}

// blankLines queues blank rows for the lines encoding/csv skipped before
// line upTo.
func (v *Validator) blankLines(upTo int) {
	for l := v.nextLine; l < upTo; l++ {
		if l > v.d.SkipRows {
			v.blankRow(l)
		}
	}
}

func (v *Validator) blankRow(line int) {
	if v.d.SkipBlankRows {
		return
	}
	v.queue = append(v.queue, v.row(line, nil, true))
}

func (v *Validator) row(line int, cells []any, blank bool) *transformer.Row {
	return &transformer.Row{
		Line:           line,
		Header:         v.header,
		Cells:          cells,
		Blank:          blank,
		HeaderRowCount: v.d.HeaderRowCount,
		SkipRows:       v.d.SkipRows,
	}
}

func (v *Validator) readHeader(rec []string, line int) {
	v.headerLeft--
	cells := make([]string, len(rec))
	copy(cells, rec)
	cells = StripHeaderBOM(cells)
	for i, h := range cells {
		cells[i] = strings.TrimSpace(norm.NFC.String(h))
	}

	first := v.header == nil
	if first {
		v.header = cells
		v.width = len(cells)
	}
	vals := make([]any, len(cells))
	for i, c := range cells {
		vals[i] = c
	}
	r := v.row(line, vals, false)
	r.HeaderRow = true
	if first {
		r.Errors = v.checkHeader(cells, line)
	}
	v.queue = append(v.queue, r)
}

// checkHeader validates the header cells and returns the problems found.
// Mismatches against schema titles are warnings.
func (v *Validator) checkHeader(cells []string, line int) []transformer.ErrorMessage {
	var errs []transformer.ErrorMessage
	seen := map[string]int{}
	for i, h := range cells {
		if h == "" {
			errs = append(errs, transformer.ErrorMessage{
				Type: TypeEmptyColumnName, Category: transformer.CategoryStructure, Row: line, Column: i + 1,
			})
			continue
		}
		if prev, dup := seen[h]; dup {
			errs = append(errs, transformer.ErrorMessage{
				Type: TypeDuplicateColumn, Category: transformer.CategorySchema, Row: line, Column: i + 1,
				Content: fmt.Sprintf("%q repeats column %d", h, prev),
			})
			continue
		}
		seen[h] = i + 1
	}
	if v.table == nil {
		return errs
	}
	for i, col := range v.realColumns() {
		if i >= len(cells) || cells[i] == "" || len(col.Titles) == 0 {
			continue
		}
		if !matchesTitle(col, cells[i]) {
			v.warnf(TypeInvalidHeader, line, i+1, cells[i])
		}
	}
	return errs
}

func matchesTitle(col *schema.Column, h string) bool {
	for _, t := range col.Titles {
		if t == h {
			return true
		}
	}
	return col.Name == h
}

func (v *Validator) realColumns() []*schema.Column {
	if v.table == nil {
		return nil
	}
	cols := make([]*schema.Column, 0, len(v.table.Columns))
	for _, c := range v.table.Columns {
		if !c.Virtual {
			cols = append(cols, c)
		}
	}
	return cols
}

// plan returns the cell plan for the 0-based column i, compiling plans on
// first use and synthesizing string columns past the schema.
func (v *Validator) plan(i int) *cellPlan {
	if v.plans == nil {
		for _, c := range v.realColumns() {
			v.plans = append(v.plans, compilePlan(c))
		}
	}
	for len(v.plans) <= i {
		n := len(v.plans) + 1
		name := ""
		if n <= len(v.header) {
			name = v.header[n-1]
		}
		v.plans = append(v.plans, compilePlan(schema.NewSyntheticColumn(n, name)))
	}
	return v.plans[i]
}

func (v *Validator) dataRow(rec []string, line int) *transformer.Row {
	if v.width == 0 {
		v.width = len(rec)
	}
	if len(rec) != v.width {
		v.errorf(TypeRaggedRows, transformer.CategoryStructure, line, 0,
			fmt.Sprintf("%d cells, expected %d", len(rec), v.width))
	}

	cells := make([]any, len(rec))
	for i, raw := range rec {
		cells[i] = v.cell(v.plan(i), raw, line, i+1)
	}
	for i, c := range v.realColumns() {
		if i >= len(rec) && c.Required {
			v.errorf(TypeRequired, transformer.CategorySchema, line, i+1, "")
		}
	}

	v.rows++
	if v.rows%logEveryN == 0 {
		v.log.Debug("reader progress", "line", line, "rows", v.rows)
	}
	return v.row(line, cells, false)
}

func (v *Validator) cell(p *cellPlan, raw string, line, col int) any {
	s := v.d.trim(raw)
	if s == "" && p.col.Default != "" {
		s = p.col.Default
	}
	if p.col.Separator != nil && s == "" {
		if p.required {
			v.errorf(TypeRequired, transformer.CategorySchema, line, col, raw)
		}
		return []any{}
	}
	if _, null := p.null[s]; null {
		if p.required {
			v.errorf(TypeRequired, transformer.CategorySchema, line, col, raw)
		}
		return nil
	}
	if p.col.Separator != nil {
		parts := strings.Split(s, *p.col.Separator)
		items := make([]any, 0, len(parts))
		for _, part := range parts {
			part = v.d.trim(part)
			if _, null := p.null[part]; null {
				continue
			}
			items = append(items, v.typed(p, part, line, col))
		}
		return items
	}
	return v.typed(p, s, line, col)
}

func (v *Validator) typed(p *cellPlan, s string, line, col int) any {
	val, ok := p.parse(s)
	if !ok {
		v.errorf("invalid-"+p.kind, transformer.CategorySchema, line, col, s)
		return transformer.Invalid{Raw: s}
	}
	return val
}

func (v *Validator) errorf(typ, category string, line, col int, content string) {
	v.errors = append(v.errors, transformer.ErrorMessage{
		Type: typ, Category: category, Row: line, Column: col, Content: content,
	})
}

func (v *Validator) warnf(typ string, line, col int, content string) {
	v.warnings = append(v.warnings, transformer.ErrorMessage{
		Type: typ, Category: transformer.CategoryContext, Row: line, Column: col, Content: content,
	})
}

func parseErrorType(pe *csv.ParseError) string {
	switch {
	case errors.Is(pe.Err, csv.ErrQuote):
		return TypeUnclosedQuote
	case errors.Is(pe.Err, csv.ErrBareQuote):
		return TypeStrayQuote
	case errors.Is(pe.Err, csv.ErrFieldCount):
		return TypeRaggedRows
	}
	return TypeInvalidCSV
}

func allEmpty(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}
