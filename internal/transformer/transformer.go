// Package transformer turns validated CSV rows into RDF statements following
// the CSVW csv2rdf mapping.
//
// Design goals:
//   - Rows are pulled one at a time from a RowSource; nothing is buffered
//     beyond the output graph.
//   - Per-table state (columns, compiled URI templates, row counter) lives in
//     a tableContext built once per table, so no lookups repeat per cell.
//   - Cell values arrive already typed by the validator; this package only
//     maps them onto RDF terms.
package transformer

import (
	"context"
	"errors"
	"fmt"
)

// Error categories, mirroring the validator.
const (
	CategoryStructure = "structure"
	CategorySchema    = "schema"
	CategoryContext   = "context"
)

// Error and warning types raised by the transformer itself. Validator
// messages keep their own types.
const (
	TypeBlankRows       = "blank-rows"
	TypeInvalidTemplate = "invalid-template"
	TypeMetadata        = "metadata"
	TypeSource          = "source-unavailable"
)

// ErrNoInput is returned when a session has neither a source URL nor a schema.
var ErrNoInput = errors.New("transformer: no CSV source or schema given")

// ErrorMessage is one structured validation or transformation problem.
type ErrorMessage struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	// Row is the 1-based physical line, 0 when not row specific.
	Row int `json:"row,omitempty"`
	// Column is the 1-based column, 0 when not cell specific.
	Column  int    `json:"column,omitempty"`
	Content string `json:"content,omitempty"`
}

func (e ErrorMessage) String() string {
	s := e.Category + "/" + e.Type
	if e.Row > 0 {
		s += fmt.Sprintf(" row %d", e.Row)
	}
	if e.Column > 0 {
		s += fmt.Sprintf(" column %d", e.Column)
	}
	if e.Content != "" {
		s += ": " + e.Content
	}
	return s
}

// Row is one physical CSV line as seen by the transformer.
type Row struct {
	// Line is the 1-based physical line number.
	Line int
	// Header holds the table's header cells; the same slice for every row.
	Header []string
	// Cells are the typed values: nil (missing), string, int64,
	// decimal.Decimal, float64, bool, Temporal, Invalid or []any for
	// separator-split cells.
	Cells []any
	// Blank marks an empty line.
	Blank bool
	// HeaderRow marks a header line regardless of its position.
	HeaderRow bool

	HeaderRowCount int
	SkipRows       int

	// Errors are problems the validator found before this row (header
	// problems, dialect problems). Only the first row of a table carries
	// them and RowSource.Errors does not repeat them.
	Errors []ErrorMessage
}

// IsData reports whether the row lies past the header rows.
func (r *Row) IsData() bool {
	return !r.HeaderRow && r.Line > r.SkipRows+r.HeaderRowCount
}

// RowSource yields the rows of one table in order. Next returns io.EOF after
// the last row. Errors and Warnings are complete once Next has returned
// io.EOF.
type RowSource interface {
	Next(ctx context.Context) (*Row, error)
	Errors() []ErrorMessage
	Warnings() []ErrorMessage
	Close() error
}

// Invalid wraps a cell that failed datatype validation. It is emitted as a
// plain literal of the raw text.
type Invalid struct {
	Raw string
}

func (i Invalid) String() string { return i.Raw }
