// Package probe samples the head of a CSV table and drafts CSVW metadata
// for it: delimiter, column names and titles, and the narrowest datatype
// each column's sampled values fit. The draft is a starting point for a
// hand-edited metadata file, not a guarantee about the whole table.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/theodi/csv2rdf/internal/datasource"
)

// DefaultMaxBytes is how much of a table is sampled when Options.MaxBytes
// is zero.
const DefaultMaxBytes = 1 << 20

// ErrNoHeader is returned when the sample holds no header row.
var ErrNoHeader = errors.New("probe: sample has no header row")

// PeekFunc returns at most n leading bytes of url.
type PeekFunc func(ctx context.Context, url string, n int) ([]byte, error)

// Options controls a probe.
type Options struct {
	// URL is the table to sample.
	URL string
	// TableURL is written as the metadata "url"; defaults to URL.
	TableURL string
	// MaxBytes caps the sample size.
	MaxBytes int
	// Delimiter overrides delimiter sniffing when non-zero.
	Delimiter rune
	// Peek fetches the sample; defaults to datasource.Peek.
	Peek PeekFunc
}

// Result is what a probe learned.
type Result struct {
	TableURL  string
	Delimiter rune
	Columns   []Column
	// Rows is the number of sampled data rows.
	Rows int
}

// Probe samples opt.URL and infers its columns.
func Probe(ctx context.Context, opt Options) (*Result, error) {
	peek := opt.Peek
	if peek == nil {
		peek = datasource.Peek
	}
	n := opt.MaxBytes
	if n <= 0 {
		n = DefaultMaxBytes
	}
	data, err := peek(ctx, opt.URL, n)
	if err != nil {
		return nil, fmt.Errorf("probe: sample %s: %w", opt.URL, err)
	}
	// A full sample likely ends mid-record.
	if len(data) == n {
		if i := bytes.LastIndexByte(data, '\n'); i > 0 {
			data = data[:i+1]
		}
	}

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}
	headers, rows := readSample(data, delim)
	if len(headers) == 0 {
		return nil, ErrNoHeader
	}

	res := &Result{
		TableURL:  opt.TableURL,
		Delimiter: delim,
		Columns:   inferColumns(headers, rows),
		Rows:      len(rows),
	}
	if res.TableURL == "" {
		res.TableURL = opt.URL
	}
	return res, nil
}

// DecodeDelimiter turns a flag value into a delimiter rune. "" means sniff;
// `\t` and "tab" mean a tab.
func DecodeDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("probe: delimiter must be a single character (got %q)", s)
	}
	return r, nil
}

type metadataDoc struct {
	Context     string       `json:"@context"`
	URL         string       `json:"url"`
	Dialect     *dialectDoc  `json:"dialect,omitempty"`
	TableSchema tableSchemaD `json:"tableSchema"`
}

type dialectDoc struct {
	Delimiter string `json:"delimiter"`
}

type tableSchemaD struct {
	Columns []columnDoc `json:"columns"`
}

type columnDoc struct {
	Name     string `json:"name"`
	Titles   string `json:"titles"`
	Datatype any    `json:"datatype,omitempty"`
	Required bool   `json:"required,omitempty"`
}

type datatypeDoc struct {
	Base   string `json:"base"`
	Format string `json:"format"`
}

// Metadata renders r as an indented CSVW metadata document.
func (r *Result) Metadata() ([]byte, error) {
	doc := metadataDoc{
		Context: "http://www.w3.org/ns/csvw",
		URL:     r.TableURL,
	}
	if r.Delimiter != ',' && r.Delimiter != 0 {
		doc.Dialect = &dialectDoc{Delimiter: string(r.Delimiter)}
	}
	doc.TableSchema.Columns = make([]columnDoc, len(r.Columns))
	for i, c := range r.Columns {
		cd := columnDoc{Name: c.Name, Titles: c.Title, Required: c.Required}
		switch {
		case c.Format != "":
			cd.Datatype = datatypeDoc{Base: c.Datatype, Format: c.Format}
		case c.Datatype != "string":
			cd.Datatype = c.Datatype
		}
		doc.TableSchema.Columns[i] = cd
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// WriteMetadata writes r.Metadata to w.
func (r *Result) WriteMetadata(w io.Writer) error {
	b, err := r.Metadata()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
