// Package schema is the structural model of annotated tabular data: a table
// group holding tables, each with ordered columns, datatypes, URI templates
// and annotations. It also loads that model from CSVW metadata documents and
// JSON-Table schemas.
//
// The model is resolved: inherited properties (aboutUrl, datatype, lang, ...)
// have already cascaded down to the columns, datatype names are absolute
// IRIs and table URLs are absolute. Consumers never look at the source JSON,
// except through Annotation values.
package schema

import (
	"strconv"
)

// XSD namespace, used for built-in datatypes.
const (
	NSXSD  = "http://www.w3.org/2001/XMLSchema#"
	NSRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSCSVW = "http://www.w3.org/ns/csvw#"
)

// XSDString is the default column datatype.
const XSDString = NSXSD + "string"

// UndeterminedLang is the default column language.
const UndeterminedLang = "und"

// TableGroup is the root of a loaded schema.
type TableGroup struct {
	// ID is the declared @id of the group, if any.
	ID string
	// Tables are in declaration order.
	Tables []*Table
	// Annotations are the group's common properties (prefixed names or
	// absolute IRIs), in key order.
	Annotations []Property
	// Warnings are non-fatal problems found while loading (unknown datatype
	// names, invalid language tags, ignored properties).
	Warnings []string
}

// Table describes one CSV file.
type Table struct {
	// URL is the absolute URL of the CSV file.
	URL string
	// ID is the declared @id; empty means a fresh blank node per run.
	ID string
	// SuppressOutput excludes the table's rows from the output graph.
	SuppressOutput bool
	// Notes are emitted as csvw:note annotations.
	Notes []Annotation
	// Annotations are the table's common properties.
	Annotations []Property
	// Columns in schema order.
	Columns []*Column
	// RowTitles lists the column names used for csvw:title.
	RowTitles []string
	// Dialect is the merged raw dialect description (group then table).
	Dialect map[string]any
}

// Datatype is a column datatype descriptor. ID and Base are absolute IRIs.
type Datatype struct {
	// ID is the datatype identifier (derived datatype @id or built-in IRI).
	ID string
	// Base is the built-in datatype ID derives from; empty for built-ins.
	Base string
	// Format is the CSVW format string: a regular expression for strings,
	// a "true|false" vocabulary for booleans, a date pattern for dates or a
	// number pattern.
	Format string
	// DecimalChar and GroupChar tune numeric parsing.
	DecimalChar string
	GroupChar   string
}

// Resolve returns the effective datatype ID and base, defaulting both to
// xsd:string: base falls back to ID and ID falls back to base.
func (d Datatype) Resolve() (id, base string) {
	base = d.Base
	if base == "" {
		base = d.ID
	}
	id = d.ID
	if id == "" {
		id = base
	}
	if id == "" {
		id, base = XSDString, XSDString
	}
	return id, base
}

// Column describes one column of a table.
type Column struct {
	// Number is the 1-based column position.
	Number int
	// Name is the column name; empty means DefaultName is used.
	Name   string
	Titles []string

	Datatype Datatype
	// Lang is the language of string cells; "und" means none.
	Lang string
	// Null lists the cell strings that mean "no value".
	Null    []string
	Default string
	// Separator splits a cell into a sequence; nil means single-valued.
	Separator *string
	Ordered   bool
	Required  bool

	Virtual        bool
	SuppressOutput bool

	// URI templates (RFC 6570); empty when absent.
	AboutURL    string
	PropertyURL string
	ValueURL    string
}

// DefaultName is the fallback name "_col.N".
func (c *Column) DefaultName() string {
	return "_col." + strconv.Itoa(c.Number)
}

// EffectiveName is Name, or DefaultName when Name is empty.
func (c *Column) EffectiveName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.DefaultName()
}

// NewSyntheticColumn builds a column for a header cell that has no schema
// definition: xsd:string, language "und", empty string as null.
func NewSyntheticColumn(number int, name string) *Column {
	c := &Column{
		Number:   number,
		Name:     name,
		Datatype: Datatype{ID: XSDString},
		Lang:     UndeterminedLang,
		Null:     []string{""},
	}
	if name != "" {
		c.Titles = []string{name}
	}
	return c
}
