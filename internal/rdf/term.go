// Package rdf is the small RDF model produced by the CSV-to-RDF transformer.
//
// It provides:
//   - Terms: IRI, BlankNode and Literal (typed or language tagged).
//   - Graph: an append-only statement log with a per-graph blank node
//     allocator, so identifiers are unique within one transformation session.
//   - Writers: N-Triples, Turtle (prefix-abbreviated) and a canonical
//     URDNA2015 N-Quads form used for byte-for-byte graph comparison.
//
// The package is deliberately unaware of CSV or CSVW; callers build terms
// and append triples.
package rdf

import (
	"strconv"
	"strings"
)

// TermKind identifies RDF term types.
type TermKind uint8

const (
	// TermIRI represents an IRI term.
	TermIRI TermKind = iota
	// TermBlankNode represents a blank node term.
	TermBlankNode
	// TermLiteral represents a literal term.
	TermLiteral
)

// String returns the lower-case kind name used in storage rows.
func (k TermKind) String() string {
	switch k {
	case TermIRI:
		return "iri"
	case TermBlankNode:
		return "bnode"
	case TermLiteral:
		return "literal"
	default:
		return "unknown"
	}
}

// Term is a value that can appear in RDF statements.
type Term interface {
	Kind() TermKind
	String() string
}

// IRI represents an RDF IRI.
type IRI struct {
	// Value is the absolute IRI string.
	Value string
}

// Kind returns TermIRI.
func (i IRI) Kind() TermKind { return TermIRI }

// String returns the IRI value.
func (i IRI) String() string { return i.Value }

// BlankNode represents an RDF blank node.
type BlankNode struct {
	// ID is the blank node identifier without the "_:" prefix.
	ID string
}

// Kind returns TermBlankNode.
func (b BlankNode) Kind() TermKind { return TermBlankNode }

// String returns the blank node identifier prefixed with "_:".
func (b BlankNode) String() string { return "_:" + b.ID }

// Literal represents an RDF literal. A literal with neither Datatype nor
// Lang is a simple literal (xsd:string).
type Literal struct {
	// Lexical is the lexical form of the literal.
	Lexical string
	// Datatype is the datatype IRI, if any.
	Datatype IRI
	// Lang is the language tag, if any.
	Lang string
}

// Kind returns TermLiteral.
func (l Literal) Kind() TermKind { return TermLiteral }

// String returns the N-Triples rendering of the literal.
func (l Literal) String() string { return renderLiteral(l, nil) }

// DatatypeIRI returns the effective datatype: rdf:langString for tagged
// literals, xsd:string for simple literals.
func (l Literal) DatatypeIRI() IRI {
	switch {
	case l.Lang != "":
		return RDFLangString
	case l.Datatype.Value == "":
		return XSDString
	default:
		return l.Datatype
	}
}

// NewLiteral returns a simple (xsd:string) literal.
func NewLiteral(lexical string) Literal { return Literal{Lexical: lexical} }

// NewTypedLiteral returns a literal with the given datatype. The xsd:string
// datatype is normalized to a simple literal so equal values compare equal.
func NewTypedLiteral(lexical string, datatype IRI) Literal {
	if datatype == XSDString {
		return Literal{Lexical: lexical}
	}
	return Literal{Lexical: lexical, Datatype: datatype}
}

// NewLangLiteral returns a language tagged literal. An empty tag yields a
// simple literal.
func NewLangLiteral(lexical, lang string) Literal {
	if lang == "" {
		return Literal{Lexical: lexical}
	}
	return Literal{Lexical: lexical, Lang: strings.ToLower(lang)}
}

// NewBoolean returns an xsd:boolean literal.
func NewBoolean(v bool) Literal {
	return Literal{Lexical: strconv.FormatBool(v), Datatype: XSDBoolean}
}

// NewInteger returns an xsd:integer literal.
func NewInteger(v int64) Literal {
	return Literal{Lexical: strconv.FormatInt(v, 10), Datatype: XSDInteger}
}

// Triple is a single RDF statement.
type Triple struct {
	S Term
	P IRI
	O Term
}

// String renders the triple as one N-Triples line without the newline.
func (t Triple) String() string {
	return renderTerm(t.S, nil) + " " + renderTerm(t.P, nil) + " " + renderTerm(t.O, nil) + " ."
}

// key is a collision-free identity used for de-duplication.
func (t Triple) key() string {
	return termKey(t.S) + "\x00" + t.P.Value + "\x00" + termKey(t.O)
}

func termKey(t Term) string {
	switch v := t.(type) {
	case IRI:
		return "I" + v.Value
	case BlankNode:
		return "B" + v.ID
	case Literal:
		return "L" + v.Lexical + "\x01" + v.Datatype.Value + "\x01" + v.Lang
	default:
		return ""
	}
}
