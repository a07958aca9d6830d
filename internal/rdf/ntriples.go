package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteNTriples writes the distinct statements of g as N-Triples.
func WriteNTriples(w io.Writer, g *Graph) error {
	return WriteNTriplesFrom(w, g.Unique())
}

// WriteNTriplesFrom writes the given statements as N-Triples lines.
func WriteNTriplesFrom(w io.Writer, triples []Triple) error {
	bw := bufio.NewWriter(w)
	for _, t := range triples {
		if _, err := bw.WriteString(t.String()); err != nil {
			return fmt.Errorf("ntriples: write: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("ntriples: write: %w", err)
		}
	}
	return bw.Flush()
}

func renderIRI(iri IRI) string {
	return "<" + escapeIRI(iri.Value) + ">"
}

// renderTerm renders a term; when prefixes is non-nil IRIs are abbreviated
// to QNames where possible (Turtle).
func renderTerm(term Term, prefixes map[string]string) string {
	switch value := term.(type) {
	case IRI:
		if prefixes != nil {
			if q, ok := abbreviateQName(value.Value, prefixes); ok {
				return q
			}
		}
		return renderIRI(value)
	case BlankNode:
		return value.String()
	case Literal:
		return renderLiteral(value, prefixes)
	default:
		return ""
	}
}

func renderLiteral(l Literal, prefixes map[string]string) string {
	quoted := `"` + escapeLiteral(l.Lexical) + `"`
	if l.Lang != "" {
		return quoted + "@" + l.Lang
	}
	if l.Datatype.Value != "" && l.Datatype != XSDString {
		return quoted + "^^" + renderTerm(l.Datatype, prefixes)
	}
	return quoted
}

// escapeLiteral applies the N-Triples ECHAR/UCHAR rules for string content.
func escapeLiteral(s string) string {
	if !strings.ContainsAny(s, "\"\\\n\r\t\b\f") && !hasControl(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return true
		}
	}
	return false
}

// escapeIRI escapes characters that may not appear inside <...>.
func escapeIRI(s string) string {
	if !strings.ContainsAny(s, "<>\"{}|^`\\ ") && !hasControl(s) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			fmt.Fprintf(&b, `\u%04X`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
