package rdf

import (
	"fmt"
	"strings"

	"github.com/piprate/json-gold/ld"
)

// Canonicalize returns the URDNA2015 canonical N-Quads serialization of the
// distinct statements in g. Two graphs are isomorphic exactly when their
// canonical forms are byte-identical.
func Canonicalize(g *Graph) (string, error) {
	return canonicalizeTriples(g.Unique())
}

func canonicalizeTriples(triples []Triple) (string, error) {
	dataset := ld.NewRDFDataset()
	quads := make([]*ld.Quad, 0, len(triples))
	for _, t := range triples {
		quads = append(quads, ld.NewQuad(toLDNode(t.S), toLDNode(t.P), toLDNode(t.O), "@default"))
	}
	dataset.Graphs["@default"] = quads

	api := ld.NewJsonLdApi()
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	opts.Algorithm = ld.AlgorithmURDNA2015
	normalized, err := api.Normalize(dataset, opts)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	value, ok := normalized.(string)
	if !ok {
		return "", fmt.Errorf("canonicalize: unexpected normalization result %T", normalized)
	}
	return value, nil
}

// CanonicalizeNTriples parses an N-Triples (or N-Quads default graph)
// document and returns its canonical form. It is used to compare a
// transformation result with an expected document.
func CanonicalizeNTriples(doc string) (string, error) {
	serializer := &ld.NQuadRDFSerializer{}
	dataset, err := serializer.Parse(doc)
	if err != nil {
		return "", fmt.Errorf("canonicalize: parse: %w", err)
	}
	api := ld.NewJsonLdApi()
	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	opts.Algorithm = ld.AlgorithmURDNA2015
	normalized, err := api.Normalize(dataset, opts)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	value, ok := normalized.(string)
	if !ok {
		return "", fmt.Errorf("canonicalize: unexpected normalization result %T", normalized)
	}
	return value, nil
}

func toLDNode(t Term) ld.Node {
	switch v := t.(type) {
	case IRI:
		return ld.NewIRI(v.Value)
	case BlankNode:
		return ld.NewBlankNode("_:" + v.ID)
	case Literal:
		if v.Lang != "" {
			return ld.NewLiteral(v.Lexical, ld.RDFLangString, strings.ToLower(v.Lang))
		}
		dt := v.Datatype.Value
		if dt == "" {
			dt = ld.XSDString
		}
		return ld.NewLiteral(v.Lexical, dt, "")
	default:
		return nil
	}
}
