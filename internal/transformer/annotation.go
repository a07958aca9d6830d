package transformer

import (
	"encoding/json"
	"strconv"

	"github.com/theodi/csv2rdf/internal/rdf"
	"github.com/theodi/csv2rdf/internal/schema"
)

// EmitAnnotation writes the statements for one metadata annotation about
// subject. property is a compact or absolute IRI.
func EmitAnnotation(g *rdf.Graph, subject rdf.Term, property string, value schema.Annotation) {
	emitAnnotation(g, subject, rdf.IRI{Value: ExpandPrefixes(property)}, value)
}

func emitAnnotation(g *rdf.Graph, subject rdf.Term, p rdf.IRI, value schema.Annotation) {
	switch value.Kind {
	case schema.KindReference:
		g.Add(subject, p, rdf.IRI{Value: value.ID})
	case schema.KindValue:
		lex := scalarLexical(value.Value)
		if value.Type != "" {
			g.Add(subject, p, rdf.NewTypedLiteral(lex, rdf.IRI{Value: ExpandPrefixes(value.Type)}))
			return
		}
		g.Add(subject, p, rdf.NewLangLiteral(lex, value.Language))
	case schema.KindNode:
		node := g.NewBlankNode()
		g.Add(subject, p, node)
		for _, t := range value.Types {
			g.Add(node, rdf.RDFType, rdf.IRI{Value: ExpandPrefixes(t)})
		}
		for _, prop := range value.Properties {
			EmitAnnotation(g, node, prop.Name, prop.Value)
		}
	case schema.KindArray:
		for _, item := range value.Items {
			emitAnnotation(g, subject, p, item)
		}
	default:
		g.Add(subject, p, scalarLiteral(value.Value))
	}
}

// scalarLiteral maps a bare JSON scalar to its natural literal.
func scalarLiteral(v any) rdf.Literal {
	switch t := v.(type) {
	case string:
		return rdf.NewLiteral(t)
	case bool:
		return rdf.NewBoolean(t)
	case json.Number:
		if schema.IsInteger(t) {
			return rdf.NewTypedLiteral(t.String(), rdf.XSDInteger)
		}
		if f, err := t.Float64(); err == nil {
			return rdf.NewTypedLiteral(CanonicalDouble(f), rdf.XSDDouble)
		}
		return rdf.NewTypedLiteral(t.String(), rdf.XSDDouble)
	case float64:
		if t == float64(int64(t)) {
			return rdf.NewInteger(int64(t))
		}
		return rdf.NewTypedLiteral(CanonicalDouble(t), rdf.XSDDouble)
	case int:
		return rdf.NewInteger(int64(t))
	case int64:
		return rdf.NewInteger(t)
	}
	return rdf.NewLiteral(stringOf(v))
}

func scalarLexical(v any) string {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return stringOf(v)
}
