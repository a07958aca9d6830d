package transformer

import (
	"sort"
	"strings"

	"github.com/theodi/csv2rdf/internal/rdf"
)

// Namespaces are the well-known prefixes recognised in property URLs,
// value URLs, annotation names and annotation datatypes.
var Namespaces = map[string]string{
	"dcat":    "http://www.w3.org/ns/dcat#",
	"qb":      "http://purl.org/linked-data/cube#",
	"grddl":   "http://www.w3.org/2003/g/data-view#",
	"ma":      "http://www.w3.org/ns/ma-ont#",
	"org":     "http://www.w3.org/ns/org#",
	"owl":     "http://www.w3.org/2002/07/owl#",
	"prov":    "http://www.w3.org/ns/prov#",
	"rdf":     rdf.NSRDF,
	"rdfa":    "http://www.w3.org/ns/rdfa#",
	"rdfs":    "http://www.w3.org/2000/01/rdf-schema#",
	"rif":     "http://www.w3.org/2007/rif#",
	"rr":      "http://www.w3.org/ns/r2rml#",
	"sd":      "http://www.w3.org/ns/sparql-service-description#",
	"skos":    "http://www.w3.org/2004/02/skos/core#",
	"skosxl":  "http://www.w3.org/2008/05/skos-xl#",
	"wdr":     "http://www.w3.org/2007/05/powder#",
	"void":    "http://rdfs.org/ns/void#",
	"wdrs":    "http://www.w3.org/2007/05/powder-s#",
	"xhv":     "http://www.w3.org/1999/xhtml/vocab#",
	"xml":     "http://www.w3.org/XML/1998/namespace",
	"xsd":     rdf.NSXSD,
	"csvw":    rdf.NSCSVW,
	"cnt":     "http://www.w3.org/2008/content",
	"earl":    "http://www.w3.org/ns/earl#",
	"ht":      "http://www.w3.org/2006/http#",
	"oa":      "http://www.w3.org/ns/oa#",
	"ptr":     "http://www.w3.org/2009/pointers#",
	"cc":      "http://creativecommons.org/ns#",
	"ctag":    "http://commontag.org/ns#",
	"dc":      "http://purl.org/dc/terms/",
	"dcterms": "http://purl.org/dc/terms/",
	"dc11":    "http://purl.org/dc/elements/1.1/",
	"foaf":    "http://xmlns.com/foaf/0.1/",
	"gr":      "http://purl.org/goodrelations/v1#",
	"ical":    "http://www.w3.org/2002/12/cal/icaltzd#",
	"og":      "http://ogp.me/ns#",
	"rev":     "http://purl.org/stuff/rev#",
	"sioc":    "http://rdfs.org/sioc/ns#",
	"v":       "http://rdf.data-vocabulary.org/#",
	"vcard":   "http://www.w3.org/2006/vcard/ns#",
	"schema":  "http://schema.org/",
}

// terms are bare names that expand into the CSVW namespace. The prefix
// names themselves are included.
var terms = func() map[string]bool {
	m := map[string]bool{}
	for _, t := range []string{
		"TableGroup", "Table", "Column", "Row", "Cell", "Schema", "Datatype",
		"Dialect", "Direction", "ForeignKey", "NumericFormat", "TableReference",
		"Transformation",
	} {
		m[t] = true
	}
	for p := range Namespaces {
		m[p] = true
	}
	return m
}()

// ExpandPrefixes expands a compact IRI ("dc:title") or a bare CSVW term
// ("Row") to an absolute IRI. Anything else is returned unchanged.
func ExpandPrefixes(s string) string {
	if terms[s] {
		return rdf.NSCSVW + s
	}
	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return s
	}
	if ns, known := Namespaces[prefix]; known {
		return ns + local
	}
	return s
}

// OutputPrefixes returns the prefixes used when writing Turtle: the
// defaults plus every namespace that occurs in the graph.
func OutputPrefixes(g *rdf.Graph) map[string]string {
	out := make(map[string]string, len(rdf.DefaultPrefixes))
	for k, v := range rdf.DefaultPrefixes {
		out[k] = v
	}
	used := map[string]bool{}
	for _, t := range g.Triples() {
		used[namespaceOf(t.P.Value)] = true
		if iri, ok := t.O.(rdf.IRI); ok {
			used[namespaceOf(iri.Value)] = true
		}
		if lit, ok := t.O.(rdf.Literal); ok {
			used[namespaceOf(lit.Datatype.Value)] = true
		}
	}
	prefixes := make([]string, 0, len(Namespaces))
	for p := range Namespaces {
		prefixes = append(prefixes, p)
	}
	// dcterms and dc share a namespace; the shorter wins.
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) < len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})
	taken := map[string]bool{}
	for _, ns := range out {
		taken[ns] = true
	}
	for _, p := range prefixes {
		ns := Namespaces[p]
		if used[ns] && !taken[ns] {
			out[p] = ns
			taken[ns] = true
		}
	}
	return out
}

func namespaceOf(iri string) string {
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 {
		return iri[:i+1]
	}
	return ""
}
