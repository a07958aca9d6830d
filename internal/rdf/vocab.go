package rdf

// Namespaces used by the transformer output.
const (
	NSRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSXSD  = "http://www.w3.org/2001/XMLSchema#"
	NSCSVW = "http://www.w3.org/ns/csvw#"
)

var (
	RDFType       = IRI{NSRDF + "type"}
	RDFFirst      = IRI{NSRDF + "first"}
	RDFRest       = IRI{NSRDF + "rest"}
	RDFNil        = IRI{NSRDF + "nil"}
	RDFLangString = IRI{NSRDF + "langString"}

	XSDString  = IRI{NSXSD + "string"}
	XSDBoolean = IRI{NSXSD + "boolean"}
	XSDInteger = IRI{NSXSD + "integer"}
	XSDDouble  = IRI{NSXSD + "double"}

	CSVWTableGroup = IRI{NSCSVW + "TableGroup"}
	CSVWTable      = IRI{NSCSVW + "Table"}
	CSVWRow        = IRI{NSCSVW + "Row"}
	CSVWTableProp  = IRI{NSCSVW + "table"}
	CSVWRowProp    = IRI{NSCSVW + "row"}
	CSVWURL        = IRI{NSCSVW + "url"}
	CSVWRownum     = IRI{NSCSVW + "rownum"}
	CSVWDescribes  = IRI{NSCSVW + "describes"}
	CSVWTitle      = IRI{NSCSVW + "title"}
	CSVWNote       = IRI{NSCSVW + "note"}
)

// DefaultPrefixes are used by WriteTurtle when the caller passes none.
var DefaultPrefixes = map[string]string{
	"rdf":  NSRDF,
	"xsd":  NSXSD,
	"csvw": NSCSVW,
}
