package transformer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"github.com/theodi/csv2rdf/internal/rdf"
)

// Bindings are the variables available to a URI template: column values
// (rdf.Term or []rdf.Term) plus the integer/string row variables _row,
// _sourceRow, _column, _sourceColumn and _name.
type Bindings map[string]any

// Template is a parsed RFC 6570 URI template.
type Template struct {
	raw string
	t   *uritemplate.Template
}

// ParseTemplate parses s once so it can be expanded for every row.
func ParseTemplate(s string) (*Template, error) {
	t, err := uritemplate.New(s)
	if err != nil {
		return nil, fmt.Errorf("uri template %q: %w", s, err)
	}
	return &Template{raw: s, t: t}, nil
}

func (t *Template) String() string { return t.raw }

// Expand substitutes the bindings. Unbound variables expand to nothing.
func (t *Template) Expand(b Bindings) (string, error) {
	vals := uritemplate.Values{}
	for _, name := range t.t.Varnames() {
		switch v := b[name].(type) {
		case nil:
		case []rdf.Term:
			items := make([]string, 0, len(v))
			for _, term := range v {
				items = append(items, termText(term))
			}
			vals.Set(name, uritemplate.List(items...))
		case rdf.Term:
			vals.Set(name, uritemplate.String(termText(v)))
		case int:
			vals.Set(name, uritemplate.String(strconv.Itoa(v)))
		case string:
			vals.Set(name, uritemplate.String(v))
		default:
			vals.Set(name, uritemplate.String(fmt.Sprint(v)))
		}
	}
	s, err := t.t.Expand(vals)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", t.raw, err)
	}
	return s, nil
}

// Resolve expands the template, optionally expands a leading prefix and
// resolves the result against base.
func (t *Template) Resolve(b Bindings, base *url.URL, expandPrefixes bool) (rdf.IRI, error) {
	s, err := t.Expand(b)
	if err != nil {
		return rdf.IRI{}, err
	}
	if expandPrefixes {
		s = ExpandPrefixes(s)
	}
	return resolveIRI(base, s)
}

// ResolveTemplate parses and resolves tmpl in one step.
func ResolveTemplate(tmpl string, b Bindings, base *url.URL, expandPrefixes bool) (rdf.IRI, error) {
	t, err := ParseTemplate(tmpl)
	if err != nil {
		return rdf.IRI{}, err
	}
	return t.Resolve(b, base, expandPrefixes)
}

// DefaultPropertyURL is the predicate of a column without propertyUrl: the
// table URL with its fragment replaced by the escaped column name.
func DefaultPropertyURL(base *url.URL, name string) rdf.IRI {
	u := *base
	u.Fragment = ""
	u.RawFragment = ""
	return rdf.IRI{Value: u.String() + "#" + escapeName(name)}
}

// RowURL is the csvw:url of a row: the table URL with a row fragment.
func RowURL(base *url.URL, line int) rdf.IRI {
	u := *base
	u.Fragment = ""
	u.RawFragment = ""
	return rdf.IRI{Value: u.String() + "#row=" + strconv.Itoa(line)}
}

func resolveIRI(base *url.URL, ref string) (rdf.IRI, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return rdf.IRI{}, fmt.Errorf("resolve %q: %w", ref, err)
	}
	if base == nil || r.IsAbs() {
		return rdf.IRI{Value: r.String()}, nil
	}
	return rdf.IRI{Value: base.ResolveReference(r).String()}, nil
}

// escapeName percent-encodes everything but letters, digits, "_", "." and
// existing escapes.
func escapeName(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '_', c == '.', c == '%':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func termText(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.Literal:
		return v.Lexical
	case rdf.IRI:
		return v.Value
	case rdf.BlankNode:
		return v.ID
	}
	return t.String()
}
