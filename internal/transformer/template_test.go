package transformer

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodi/csv2rdf/internal/rdf"
)

func TestExpandPrefixes(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"dc:title":           "http://purl.org/dc/terms/title",
		"schema:Person":      "http://schema.org/Person",
		"Row":                rdf.NSCSVW + "Row",
		"dc":                 rdf.NSCSVW + "dc",
		"http://e.org/x":     "http://e.org/x",
		"unknown:thing":      "unknown:thing",
		"relative/path#frag": "relative/path#frag",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExpandPrefixes(in), "input %q", in)
	}
}

func TestResolveTemplate(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("http://example.org/data/people.csv")
	require.NoError(t, err)

	b := Bindings{
		"id":   rdf.NewTypedLiteral("1", rdf.XSDInteger),
		"kind": rdf.NewLiteral("Person"),
		"tags": []rdf.Term{rdf.NewLiteral("a"), rdf.NewLiteral("b")},
		"_row": 3,
	}
	cases := []struct {
		name   string
		tmpl   string
		expand bool
		want   string
	}{
		{"absolute", "http://example.org/person/{id}", false, "http://example.org/person/1"},
		{"relative", "person/{id}", false, "http://example.org/data/person/1"},
		{"fragment", "#row{_row}", false, "http://example.org/data/people.csv#row3"},
		{"prefixed", "schema:{kind}", true, "http://schema.org/Person"},
		{"prefixed_no_expand", "schema:{kind}", false, "schema:Person"},
		{"list", "http://e.org/{tags}", false, "http://e.org/a,b"},
		{"unbound", "http://e.org/{missing}", false, "http://e.org/"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveTemplate(tc.tmpl, b, base, tc.expand)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Value)
		})
	}

	_, err = ParseTemplate("http://e.org/{id")
	assert.Error(t, err)
}

func TestDefaultPropertyAndRowURL(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("http://example.org/t.csv#old")
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/t.csv#Full%20Name", DefaultPropertyURL(base, "Full Name").Value)
	assert.Equal(t, "http://example.org/t.csv#_col.2", DefaultPropertyURL(base, "_col.2").Value)
	assert.Equal(t, "http://example.org/t.csv#row=4", RowURL(base, 4).Value)
}
