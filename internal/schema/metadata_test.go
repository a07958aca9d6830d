package schema

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupDoc = `{
  "@context": ["http://www.w3.org/ns/csvw", {"@language": "en"}],
  "dc:title": "Example group",
  "aboutUrl": "http://example.org/{id}",
  "tables": [
    {
      "url": "people.csv",
      "@id": "#people",
      "notes": [{"@id": "http://example.org/note1"}],
      "dc:creator": {"@type": "foaf:Person", "foaf:name": "Ada"},
      "tableSchema": {
        "rowTitles": "name",
        "datatype": "string",
        "columns": [
          {"name": "id", "datatype": "integer"},
          {"titles": {"en": ["Full Name"]}, "lang": "en"},
          {"name": "tags", "separator": ";", "ordered": true},
          {"name": "kind", "virtual": true, "propertyUrl": "rdf:type", "valueUrl": "schema:Person"}
        ]
      }
    },
    {"url": "hidden.csv", "suppressOutput": true}
  ]
}`

func TestLoadMetadata_TableGroup(t *testing.T) {
	t.Parallel()

	g, err := LoadMetadata(context.Background(), strings.NewReader(groupDoc), LoadOptions{
		BaseURL: "http://example.org/data/meta.json",
	})
	require.NoError(t, err)
	require.Len(t, g.Tables, 2)

	assert.Equal(t, []Property{{Name: "dc:title", Value: Scalar("Example group")}}, g.Annotations)

	people := g.Tables[0]
	assert.Equal(t, "http://example.org/data/people.csv", people.URL)
	assert.Equal(t, "http://example.org/data/meta.json#people", people.ID)
	assert.Equal(t, []string{"name"}, people.RowTitles)
	require.Len(t, people.Notes, 1)
	assert.Equal(t, Reference("http://example.org/note1"), people.Notes[0])
	require.Len(t, people.Annotations, 1)
	assert.Equal(t, KindNode, people.Annotations[0].Value.Kind)
	assert.Equal(t, []string{"foaf:Person"}, people.Annotations[0].Value.Types)

	require.Len(t, people.Columns, 4)
	id := people.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, NSXSD+"integer", id.Datatype.ID)
	assert.Equal(t, "http://example.org/{id}", id.AboutURL, "aboutUrl inherits from the group")

	name := people.Columns[1]
	assert.Equal(t, "Full%20Name", name.Name)
	assert.Equal(t, "en", name.Lang)
	assert.Equal(t, XSDString, name.Datatype.ID)

	tags := people.Columns[2]
	require.NotNil(t, tags.Separator)
	assert.Equal(t, ";", *tags.Separator)
	assert.True(t, tags.Ordered)

	kind := people.Columns[3]
	assert.True(t, kind.Virtual)
	assert.Equal(t, "rdf:type", kind.PropertyURL)
	assert.Equal(t, "schema:Person", kind.ValueURL)

	assert.True(t, g.Tables[1].SuppressOutput)
	assert.Empty(t, g.Warnings)
}

func TestLoadMetadata_SingleTableWithDatatypeObject(t *testing.T) {
	t.Parallel()

	doc := `{
	  "url": "t.csv",
	  "tableSchema": {"columns": [
	    {"name": "code", "datatype": {"base": "string", "@id": "http://example.org/Code", "format": "[A-Z]+"}},
	    {"name": "amount", "datatype": {"base": "decimal", "format": {"groupChar": ",", "decimalChar": "."}}},
	    {"name": "flag", "datatype": {"base": "boolean", "format": "Y|N"}},
	    {"name": "odd", "datatype": "nonsense"}
	  ]}
	}`
	g, err := LoadMetadata(context.Background(), strings.NewReader(doc), LoadOptions{BaseURL: "http://example.org/t.csv-metadata.json"})
	require.NoError(t, err)
	cols := g.Tables[0].Columns

	id, base := cols[0].Datatype.Resolve()
	assert.Equal(t, "http://example.org/Code", id)
	assert.Equal(t, XSDString, base)
	assert.Equal(t, "[A-Z]+", cols[0].Datatype.Format)

	id, base = cols[1].Datatype.Resolve()
	assert.Equal(t, NSXSD+"decimal", id)
	assert.Equal(t, NSXSD+"decimal", base)
	assert.Equal(t, ",", cols[1].Datatype.GroupChar)

	assert.Equal(t, "Y|N", cols[2].Datatype.Format)

	id, _ = cols[3].Datatype.Resolve()
	assert.Equal(t, XSDString, id)
	require.Len(t, g.Warnings, 1)
	assert.Contains(t, g.Warnings[0], "nonsense")
}

func TestLoadMetadata_ReferencedSchema(t *testing.T) {
	t.Parallel()

	fetched := ""
	opt := LoadOptions{
		BaseURL: "http://example.org/m.json",
		Fetch: func(_ context.Context, u string) (io.ReadCloser, error) {
			fetched = u
			return io.NopCloser(strings.NewReader(`{"columns": [{"name": "a"}]}`)), nil
		},
	}
	g, err := LoadMetadata(context.Background(), strings.NewReader(`{"url": "t.csv", "tableSchema": "s.json"}`), opt)
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/s.json", fetched)
	require.Len(t, g.Tables[0].Columns, 1)
	assert.Equal(t, "a", g.Tables[0].Columns[0].Name)
}

func TestLoadMetadata_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{"malformed_json", `{"url": `, "$"},
		{"not_object", `[1, 2]`, "$"},
		{"no_tables_or_url", `{"dc:title": "x"}`, "$"},
		{"empty_tables", `{"tables": []}`, "$.tables"},
		{"table_without_url", `{"tables": [{"dc:title": "x"}]}`, "$.tables[0].url"},
		{"columns_not_array", `{"url": "t.csv", "tableSchema": {"columns": {}}}`, "$.tableSchema.columns"},
		{"virtual_before_real", `{"url": "t.csv", "tableSchema": {"columns": [{"name": "v", "virtual": true}, {"name": "a"}]}}`, "$.tableSchema.columns[1]"},
		{"duplicate_names", `{"url": "t.csv", "tableSchema": {"columns": [{"name": "a"}, {"name": "a"}]}}`, "$.tableSchema.columns[1].name"},
		{"referenced_schema_disabled", `{"url": "t.csv", "tableSchema": "s.json"}`, "$.tableSchema"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadMetadata(context.Background(), strings.NewReader(tc.doc), LoadOptions{})
			var me *MetadataError
			require.True(t, errors.As(err, &me), "want MetadataError, got %v", err)
			assert.Equal(t, tc.wantPath, me.Path)
		})
	}
}

func TestLoadMetadata_InvalidLangIsWarning(t *testing.T) {
	t.Parallel()

	doc := `{"url": "t.csv", "tableSchema": {"columns": [{"name": "a", "lang": "not a tag!"}]}}`
	g, err := LoadMetadata(context.Background(), strings.NewReader(doc), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, UndeterminedLang, g.Tables[0].Columns[0].Lang)
	require.Len(t, g.Warnings, 1)
}

func TestParseAnnotation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
		want Annotation
	}{
		{"scalar", "x", Scalar("x")},
		{"reference", map[string]any{"@id": "http://e/x", "ignored": 1}, Reference("http://e/x")},
		{"typed_value", map[string]any{"@value": "1", "@type": "xsd:integer"}, ValueObject("1", "xsd:integer", "")},
		{"lang_value", map[string]any{"@value": "chat", "@language": "fr"}, ValueObject("chat", "", "fr")},
		{"node", map[string]any{"@type": []any{"a", "b"}, "@context": "x", "p": "v"},
			Node([]string{"a", "b"}, Property{Name: "p", Value: Scalar("v")})},
		{"array", []any{"a", true}, Array(Scalar("a"), Scalar(true))},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ParseAnnotation(tc.in))
		})
	}
}

func TestLoadJSONTable(t *testing.T) {
	t.Parallel()

	doc := `{"fields": [
	  {"name": "id", "type": "integer", "constraints": {"required": true}},
	  {"name": "born", "type": "date", "format": "fmt:%d/%m/%Y"},
	  {"name": "misc", "type": "geopoint"}
	]}`
	g, err := LoadJSONTable(strings.NewReader(doc), "http://example.org/t.csv")
	require.NoError(t, err)
	tbl := g.Tables[0]
	assert.Equal(t, "http://example.org/t.csv", tbl.URL)
	require.Len(t, tbl.Columns, 3)
	assert.True(t, tbl.Columns[0].Required)
	assert.Equal(t, NSXSD+"integer", tbl.Columns[0].Datatype.ID)
	assert.Equal(t, NSXSD+"date", tbl.Columns[1].Datatype.ID)
	assert.Equal(t, "dd/MM/yyyy", tbl.Columns[1].Datatype.Format)
	assert.Equal(t, XSDString, tbl.Columns[2].Datatype.ID)
	assert.Len(t, g.Warnings, 1)

	_, err = LoadJSONTable(strings.NewReader(`{"fields": 3}`), "x")
	var me *MetadataError
	require.ErrorAs(t, err, &me)
}

func TestColumnNames(t *testing.T) {
	t.Parallel()

	c := NewSyntheticColumn(3, "")
	assert.Equal(t, "_col.3", c.EffectiveName())
	c = NewSyntheticColumn(1, "a")
	assert.Equal(t, "a", c.EffectiveName())
	assert.Equal(t, []string{""}, c.Null)
}
