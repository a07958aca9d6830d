package schema

import (
	"fmt"
	"io"
	"strings"
)

// LoadJSONTable reads a JSON Table Schema ({"fields": [...]}) and returns a
// single-table group bound to tableURL. JSON-Table schemas carry no URI
// templates, so every column falls back to the default property URL.
func LoadJSONTable(r io.Reader, tableURL string) (*TableGroup, error) {
	doc, err := decodeJSON(r, "$")
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &MetadataError{Path: "$", Msg: "top-level value must be an object"}
	}
	raw, ok := obj["fields"]
	if !ok {
		return nil, &MetadataError{Path: "$.fields", Msg: "is required"}
	}
	fields, ok := raw.([]any)
	if !ok {
		return nil, &MetadataError{Path: "$.fields", Msg: "must be an array"}
	}

	g := &TableGroup{}
	t := &Table{URL: tableURL}
	for i, e := range fields {
		path := fmt.Sprintf("$.fields[%d]", i)
		f, ok := e.(map[string]any)
		if !ok {
			return nil, &MetadataError{Path: path, Msg: "field must be an object"}
		}
		name, _ := f["name"].(string)
		c := NewSyntheticColumn(i+1, name)
		if title, ok := f["title"].(string); ok && title != "" {
			c.Titles = []string{title}
		}
		if typ, ok := f["type"].(string); ok {
			builtin, known := jsonTableTypes[typ]
			if !known {
				g.Warnings = append(g.Warnings, fmt.Sprintf("%s.type: unknown type %q; using string", path, typ))
				builtin = "string"
			}
			iri, _ := BuiltinDatatype(builtin)
			c.Datatype = Datatype{ID: iri}
		}
		if format, ok := f["format"].(string); ok {
			c.Datatype.Format = strftimeToPattern(format)
		}
		if cons, ok := f["constraints"].(map[string]any); ok {
			if req, ok := cons["required"].(bool); ok {
				c.Required = req
			}
		}
		t.Columns = append(t.Columns, c)
	}
	g.Tables = []*Table{t}
	return g, nil
}

var strftimeTokens = strings.NewReplacer(
	"%Y", "yyyy",
	"%m", "MM",
	"%d", "dd",
	"%H", "HH",
	"%M", "mm",
	"%S", "ss",
)

// strftimeToPattern converts JSON-Table "fmt:%Y-%m-%d" formats to CSVW date
// patterns. "default" and "any" mean no format.
func strftimeToPattern(format string) string {
	switch format {
	case "", "default", "any":
		return ""
	}
	if p, ok := strings.CutPrefix(format, "fmt:"); ok {
		return strftimeTokens.Replace(p)
	}
	return format
}
