package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// MetadataError reports a structural problem in a schema document. It is
// fatal: a transformation that hits it produces no graph.
type MetadataError struct {
	// Path is a JSONPath-like location, e.g. "$.tables[1].tableSchema".
	Path string
	Msg  string
	Err  error
}

func (e *MetadataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("metadata error at %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("metadata error at %s: %s", e.Path, e.Msg)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// LoadOptions configures LoadMetadata.
type LoadOptions struct {
	// BaseURL is the URL the metadata document was read from. Relative table
	// URLs and @id values resolve against it (or against @context @base).
	BaseURL string
	// Fetch opens a referenced tableSchema document. Nil makes referenced
	// schemas a MetadataError.
	Fetch func(ctx context.Context, url string) (io.ReadCloser, error)
}

// LoadMetadata reads a CSVW metadata document describing either a single
// table (top-level "url") or a table group (top-level "tables").
func LoadMetadata(ctx context.Context, r io.Reader, opt LoadOptions) (*TableGroup, error) {
	doc, err := decodeJSON(r, "$")
	if err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, &MetadataError{Path: "$", Msg: "top-level value must be an object"}
	}

	l := &loader{ctx: ctx, opt: opt}
	if opt.BaseURL != "" {
		b, err := url.Parse(opt.BaseURL)
		if err != nil {
			return nil, &MetadataError{Path: "$", Msg: "invalid base URL", Err: err}
		}
		l.base = b
	}
	l.readContext(obj["@context"])

	g, err := l.group(obj)
	if err != nil {
		return nil, err
	}
	g.Warnings = l.warnings
	return g, nil
}

func decodeJSON(r io.Reader, path string) (any, error) {
	var doc any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, &MetadataError{Path: path, Msg: "malformed JSON", Err: err}
	}
	return doc, nil
}

type loader struct {
	ctx      context.Context
	opt      LoadOptions
	base     *url.URL
	warnings []string
}

func (l *loader) warnf(path, format string, args ...any) {
	l.warnings = append(l.warnings, path+": "+fmt.Sprintf(format, args...))
}

func (l *loader) resolve(ref string) string {
	if l.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return l.base.ResolveReference(u).String()
}

// readContext picks up @base from the [context, {"@base": ...}] form.
func (l *loader) readContext(v any) {
	arr, ok := v.([]any)
	if !ok {
		return
	}
	for _, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if b, ok := m["@base"].(string); ok {
			if u, err := url.Parse(l.resolve(b)); err == nil {
				l.base = u
			}
		}
	}
}

func (l *loader) group(obj map[string]any) (*TableGroup, error) {
	g := &TableGroup{}

	if raw, ok := obj["tables"]; ok {
		arr, ok := raw.([]any)
		if !ok || len(arr) == 0 {
			return nil, &MetadataError{Path: "$.tables", Msg: "must be a non-empty array"}
		}
		if id, ok := obj["@id"].(string); ok {
			g.ID = l.resolve(id)
		}
		inh, err := l.inherit(inherited{}, obj, "$")
		if err != nil {
			return nil, err
		}
		g.Annotations = l.commonProperties(obj)
		dialect := mapOf(obj["dialect"])
		for i, e := range arr {
			path := fmt.Sprintf("$.tables[%d]", i)
			tobj, ok := e.(map[string]any)
			if !ok {
				return nil, &MetadataError{Path: path, Msg: "table description must be an object"}
			}
			t, err := l.table(tobj, inh, dialect, path)
			if err != nil {
				return nil, err
			}
			g.Tables = append(g.Tables, t)
		}
		return g, nil
	}

	if _, ok := obj["url"]; ok {
		t, err := l.table(obj, inherited{}, nil, "$")
		if err != nil {
			return nil, err
		}
		g.Tables = []*Table{t}
		return g, nil
	}
	return nil, &MetadataError{Path: "$", Msg: `document has neither "tables" nor "url"`}
}

func (l *loader) table(obj map[string]any, inh inherited, groupDialect map[string]any, path string) (*Table, error) {
	u, ok := obj["url"].(string)
	if !ok || strings.TrimSpace(u) == "" {
		return nil, &MetadataError{Path: path + ".url", Msg: "must be a non-empty string"}
	}
	t := &Table{URL: l.resolve(u)}
	if id, ok := obj["@id"].(string); ok {
		t.ID = l.resolve(id)
	}
	if v, ok := obj["suppressOutput"]; ok {
		b, ok := v.(bool)
		if !ok {
			l.warnf(path+".suppressOutput", "must be a boolean; ignored")
		}
		t.SuppressOutput = b
	}
	if v, ok := obj["notes"]; ok {
		notes := ParseAnnotation(v)
		if notes.Kind == KindArray {
			t.Notes = notes.Items
		} else {
			t.Notes = []Annotation{notes}
		}
		for i := range t.Notes {
			t.Notes[i] = l.resolveRefs(t.Notes[i])
		}
	}
	t.Annotations = l.commonProperties(obj)
	t.Dialect = mergeMaps(groupDialect, mapOf(obj["dialect"]))

	inh, err := l.inherit(inh, obj, path)
	if err != nil {
		return nil, err
	}

	raw, ok := obj["tableSchema"]
	if !ok {
		return t, nil
	}
	spath := path + ".tableSchema"
	sobj, err := l.schemaObject(raw, spath)
	if err != nil {
		return nil, err
	}
	if inh, err = l.inherit(inh, sobj, spath); err != nil {
		return nil, err
	}
	t.RowTitles = stringList(sobj["rowTitles"])

	rawCols, ok := sobj["columns"]
	if !ok {
		return t, nil
	}
	cols, ok := rawCols.([]any)
	if !ok {
		return nil, &MetadataError{Path: spath + ".columns", Msg: "must be an array"}
	}
	seenVirtual := false
	names := map[string]bool{}
	for i, e := range cols {
		cpath := fmt.Sprintf("%s.columns[%d]", spath, i)
		cobj, ok := e.(map[string]any)
		if !ok {
			return nil, &MetadataError{Path: cpath, Msg: "column description must be an object"}
		}
		c, err := l.column(cobj, i+1, inh, cpath)
		if err != nil {
			return nil, err
		}
		if c.Virtual {
			seenVirtual = true
		} else if seenVirtual {
			return nil, &MetadataError{Path: cpath, Msg: "non-virtual column follows a virtual column"}
		}
		if names[c.EffectiveName()] {
			return nil, &MetadataError{Path: cpath + ".name", Msg: fmt.Sprintf("duplicate column name %q", c.EffectiveName())}
		}
		names[c.EffectiveName()] = true
		t.Columns = append(t.Columns, c)
	}
	return t, nil
}

// schemaObject accepts an inline schema or a reference to one.
func (l *loader) schemaObject(raw any, path string) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case string:
		if l.opt.Fetch == nil {
			return nil, &MetadataError{Path: path, Msg: "referenced schemas are not enabled"}
		}
		ref := l.resolve(v)
		rc, err := l.opt.Fetch(l.ctx, ref)
		if err != nil {
			return nil, &MetadataError{Path: path, Msg: "fetch " + ref, Err: err}
		}
		defer rc.Close()
		doc, err := decodeJSON(rc, path)
		if err != nil {
			return nil, err
		}
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, &MetadataError{Path: path, Msg: "referenced schema must be an object"}
		}
		return obj, nil
	default:
		return nil, &MetadataError{Path: path, Msg: "must be an object or a URL"}
	}
}

func (l *loader) column(obj map[string]any, number int, inh inherited, path string) (*Column, error) {
	inh, err := l.inherit(inh, obj, path)
	if err != nil {
		return nil, err
	}
	c := &Column{
		Number:   number,
		Datatype: Datatype{ID: XSDString},
		Lang:     UndeterminedLang,
		Null:     []string{""},
	}
	inh.apply(c)

	if v, ok := obj["name"]; ok {
		name, ok := v.(string)
		switch {
		case !ok:
			l.warnf(path+".name", "must be a string; ignored")
		case strings.HasPrefix(name, "_"):
			l.warnf(path+".name", "names starting with '_' are reserved; ignored")
		default:
			c.Name = name
		}
	}
	c.Titles = titleList(obj["titles"])
	if c.Name == "" && len(c.Titles) > 0 {
		c.Name = encodeName(c.Titles[0])
	}
	if v, ok := obj["virtual"]; ok {
		c.Virtual, _ = v.(bool)
	}
	if v, ok := obj["suppressOutput"]; ok {
		c.SuppressOutput, _ = v.(bool)
	}
	return c, nil
}

// commonProperties collects prefixed or absolute-IRI keys in key order.
func (l *loader) commonProperties(obj map[string]any) []Property {
	var out []Property
	for _, k := range sortedKeys(obj) {
		if strings.HasPrefix(k, "@") || !strings.Contains(k, ":") {
			continue
		}
		out = append(out, Property{Name: k, Value: l.resolveRefs(ParseAnnotation(obj[k]))})
	}
	return out
}

// resolveRefs makes relative @id references absolute.
func (l *loader) resolveRefs(a Annotation) Annotation {
	switch a.Kind {
	case KindReference:
		if u, err := url.Parse(a.ID); err == nil && u.Scheme == "" {
			a.ID = l.resolve(a.ID)
		}
	case KindNode:
		for i := range a.Properties {
			a.Properties[i].Value = l.resolveRefs(a.Properties[i].Value)
		}
	case KindArray:
		for i := range a.Items {
			a.Items[i] = l.resolveRefs(a.Items[i])
		}
	}
	return a
}

// inherited carries the CSVW inherited properties down the
// group → table → schema → column chain. Nil means "not set at this level
// or above".
type inherited struct {
	aboutURL    *string
	propertyURL *string
	valueURL    *string
	datatype    *Datatype
	dflt        *string
	lang        *string
	null        []string
	ordered     *bool
	required    *bool
	separator   **string
}

func (in inherited) apply(c *Column) {
	if in.aboutURL != nil {
		c.AboutURL = *in.aboutURL
	}
	if in.propertyURL != nil {
		c.PropertyURL = *in.propertyURL
	}
	if in.valueURL != nil {
		c.ValueURL = *in.valueURL
	}
	if in.datatype != nil {
		c.Datatype = *in.datatype
	}
	if in.dflt != nil {
		c.Default = *in.dflt
	}
	if in.lang != nil {
		c.Lang = *in.lang
	}
	if in.null != nil {
		c.Null = in.null
	}
	if in.ordered != nil {
		c.Ordered = *in.ordered
	}
	if in.required != nil {
		c.Required = *in.required
	}
	if in.separator != nil {
		c.Separator = *in.separator
	}
}

func (l *loader) inherit(in inherited, obj map[string]any, path string) (inherited, error) {
	for _, k := range []string{"aboutUrl", "propertyUrl", "valueUrl", "default"} {
		v, ok := obj[k]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			l.warnf(path+"."+k, "must be a string; ignored")
			continue
		}
		switch k {
		case "aboutUrl":
			in.aboutURL = &s
		case "propertyUrl":
			in.propertyURL = &s
		case "valueUrl":
			in.valueURL = &s
		case "default":
			in.dflt = &s
		}
	}
	if v, ok := obj["datatype"]; ok {
		if d, ok := l.datatype(v, path+".datatype"); ok {
			in.datatype = &d
		}
	}
	if v, ok := obj["lang"]; ok {
		s, _ := v.(string)
		if _, err := language.Parse(s); err != nil && s != UndeterminedLang {
			l.warnf(path+".lang", "invalid language tag %q; ignored", s)
		} else {
			in.lang = &s
		}
	}
	if v, ok := obj["null"]; ok {
		in.null = stringList(v)
		if in.null == nil {
			in.null = []string{}
		}
	}
	for _, k := range []string{"ordered", "required"} {
		v, ok := obj[k]
		if !ok {
			continue
		}
		b, ok := v.(bool)
		if !ok {
			l.warnf(path+"."+k, "must be a boolean; ignored")
			continue
		}
		if k == "ordered" {
			in.ordered = &b
		} else {
			in.required = &b
		}
	}
	if v, ok := obj["separator"]; ok {
		var sep *string
		switch s := v.(type) {
		case string:
			sep = &s
		case nil:
		default:
			l.warnf(path+".separator", "must be a string or null; ignored")
			return in, nil
		}
		in.separator = &sep
	}
	return in, nil
}

func (l *loader) datatype(v any, path string) (Datatype, bool) {
	switch t := v.(type) {
	case string:
		iri, ok := BuiltinDatatype(t)
		if !ok {
			l.warnf(path, "unknown datatype %q; using string", t)
			return Datatype{ID: XSDString}, true
		}
		return Datatype{ID: iri}, true
	case map[string]any:
		d := Datatype{}
		if b, ok := t["base"].(string); ok {
			iri, ok := BuiltinDatatype(b)
			if !ok {
				l.warnf(path+".base", "unknown datatype %q; using string", b)
				iri = XSDString
			}
			d.Base = iri
		}
		if id, ok := t["@id"].(string); ok {
			if iri, ok := BuiltinDatatype(id); ok && d.Base == "" {
				d.ID = iri
			} else {
				d.ID = l.resolve(id)
			}
		}
		if d.ID == "" && d.Base == "" {
			d.Base = XSDString
		}
		switch f := t["format"].(type) {
		case string:
			d.Format = f
		case map[string]any:
			d.Format, _ = f["pattern"].(string)
			d.DecimalChar, _ = f["decimalChar"].(string)
			d.GroupChar, _ = f["groupChar"].(string)
		}
		return d, true
	default:
		l.warnf(path, "must be a string or an object; ignored")
		return Datatype{}, false
	}
}

// titleList flattens the string, array and language-map forms of "titles".
func titleList(v any) []string {
	switch t := v.(type) {
	case map[string]any:
		langs := make([]string, 0, len(t))
		for k := range t {
			langs = append(langs, k)
		}
		sort.Strings(langs)
		var out []string
		for _, k := range langs {
			out = append(out, stringList(t[k])...)
		}
		return out
	default:
		return stringList(v)
	}
}

// encodeName percent-encodes a title so it can be used as a column name and
// URI template variable.
func encodeName(s string) string {
	var b strings.Builder
	for _, c := range []byte(s) {
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func mapOf(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func mergeMaps(a, b map[string]any) map[string]any {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
