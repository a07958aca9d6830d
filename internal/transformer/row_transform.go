package transformer

import (
	"net/url"

	"github.com/theodi/csv2rdf/internal/rdf"
	"github.com/theodi/csv2rdf/internal/schema"
)

// tableContext is the per-table state of a session. A fresh one is created
// for every table.
type tableContext struct {
	table  *schema.Table // nil without a schema
	source *url.URL

	initialized bool
	node        rdf.Term
	columns     []*columnPlan
	rowTitles   []string
	rownum      int
}

// columnPlan is a column with its derived values computed once.
type columnPlan struct {
	*schema.Column
	index      int // 0-based position
	name       string
	datatypeID string
	base       string

	about, property, value *Template
	// broken columns have an unparsable template and produce nothing.
	broken bool
}

func newTableContext(t *schema.Table, source *url.URL) *tableContext {
	return &tableContext{table: t, source: source}
}

// compileColumns builds the column plans, recording template errors.
func (s *session) compileColumns(tc *tableContext, cols []*schema.Column) {
	tc.columns = make([]*columnPlan, 0, len(cols))
	for i, c := range cols {
		id, base := c.Datatype.Resolve()
		p := &columnPlan{Column: c, index: i, name: c.EffectiveName(), datatypeID: id, base: base}
		for _, tpl := range []struct {
			src string
			dst **Template
		}{{c.AboutURL, &p.about}, {c.PropertyURL, &p.property}, {c.ValueURL, &p.value}} {
			if tpl.src == "" {
				continue
			}
			t, err := ParseTemplate(tpl.src)
			if err != nil {
				s.errors = append(s.errors, ErrorMessage{
					Type: TypeInvalidTemplate, Category: CategorySchema,
					Column: i + 1, Content: err.Error(),
				})
				p.broken = true
				continue
			}
			*tpl.dst = t
		}
		tc.columns = append(tc.columns, p)
	}
}

// transformRow handles one row of a table.
func (s *session) transformRow(tc *tableContext, row *Row) {
	if row.Blank {
		s.errors = append(s.errors, ErrorMessage{Type: TypeBlankRows, Category: CategoryStructure, Row: row.Line})
		s.blankRows++
		return
	}
	if !tc.initialized {
		s.initTable(tc, row)
	}
	if !row.IsData() {
		return
	}

	tc.rownum++
	s.rows++
	rowNode := s.graph.NewBlankNode()
	subjects := s.transformData(tc, row, rowNode)
	if s.opt.Minimal {
		return
	}
	s.graph.Add(tc.node, rdf.CSVWRowProp, rowNode)
	s.graph.Add(rowNode, rdf.RDFType, rdf.CSVWRow)
	s.graph.Add(rowNode, rdf.CSVWRownum, rdf.NewInteger(int64(tc.rownum)))
	s.graph.Add(rowNode, rdf.CSVWURL, RowURL(tc.source, row.Line))
	for _, subj := range subjects {
		s.graph.Add(rowNode, rdf.CSVWDescribes, subj)
	}
}

// initTable runs on the first non-blank row of a table: it emits the table
// description and fixes the column list.
func (s *session) initTable(tc *tableContext, row *Row) {
	tc.initialized = true
	s.errors = append(s.errors, row.Errors...)
	header := row.Header
	if header == nil {
		header = make([]string, len(row.Cells))
	}
	g := s.graph

	if tc.table == nil {
		tc.node = g.NewBlankNode()
		if !s.opt.Minimal {
			g.Add(s.group, rdf.CSVWTableProp, tc.node)
			g.Add(tc.node, rdf.RDFType, rdf.CSVWTable)
			g.Add(tc.node, rdf.CSVWURL, rdf.IRI{Value: tc.source.String()})
		}
		cols := make([]*schema.Column, len(header))
		for i, h := range header {
			cols[i] = schema.NewSyntheticColumn(i+1, h)
		}
		s.compileColumns(tc, cols)
		return
	}

	t := tc.table
	if t.ID != "" {
		tc.node = rdf.IRI{Value: t.ID}
	} else {
		tc.node = g.NewBlankNode()
	}
	if !s.opt.Minimal {
		if !s.groupAnnotated {
			for _, a := range s.schema.Annotations {
				EmitAnnotation(g, s.group, a.Name, a.Value)
			}
			s.groupAnnotated = true
		}
		if !t.SuppressOutput {
			g.Add(s.group, rdf.CSVWTableProp, tc.node)
			g.Add(tc.node, rdf.RDFType, rdf.CSVWTable)
			g.Add(tc.node, rdf.CSVWURL, rdf.IRI{Value: tc.source.String()})
			for _, a := range t.Annotations {
				EmitAnnotation(g, tc.node, a.Name, a.Value)
			}
			for _, n := range t.Notes {
				emitAnnotation(g, tc.node, rdf.CSVWNote, n)
			}
		}
	}

	cols := append([]*schema.Column(nil), t.Columns...)
	for i := len(cols); i < len(header); i++ {
		cols = append(cols, schema.NewSyntheticColumn(i+1, ""))
	}
	s.compileColumns(tc, cols)
	tc.rowTitles = append(tc.rowTitles, t.RowTitles...)
}

// transformData emits the cell statements of one data row and returns the
// distinct subjects it described, in first-seen order.
func (s *session) transformData(tc *tableContext, row *Row, rowNode rdf.BlankNode) []rdf.Term {
	g := s.graph
	b := make(Bindings, len(tc.columns)+5)
	for _, c := range tc.columns {
		if c.index >= len(row.Cells) || row.Cells[c.index] == nil {
			continue
		}
		b[c.name] = c.coerce(row.Cells[c.index])
	}
	b["_row"] = tc.rownum
	b["_sourceRow"] = row.Line

	if !s.opt.Minimal {
		for _, name := range tc.rowTitles {
			switch v := b[name].(type) {
			case []rdf.Term:
				for _, t := range v {
					g.Add(rowNode, rdf.CSVWTitle, t)
				}
			case rdf.Term:
				g.Add(rowNode, rdf.CSVWTitle, v)
			}
		}
	}

	defaultSubject := g.NewBlankNode()
	var subjects []rdf.Term
	seen := map[rdf.Term]bool{}
	for _, c := range tc.columns {
		if c.SuppressOutput || c.broken {
			continue
		}
		b["_column"] = c.index + 1
		b["_sourceColumn"] = c.index + 1
		b["_name"] = c.name

		var subject rdf.Term = defaultSubject
		if c.about != nil {
			iri, err := c.about.Resolve(b, tc.source, false)
			if err != nil {
				s.cellError(row, c, err)
				continue
			}
			subject = iri
		}
		if !seen[subject] {
			seen[subject] = true
			subjects = append(subjects, subject)
		}

		predicate := DefaultPropertyURL(tc.source, c.name)
		if c.property != nil {
			iri, err := c.property.Resolve(b, tc.source, true)
			if err != nil {
				s.cellError(row, c, err)
				continue
			}
			predicate = iri
		}

		var objects []rdf.Term
		if c.value != nil {
			if b[c.name] != nil || c.Virtual {
				iri, err := c.value.Resolve(b, tc.source, true)
				if err != nil {
					s.cellError(row, c, err)
					continue
				}
				objects = []rdf.Term{iri}
			}
		} else {
			switch v := b[c.name].(type) {
			case []rdf.Term:
				objects = v
			case rdf.Term:
				objects = []rdf.Term{v}
			}
		}
		if objects == nil {
			continue
		}

		if c.Separator != nil && c.Ordered {
			g.Add(subject, predicate, s.emitList(objects))
			continue
		}
		for _, o := range objects {
			g.Add(subject, predicate, o)
		}
	}
	return subjects
}

// emitList writes an rdf:first/rdf:rest chain and returns its head.
func (s *session) emitList(items []rdf.Term) rdf.Term {
	if len(items) == 0 {
		return rdf.RDFNil
	}
	head := s.graph.NewBlankNode()
	node := head
	for i, item := range items {
		s.graph.Add(node, rdf.RDFFirst, item)
		if i == len(items)-1 {
			s.graph.Add(node, rdf.RDFRest, rdf.RDFNil)
			break
		}
		next := s.graph.NewBlankNode()
		s.graph.Add(node, rdf.RDFRest, next)
		node = next
	}
	return head
}

func (s *session) cellError(row *Row, c *columnPlan, err error) {
	s.errors = append(s.errors, ErrorMessage{
		Type: TypeInvalidTemplate, Category: CategorySchema,
		Row: row.Line, Column: c.index + 1, Content: err.Error(),
	})
}

// coerce maps a cell, or each element of a split cell, onto RDF terms.
func (c *columnPlan) coerce(v any) any {
	if items, ok := v.([]any); ok {
		terms := make([]rdf.Term, 0, len(items))
		for _, item := range items {
			if item == nil {
				continue
			}
			terms = append(terms, Coerce(item, c.datatypeID, c.base, c.Lang))
		}
		return terms
	}
	return Coerce(v, c.datatypeID, c.base, c.Lang)
}
