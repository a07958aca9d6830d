package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodi/csv2rdf/internal/rdf"
)

func graph() *rdf.Graph {
	g := rdf.NewGraph()
	row := g.NewBlankNode()
	s := rdf.IRI{Value: "http://example.org/tree/1"}
	g.Add(row, rdf.RDFType, rdf.CSVWRow)
	g.Add(row, rdf.CSVWDescribes, s)
	g.Add(s, rdf.IRI{Value: "http://example.org/name"}, rdf.NewLangLiteral("Oak", "EN"))
	g.Add(s, rdf.IRI{Value: "http://example.org/height"}, rdf.NewInteger(12))
	g.Add(s, rdf.IRI{Value: "http://example.org/note"}, rdf.NewLiteral("tall"))
	g.Add(s, rdf.IRI{Value: "http://example.org/note"}, rdf.NewLiteral("tall"))
	return g
}

func TestStatementRows_RoundTrip(t *testing.T) {
	t.Parallel()

	g := graph()
	rows := StatementRows("s1", g)
	require.Len(t, rows, 5, "duplicates collapse")

	out := rdf.NewGraph()
	for _, row := range rows {
		require.Len(t, row, len(StatementColumns))
		tr, err := RowTriple(StatementColumns, row)
		require.NoError(t, err)
		out.Add(tr.S, tr.P, tr.O)
	}
	want, err := rdf.Canonicalize(g)
	require.NoError(t, err)
	got, err := rdf.Canonicalize(out)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStatementRow_Columns(t *testing.T) {
	t.Parallel()

	s := rdf.IRI{Value: "http://example.org/s"}
	p := rdf.IRI{Value: "http://example.org/p"}

	row := StatementRow("s1", rdf.Triple{S: s, P: p, O: rdf.NewLangLiteral("chat", "fr")})
	assert.Equal(t, []any{row[0], "s1", s.Value, p.Value, "chat", "literal", rdf.RDFLangString.Value, "fr"}, row)
	assert.Len(t, row[0], 16)

	row = StatementRow("s1", rdf.Triple{S: s, P: p, O: rdf.NewLiteral("x")})
	assert.Equal(t, rdf.XSDString.Value, row[6])

	row = StatementRow("s1", rdf.Triple{S: s, P: p, O: rdf.BlankNode{ID: "b3"}})
	assert.Equal(t, "_:b3", row[4])
	assert.Equal(t, "bnode", row[5])
	assert.Equal(t, "", row[6])
}

func TestStatementHash(t *testing.T) {
	t.Parallel()

	tr := rdf.Triple{S: rdf.IRI{Value: "http://e/s"}, P: rdf.RDFType, O: rdf.IRI{Value: "http://e/C"}}
	assert.Equal(t, StatementHash("a", tr), StatementHash("a", tr))
	assert.NotEqual(t, StatementHash("a", tr), StatementHash("b", tr))
}

func TestRowTriple_Errors(t *testing.T) {
	t.Parallel()

	_, err := RowTriple(StatementColumns, []any{"x"})
	assert.Error(t, err)

	bad := []any{"h", "s", "http://e/s", "http://e/p", "o", "quoted", "", ""}
	_, err = RowTriple(StatementColumns, bad)
	assert.ErrorContains(t, err, "object_kind")

	bad = []any{"h", "s", "http://e/s", "http://e/p", 1, "iri", "", ""}
	_, err = RowTriple(StatementColumns, bad)
	assert.ErrorContains(t, err, "want string")
}

type memRepo struct {
	rows  [][]any
	fail  error
	calls int
}

func (m *memRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	m.calls++
	if m.fail != nil {
		return 0, m.fail
	}
	m.rows = append(m.rows, rows...)
	return int64(len(rows)), nil
}
func (m *memRepo) Exec(context.Context, string) error { return nil }
func (m *memRepo) Close()                             {}

func TestStore(t *testing.T) {
	t.Parallel()

	repo := &memRepo{}
	n, err := Store(context.Background(), repo, "s1", graph(), 2, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.Len(t, repo.rows, 5)
	assert.Equal(t, 3, repo.calls)
}

func TestStore_PropagatesCopyError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	repo := &memRepo{fail: boom}
	_, err := Store(context.Background(), repo, "s1", graph(), 1, 0)
	assert.ErrorIs(t, err, boom)
}
