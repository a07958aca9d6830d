package nats

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodi/csv2rdf/internal/rdf"
	"github.com/theodi/csv2rdf/internal/storage"
)

type fakePublisher struct {
	msgs     []*nats.Msg
	flushes  int
	flushErr error
}

func (f *fakePublisher) PublishMsg(m *nats.Msg) error {
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakePublisher) FlushWithContext(context.Context) error {
	f.flushes++
	return f.flushErr
}

func TestCopyFrom_PublishesNTriples(t *testing.T) {
	t.Parallel()

	g := rdf.NewGraph()
	s := rdf.IRI{Value: "http://example.org/tree/1"}
	g.Add(s, rdf.IRI{Value: "http://example.org/name"}, rdf.NewLangLiteral("Oak", "en"))
	g.Add(s, rdf.RDFType, rdf.IRI{Value: "http://example.org/Tree"})

	pub := &fakePublisher{}
	r := &Repository{pub: pub, cfg: Config{Subject: "csv2rdf.statements"}}

	n, err := storage.Store(context.Background(), &wrappedRepo{Repository: r}, "s1", g, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, 1, pub.flushes)

	msg := pub.msgs[0]
	assert.Equal(t, "csv2rdf.statements", msg.Subject)
	assert.Equal(t, "s1", msg.Header.Get(SessionHeader))

	want, err := rdf.Canonicalize(g)
	require.NoError(t, err)
	got, err := rdf.CanonicalizeNTriples(string(msg.Data))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, strings.HasSuffix(string(msg.Data), " .\n"))
}

func TestCopyFrom_FlushError(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{flushErr: errors.New("timeout")}
	r := &Repository{pub: pub, cfg: Config{Subject: "x"}}
	row := storage.StatementRow("s", rdf.Triple{S: rdf.IRI{Value: "http://e/s"}, P: rdf.RDFType, O: rdf.IRI{Value: "http://e/C"}})

	_, err := r.CopyFrom(context.Background(), storage.StatementColumns, [][]any{row})
	assert.ErrorContains(t, err, "timeout")
}

func TestExec(t *testing.T) {
	t.Parallel()

	r := &Repository{}
	assert.NoError(t, r.Exec(context.Background(), " "))
	assert.Error(t, r.Exec(context.Background(), "CREATE TABLE x"))
}

func TestNewRepository_NeedsSubject(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{URL: nats.DefaultURL})
	assert.ErrorContains(t, err, "subject")
}
