package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/theodi/csv2rdf/internal/rdf"
)

// StatementColumns is the layout of a statement row. Subject and object hold
// IRIs verbatim, blank nodes as "_:id" and literals as their lexical form;
// object_kind, datatype and lang disambiguate the object.
var StatementColumns = []string{
	"hash", "session", "subject", "predicate", "object", "object_kind", "datatype", "lang",
}

// StatementHash identifies a statement within a session. Blank node labels
// are session-local, so the session is part of the key.
func StatementHash(sessionID string, t rdf.Triple) string {
	return fmt.Sprintf("%016x", xxh3.HashString(sessionID+"\x00"+t.String()))
}

// StatementRow renders t in StatementColumns order.
func StatementRow(sessionID string, t rdf.Triple) []any {
	var obj, datatype, lang string
	switch o := t.O.(type) {
	case rdf.Literal:
		obj = o.Lexical
		datatype = o.DatatypeIRI().Value
		lang = o.Lang
	default:
		obj = t.O.String()
	}
	return []any{
		StatementHash(sessionID, t),
		sessionID,
		t.S.String(),
		t.P.Value,
		obj,
		t.O.Kind().String(),
		datatype,
		lang,
	}
}

// StatementRows renders the distinct statements of g.
func StatementRows(sessionID string, g *rdf.Graph) [][]any {
	triples := g.Unique()
	out := make([][]any, 0, len(triples))
	for _, t := range triples {
		out = append(out, StatementRow(sessionID, t))
	}
	return out
}

// RowTriple is the inverse of StatementRow for rows aligned with columns.
func RowTriple(columns []string, row []any) (rdf.Triple, error) {
	if len(row) != len(columns) {
		return rdf.Triple{}, fmt.Errorf("row length %d != columns length %d", len(row), len(columns))
	}
	v := make(map[string]string, len(columns))
	for i, c := range columns {
		s, ok := row[i].(string)
		if !ok {
			return rdf.Triple{}, fmt.Errorf("column %s: want string, got %T", c, row[i])
		}
		v[c] = s
	}
	if v["subject"] == "" || v["predicate"] == "" {
		return rdf.Triple{}, fmt.Errorf("row has no subject or predicate")
	}

	t := rdf.Triple{S: parseNode(v["subject"]), P: rdf.IRI{Value: v["predicate"]}}
	switch v["object_kind"] {
	case rdf.TermLiteral.String():
		switch {
		case v["lang"] != "":
			t.O = rdf.NewLangLiteral(v["object"], v["lang"])
		default:
			t.O = rdf.NewTypedLiteral(v["object"], rdf.IRI{Value: v["datatype"]})
		}
	case rdf.TermIRI.String(), rdf.TermBlankNode.String():
		t.O = parseNode(v["object"])
	default:
		return rdf.Triple{}, fmt.Errorf("unknown object_kind %s", strconv.Quote(v["object_kind"]))
	}
	return t, nil
}

func parseNode(s string) rdf.Term {
	if len(s) > 2 && s[:2] == "_:" {
		return rdf.BlankNode{ID: s[2:]}
	}
	return rdf.IRI{Value: s}
}

// Store writes the distinct statements of g to repo in batches. A producer
// goroutine feeds LoadBatches; either side failing cancels the other.
func Store(ctx context.Context, repo Repository, sessionID string, g *rdf.Graph, batchSize, buffer int) (int64, error) {
	if buffer < 0 {
		buffer = 0
	}
	rows := make(chan []any, buffer)
	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		defer close(rows)
		for _, t := range g.Unique() {
			select {
			case rows <- StatementRow(sessionID, t):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var stored int64
	grp.Go(func() error {
		n, err := LoadBatches(gctx, StatementColumns, rows, batchSize, repo.CopyFrom)
		stored = n
		return err
	})

	err := grp.Wait()
	return stored, err
}
