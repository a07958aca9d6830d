// Package nats publishes statements to a NATS subject. Each batch becomes
// one message whose body is N-Triples; the session id travels in the
// Csv2rdf-Session header. The storage table names the subject.
package nats

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/theodi/csv2rdf/internal/storage"
)

// SessionHeader carries the transformation session id.
const SessionHeader = "Csv2rdf-Session"

// Config is the NATS view of storage.Config.
type Config struct {
	URL     string
	Subject string
	Columns []string
}

type publisher interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
}

// Repository is a NATS statement sink.
type Repository struct {
	pub publisher
	cfg Config
}

// NewRepository connects to cfg.URL and returns the repository with a
// cleanup that drains the connection.
func NewRepository(_ context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.Subject) == "" {
		return nil, nil, fmt.Errorf("nats: subject must not be empty")
	}
	nc, err := nats.Connect(cfg.URL, nats.Name("csv2rdf"))
	if err != nil {
		return nil, nil, fmt.Errorf("nats: connect: %w", err)
	}
	return &Repository{pub: nc, cfg: cfg}, func() { _ = nc.Drain() }, nil
}

// CopyFrom publishes rows as one message and waits for the server to
// acknowledge the flush. Every row counts as stored.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var (
		body    strings.Builder
		session string
	)
	for i, row := range rows {
		t, err := storage.RowTriple(columns, row)
		if err != nil {
			return 0, fmt.Errorf("nats: row %d: %w", i, err)
		}
		body.WriteString(t.String())
		body.WriteByte('\n')
		if session == "" {
			session = sessionOf(columns, row)
		}
	}

	msg := nats.NewMsg(r.cfg.Subject)
	msg.Data = []byte(body.String())
	if session != "" {
		msg.Header.Set(SessionHeader, session)
	}
	if err := r.pub.PublishMsg(msg); err != nil {
		return 0, fmt.Errorf("nats: publish: %w", err)
	}
	if err := r.pub.FlushWithContext(ctx); err != nil {
		return 0, fmt.Errorf("nats: flush: %w", err)
	}
	return int64(len(rows)), nil
}

// Exec is not meaningful for a subject; only empty statements are accepted.
func (r *Repository) Exec(_ context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	return fmt.Errorf("nats: exec is not supported")
}

func sessionOf(columns []string, row []any) string {
	for i, c := range columns {
		if c == "session" {
			s, _ := row[i].(string)
			return s
		}
	}
	return ""
}
