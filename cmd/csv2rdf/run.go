package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/theodi/csv2rdf/internal/config"
	"github.com/theodi/csv2rdf/internal/datasource"
	"github.com/theodi/csv2rdf/internal/metrics"
	csvparser "github.com/theodi/csv2rdf/internal/parser/csv"
	"github.com/theodi/csv2rdf/internal/rdf"
	"github.com/theodi/csv2rdf/internal/schema"
	"github.com/theodi/csv2rdf/internal/storage"
	"github.com/theodi/csv2rdf/internal/transformer"
)

// Test seams.
var (
	openSourceFn    = datasource.Open
	sniffFn         = datasource.Sniff
	newRepositoryFn = storage.New
	transformFn     = transformer.Transform
)

// outcome is what one job produced.
type outcome struct {
	Result *transformer.Result
	Stored int64
	Output string
}

// runJob loads the schema, transforms, writes the output and stores the
// statements. stdout receives the graph when the job has no output path.
// The returned error is fatal; session errors are left in the result.
func runJob(ctx context.Context, j *config.Job, stdout io.Writer, log *slog.Logger) (*outcome, error) {
	out := &outcome{}
	name := jobName(j)

	var group *schema.TableGroup
	tableURL := ""
	if j.Source.CSV != "" {
		u, err := datasource.Canonical(j.Source.CSV)
		if err != nil {
			return fail(out, err)
		}
		tableURL = u
	}

	if j.Source.SchemaKind != "none" {
		err := metrics.Time(name, metrics.StepLoadSchema, func() error {
			var err error
			group, err = loadSchema(ctx, j, tableURL)
			return err
		})
		if err != nil {
			return fail(out, err)
		}
	}

	in := transformer.Input{
		URL:    tableURL,
		Schema: group,
		Open:   csvparser.NewOpener(openSourceFn, j.Dialect.Map(), log),
	}
	err := metrics.Time(name, metrics.StepTransform, func() error {
		var err error
		out.Result, err = transformFn(ctx, in, transformer.Options{Minimal: j.Minimal(), Logger: log})
		return err
	})
	if err != nil {
		if out.Result == nil {
			out.Result = transformer.Failed(err)
		}
		return out, err
	}

	res := out.Result
	metrics.RecordRow(name, metrics.KindRows, int64(res.Rows))
	metrics.RecordRow(name, metrics.KindStatements, int64(res.Graph.Len()))
	metrics.RecordRow(name, metrics.KindErrors, int64(len(res.Errors)))
	metrics.RecordRow(name, metrics.KindWarnings, int64(len(res.Warnings)))
	metrics.RecordRow(name, metrics.KindBlankRows, int64(res.BlankRows))

	if err := metrics.Time(name, metrics.StepWriteOutput, func() error {
		return writeOutput(j.Output, res.Graph, stdout)
	}); err != nil {
		return out, err
	}
	out.Output = j.Output.Path

	if j.Storage != nil {
		if err := metrics.Time(name, metrics.StepStore, func() error {
			n, err := store(ctx, j, res)
			out.Stored = n
			return err
		}); err != nil {
			return out, err
		}
		log.Info("statements stored", "kind", j.Storage.Kind, "table", j.Storage.Table, "stored", out.Stored)
	}
	return out, nil
}

func fail(out *outcome, err error) (*outcome, error) {
	out.Result = transformer.Failed(err)
	return out, err
}

func loadSchema(ctx context.Context, j *config.Job, tableURL string) (*schema.TableGroup, error) {
	metaURL, err := datasource.Canonical(j.Source.Metadata)
	if err != nil {
		return nil, err
	}
	rc, err := openSourceFn(ctx, metaURL)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer rc.Close()

	if j.Source.SchemaKind == "json-table" {
		return schema.LoadJSONTable(rc, tableURL)
	}
	return schema.LoadMetadata(ctx, rc, schema.LoadOptions{BaseURL: metaURL, Fetch: openSourceFn})
}

func writeOutput(o config.Output, g *rdf.Graph, stdout io.Writer) error {
	if o.Path == "" {
		return writeGraph(stdout, o.Format, g)
	}
	if dir := filepath.Dir(o.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(o.Path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := writeGraph(f, o.Format, g); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeGraph(w io.Writer, format string, g *rdf.Graph) error {
	switch format {
	case "ntriples":
		return rdf.WriteNTriples(w, g)
	case "canonical":
		doc, err := rdf.Canonicalize(g)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, doc)
		return err
	case "turtle", "":
		return rdf.WriteTurtle(w, g, transformer.OutputPrefixes(g))
	}
	return fmt.Errorf("unknown output format %q", format)
}

func store(ctx context.Context, j *config.Job, res *transformer.Result) (int64, error) {
	s := j.Storage
	repo, err := newRepositoryFn(ctx, storage.Config{Kind: s.Kind, DSN: s.DSN, Table: s.Table})
	if err != nil {
		return 0, fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	if s.AutoCreateTable {
		if err := storage.EnsureTable(ctx, s.Kind, repo, s.Table); err != nil {
			return 0, fmt.Errorf("ensure table: %w", err)
		}
	}
	n, err := storage.Store(ctx, repo, res.ID, res.Graph, j.Runtime.BatchSize, j.Runtime.ChannelBuffer)
	if err != nil {
		return n, fmt.Errorf("store: %w", err)
	}
	if rows := len(res.Graph.Unique()); rows > 0 && j.Runtime.BatchSize > 0 {
		metrics.RecordBatches(jobName(j), int64((rows+j.Runtime.BatchSize-1)/j.Runtime.BatchSize))
	}
	return n, nil
}

func jobName(j *config.Job) string {
	if j.Job != "" {
		return j.Job
	}
	return metrics.DefaultJobLabel
}
