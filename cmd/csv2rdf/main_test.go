package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodi/csv2rdf/internal/config"
	"github.com/theodi/csv2rdf/internal/storage"
	"github.com/theodi/csv2rdf/internal/webui"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

const treesMeta = `{
  "@context": "http://www.w3.org/ns/csvw",
  "url": "trees.csv",
  "tableSchema": {
    "aboutUrl": "http://example.org/tree/{id}",
    "columns": [
      {"name": "id", "titles": "id", "datatype": "integer", "suppressOutput": true},
      {"name": "species", "titles": "species", "propertyUrl": "http://example.org/species", "lang": "en"},
      {"name": "height", "titles": "height", "datatype": "decimal", "propertyUrl": "http://example.org/height"}
    ]
  }
}`

func TestVersion(t *testing.T) {
	t.Parallel()

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "csv2rdf dev\n", out)
}

func TestTransform_CSVFlag(t *testing.T) {
	t.Parallel()

	p := writeFile(t, t.TempDir(), "ab.csv", "a,b\n1,2\n")
	out, stderr, err := execute(t, "transform", "--csv", p, "--format", "ntriples")
	require.NoError(t, err, stderr)

	assert.Contains(t, out, "<http://www.w3.org/ns/csvw#Row>")
	assert.Contains(t, out, `ab.csv#a> "1" .`)
	assert.Contains(t, stderr, "11 statements")
}

func TestTransform_MinimalMetadataArgument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "trees.csv", "id,species,height\n1,Oak,12.5\n2,Ash,7\n")
	meta := writeFile(t, dir, "trees.csv-metadata.json", treesMeta)
	outPath := filepath.Join(dir, "out", "trees.ttl")

	_, stderr, err := execute(t, "transform", meta, "--minimal", "--out", outPath)
	require.NoError(t, err, stderr)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	ttl := string(b)
	assert.Contains(t, ttl, "<http://example.org/tree/1>")
	assert.Contains(t, ttl, `"Oak"@en`)
	assert.NotContains(t, ttl, "csvw:Row")
	assert.Contains(t, stderr, "-> "+outPath)
}

func TestTransform_SessionErrorsFail(t *testing.T) {
	t.Parallel()

	p := writeFile(t, t.TempDir(), "gap.csv", "a,b\n1,2\n\n3,4\n")
	out, stderr, err := execute(t, "transform", "--csv", p, "--format", "canonical")
	assert.ErrorIs(t, err, errSessionErrors)
	assert.NotEmpty(t, out, "the graph is still written")
	assert.Contains(t, stderr, "1 error(s)")
}

func TestTransform_BadMetadataIsFatal(t *testing.T) {
	t.Parallel()

	meta := writeFile(t, t.TempDir(), "m.json", `{"url": 5}`)
	_, _, err := execute(t, "transform", "--metadata", meta)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errSessionErrors)
}

func TestTransform_InvalidFlagsReported(t *testing.T) {
	t.Parallel()

	p := writeFile(t, t.TempDir(), "ab.csv", "a\n1\n")
	_, stderr, err := execute(t, "transform", "--csv", p, "--format", "rdfxml")
	assert.EqualError(t, err, "configuration is invalid")
	assert.Contains(t, stderr, "output.format")
}

type memRepo struct {
	rows   [][]any
	closed bool
}

func (m *memRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	m.rows = append(m.rows, rows...)
	return int64(len(rows)), nil
}
func (m *memRepo) Exec(context.Context, string) error { return nil }
func (m *memRepo) Close()                             { m.closed = true }

func TestTransform_Storage(t *testing.T) {
	orig := newRepositoryFn
	t.Cleanup(func() { newRepositoryFn = orig })

	repo := &memRepo{}
	var got storage.Config
	newRepositoryFn = func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		got = cfg
		return repo, nil
	}

	p := writeFile(t, t.TempDir(), "ab.csv", "a,b\n1,2\n")
	_, stderr, err := execute(t, "transform", "--csv", p, "--storage", "sqlite", "--dsn", "x.db", "--out", filepath.Join(t.TempDir(), "o.nt"))
	require.NoError(t, err, stderr)

	assert.Equal(t, "sqlite", got.Kind)
	assert.Equal(t, "statements", got.Table)
	assert.Len(t, repo.rows, 11)
	assert.True(t, repo.closed)
	assert.Contains(t, stderr, "11 stored")
}

func TestBatch_Glob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "in/a.csv", "x\n1\n")
	writeFile(t, dir, "in/sub/b.csv", "y\n2\n")
	writeFile(t, dir, "in/sub/c.txt", "not a table")
	outDir := filepath.Join(dir, "out")

	_, stderr, err := execute(t, "batch", "--glob", filepath.Join(dir, "in", "**", "*.csv"),
		"--out-dir", outDir, "--format", "ntriples", "--concurrency", "2")
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "2/2 tables transformed")

	for _, name := range []string{"a.nt", "b.nt"} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(b), "<http://www.w3.org/ns/csvw#Table>")
	}
}

func TestOutputNames(t *testing.T) {
	t.Parallel()

	got := outputNames([]string{"a/x.csv", "b/x.csv", "x_1.csv", "c/x.csv", "y.csv"})
	assert.Equal(t, []string{"x", "x_2", "x_1", "x_3", "y"}, got)
}

func TestBatch_SameFileNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeFile(t, dir, "a/x.csv", "x\n1\n")
	b := writeFile(t, dir, "b/x.csv", "x\n2\n")
	c := writeFile(t, dir, "x_1.csv", "x\n3\n")
	list := writeFile(t, dir, "tables.txt", a+"\n"+b+"\n"+c+"\n")
	outDir := filepath.Join(dir, "out")

	_, stderr, err := execute(t, "batch", "--list", list, "--out-dir", outDir, "--format", "ntriples")
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "3/3 tables transformed")

	for name, want := range map[string]string{"x.nt": `"1"`, "x_2.nt": `"2"`, "x_1.nt": `"3"`} {
		out, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Contains(t, string(out), want, name)
	}
}

func TestBatch_ListWithErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", "x\n1\n")
	bad := writeFile(t, dir, "bad.csv", "x\n1\n\n2\n")
	list := writeFile(t, dir, "tables.txt", "# tables\n"+good+"\n"+bad+"\n")

	_, stderr, err := execute(t, "batch", "--list", list, "--out-dir", filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, errSessionErrors)
	assert.Contains(t, stderr, "1 with errors")
	_, statErr := os.Stat(filepath.Join(dir, "out", "good.ttl"))
	assert.NoError(t, statErr)
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.yaml", "job: trees\nsource:\n  csv: trees.csv\n")
	out, _, err := execute(t, "validate-config", "--config", ok)
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")

	bad := writeFile(t, dir, "bad.yaml", "job: trees\nmode: maximal\nsource:\n  csv: trees.csv\n")
	_, stderr, err := execute(t, "validate-config", "--config", bad)
	assert.Error(t, err)
	assert.Contains(t, stderr, "mode")

	_, _, err = execute(t, "validate-config")
	assert.Error(t, err, "--config is required")
}

func TestOutputStem(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "trees", outputStem("data/trees.csv"))
	assert.Equal(t, "trees.2024", outputStem("/x/trees.2024.csv"))
	assert.Equal(t, "export_q_a_b", outputStem("https://example.org/export.csv?q=a+b"))
	assert.True(t, strings.HasPrefix(outputStem("data/noext"), "noext"))
}

func TestProbe_DraftFeedsTransform(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	table := writeFile(t, dir, "plantings.csv", "id;planted\n1;02/01/2020\n2;31/12/2019\n")
	meta := filepath.Join(dir, "plantings.csv-metadata.json")

	_, stderr, err := execute(t, "probe", table, "-o", meta)
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "2 columns from 2 sampled rows")

	b, err := os.ReadFile(meta)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"url": "plantings.csv"`)

	out, stderr, err := execute(t, "transform", meta, "--format", "ntriples")
	require.NoError(t, err, stderr)
	assert.Contains(t, out, `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`)
	assert.Contains(t, out, `^^<http://www.w3.org/2001/XMLSchema#date>`)
	assert.Contains(t, out, `plantings.csv#planted>`)
}

func TestProbe_Stdout(t *testing.T) {
	t.Parallel()

	table := writeFile(t, t.TempDir(), "t.csv", "a,b\nx,1\n")
	out, _, err := execute(t, "probe", table, "--url", "http://example.org/t.csv")
	require.NoError(t, err)
	assert.Contains(t, out, `"url": "http://example.org/t.csv"`)
	assert.NotContains(t, out, "dialect")

	_, _, err = execute(t, "probe", table, "--delimiter", ";;")
	assert.Error(t, err)
}

func TestServeConverter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	table := writeFile(t, dir, "semi.csv", "a;b\n1;2\n")
	convert := serveConverter(config.Options{"delimiter": ";"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var buf bytes.Buffer
	res, err := convert(context.Background(), webui.ConvertRequest{URL: table, Format: "ntriples", Minimal: true}, &buf)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Contains(t, buf.String(), `semi.csv#b> "2" .`)
	assert.NotContains(t, buf.String(), "csvw#Row")

	_, err = convert(context.Background(), webui.ConvertRequest{URL: filepath.Join(dir, "missing.csv")}, &buf)
	assert.Error(t, err)
}
