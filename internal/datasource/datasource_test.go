package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodi/csv2rdf/internal/datasource/file"
	"github.com/theodi/csv2rdf/internal/datasource/httpds"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/t.csv":
			fmt.Fprint(w, "a,b\n1,2\n")
		case "/t.csv-metadata.json":
			fmt.Fprint(w, "\n  {\"@context\": \"http://www.w3.org/ns/csvw\"}")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolver_Open(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	dir := t.TempDir()
	p := filepath.Join(dir, "t.csv")
	require.NoError(t, os.WriteFile(p, []byte("x\n1\n"), 0o644))
	fileURL, err := file.URL(p)
	require.NoError(t, err)

	r := NewResolver(httpds.NewClient(httpds.Config{}))
	ctx := context.Background()

	rc, err := r.Open(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "x\n1\n", readAll(t, rc))

	rc, err = r.Open(ctx, fileURL)
	require.NoError(t, err)
	assert.Equal(t, "x\n1\n", readAll(t, rc))

	rc, err = r.Open(ctx, srv.URL+"/t.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", readAll(t, rc))

	_, err = r.Open(ctx, srv.URL+"/nope.csv")
	var se *httpds.StatusError
	assert.ErrorAs(t, err, &se)

	_, err = r.Open(ctx, "ftp://example.org/t.csv")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestResolver_Sniff(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	dir := t.TempDir()
	meta := filepath.Join(dir, "m.json")
	require.NoError(t, os.WriteFile(meta, []byte("\xef\xbb\xbf{\"url\": \"t.csv\"}"), 0o644))
	table := filepath.Join(dir, "t.csv")
	require.NoError(t, os.WriteFile(table, []byte("a,b\n"), 0o644))

	r := NewResolver(nil)
	ctx := context.Background()
	cases := map[string]Kind{
		meta:                             KindMetadata,
		table:                            KindCSV,
		srv.URL + "/t.csv":               KindCSV,
		srv.URL + "/t.csv-metadata.json": KindMetadata,
	}
	for in, want := range cases {
		got, err := r.Sniff(ctx, in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	assert.Equal(t, "metadata", KindMetadata.String())
}

func TestResolver_Peek(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	p := filepath.Join(t.TempDir(), "t.csv")
	require.NoError(t, os.WriteFile(p, []byte("a,b\n1,2\n3,4\n"), 0o644))

	r := NewResolver(nil)
	ctx := context.Background()

	head, err := r.Peek(ctx, p, 4)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(head))

	head, err = r.Peek(ctx, srv.URL+"/t.csv", 100)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(head))

	_, err = r.Peek(ctx, filepath.Join(t.TempDir(), "missing.csv"), 4)
	assert.Error(t, err)
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	got, err := Canonical("http://example.org/t.csv")
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/t.csv", got)

	got, err = Canonical("data/t.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "file:///"), got)
	assert.True(t, strings.HasSuffix(got, "/data/t.csv"), got)
}
