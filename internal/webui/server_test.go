package webui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodi/csv2rdf/internal/transformer"
)

func staticPeek(body string) func(context.Context, string, int) ([]byte, error) {
	return func(context.Context, string, int) ([]byte, error) { return []byte(body), nil }
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, u string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestIndex(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<form method="post" action="/probe">`)

	resp, _ = get(t, srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIProbe(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{Peek: staticPeek("id,when\n1,2024-01-02\n")})

	q := url.Values{"url": {"http://example.org/t.csv"}}
	resp, body := get(t, srv.URL+"/api/probe?"+q.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "application/csvm+json", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `"url": "http://example.org/t.csv"`)
	assert.Contains(t, body, `"datatype": "date"`)

	q.Set("url", "/etc/passwd")
	resp, body = get(t, srv.URL+"/api/probe?"+q.Encode())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "only http(s) URLs")

	resp, _ = get(t, srv.URL+"/api/probe")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFormProbe(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{Peek: staticPeek("a;b\nx;1\n"), AllowFiles: true})

	resp, err := http.PostForm(srv.URL+"/probe", url.Values{"url": {"t.csv"}, "bytes": {"100"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// html/template escapes the quotes inside <pre>.
	assert.Contains(t, string(b), "&#34;delimiter&#34;: &#34;;&#34;")

	resp, err = http.PostForm(srv.URL+"/probe", url.Values{"url": {"t.csv"}, "delimiter": {"ab"}})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPITransform(t *testing.T) {
	t.Parallel()

	reqs := make(chan ConvertRequest, 3)
	convert := func(_ context.Context, req ConvertRequest, w io.Writer) (*transformer.Result, error) {
		reqs <- req
		if strings.HasSuffix(req.URL, "bad.csv") {
			return nil, errors.New("no such table")
		}
		_, err := io.WriteString(w, "<http://x> <http://y> \"z\" .\n")
		return &transformer.Result{Warnings: []transformer.ErrorMessage{{}}}, err
	}
	srv := newTestServer(t, Config{Convert: convert})

	q := url.Values{"url": {"http://example.org/t.csv"}, "format": {"ntriples"}, "mode": {"minimal"}}
	resp, body := get(t, srv.URL+"/api/transform?"+q.Encode())
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "application/n-triples", resp.Header.Get("Content-Type"))
	assert.Equal(t, "0", resp.Header.Get("Csv2rdf-Errors"))
	assert.Equal(t, "1", resp.Header.Get("Csv2rdf-Warnings"))
	assert.Equal(t, "<http://x> <http://y> \"z\" .\n", body)
	assert.Equal(t, ConvertRequest{URL: "http://example.org/t.csv", Format: "ntriples", Minimal: true}, <-reqs)

	q.Set("format", "rdfxml")
	resp, _ = get(t, srv.URL+"/api/transform?"+q.Encode())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	q.Set("format", "turtle")
	q.Set("url", "http://example.org/bad.csv")
	resp, body = get(t, srv.URL+"/api/transform?"+q.Encode())
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "no such table")
}

func TestAPITransform_Disabled(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Config{})
	resp, _ := get(t, srv.URL+"/api/transform?url=http://example.org/t.csv")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(Config{Addr: "127.0.0.1:0"})
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
