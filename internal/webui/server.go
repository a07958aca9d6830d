// Package webui serves the probe and the converter over HTTP: a small HTML
// form for people and two plain endpoints for scripts.
//
// Routes:
//
//	GET  /               → form
//	POST /probe          → drafts metadata for the form's table; renders it inline
//	GET  /api/probe      → draft metadata as application/csvm+json
//	GET  /api/transform  → RDF for a table or metadata URL
//
// Only http(s) inputs are accepted unless Config.AllowFiles is set.
package webui

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theodi/csv2rdf/internal/probe"
	"github.com/theodi/csv2rdf/internal/transformer"
)

// ConvertRequest is one /api/transform call.
type ConvertRequest struct {
	// URL is a CSV table or a metadata document.
	URL     string
	Format  string
	Minimal bool
}

// ConvertFunc transforms req.URL and writes the graph to w. Session errors
// are reported in the result, not as an error.
type ConvertFunc func(ctx context.Context, req ConvertRequest, w io.Writer) (*transformer.Result, error)

// Config controls server startup.
type Config struct {
	Addr    string
	Convert ConvertFunc
	// Peek overrides how the probe samples tables.
	Peek probe.PeekFunc
	// AllowFiles lets requests name local paths and file:// URLs.
	AllowFiles bool
	Logger     *slog.Logger
}

// Server wraps http.ServeMux with the routes above.
type Server struct {
	cfg  Config
	mux  *http.ServeMux
	tmpl *template.Template
	log  *slog.Logger
}

// NewServer constructs a Server with routes and the embedded template.
func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		mux:  http.NewServeMux(),
		tmpl: template.Must(template.New("index").Parse(indexHTML)),
		log:  log.With("component", "webui"),
	}
	s.routes()
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", s.cfg.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /probe", s.handleProbe)
	s.mux.HandleFunc("GET /api/probe", s.handleAPIProbe)
	s.mux.HandleFunc("GET /api/transform", s.handleAPITransform)
}

type page struct {
	URL        string
	Bytes      int
	Delimiter  string
	ResultText string
	Error      string
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, page{Bytes: probe.DefaultMaxBytes})
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}
	p := page{
		URL:       strings.TrimSpace(r.FormValue("url")),
		Delimiter: r.FormValue("delimiter"),
	}
	p.Bytes, _ = strconv.Atoi(strings.TrimSpace(r.FormValue("bytes")))

	body, err := s.probe(r.Context(), p.URL, p.Bytes, p.Delimiter)
	if err != nil {
		p.Error = err.Error()
		s.render(w, http.StatusBadRequest, p)
		return
	}
	p.ResultText = string(body)
	s.render(w, http.StatusOK, p)
}

func (s *Server) handleAPIProbe(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, _ := strconv.Atoi(q.Get("bytes"))
	body, err := s.probe(r.Context(), strings.TrimSpace(q.Get("url")), n, q.Get("delimiter"))
	if err != nil {
		http.Error(w, "probe failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/csvm+json")
	_, _ = w.Write(body)
}

var contentTypes = map[string]string{
	"turtle":    "text/turtle; charset=utf-8",
	"ntriples":  "application/n-triples",
	"canonical": "application/n-quads",
}

func (s *Server) handleAPITransform(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Convert == nil {
		http.Error(w, "transform is not enabled", http.StatusNotImplemented)
		return
	}
	q := r.URL.Query()
	req := ConvertRequest{
		URL:     strings.TrimSpace(q.Get("url")),
		Format:  q.Get("format"),
		Minimal: q.Get("mode") == "minimal",
	}
	if req.Format == "" {
		req.Format = "turtle"
	}
	ct, ok := contentTypes[req.Format]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown format %q", req.Format), http.StatusBadRequest)
		return
	}
	if err := s.checkInput(req.URL); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	res, err := s.cfg.Convert(r.Context(), req, &buf)
	if err != nil {
		s.log.Warn("transform failed", "url", req.URL, "err", err)
		http.Error(w, "transform failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", ct)
	if res != nil {
		w.Header().Set("Csv2rdf-Errors", strconv.Itoa(len(res.Errors)))
		w.Header().Set("Csv2rdf-Warnings", strconv.Itoa(len(res.Warnings)))
	}
	_, _ = buf.WriteTo(w)
}

func (s *Server) probe(ctx context.Context, raw string, n int, delimiter string) ([]byte, error) {
	if err := s.checkInput(raw); err != nil {
		return nil, err
	}
	delim, err := probe.DecodeDelimiter(delimiter)
	if err != nil {
		return nil, err
	}
	res, err := probe.Probe(ctx, probe.Options{URL: raw, MaxBytes: n, Delimiter: delim, Peek: s.cfg.Peek})
	if err != nil {
		return nil, err
	}
	return res.Metadata()
}

// checkInput rejects empty inputs and, unless files are allowed, anything
// but an http(s) URL.
func (s *Server) checkInput(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}
	if s.cfg.AllowFiles {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("only http(s) URLs are accepted (got %q)", raw)
	}
	return nil
}

func (s *Server) render(w http.ResponseWriter, status int, p page) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, p); err != nil {
		s.log.Error("template error", "err", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

//go:embed index.tmpl.html
var indexHTML string
