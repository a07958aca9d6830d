package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/theodi/csv2rdf/internal/config"
	"github.com/theodi/csv2rdf/internal/datasource"
	"github.com/theodi/csv2rdf/internal/transformer"
	"github.com/theodi/csv2rdf/internal/webui"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		addr       string
		allowFiles bool
		dialect    map[string]string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the probe and the converter over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			d := config.Options{}
			for k, v := range dialect {
				d[k] = v
			}
			srv := webui.NewServer(webui.Config{
				Addr:       addr,
				Convert:    serveConverter(d, log),
				AllowFiles: allowFiles,
				Logger:     log,
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", addr)
			return srv.ListenAndServe(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":8080", "listen address")
	f.BoolVar(&allowFiles, "allow-files", false, "let requests read local paths and file:// URLs")
	f.StringToStringVar(&dialect, "dialect", nil, "default CSV dialect, e.g. delimiter=;")
	return cmd
}

// serveConverter runs one job per request: the URL is sniffed as for the
// transform command and the graph goes to w.
func serveConverter(dialect config.Options, log *slog.Logger) webui.ConvertFunc {
	return func(ctx context.Context, req webui.ConvertRequest, w io.Writer) (*transformer.Result, error) {
		kind, err := sniffFn(ctx, req.URL)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", req.URL, err)
		}
		j := &config.Job{Job: "serve", Dialect: dialect, Output: config.Output{Format: req.Format}}
		if kind == datasource.KindMetadata {
			j.Source.Metadata = req.URL
		} else {
			j.Source.CSV = req.URL
		}
		if req.Minimal {
			j.Mode = "minimal"
		}
		j.SetDefaults()

		out, err := runJob(ctx, j, w, log.With("url", req.URL))
		if err != nil {
			return nil, err
		}
		return out.Result, nil
	}
}
