package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/theodi/csv2rdf/internal/probe"
)

func newProbeCmd(g *globalFlags) *cobra.Command {
	var (
		maxBytes  int
		delimiter string
		tableURL  string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "probe <table>",
		Short: "Sample a CSV table and draft CSVW metadata for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			delim, err := probe.DecodeDelimiter(delimiter)
			if err != nil {
				return err
			}
			in := args[0]
			if tableURL == "" && out != "" {
				// Metadata usually sits next to its table.
				tableURL = path.Base(filepath.ToSlash(in))
			}
			res, err := probe.Probe(cmd.Context(), probe.Options{
				URL:       in,
				TableURL:  tableURL,
				MaxBytes:  maxBytes,
				Delimiter: delim,
			})
			if err != nil {
				return err
			}
			log.Info("probed table", "table", in, "columns", len(res.Columns), "sampled_rows", res.Rows)

			b, err := res.Metadata()
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d columns from %d sampled rows -> %s\n", len(res.Columns), res.Rows, out)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&maxBytes, "bytes", probe.DefaultMaxBytes, "sample at most this many leading bytes")
	f.StringVar(&delimiter, "delimiter", "", `field delimiter; sniffed when empty ("\t" for tab)`)
	f.StringVar(&tableURL, "url", "", "table url to write into the metadata (default: the input, or its base name with -o)")
	f.StringVarP(&out, "out", "o", "", "write the metadata here instead of stdout")
	return cmd
}
