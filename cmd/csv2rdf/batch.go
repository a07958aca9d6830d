package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/theodi/csv2rdf/internal/config"
	"github.com/theodi/csv2rdf/internal/datasource/file"
	"github.com/theodi/csv2rdf/internal/datasource/httpds"
)

type batchFlags struct {
	config      string
	glob        string
	list        string
	concurrency int
	format      string
	outDir      string
	minimal     bool
}

var formatExt = map[string]string{
	"turtle":    ".ttl",
	"ntriples":  ".nt",
	"canonical": ".nq",
}

func newBatchCmd(g *globalFlags) *cobra.Command {
	f := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Transform many tables, one independent session each",
		Long: `Transform every table matched by --glob or listed in --list. Each table
runs in its own session without a schema; outputs are written to --out-dir
as <name>.<ext>. A job file supplies dialect, mode, storage and metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			base := &config.Job{}
			if f.config != "" {
				if base, err = config.Load(f.config); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("format") {
				base.Output.Format = f.format
			}
			if cmd.Flags().Changed("minimal") && f.minimal {
				base.Mode = "minimal"
			}
			if cmd.Flags().Changed("concurrency") {
				base.Runtime.Concurrency = f.concurrency
			}
			base.SetDefaults()
			base.ApplyEnv(nil)
			ext, ok := formatExt[base.Output.Format]
			if !ok {
				return fmt.Errorf("unknown output format %q", base.Output.Format)
			}

			inputs, err := f.inputs()
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return errors.New("no input tables matched")
			}

			flush := setupMetrics(base, log)
			defer flush()

			var (
				mu       sync.Mutex
				failed   int
				withErrs int
				names    = outputNames(inputs)
			)
			grp, gctx := errgroup.WithContext(ctx)
			grp.SetLimit(base.Runtime.Concurrency)
			for i, in := range inputs {
				j := *base
				j.Source = config.Source{CSV: in, SchemaKind: "none"}
				j.Output.Path = filepath.Join(f.outDir, names[i]+ext)

				grp.Go(func() error {
					o, err := runJob(gctx, &j, cmd.OutOrStdout(), log.With("table", in))
					mu.Lock()
					defer mu.Unlock()
					if o != nil {
						printSummary(cmd.ErrOrStderr(), in, o, 5)
					}
					switch {
					case err != nil:
						failed++
						log.Error("table failed", "table", in, "err", err)
					case len(o.Result.Errors) > 0:
						withErrs++
					}
					return gctx.Err()
				})
			}
			if err := grp.Wait(); err != nil {
				return err
			}

			done := len(inputs) - failed
			fmt.Fprintf(cmd.ErrOrStderr(), "%d/%d tables transformed", done, len(inputs))
			if withErrs > 0 {
				errColor.Fprintf(cmd.ErrOrStderr(), ", %d with errors", withErrs)
			}
			fmt.Fprintln(cmd.ErrOrStderr())
			if failed > 0 || withErrs > 0 {
				return errSessionErrors
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "job file supplying dialect, mode, storage and metrics")
	fl.StringVar(&f.glob, "glob", "", "table pattern, e.g. 'data/**/*.csv'")
	fl.StringVar(&f.list, "list", "", "file listing table paths or URLs, one per line")
	fl.IntVar(&f.concurrency, "concurrency", config.DefaultConcurrency, "sessions run in parallel")
	fl.StringVar(&f.format, "format", "", "output format: turtle, ntriples or canonical")
	fl.StringVar(&f.outDir, "out-dir", ".", "directory for outputs")
	fl.BoolVar(&f.minimal, "minimal", false, "emit only cell statements")
	cmd.MarkFlagsOneRequired("glob", "list")
	return cmd
}

// inputs expands --glob and reads --list, de-duplicated and sorted.
func (f *batchFlags) inputs() ([]string, error) {
	seen := map[string]struct{}{}
	if f.glob != "" {
		matches, err := doublestar.FilepathGlob(f.glob, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("--glob: %w", err)
		}
		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}
	if f.list != "" {
		listed, err := file.ReadList(f.list)
		if err != nil {
			return nil, fmt.Errorf("--list: %w", err)
		}
		for _, l := range listed {
			seen[l] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// outputNames gives each input a distinct output stem. The first input with
// a stem keeps it; later ones get the lowest free "_N" suffix, skipping
// stems that another input owns outright.
func outputNames(inputs []string) []string {
	names := make([]string, len(inputs))
	used := make(map[string]bool, len(inputs))
	for i, in := range inputs {
		stem := outputStem(in)
		if !used[stem] {
			used[stem] = true
			names[i] = stem
		}
	}
	for i, in := range inputs {
		if names[i] != "" {
			continue
		}
		stem := outputStem(in)
		for n := 1; ; n++ {
			name := fmt.Sprintf("%s_%d", stem, n)
			if !used[name] {
				used[name] = true
				names[i] = name
				break
			}
		}
	}
	return names
}

// outputStem names the output of one input: the file name without its
// extension for paths, httpds.OutputName for URLs.
func outputStem(in string) string {
	if strings.HasPrefix(in, "http://") || strings.HasPrefix(in, "https://") {
		return httpds.OutputName(in)
	}
	base := filepath.Base(in)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
