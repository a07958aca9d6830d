package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theodi/csv2rdf/internal/config"
	"github.com/theodi/csv2rdf/internal/datasource"
)

type transformFlags struct {
	config    string
	csv       string
	metadata  string
	jsonTable string
	minimal   bool
	format    string
	out       string
	storage   string
	dsn       string
	table     string
	autoTable bool
	jobLabel  string
	limit     int
}

func newTransformCmd(g *globalFlags) *cobra.Command {
	f := &transformFlags{}
	cmd := &cobra.Command{
		Use:   "transform [URL]",
		Short: "Transform one table or table group to RDF",
		Long: `Transform one CSV table, or every table of a CSVW table group, to RDF.

The input comes from a job file (--config), from --csv/--metadata/--json-table,
or from a single URL argument whose content decides whether it is a table or
a metadata document. Flags override job file values.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := g.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			j, err := f.job(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				kind, err := sniffFn(ctx, args[0])
				if err != nil {
					return fmt.Errorf("inspect %s: %w", args[0], err)
				}
				if kind == datasource.KindMetadata {
					j.Source.Metadata = args[0]
				} else {
					j.Source.CSV = args[0]
				}
				if !cmd.Flags().Changed("json-table") {
					j.Source.SchemaKind = ""
				}
			}
			j.SetDefaults()
			j.ApplyEnv(nil)
			if err := report(cmd, config.ValidateJob(*j)); err != nil {
				return err
			}

			flush := setupMetrics(j, log)
			defer flush()

			o, err := runJob(ctx, j, cmd.OutOrStdout(), log.With("job", jobName(j)))
			if o != nil {
				printSummary(cmd.ErrOrStderr(), jobName(j), o, f.limit)
			}
			if err != nil {
				return err
			}
			if len(o.Result.Errors) > 0 {
				return errSessionErrors
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "job file (YAML or JSON)")
	fl.StringVar(&f.csv, "csv", "", "CSV table path or URL")
	fl.StringVar(&f.metadata, "metadata", "", "CSVW metadata path or URL")
	fl.StringVar(&f.jsonTable, "json-table", "", "JSON Table Schema path or URL describing --csv")
	fl.BoolVar(&f.minimal, "minimal", false, "emit only cell statements")
	fl.StringVar(&f.format, "format", "", "output format: turtle, ntriples or canonical")
	fl.StringVarP(&f.out, "out", "o", "", "output file (default stdout)")
	fl.StringVar(&f.storage, "storage", "", "storage kind: sqlite, postgres, mssql, neo4j or nats")
	fl.StringVar(&f.dsn, "dsn", "", "storage DSN")
	fl.StringVar(&f.table, "table", "", "storage table (NATS subject)")
	fl.BoolVar(&f.autoTable, "auto-create-table", false, "create the storage table when missing")
	fl.StringVar(&f.jobLabel, "job", "", "job label for logs and metrics")
	fl.IntVar(&f.limit, "max-messages", 20, "messages of each kind listed in the summary (0 for all)")
	cmd.MarkFlagsMutuallyExclusive("metadata", "json-table")
	return cmd
}

// job loads --config, if any, and applies the flags the user set.
func (f *transformFlags) job(cmd *cobra.Command) (*config.Job, error) {
	j := &config.Job{}
	if f.config != "" {
		loaded, err := config.Load(f.config)
		if err != nil {
			return nil, err
		}
		j = loaded
	}

	changed := cmd.Flags().Changed
	if changed("csv") {
		j.Source.CSV = f.csv
	}
	if changed("metadata") {
		j.Source.Metadata = f.metadata
		j.Source.SchemaKind = "csvw"
	}
	if changed("json-table") {
		j.Source.Metadata = f.jsonTable
		j.Source.SchemaKind = "json-table"
	}
	if changed("minimal") {
		j.Mode = "standard"
		if f.minimal {
			j.Mode = "minimal"
		}
	}
	if changed("format") {
		j.Output.Format = f.format
	}
	if changed("out") {
		j.Output.Path = f.out
	}
	if changed("job") {
		j.Job = f.jobLabel
	}
	if changed("storage") || changed("dsn") || changed("table") || changed("auto-create-table") {
		if j.Storage == nil {
			j.Storage = &config.Storage{}
		}
		if changed("storage") {
			j.Storage.Kind = f.storage
		}
		if changed("dsn") {
			j.Storage.DSN = f.dsn
		}
		if changed("table") {
			j.Storage.Table = f.table
		}
		if changed("auto-create-table") {
			j.Storage.AutoCreateTable = f.autoTable
		}
	}
	return j, nil
}
