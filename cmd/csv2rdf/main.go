// Command csv2rdf converts CSV tables, optionally described by CSVW metadata
// or a JSON Table Schema, into RDF. It writes Turtle, N-Triples or canonical
// N-Quads and can push the statements to a storage sink.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	// Link every storage backend; the job selects one by kind.
	_ "github.com/theodi/csv2rdf/internal/storage/all"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// errSessionErrors makes the process exit non-zero after a session that
// produced output but reported errors.
var errSessionErrors = errors.New("transformation reported errors")

type globalFlags struct {
	logLevel string
	verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSessionErrors) {
			fmt.Fprintln(os.Stderr, "csv2rdf:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "csv2rdf",
		Short:         "Convert CSV on the Web tables to RDF",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "shorthand for --log-level=debug")

	root.AddCommand(
		newTransformCmd(g),
		newBatchCmd(g),
		newProbeCmd(g),
		newServeCmd(g),
		newValidateConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// logger builds the stderr text logger for the chosen level and installs it
// as the default so library packages log through it too.
func (g *globalFlags) logger(w io.Writer) (*slog.Logger, error) {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(strings.TrimSpace(g.logLevel))); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the csv2rdf version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "csv2rdf", version)
		},
	}
}
