package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/theodi/csv2rdf/internal/transformer"
)

var (
	errColor  = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	okColor   = color.New(color.FgGreen)
)

// printSummary writes a short human report of one job to w. Messages are
// listed up to limit each; limit <= 0 lists them all.
func printSummary(w io.Writer, label string, o *outcome, limit int) {
	res := o.Result
	if res == nil {
		return
	}
	head := okColor
	if len(res.Errors) > 0 {
		head = errColor
	}
	statements := 0
	if res.Graph != nil {
		statements = res.Graph.Len()
	}
	head.Fprintf(w, "%s: ", label)
	fmt.Fprintf(w, "%d statements, %d rows, %d tables", statements, res.Rows, res.Tables)
	if o.Stored > 0 {
		fmt.Fprintf(w, ", %d stored", o.Stored)
	}
	if o.Output != "" {
		fmt.Fprintf(w, " -> %s", o.Output)
	}
	fmt.Fprintln(w)

	printMessages(w, errColor, "error", res.Errors, limit)
	printMessages(w, warnColor, "warning", res.Warnings, limit)
}

func printMessages(w io.Writer, c *color.Color, kind string, msgs []transformer.ErrorMessage, limit int) {
	if len(msgs) == 0 {
		return
	}
	c.Fprintf(w, "  %d %s(s)\n", len(msgs), kind)
	for i, m := range msgs {
		if limit > 0 && i == limit {
			fmt.Fprintf(w, "    ... %d more\n", len(msgs)-limit)
			return
		}
		fmt.Fprintf(w, "    %s\n", m)
	}
}
