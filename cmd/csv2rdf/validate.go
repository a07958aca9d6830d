package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theodi/csv2rdf/internal/config"
)

func newValidateConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Check a job file without running it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := config.Load(path)
			if err != nil {
				return err
			}
			j.ApplyEnv(nil)
			if err := report(cmd, config.ValidateJob(*j)); err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "configuration is valid: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "job file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

// report prints issues to stderr and fails when any is an error.
func report(cmd *cobra.Command, issues []config.Issue) error {
	w := cmd.ErrOrStderr()
	for _, iss := range issues {
		c := warnColor
		if iss.Severity == config.SeverityError {
			c = errColor
		}
		c.Fprintf(w, "%s", iss.Severity)
		fmt.Fprintf(w, ": %s: %s\n", iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errors.New("configuration is invalid")
	}
	return nil
}
