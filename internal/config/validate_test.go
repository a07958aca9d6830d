package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validJob() Job {
	j := Job{
		Job:    "trees",
		Source: Source{CSV: "data/trees.csv"},
	}
	j.SetDefaults()
	return j
}

func issuesAt(issues []Issue, sev IssueSeverity) map[string]string {
	out := map[string]string{}
	for _, i := range issues {
		if i.Severity == sev {
			out[i.Path] = i.Message
		}
	}
	return out
}

func TestValidateJob(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		mutate     func(j *Job)
		wantErrors []string
		wantWarns  []string
	}{
		{name: "valid", mutate: func(*Job) {}},
		{
			name:       "no_input",
			mutate:     func(j *Job) { j.Source = Source{SchemaKind: "csvw"} },
			wantErrors: []string{"source.csv", "source.metadata"},
		},
		{
			name:       "bad_enums",
			mutate:     func(j *Job) { j.Mode = "full"; j.Output.Format = "jsonld"; j.Source.SchemaKind = "xsd" },
			wantErrors: []string{"mode", "output.format", "source.schema_kind"},
		},
		{
			name:       "negative_runtime",
			mutate:     func(j *Job) { j.Runtime.BatchSize = -1 },
			wantErrors: []string{"runtime.batch_size"},
		},
		{
			name:      "empty_job_name",
			mutate:    func(j *Job) { j.Job = "" },
			wantWarns: []string{"job"},
		},
		{
			name:       "json_table_needs_csv",
			mutate:     func(j *Job) { j.Source = Source{Metadata: "s.json", SchemaKind: "json-table"} },
			wantErrors: []string{"source.csv"},
		},
		{
			name:      "metadata_ignored",
			mutate:    func(j *Job) { j.Source.Metadata = "m.json"; j.Source.SchemaKind = "none" },
			wantWarns: []string{"source.metadata"},
		},
		{
			name:       "storage_missing_fields",
			mutate:     func(j *Job) { j.Storage = &Storage{Table: "t"} },
			wantErrors: []string{"storage.kind", "storage.dsn"},
		},
		{
			name:      "storage_unknown_kind",
			mutate:    func(j *Job) { j.Storage = &Storage{Kind: "oracle", DSN: "x", Table: "t"} },
			wantWarns: []string{"storage.kind"},
		},
		{
			name: "nats_subject",
			mutate: func(j *Job) {
				j.Storage = &Storage{Kind: "nats", DSN: "nats://localhost:4222", Table: "a b", AutoCreateTable: true}
			},
			wantErrors: []string{"storage.table"},
			wantWarns:  []string{"storage.auto_create_table"},
		},
		{
			name:      "prometheus_without_url",
			mutate:    func(j *Job) { j.Metrics.Backend = "prometheus" },
			wantWarns: []string{"metrics.pushgateway_url"},
		},
		{
			name:       "metrics_bad_values",
			mutate:     func(j *Job) { j.Metrics = MetricsConfig{Backend: "statsd", PushgatewayURL: "not a url"} },
			wantErrors: []string{"metrics.backend", "metrics.pushgateway_url"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			j := validJob()
			tc.mutate(&j)
			issues := ValidateJob(j)

			errs := issuesAt(issues, SeverityError)
			warns := issuesAt(issues, SeverityWarning)
			assert.Len(t, errs, len(tc.wantErrors), "errors: %v", errs)
			for _, p := range tc.wantErrors {
				assert.Contains(t, errs, p)
			}
			assert.Len(t, warns, len(tc.wantWarns), "warnings: %v", warns)
			for _, p := range tc.wantWarns {
				assert.Contains(t, warns, p)
			}
			assert.Equal(t, len(tc.wantErrors) > 0, HasErrors(issues))
		})
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	i := Issue{Severity: SeverityError, Path: "storage.dsn", Message: "is required"}
	assert.Equal(t, "error at storage.dsn: is required", i.Error())
}
