package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// IssueSeverity is the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding. Path is dotted, in file key names
// (e.g. "storage.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// StorageKinds are the sinks the CLI links in. Other kinds are warnings so
// a job file can name a backend registered by a custom build.
var StorageKinds = []string{"sqlite", "postgres", "mssql", "neo4j", "nats"}

var (
	validateOnce sync.Once
	structV      *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		structV = validator.New(validator.WithRequiredStructEnabled())
		structV.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return structV
}

// ValidateJob checks a decoded job. Struct-tag rules run first; the
// cross-field checks below cover what tags cannot express.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if err := structValidator().Struct(j); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
		}
		for _, fe := range verrs {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fieldPath(fe.Namespace()),
				Message:  describe(fe),
			})
		}
	}

	if strings.TrimSpace(j.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and logs will be labeled \"csv2rdf\"",
		})
	}
	issues = append(issues, validateSource(j.Source)...)
	if j.Storage != nil {
		issues = append(issues, validateStorage(*j.Storage)...)
	}
	issues = append(issues, validateMetrics(j.Metrics)...)
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.SchemaKind {
	case "none":
		if s.CSV == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.csv",
				Message:  "schema_kind none needs a csv table",
			})
		}
		if s.Metadata != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.metadata",
				Message:  "metadata is ignored when schema_kind is none",
			})
		}
	case "json-table":
		if s.CSV == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.csv",
				Message:  "a JSON-Table schema does not name its table; csv is required",
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	known := false
	for _, k := range StorageKinds {
		if s.Kind == k {
			known = true
		}
	}
	if s.Kind != "" && !known {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if s.AutoCreateTable && s.Kind == "nats" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.auto_create_table",
			Message:  "nats has no table to create; auto_create_table is ignored",
		})
	}
	if s.Kind == "nats" && strings.ContainsAny(s.Table, " \t") {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.table",
			Message:  "a NATS subject must not contain whitespace",
		})
	}
	return issues
}

func validateMetrics(m MetricsConfig) []Issue {
	switch {
	case m.Backend == "prometheus" && m.PushgatewayURL == "":
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "metrics.pushgateway_url",
			Message:  "prometheus backend without pushgateway_url; set it or PUSHGATEWAY_URL",
		}}
	case m.Backend == "datadog" && m.DatadogAddr == "":
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "metrics.datadog_addr",
			Message:  "datadog backend without datadog_addr; the client default 127.0.0.1:8125 is used",
		}}
	}
	return nil
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// fieldPath drops the root struct name: "Job.source.csv" -> "source.csv".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is empty", strings.ToLower(fe.Param()))
	case "oneof":
		return fmt.Sprintf("must be one of [%s] (got: %v)", fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("must be at least %s (got: %v)", fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("must be a valid URL (got: %v)", fe.Value())
	case "hostname_port":
		return fmt.Sprintf("must be host:port (got: %v)", fe.Value())
	}
	return fmt.Sprintf("failed %q (got: %v)", fe.Tag(), fe.Value())
}
