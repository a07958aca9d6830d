// Package config defines the job file read by the csv2rdf CLI. A job names
// the table (or metadata) to transform, the CSV dialect, the output format
// and optional storage and metrics sinks. Jobs are YAML or JSON.
//
// Example:
//
//	job: trees
//	source:
//	  metadata: data/trees.csv-metadata.json
//	dialect:
//	  delimiter: ";"
//	mode: minimal
//	output: { format: turtle, path: out/trees.ttl }
//	storage: { kind: postgres, dsn: "postgresql://...", table: public.statements }
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Job is the top-level job document.
type Job struct {
	// Job labels metrics and log lines.
	Job     string        `yaml:"job" json:"job"`
	Source  Source        `yaml:"source" json:"source"`
	Dialect Options       `yaml:"dialect" json:"dialect"`
	Mode    string        `yaml:"mode" json:"mode" validate:"omitempty,oneof=standard minimal"`
	Output  Output        `yaml:"output" json:"output"`
	Storage *Storage      `yaml:"storage" json:"storage"`
	Runtime RuntimeConfig `yaml:"runtime" json:"runtime"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// Source names the input. CSV alone means schema-less mode; Metadata points
// at a CSVW metadata file or a JSON-Table schema, per SchemaKind.
type Source struct {
	CSV        string `yaml:"csv" json:"csv" validate:"required_without=Metadata"`
	Metadata   string `yaml:"metadata" json:"metadata" validate:"required_without=CSV"`
	SchemaKind string `yaml:"schema_kind" json:"schema_kind" validate:"omitempty,oneof=csvw json-table none"`
}

// Output selects the serialization. An empty Path means stdout.
type Output struct {
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=turtle ntriples canonical"`
	Path   string `yaml:"path" json:"path"`
}

// Storage configures a statement sink. For nats, Table is the subject.
type Storage struct {
	Kind            string `yaml:"kind" json:"kind" validate:"required"`
	DSN             string `yaml:"dsn" json:"dsn" validate:"required"`
	Table           string `yaml:"table" json:"table"`
	AutoCreateTable bool   `yaml:"auto_create_table" json:"auto_create_table"`
}

// RuntimeConfig sizes batches and concurrency.
type RuntimeConfig struct {
	BatchSize     int `yaml:"batch_size" json:"batch_size" validate:"min=0"`
	Concurrency   int `yaml:"concurrency" json:"concurrency" validate:"min=0"`
	ChannelBuffer int `yaml:"channel_buffer" json:"channel_buffer" validate:"min=0"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	Backend        string `yaml:"backend" json:"backend" validate:"omitempty,oneof=none prometheus datadog"`
	PushgatewayURL string `yaml:"pushgateway_url" json:"pushgateway_url" validate:"omitempty,url"`
	DatadogAddr    string `yaml:"datadog_addr" json:"datadog_addr" validate:"omitempty,hostname_port"`
}

// Defaults.
const (
	DefaultMode          = "standard"
	DefaultFormat        = "turtle"
	DefaultBatchSize     = 5000
	DefaultConcurrency   = 4
	DefaultChannelBuffer = 64
	DefaultTable         = "statements"
)

// Load reads a job file; .json files are JSON, everything else YAML.
func Load(path string) (*Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	j, err := Decode(bytes.NewReader(b), format)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return j, nil
}

// Decode reads a job in the given format ("yaml" or "json") and fills
// defaults. Unknown keys are rejected.
func Decode(r io.Reader, format string) (*Job, error) {
	var j Job
	switch format {
	case "json":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&j); err != nil {
			return nil, err
		}
	case "yaml", "yml", "":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&j); err != nil && err != io.EOF {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}
	j.SetDefaults()
	return &j, nil
}

// SetDefaults fills zero values.
func (j *Job) SetDefaults() {
	if j.Mode == "" {
		j.Mode = DefaultMode
	}
	if j.Output.Format == "" {
		j.Output.Format = DefaultFormat
	}
	if j.Dialect == nil {
		j.Dialect = Options{}
	}
	if j.Source.SchemaKind == "" {
		j.Source.SchemaKind = "csvw"
		if j.Source.Metadata == "" {
			j.Source.SchemaKind = "none"
		}
	}
	if j.Storage != nil && j.Storage.Table == "" {
		j.Storage.Table = DefaultTable
	}
	if j.Runtime.BatchSize == 0 {
		j.Runtime.BatchSize = DefaultBatchSize
	}
	if j.Runtime.Concurrency == 0 {
		j.Runtime.Concurrency = DefaultConcurrency
	}
	if j.Runtime.ChannelBuffer == 0 {
		j.Runtime.ChannelBuffer = DefaultChannelBuffer
	}
	if j.Metrics.Backend == "" {
		j.Metrics.Backend = "none"
	}
}

// ApplyEnv overrides metrics settings from the environment:
// CSV2RDF_METRICS_BACKEND, PUSHGATEWAY_URL and DD_AGENT_ADDR.
func (j *Job) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("CSV2RDF_METRICS_BACKEND"); v != "" {
		j.Metrics.Backend = v
	}
	if v := getenv("PUSHGATEWAY_URL"); v != "" {
		j.Metrics.PushgatewayURL = v
	}
	if v := getenv("DD_AGENT_ADDR"); v != "" {
		j.Metrics.DatadogAddr = v
	}
}

// Minimal reports whether the job asks for minimal output.
func (j *Job) Minimal() bool { return j.Mode == "minimal" }

// Options is a free-form bag with typed getters. Values may come from JSON
// (float64 numbers) or YAML (int numbers).
type Options map[string]any

// String returns the string at key, or def.
func (o Options) String(key, def string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the bool at key, or def.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the integer at key, or def.
func (o Options) Int(key string, def int) int {
	switch n := o[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return def
}

// StringSlice returns the strings at key; non-strings are skipped.
func (o Options) StringSlice(key string) []string {
	switch vv := o[key].(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	}
	return nil
}

// Map returns a plain copy for decoders that want map[string]any.
func (o Options) Map() map[string]any {
	m := make(map[string]any, len(o))
	for k, v := range o {
		m[k] = v
	}
	return m
}

// UnmarshalJSON decodes null or a missing bag as an empty map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
