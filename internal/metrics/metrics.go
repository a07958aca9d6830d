// Package metrics is a backend-agnostic facade for transformation metrics.
//
// A process installs one Backend with SetBackend; until then every call is a
// no-op, so library code can record unconditionally. Concrete systems live
// in subpackages (prompush, datadog) the same way storage backends do.
package metrics

import (
	"sync"
	"time"
)

// Metric names.
const (
	StepTotal       = "csv2rdf_step_total"
	StepDuration    = "csv2rdf_step_duration_seconds"
	RecordsTotal    = "csv2rdf_records_total"
	BatchesTotal    = "csv2rdf_batches_total"
	StatusSuccess   = "success"
	StatusFailure   = "failure"
	DefaultJobLabel = "csv2rdf"
)

// Steps.
const (
	StepLoadSchema  = "load_schema"
	StepTransform   = "transform"
	StepWriteOutput = "write_output"
	StepStore       = "store"
)

// Record kinds.
const (
	KindRows       = "rows"
	KindStatements = "statements"
	KindErrors     = "errors"
	KindWarnings   = "warnings"
	KindBlankRows  = "blank-rows"
)

// Labels are key/value pairs attached to a metric.
type Labels map[string]string

// Backend is implemented by metric systems.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics, if the backend buffers.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b. nil keeps the current backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush flushes the installed backend.
func Flush() error { return current().Flush() }

// RecordStep counts one execution of step and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	lbls := Labels{"job": jobLabel(job), "step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// Time runs fn as step and records it.
func Time(job, step string, fn func() error) error {
	start := time.Now()
	err := fn()
	RecordStep(job, step, err, time.Since(start))
	return err
}

// RecordRow adds delta to the record counter of kind. Non-positive deltas
// are dropped.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": jobLabel(job), "kind": kind})
}

// RecordBatches counts storage batches.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": jobLabel(job)})
}

func jobLabel(job string) string {
	if job == "" {
		return DefaultJobLabel
	}
	return job
}
