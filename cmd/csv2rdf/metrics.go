package main

import (
	"fmt"
	"log/slog"

	"github.com/theodi/csv2rdf/internal/config"
	"github.com/theodi/csv2rdf/internal/metrics"
	"github.com/theodi/csv2rdf/internal/metrics/datadog"
	"github.com/theodi/csv2rdf/internal/metrics/prompush"
)

// setupMetrics installs the backend the job asks for and returns a func
// that flushes it. Backend failures are logged and leave metrics disabled.
func setupMetrics(j *config.Job, log *slog.Logger) func() {
	m := j.Metrics
	name := jobName(j)
	switch m.Backend {
	case "prometheus":
		b, err := prompush.NewBackend(name, m.PushgatewayURL)
		if err != nil {
			log.Warn("metrics disabled", "backend", m.Backend, "err", err)
			return func() {}
		}
		metrics.SetBackend(b)
		log.Debug("metrics enabled", "backend", m.Backend, "url", m.PushgatewayURL, "job", name)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics flush failed", "err", err)
			}
		}

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:      m.DatadogAddr,
			Namespace: "csv2rdf.",
			Tags:      []string{fmt.Sprintf("job:%s", name)},
		})
		if err != nil {
			log.Warn("metrics disabled", "backend", m.Backend, "err", err)
			return func() {}
		}
		metrics.SetBackend(b)
		log.Debug("metrics enabled", "backend", m.Backend, "addr", m.DatadogAddr, "job", name)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics flush failed", "err", err)
			}
			_ = b.Close()
		}

	case "", "none":
		return func() {}
	}
	log.Warn("unknown metrics backend; metrics disabled", "backend", m.Backend)
	return func() {}
}
