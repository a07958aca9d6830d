package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theodi/csv2rdf/internal/metrics"
)

// gathered indexes gathered families by name.
func gathered(t *testing.T, b *Backend) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := b.Gatherer().Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	_, err := NewBackend("j", "")
	assert.Error(t, err)

	b, err := NewBackend("", "http://pushgateway:9091")
	require.NoError(t, err)
	assert.Equal(t, metrics.DefaultJobLabel, b.jobName)
}

func TestBackend_Records(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("trees", "http://unused")
	require.NoError(t, err)

	lbls := metrics.Labels{"job": "trees", "step": metrics.StepTransform, "status": metrics.StatusSuccess}
	b.IncCounter(metrics.StepTotal, 1, lbls)
	b.IncCounter(metrics.StepTotal, 1, lbls)
	b.ObserveHistogram(metrics.StepDuration, 0.25, lbls)
	b.ObserveHistogram("other_metric", 1, lbls)
	b.IncCounter(metrics.RecordsTotal, 10, metrics.Labels{"kind": metrics.KindStatements})
	b.IncCounter(metrics.BatchesTotal, 3, nil)
	b.IncCounter("unknown_total", 1, nil)

	mfs := gathered(t, b)
	require.Contains(t, mfs, metrics.StepTotal)
	step := mfs[metrics.StepTotal].GetMetric()
	require.Len(t, step, 1)
	assert.Equal(t, 2.0, step[0].GetCounter().GetValue())
	assert.Equal(t, metrics.StepTransform, labelValue(step[0], "step"))

	hist := mfs[metrics.StepDuration].GetMetric()
	require.Len(t, hist, 1)
	assert.Equal(t, uint64(1), hist[0].GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.25, hist[0].GetHistogram().GetSampleSum(), 1e-9)

	rec := mfs[metrics.RecordsTotal].GetMetric()
	require.Len(t, rec, 1)
	assert.Equal(t, metrics.KindStatements, labelValue(rec[0], "kind"))
	assert.Equal(t, 10.0, rec[0].GetCounter().GetValue())

	assert.Equal(t, 3.0, mfs[metrics.BatchesTotal].GetMetric()[0].GetCounter().GetValue())
	assert.NotContains(t, mfs, "unknown_total")
}

func TestBackend_FlushPushes(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, body = r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("trees", srv.URL)
	require.NoError(t, err)
	b.IncCounter(metrics.BatchesTotal, 1, nil)
	require.NoError(t, b.Flush())

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.HasSuffix(path, "/metrics/job/trees"), path)
	assert.NotEmpty(t, body)
}

func TestBackend_FlushError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b, err := NewBackend("trees", srv.URL)
	require.NoError(t, err)
	assert.Error(t, b.Flush())
}
