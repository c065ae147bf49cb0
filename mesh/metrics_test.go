package mesh

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.Points.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(second.Points))
}

func TestMetrics_SessionPasses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	s := NewSession(SessionOptions{Notifier: &recorder{}, Colors: &seqColors{}, Metrics: m})
	addAll(t, s, append(berlinCluster(8), paris))

	assert.Equal(t, 8.0, testutil.ToFloat64(m.Passes.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Passes.WithLabelValues("grouped")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.Points))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Groups))

	s.ClearAll()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Points))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Groups))
}

func TestMetrics_Handler(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	m.observePass("grouped", time.Now(), 4, 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "pinmesh_recluster_passes_total"))
	assert.True(t, strings.Contains(body, "pinmesh_points 4"))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.observePass("grouped", time.Now(), 1, 1)
	m.setCounts(0, 0)
	assert.NotNil(t, m.Handler())
}
