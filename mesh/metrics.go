package mesh

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for a Session.
type Metrics struct {
	gatherer prometheus.Gatherer

	Passes       *prometheus.CounterVec
	PassDuration prometheus.Histogram
	Points       prometheus.Gauge
	Groups       prometheus.Gauge
}

// NewMetrics registers the session metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice against the same
// registry returns the already registered collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	passes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pinmesh_recluster_passes_total",
		Help: "Clustering passes, labeled by whether grouping ran or was skipped below the point threshold.",
	}, []string{"outcome"}), "pinmesh_recluster_passes_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pinmesh_recluster_duration_seconds",
		Help:    "Duration of a clustering pass including boundary ordering.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}), "pinmesh_recluster_duration_seconds")
	if err != nil {
		return nil, err
	}

	points, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pinmesh_points",
		Help: "Current number of points in the session.",
	}), "pinmesh_points")
	if err != nil {
		return nil, err
	}

	groups, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pinmesh_groups",
		Help: "Current number of groups in the session.",
	}), "pinmesh_groups")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:     gatherer,
		Passes:       passes,
		PassDuration: duration,
		Points:       points,
		Groups:       groups,
	}, nil
}

// Handler exposes the registry the metrics were registered against.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) observePass(outcome string, started time.Time, points, groups int) {
	if m == nil {
		return
	}
	m.Passes.WithLabelValues(outcome).Inc()
	m.PassDuration.Observe(time.Since(started).Seconds())
	m.Points.Set(float64(points))
	m.Groups.Set(float64(groups))
}

func (m *Metrics) setCounts(points, groups int) {
	if m == nil {
		return
	}
	m.Points.Set(float64(points))
	m.Groups.Set(float64(groups))
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
