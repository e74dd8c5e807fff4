package ipsr

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the progress of refinement runs as Prometheus metrics.
type Metrics struct {
	Registry *prometheus.Registry

	Iterations        prometheus.Counter
	ConvergenceMetric prometheus.Gauge
	VotedSamples      prometheus.Gauge
	Triangles         prometheus.Gauge
	SkippedFaces      prometheus.Counter
	DegenerateRounds  prometheus.Counter
	OracleDuration    *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics in a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipsr_iterations_total",
			Help: "Number of completed refinement iterations",
		}),
		ConvergenceMetric: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ipsr_normal_variation",
			Help: "Mean normal change of the most-changed samples in the last iteration",
		}),
		VotedSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ipsr_voted_samples",
			Help: "Number of samples which received a vote in the last iteration",
		}),
		Triangles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ipsr_mesh_triangles",
			Help: "Number of triangular faces in the last reconstruction",
		}),
		SkippedFaces: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipsr_skipped_faces_total",
			Help: "Number of non-triangular faces excluded from voting",
		}),
		DegenerateRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ipsr_degenerate_iterations_total",
			Help: "Number of iterations in which no sample received a vote",
		}),
		OracleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ipsr_oracle_duration_seconds",
				Help:    "Duration of surface reconstruction calls",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"phase"},
		),
	}
	m.Registry.MustRegister(
		m.Iterations,
		m.ConvergenceMetric,
		m.VotedSamples,
		m.Triangles,
		m.SkippedFaces,
		m.DegenerateRounds,
		m.OracleDuration,
	)
	return m
}

// ObserveOracle records the duration of an Oracle call. The phase is
// "iterate" or "final".
func (m *Metrics) ObserveOracle(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.OracleDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveIteration records the statistics of a completed iteration.
func (m *Metrics) ObserveIteration(stats IterationStats) {
	if m == nil {
		return
	}
	m.Iterations.Inc()
	m.VotedSamples.Set(float64(stats.Voted))
	m.Triangles.Set(float64(stats.Triangles))
	m.SkippedFaces.Add(float64(stats.SkippedFaces))
	if stats.Voted == 0 {
		m.DegenerateRounds.Inc()
	} else {
		m.ConvergenceMetric.Set(stats.Metric)
	}
}

// WriteFile dumps all metrics in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return errors.Wrap(err, "write metrics")
	}
	return nil
}
