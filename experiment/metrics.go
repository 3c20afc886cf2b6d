package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/YuminosukeSato/wndgo/featurespace"
	"github.com/YuminosukeSato/wndgo/scoring"
)

// Metrics instruments the shuffle-split driver.
type Metrics struct {
	// splits counts finished splits. Labels: mode, method, status (ok, error)
	splits *prometheus.CounterVec

	// samples counts scored test samples. Labels: mode, method
	samples *prometheus.CounterVec

	// score is the distribution of split scores: accuracy for classifiers,
	// Pearson r for regressors. Labels: mode, method
	score *prometheus.HistogramVec

	// duration is the wall time of one split. Labels: mode, method
	duration *prometheus.HistogramVec
}

// NewMetrics registers the driver metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		splits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wndgo",
			Subsystem: "experiment",
			Name:      "splits_total",
			Help:      "Total train/test splits scored",
		}, []string{"mode", "method", "status"}),
		samples: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wndgo",
			Subsystem: "experiment",
			Name:      "test_samples_total",
			Help:      "Total test samples scored",
		}, []string{"mode", "method"}),
		score: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wndgo",
			Subsystem: "experiment",
			Name:      "split_score",
			Help:      "Accuracy (discrete) or Pearson r (continuous) of each split",
			Buckets:   []float64{-0.5, 0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 0.99, 1},
		}, []string{"mode", "method"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wndgo",
			Subsystem: "experiment",
			Name:      "split_duration_seconds",
			Help:      "Time to split, weigh and score one iteration",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"mode", "method"}),
	}
}

func (m *Metrics) observe(mode featurespace.Mode, method scoring.Method, b *scoring.BatchResult, seconds float64) {
	if m == nil {
		return
	}
	labels := []string{mode.String(), string(method)}
	m.splits.WithLabelValues(append(labels, "ok")...).Inc()
	m.samples.WithLabelValues(labels...).Add(float64(b.TestSize()))
	m.duration.WithLabelValues(labels...).Observe(seconds)
	s := b.Pearson
	if mode == featurespace.Discrete {
		s = b.Accuracy
	}
	if s == s { // NaN を除外
		m.score.WithLabelValues(labels...).Observe(s)
	}
}

func (m *Metrics) failed(mode featurespace.Mode, method scoring.Method) {
	if m == nil {
		return
	}
	m.splits.WithLabelValues(mode.String(), string(method), "error").Inc()
}
