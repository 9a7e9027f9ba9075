package tokenize

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects plan cache and compilation statistics. A nil *Metrics
// records nothing.
type Metrics struct {
	cacheLookups   *prometheus.CounterVec
	compileSeconds *prometheus.HistogramVec
	plansCompiled  *prometheus.CounterVec
}

// NewMetrics registers the tokenizer collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexcite_plan_cache_lookups_total",
			Help: "Plan cache lookups by result (hit, miss, corrupt).",
		}, []string{"result"}),
		compileSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lexcite_plan_compile_duration_seconds",
			Help:    "Time spent building a tokenizer plan from the grammar.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"strategy"}),
		plansCompiled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lexcite_plans_compiled_total",
			Help: "Tokenizer plans made executable, by strategy.",
		}, []string{"strategy"}),
	}
}

func (m *Metrics) cacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) compiled(strategy Strategy, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.compileSeconds.WithLabelValues(string(strategy)).Observe(elapsed.Seconds())
	m.plansCompiled.WithLabelValues(string(strategy)).Inc()
}
