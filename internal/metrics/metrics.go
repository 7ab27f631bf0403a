package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	fetchTotal       *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	pollCycles       prometheus.Counter
	pollCycleErrors  prometheus.Counter
	pollDuration     prometheus.Histogram
	commandsTotal    *prometheus.CounterVec
	positionsTracked prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmon_fetch_total",
				Help: "Total number of per-code quote fetches",
			},
			[]string{"source", "status"},
		),

		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockmon_fetch_duration_seconds",
				Help:    "Quote fetch batch duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),

		pollCycles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stockmon_poll_cycles_total",
				Help: "Total number of completed poll cycles",
			},
		),

		pollCycleErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stockmon_poll_cycle_errors_total",
				Help: "Total number of poll cycles that ended in an error",
			},
		),

		pollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockmon_poll_cycle_duration_seconds",
				Help:    "Poll cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockmon_commands_total",
				Help: "Total number of protocol commands handled",
			},
			[]string{"command", "status"},
		),

		positionsTracked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockmon_positions_tracked",
				Help: "Number of enabled positions in the current config",
			},
		),
	}

	reg.MustRegister(r.fetchTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.pollCycles)
	reg.MustRegister(r.pollCycleErrors)
	reg.MustRegister(r.pollDuration)
	reg.MustRegister(r.commandsTotal)
	reg.MustRegister(r.positionsTracked)

	return r
}

// RecordFetch records one per-code fetch outcome.
func (r *Registry) RecordFetch(source, status string) {
	r.fetchTotal.WithLabelValues(source, status).Inc()
}

// RecordFetchDuration records the duration of one batch against a source.
func (r *Registry) RecordFetchDuration(source string, seconds float64) {
	r.fetchDuration.WithLabelValues(source).Observe(seconds)
}

// RecordPollCycle records a completed poll cycle.
func (r *Registry) RecordPollCycle(seconds float64) {
	r.pollCycles.Inc()
	r.pollDuration.Observe(seconds)
}

// RecordPollCycleError records a poll cycle that ended in an error.
func (r *Registry) RecordPollCycleError() {
	r.pollCycleErrors.Inc()
}

// RecordCommand records a handled protocol command.
func (r *Registry) RecordCommand(command, status string) {
	r.commandsTotal.WithLabelValues(command, status).Inc()
}

// SetPositionsTracked sets the enabled position count.
func (r *Registry) SetPositionsTracked(n int) {
	r.positionsTracked.Set(float64(n))
}
