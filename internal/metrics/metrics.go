package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/limaJavier/lesson-timetabling/pkg/model"
)

// Collector records the outcome of timetabling runs, labelled by strategy.
type Collector struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	cancelled    *prometheus.CounterVec
	evaluations  *prometheus.CounterVec
	score        *prometheus.GaugeVec
	assignments  *prometheus.GaugeVec
	unscheduled  *prometheus.GaugeVec
	hardConflict *prometheus.GaugeVec
	duration     *prometheus.HistogramVec
}

func NewCollector(registry *prometheus.Registry) *Collector {
	labels := []string{"strategy"}
	c := &Collector{
		registry: registry,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_runs_total",
			Help: "Total number of timetabling runs",
		}, labels),
		cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_runs_cancelled_total",
			Help: "Total number of timetabling runs stopped before completion",
		}, labels),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_evaluations_total",
			Help: "Total number of fitness evaluations",
		}, labels),
		score: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timetable_score",
			Help: "Penalty score of the last schedule built",
		}, labels),
		assignments: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timetable_assignments",
			Help: "Lesson assignments in the last schedule built",
		}, labels),
		unscheduled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timetable_unscheduled_obligations",
			Help: "Obligations left out of the last schedule built",
		}, labels),
		hardConflict: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timetable_hard_conflicts",
			Help: "Double bookings found in the last schedule built",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timetable_run_duration_seconds",
			Help:    "Wall time of timetabling runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, labels),
	}

	registry.MustRegister(
		c.runs,
		c.cancelled,
		c.evaluations,
		c.score,
		c.assignments,
		c.unscheduled,
		c.hardConflict,
		c.duration,
	)
	return c
}

// RecordRun stores the outcome of one run along with the conflicts found in its schedule
func (c *Collector) RecordRun(result model.Result, conflicts []model.Conflict, cancelled bool) {
	strategy := string(result.Diagnostics.Strategy)

	c.runs.WithLabelValues(strategy).Inc()
	if cancelled {
		c.cancelled.WithLabelValues(strategy).Inc()
	}
	c.evaluations.WithLabelValues(strategy).Add(float64(result.Diagnostics.Evaluations))
	c.score.WithLabelValues(strategy).Set(result.Score)
	c.assignments.WithLabelValues(strategy).Set(float64(len(result.Schedule)))
	c.unscheduled.WithLabelValues(strategy).Set(float64(len(result.Diagnostics.Unscheduled)))
	c.hardConflict.WithLabelValues(strategy).Set(float64(len(conflicts)))
	c.duration.WithLabelValues(strategy).Observe(result.Diagnostics.Duration.Seconds())
}

// WriteTextfile writes every registered metric in the text exposition format, for the node exporter textfile collector
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
