/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package requestqueue

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector represents a collector of metrics about queue usage.
type MetricsCollector interface {
	// SetQueueLength sets the number of tasks awaiting dispatch.
	SetQueueLength(int)

	// SetInFlight sets the number of tasks currently executing.
	SetInFlight(int)

	// SetPendingBatches sets the number of unflushed batches.
	SetPendingBatches(int)

	// IncTasksProcessed increments the total number of successfully completed tasks.
	IncTasksProcessed()

	// IncTasksFailed increments the total number of failed tasks.
	IncTasksFailed()
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for the request queue.
type PrometheusMetrics struct {
	QueueLength         prometheus.Gauge
	InFlight            prometheus.Gauge
	PendingBatches      prometheus.Gauge
	TasksProcessedTotal prometheus.Counter
	TasksFailedTotal    prometheus.Counter
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	return &PrometheusMetrics{
		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "request_queue_length",
			Help:        "Number of tasks awaiting dispatch.",
			ConstLabels: opts.ConstLabels,
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "request_queue_in_flight",
			Help:        "Number of tasks currently executing.",
			ConstLabels: opts.ConstLabels,
		}),
		PendingBatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "request_queue_pending_batches",
			Help:        "Number of unflushed batches.",
			ConstLabels: opts.ConstLabels,
		}),
		TasksProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "request_queue_tasks_processed_total",
			Help:        "Number of successfully completed tasks.",
			ConstLabels: opts.ConstLabels,
		}),
		TasksFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "request_queue_tasks_failed_total",
			Help:        "Number of failed tasks.",
			ConstLabels: opts.ConstLabels,
		}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.QueueLength,
		pm.InFlight,
		pm.PendingBatches,
		pm.TasksProcessedTotal,
		pm.TasksFailedTotal,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.QueueLength)
	prometheus.Unregister(pm.InFlight)
	prometheus.Unregister(pm.PendingBatches)
	prometheus.Unregister(pm.TasksProcessedTotal)
	prometheus.Unregister(pm.TasksFailedTotal)
}

// SetQueueLength sets the number of tasks awaiting dispatch.
func (pm *PrometheusMetrics) SetQueueLength(n int) {
	pm.QueueLength.Set(float64(n))
}

// SetInFlight sets the number of tasks currently executing.
func (pm *PrometheusMetrics) SetInFlight(n int) {
	pm.InFlight.Set(float64(n))
}

// SetPendingBatches sets the number of unflushed batches.
func (pm *PrometheusMetrics) SetPendingBatches(n int) {
	pm.PendingBatches.Set(float64(n))
}

// IncTasksProcessed increments the total number of successfully completed tasks.
func (pm *PrometheusMetrics) IncTasksProcessed() {
	pm.TasksProcessedTotal.Inc()
}

// IncTasksFailed increments the total number of failed tasks.
func (pm *PrometheusMetrics) IncTasksFailed() {
	pm.TasksFailedTotal.Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) SetQueueLength(int)    {}
func (disabledMetrics) SetInFlight(int)       {}
func (disabledMetrics) SetPendingBatches(int) {}
func (disabledMetrics) IncTasksProcessed()    {}
func (disabledMetrics) IncTasksFailed()       {}
