// Package metrics exposes logpp's Prometheus instrumentation: the small
// set of counters and gauges a logging library itself needs to report on
// without becoming an observability platform in its own right.
package metrics

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DroppedRecordsTotal counts records that never reached a sink because
	// a logger could not build them (source location, message or field
	// write failed), labelled by the failing stage.
	DroppedRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logpp_dropped_records_total",
			Help: "Total number of log records dropped before reaching a sink",
		},
		[]string{"reason"},
	)

	// SinkIOErrorsTotal counts I/O failures surfaced by sinks (open,
	// write, rename) while attempting to persist a record.
	SinkIOErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logpp_sink_io_errors_total",
			Help: "Total number of sink I/O errors",
		},
		[]string{"sink", "operation"},
	)

	// QueueDepth reports the current occupancy of an async sink's queue.
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "logpp_queue_depth",
			Help: "Current number of records queued for an async sink",
		},
		[]string{"queue"},
	)

	// QueueHighWaterMark reports the largest depth a queue has reached
	// since the process started.
	QueueHighWaterMark = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "logpp_queue_high_water_mark",
			Help: "Largest observed depth of a queue since startup",
		},
		[]string{"queue"},
	)

	// RollsTotal counts file rotations performed by rolling sinks.
	RollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logpp_sink_rolls_total",
			Help: "Total number of file rolls performed by a rolling sink",
		},
		[]string{"sink"},
	)

	// PollerIdle reports whether the async poller's last iteration found
	// any queue with work (0) or was idle (1).
	PollerIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "logpp_poller_idle",
		Help: "1 if the async poller's last drain pass found no work, else 0",
	})
)

// ObserveQueueDepth updates both the current depth and, when exceeded,
// the high-water mark gauge for a named queue.
func ObserveQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))

	hwm := QueueHighWaterMark.WithLabelValues(queue)
	if g, ok := currentGaugeValue(hwm); !ok || float64(depth) > g {
		hwm.Set(float64(depth))
	}
}

// currentGaugeValue reads back a gauge's current value. prometheus
// gauges don't expose a Get, so this reads the collected metric, which
// is cheap relative to the logging it instruments.
func currentGaugeValue(g prometheus.Gauge) (float64, bool) {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0, false
	}
	if m.Gauge == nil {
		return 0, false
	}
	return m.Gauge.GetValue(), true
}
