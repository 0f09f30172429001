package metrics_test

import (
	"testing"

	"github.com/corelog/logpp/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveQueueDepthTracksHighWaterMark(t *testing.T) {
	metrics.ObserveQueueDepth("unit-test-queue", 3)
	metrics.ObserveQueueDepth("unit-test-queue", 7)
	metrics.ObserveQueueDepth("unit-test-queue", 2)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.QueueDepth.WithLabelValues("unit-test-queue")))
	assert.Equal(t, float64(7), testutil.ToFloat64(metrics.QueueHighWaterMark.WithLabelValues("unit-test-queue")))
}
