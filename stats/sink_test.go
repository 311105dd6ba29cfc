package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPromSink_RecordLatencyAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPromSink(reg)

	s.RecordLatency("announce", 5*time.Millisecond)
	s.RecordOutcome("announce", "ok")
	s.RecordOutcome("announce", "ok")

	require.Equal(t, float64(2), testutil.ToFloat64(s.outcomes.WithLabelValues("announce", "ok")))
}

func TestPromSink_RecordBatchFlush(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPromSink(reg)

	s.RecordBatchFlush(100, 10*time.Millisecond, nil)
	s.RecordBatchFlush(50, 5*time.Millisecond, errors.New("boom"))

	require.Equal(t, float64(1), testutil.ToFloat64(s.flushErrors))
}

func TestPromSink_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPromSink(reg)

	s.SetGauge("swarm_count", 42)
	require.Equal(t, float64(42), testutil.ToFloat64(s.gauges.WithLabelValues("swarm_count")))
}
