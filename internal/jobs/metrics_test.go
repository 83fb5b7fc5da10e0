package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("receipt:email").End(nil))
	boom := errors.New("smtp down")
	assert.Equal(t, boom, m.Track("receipt:email").End(boom))
	m.Skip("receipt:email", "no_email")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("receipt:email", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("receipt:email", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("receipt:email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("receipt:email", "no_email")))
}

func TestNilMetricsTracker(t *testing.T) {
	var m *Metrics
	err := errors.New("x")
	assert.Equal(t, err, m.Track("dashboard:warmup").End(err))
	m.Skip("dashboard:warmup", "none")
}
