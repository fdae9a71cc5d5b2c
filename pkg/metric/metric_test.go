package metric

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveEvaluation(t *testing.T) {
	m := New(prometheus.NewRegistry())
	start := time.Now()

	m.ObserveEvaluation(start, false, nil)
	m.ObserveEvaluation(start, true, nil)
	m.ObserveEvaluation(start, true, nil)
	m.ObserveEvaluation(start, true, errors.New("rpc down"))

	assert.EqualValues(t, 1, testutil.ToFloat64(m.evaluations.WithLabelValues(ResultHealthy)))
	assert.EqualValues(t, 2, testutil.ToFloat64(m.evaluations.WithLabelValues(ResultLiquidatable)))
	assert.EqualValues(t, 1, testutil.ToFloat64(m.evaluations.WithLabelValues(ResultError)))
	assert.EqualValues(t, 2, testutil.ToFloat64(m.liquidatable))
}

func TestEvent(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Event(EventHealthPulse)
	m.Event(EventDuplicate)
	m.Event(EventHealthPulse)

	assert.EqualValues(t, 2, testutil.ToFloat64(m.events.WithLabelValues(EventHealthPulse)))
	assert.EqualValues(t, 1, testutil.ToFloat64(m.events.WithLabelValues(EventDuplicate)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvaluation(time.Now(), true, nil)
		m.Event(EventMalformed)
	})
}
