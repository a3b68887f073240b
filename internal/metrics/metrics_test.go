package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSessionGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SessionAcquired()
	m.SessionAcquired()
	m.SessionReleased()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.openSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.acquiredSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.releasedSessions))
}

func TestCalls(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveCall("Deposit", "ok")
	m.ObserveCall("Deposit", "ok")
	m.ObserveCall("Deposit", "invocation")
	m.ObserveInvocation("submit", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("Deposit", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.invocation))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCall("GetAccount", "ok")
		m.ObserveInvocation("evaluate", time.Second)
		m.SessionAcquired()
		m.SessionReleased()
	})
}
