package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRequest("/api/garden", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/api/garden", "GET", 200, 20*time.Millisecond)
	m.RecordError("/api/identify", "POST", "MISSING_FILE")
	m.RecordUpstream("plantid", "identify", errors.New("boom"), time.Second)
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()
	m.NotificationDelivered()
	m.NotificationDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/api/garden", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/api/identify", "POST", "MISSING_FILE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamCalls.WithLabelValues("plantid", "identify", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.realtimeClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("dropped")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, 0)
		m.RecordError("/", "GET", "X")
		m.RecordUpstream("p", "o", nil, 0)
		m.ClientConnected()
		m.ClientDisconnected()
		m.NotificationDelivered()
		m.NotificationDropped()
	})
}
