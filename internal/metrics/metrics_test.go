package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacestore/internal/metrics"
)

func TestCountersRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Checkout("ok", 20*time.Millisecond)
	m.Checkout("ok", 10*time.Millisecond)
	m.Notification("duplicate")
	m.Compensation("released")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CheckoutCounter().WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationCounter().WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompensationCounter().WithLabelValues("released")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "lacestore_checkout_duration_seconds")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.Checkout("ok", time.Second)
		m.Notification("ignored")
		m.Compensation("skipped")
		m.Event("order.placed")
	})
}
