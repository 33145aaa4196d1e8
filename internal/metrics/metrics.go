package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lacestore"

// Metrics holds the shop's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	notifications    *prometheus.CounterVec
	compensations    *prometheus.CounterVec
	events           *prometheus.CounterVec
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "checkout_total",
			Help: "Checkout attempts by outcome.",
		}, []string{"outcome"}),
		checkoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "checkout_duration_seconds",
			Help:    "Checkout latency including retries.",
			Buckets: prometheus.DefBuckets,
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "payment_notifications_total",
			Help: "Payment provider notifications by outcome.",
		}, []string{"outcome"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_compensations_total",
			Help: "Order item deletions compensated, by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_total",
			Help: "Domain events observed by name.",
		}, []string{"event"}),
	}
	if reg != nil {
		reg.MustRegister(m.checkouts, m.checkoutDuration, m.notifications, m.compensations, m.events)
	}
	return m
}

func (m *Metrics) Checkout(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
	m.checkoutDuration.Observe(took.Seconds())
}

func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Compensation(outcome string) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Event(name string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(name).Inc()
}

// Exposed for tests.
func (m *Metrics) NotificationCounter() *prometheus.CounterVec { return m.notifications }
func (m *Metrics) CheckoutCounter() *prometheus.CounterVec     { return m.checkouts }
func (m *Metrics) CompensationCounter() *prometheus.CounterVec { return m.compensations }
