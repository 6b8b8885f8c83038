package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout submission outcomes and latency.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCheckoutMetrics registers checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_success",
		Help: "Checkout submissions that produced an order.",
	}, []string{"payment_method"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failure",
		Help: "Checkout submissions that failed, by error code.",
	}, []string{"payment_method", "code"})
	reg.MustRegister(duration, success, failure)
	return &CheckoutMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the latency of a checkout submission.
func (c *CheckoutMetrics) ObserveDuration(method string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the payment method.
func (c *CheckoutMetrics) IncSuccess(method string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncFailure increments the failure counter for the payment method and code.
func (c *CheckoutMetrics) IncFailure(method, code string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(method), normalizeLabel(code)).Inc()
}

// TrackingMetrics records how pushed order events were handled.
type TrackingMetrics struct {
	applied    *prometheus.CounterVec
	discarded  *prometheus.CounterVec
	reconnects prometheus.Counter
}

// NewTrackingMetrics registers tracking metrics on the provided registerer.
func NewTrackingMetrics(reg prometheus.Registerer) *TrackingMetrics {
	if reg == nil {
		return &TrackingMetrics{}
	}
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_events_applied",
		Help: "Order status events accepted by the transition rules.",
	}, []string{"status"})
	discarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_events_discarded",
		Help: "Order status events rejected as illegal or malformed.",
	}, []string{"reason"})
	reconnects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_reconnects",
		Help: "Push channel reconnects followed by a snapshot refetch.",
	})
	reg.MustRegister(applied, discarded, reconnects)
	return &TrackingMetrics{
		applied:    applied,
		discarded:  discarded,
		reconnects: reconnects,
	}
}

// IncApplied increments the applied counter for the given status.
func (t *TrackingMetrics) IncApplied(status string) {
	if t == nil || t.applied == nil {
		return
	}
	t.applied.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncDiscarded increments the discarded counter for the given reason.
func (t *TrackingMetrics) IncDiscarded(reason string) {
	if t == nil || t.discarded == nil {
		return
	}
	t.discarded.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncReconnect increments the reconnect counter.
func (t *TrackingMetrics) IncReconnect() {
	if t == nil || t.reconnects == nil {
		return
	}
	t.reconnects.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
