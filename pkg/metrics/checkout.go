package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records step transitions, catalog loads and order placements.
type CheckoutMetrics struct {
	transitions   *prometheus.CounterVec
	stepFailures  *prometheus.CounterVec
	catalogLoads  *prometheus.CounterVec
	orders        *prometheus.CounterVec
	orderDuration *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_step_transitions_total",
		Help: "Checkout step transitions by origin and destination step.",
	}, []string{"from", "to"})
	stepFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_step_failures_total",
		Help: "Rejected step submissions by step and reason.",
	}, []string{"step", "reason"})
	catalogLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_catalog_loads_total",
		Help: "City catalog fetches by outcome.",
	}, []string{"outcome"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Order placement attempts by outcome code.",
	}, []string{"outcome"})
	orderDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_order_duration_seconds",
		Help:    "Latency of order placement calls in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 1.5, 2, 3, 5, 10},
	}, []string{"outcome"})
	reg.MustRegister(transitions, stepFailures, catalogLoads, orders, orderDuration)
	return &CheckoutMetrics{
		transitions:   transitions,
		stepFailures:  stepFailures,
		catalogLoads:  catalogLoads,
		orders:        orders,
		orderDuration: orderDuration,
	}
}

// ObserveTransition counts a move between two steps ("cart" marks leaving the flow).
func (c *CheckoutMetrics) ObserveTransition(from, to string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncStepFailure counts a rejected step submission.
func (c *CheckoutMetrics) IncStepFailure(step, reason string) {
	if c == nil || c.stepFailures == nil {
		return
	}
	c.stepFailures.WithLabelValues(normalizeLabel(step), normalizeLabel(reason)).Inc()
}

// IncCatalogLoad counts a catalog fetch outcome ("success" or "failure").
func (c *CheckoutMetrics) IncCatalogLoad(outcome string) {
	if c == nil || c.catalogLoads == nil {
		return
	}
	c.catalogLoads.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveOrder records one order placement attempt and its latency.
func (c *CheckoutMetrics) ObserveOrder(outcome string, duration time.Duration) {
	if c == nil || c.orders == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.orders.WithLabelValues(label).Inc()
	c.orderDuration.WithLabelValues(label).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
