package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records checkout flow outcomes and cart synchronization
// activity.
type CheckoutMetrics struct {
	outcomes    *prometheus.CounterVec
	syncCreated prometheus.Counter
	syncFailure prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_outcomes_total",
		Help: "Checkout flows reaching the result step, by status.",
	}, []string{"status"})
	syncCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_created_total",
		Help: "Remote cart reservations created by the synchronizer.",
	})
	syncFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_sync_failures_total",
		Help: "Remote cart creation attempts that failed.",
	})
	reg.MustRegister(outcomes, syncCreated, syncFailure)
	return &CheckoutMetrics{
		outcomes:    outcomes,
		syncCreated: syncCreated,
		syncFailure: syncFailure,
	}
}

// IncOutcome increments the result counter for the given status.
func (c *CheckoutMetrics) IncOutcome(status string) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncSyncCreated counts one successful remote cart creation.
func (c *CheckoutMetrics) IncSyncCreated() {
	if c == nil || c.syncCreated == nil {
		return
	}
	c.syncCreated.Inc()
}

// IncSyncFailure counts one failed remote cart creation attempt.
func (c *CheckoutMetrics) IncSyncFailure() {
	if c == nil || c.syncFailure == nil {
		return
	}
	c.syncFailure.Inc()
}

func normalizeLabel(status string) string {
	if status == "" {
		return "unknown"
	}
	return status
}
