package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records reconciliation outcomes per gateway.
type PaymentMetrics struct {
	reconciliations *prometheus.CounterVec
	discrepancies   *prometheus.CounterVec
	ordersCreated   *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Reconciliation attempts by gateway and outcome.",
	}, []string{"gateway", "outcome"})
	discrepancies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_amount_discrepancies_total",
		Help: "Reconciliations rejected because the gateway amount did not match the recomputed total.",
	}, []string{"gateway"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_orders_created_total",
		Help: "Orders created by the reconciler.",
	}, []string{"gateway"})
	reg.MustRegister(reconciliations, discrepancies, ordersCreated)
	return &PaymentMetrics{
		reconciliations: reconciliations,
		discrepancies:   discrepancies,
		ordersCreated:   ordersCreated,
	}
}

// IncReconciliation counts one reconciliation attempt with its outcome.
func (p *PaymentMetrics) IncReconciliation(gateway, outcome string) {
	if p == nil || p.reconciliations == nil {
		return
	}
	p.reconciliations.WithLabelValues(normalizeLabel(gateway), normalizeLabel(outcome)).Inc()
}

// IncDiscrepancy counts one rejected amount mismatch.
func (p *PaymentMetrics) IncDiscrepancy(gateway string) {
	if p == nil || p.discrepancies == nil {
		return
	}
	p.discrepancies.WithLabelValues(normalizeLabel(gateway)).Inc()
}

// IncOrderCreated counts one order created by the reconciler.
func (p *PaymentMetrics) IncOrderCreated(gateway string) {
	if p == nil || p.ordersCreated == nil {
		return
	}
	p.ordersCreated.WithLabelValues(normalizeLabel(gateway)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
