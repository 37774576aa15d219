package orders

import (
	"math"
	"medilab-service/internal/app/config"
	"medilab-service/internal/pkg/constvars"
	"medilab-service/internal/pkg/exceptions"
	"medilab-service/internal/pkg/metrics"
)

// Reconciler compares the amount a provider claims was paid against the
// amount the database says is owed. The tolerance is a fixed absolute margin
// for provider rounding, never a percentage.
type Reconciler struct {
	Tolerance  float64
	AdminFeeOy float64
}

func NewReconciler(payments config.AppPayments) *Reconciler {
	return &Reconciler{
		Tolerance:  payments.ReconcileTolerance,
		AdminFeeOy: payments.AdminFeeOy,
	}
}

// ExpectedCharge returns what the payer was asked to pay for the computed
// order total. OY adds a payer-side admin fee on top of the checkout total;
// Xendit invoices carry the total as-is.
func (r *Reconciler) ExpectedCharge(provider string, computedTotal float64) float64 {
	if provider == constvars.ProviderOy {
		return RoundCurrency(computedTotal + r.AdminFeeOy)
	}
	return RoundCurrency(computedTotal)
}

// Verify rejects the callback when the received amount drifts outside the
// tolerance window around the expected charge. A mismatch is a hard stop: no
// order, no credit, only an error the caller maps to a no-retry response.
func (r *Reconciler) Verify(provider string, computedTotal, received float64) error {
	expected := r.ExpectedCharge(provider, computedTotal)
	if math.Abs(expected-received) <= r.Tolerance {
		return nil
	}
	metrics.ReconcileMismatchTotal.Inc()
	return exceptions.ErrReconcileMismatch(expected, received)
}

// RoundCurrency rounds to the nearest minor unit to keep float arithmetic off
// the stored ledger values.
func RoundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}
