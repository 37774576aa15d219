package orders

import (
	"medilab-service/internal/app/config"
	"medilab-service/internal/pkg/exceptions"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestReconciler() *Reconciler {
	return NewReconciler(config.AppPayments{
		ReconcileTolerance: 100,
		AdminFeeOy:         5000,
	})
}

func TestReconcilerExpectedCharge(t *testing.T) {
	reconciler := newTestReconciler()

	t.Run("Oy adds payer-side admin fee", func(t *testing.T) {
		assert.Equal(t, float64(105000), reconciler.ExpectedCharge("oy", 100000), "oy charge should include the admin fee")
	})

	t.Run("Xendit carries the total as-is", func(t *testing.T) {
		assert.Equal(t, float64(100000), reconciler.ExpectedCharge("xendit", 100000), "xendit invoices should not add a fee")
	})
}

func TestReconcilerVerify(t *testing.T) {
	reconciler := newTestReconciler()

	t.Run("Exact amount passes", func(t *testing.T) {
		err := reconciler.Verify("xendit", 100000, 100000)
		assert.NoError(t, err, "an exact match should reconcile")
	})

	t.Run("Drift inside tolerance passes", func(t *testing.T) {
		err := reconciler.Verify("xendit", 100000, 99950)
		assert.NoError(t, err, "drift within the tolerance should reconcile")
	})

	t.Run("Drift exactly at tolerance passes", func(t *testing.T) {
		err := reconciler.Verify("xendit", 100000, 99900)
		assert.NoError(t, err, "the tolerance boundary is inclusive")
	})

	t.Run("Drift beyond tolerance fails", func(t *testing.T) {
		err := reconciler.Verify("xendit", 10000, 8000)
		assert.Error(t, err, "a short payment must be rejected")
		customErr, ok := err.(*exceptions.CustomError)
		assert.True(t, ok, "mismatch should surface as a CustomError")
		assert.Equal(t, 400, customErr.StatusCode, "mismatch should map to a no-retry status")
	})

	t.Run("Overpayment beyond tolerance fails", func(t *testing.T) {
		err := reconciler.Verify("xendit", 10000, 12000)
		assert.Error(t, err, "an overpayment must be rejected too")
	})

	t.Run("Oy amount reconciles against total plus fee", func(t *testing.T) {
		err := reconciler.Verify("oy", 100000, 105000)
		assert.NoError(t, err, "oy payers are charged the total plus admin fee")

		err = reconciler.Verify("oy", 100000, 100000)
		assert.Error(t, err, "an oy payment missing the admin fee should not reconcile")
	})
}

func TestRoundCurrency(t *testing.T) {
	assert.Equal(t, 10.57, RoundCurrency(10.565), "should round half up at the minor unit")
	assert.Equal(t, 10.56, RoundCurrency(10.5649), "should round down below the midpoint")
	assert.Equal(t, float64(0), RoundCurrency(0), "zero stays zero")
}
