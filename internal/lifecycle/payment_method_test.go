package lifecycle

import (
	"testing"

	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForMethod(t *testing.T) {
	cash, err := ForMethod(models.PaymentMethodCash, 25)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodCash, cash.Name())

	online, err := ForMethod(models.PaymentMethodOnline, 25)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodOnline, online.Name())

	_, err = ForMethod(models.PaymentMethod("wire_transfer"), 25)
	assert.Error(t, err)
}

func TestCashMethod_ComputeAmount(t *testing.T) {
	cash, err := ForMethod(models.PaymentMethodCash, 25)
	require.NoError(t, err)

	// 25% of 1000.00 = 250.00, exact
	amount := cash.ComputeAmount(decimal.NewFromInt(1000))
	assert.True(t, amount.Equal(decimal.NewFromInt(250)), "got %s", amount)

	// decimal math stays exact where float would drift
	amount = cash.ComputeAmount(decimal.RequireFromString("99.99"))
	assert.True(t, amount.Equal(decimal.RequireFromString("24.9975")), "got %s", amount)
}

func TestCashMethod_DepositPercentConfigurable(t *testing.T) {
	cash, err := ForMethod(models.PaymentMethodCash, 50)
	require.NoError(t, err)

	amount := cash.ComputeAmount(decimal.NewFromInt(200))
	assert.True(t, amount.Equal(decimal.NewFromInt(100)), "got %s", amount)
}

func TestCashMethod_OnConfirm(t *testing.T) {
	cash, err := ForMethod(models.PaymentMethodCash, 25)
	require.NoError(t, err)

	billAmount := decimal.NewFromInt(1000)
	totalPaid := decimal.NewFromInt(250)

	decision := cash.OnConfirm(billAmount, totalPaid)

	// cash always settles on confirmation, remainder collected in person
	assert.True(t, decision.MarkBillPaid)
	assert.True(t, decision.ConfirmBooking)
	assert.True(t, decision.RemainderAmount.Equal(decimal.NewFromInt(750)), "got %s", decision.RemainderAmount)
}

func TestCashMethod_OnConfirm_NoNegativeRemainder(t *testing.T) {
	cash, err := ForMethod(models.PaymentMethodCash, 25)
	require.NoError(t, err)

	// overpaid bill: remainder clamps to zero
	decision := cash.OnConfirm(decimal.NewFromInt(100), decimal.NewFromInt(150))
	assert.True(t, decision.MarkBillPaid)
	assert.True(t, decision.RemainderAmount.IsZero(), "got %s", decision.RemainderAmount)
}

func TestOnlineMethod_ComputeAmount(t *testing.T) {
	online, err := ForMethod(models.PaymentMethodOnline, 25)
	require.NoError(t, err)

	billAmount := decimal.RequireFromString("1234.56")
	assert.True(t, online.ComputeAmount(billAmount).Equal(billAmount))
}

func TestOnlineMethod_OnConfirm(t *testing.T) {
	online, err := ForMethod(models.PaymentMethodOnline, 25)
	require.NoError(t, err)

	billAmount := decimal.NewFromInt(1000)

	// full coverage advances bill and booking
	decision := online.OnConfirm(billAmount, decimal.NewFromInt(1000))
	assert.True(t, decision.MarkBillPaid)
	assert.True(t, decision.ConfirmBooking)
	assert.True(t, decision.RemainderAmount.IsZero())

	// partial coverage advances nothing
	decision = online.OnConfirm(billAmount, decimal.NewFromInt(999))
	assert.False(t, decision.MarkBillPaid)
	assert.False(t, decision.ConfirmBooking)

	// overpayment still advances
	decision = online.OnConfirm(billAmount, decimal.NewFromInt(1001))
	assert.True(t, decision.MarkBillPaid)
	assert.True(t, decision.ConfirmBooking)
}
