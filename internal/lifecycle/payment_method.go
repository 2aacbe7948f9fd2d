package lifecycle

import (
	"github.com/omar10120/ksdora-backend/internal/models"
	"github.com/shopspring/decimal"
)

// Method is the closed set of payment method behaviors. Amount computation
// and confirmation rules live here instead of string switches at call sites.
type Method interface {
	Name() models.PaymentMethod
	// ComputeAmount returns how much one payment attempt charges for a
	// bill total. Never taken from the client.
	ComputeAmount(billAmount decimal.Decimal) decimal.Decimal
	// OnConfirm decides bill and booking effects after an admin confirms
	// a payment, given the cumulative successful total including the
	// payment being confirmed.
	OnConfirm(billAmount, totalPaid decimal.Decimal) ConfirmDecision
}

// ConfirmDecision is the method-specific outcome of an admin confirmation
type ConfirmDecision struct {
	MarkBillPaid   bool
	ConfirmBooking bool
	// RemainderAmount, when positive, is recorded as a synthetic successful
	// payment so that a paid bill always has successful payments covering
	// its full amount. Used by cash, where the remainder is collected
	// out-of-band.
	RemainderAmount decimal.Decimal
}

// ForMethod resolves a method behavior. cashDepositPercent is the share of
// the bill collected up-front for cash payments.
func ForMethod(m models.PaymentMethod, cashDepositPercent int) (Method, error) {
	switch m {
	case models.PaymentMethodCash:
		return cashMethod{depositPercent: cashDepositPercent}, nil
	case models.PaymentMethodOnline:
		return onlineMethod{}, nil
	default:
		return nil, models.NewValidationError("unknown payment method: %s", m)
	}
}

// cashMethod collects a partial deposit; the remainder is settled physically
// and reconciled when an admin confirms the payment.
type cashMethod struct {
	depositPercent int
}

func (m cashMethod) Name() models.PaymentMethod {
	return models.PaymentMethodCash
}

func (m cashMethod) ComputeAmount(billAmount decimal.Decimal) decimal.Decimal {
	return billAmount.Mul(decimal.NewFromInt(int64(m.depositPercent))).Div(decimal.NewFromInt(100))
}

func (m cashMethod) OnConfirm(billAmount, totalPaid decimal.Decimal) ConfirmDecision {
	remainder := billAmount.Sub(totalPaid)
	if remainder.IsNegative() {
		remainder = decimal.Zero
	}
	return ConfirmDecision{
		MarkBillPaid:    true,
		ConfirmBooking:  true,
		RemainderAmount: remainder,
	}
}

// onlineMethod charges the full bill; bill and booking only advance once
// successful payments cover the whole amount.
type onlineMethod struct{}

func (m onlineMethod) Name() models.PaymentMethod {
	return models.PaymentMethodOnline
}

func (m onlineMethod) ComputeAmount(billAmount decimal.Decimal) decimal.Decimal {
	return billAmount
}

func (m onlineMethod) OnConfirm(billAmount, totalPaid decimal.Decimal) ConfirmDecision {
	covered := totalPaid.GreaterThanOrEqual(billAmount)
	return ConfirmDecision{
		MarkBillPaid:   covered,
		ConfirmBooking: covered,
	}
}
