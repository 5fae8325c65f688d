package ledger

import (
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ChargeKind tags the two document kinds money can be applied against
type ChargeKind string

const (
	ChargeKindFee     ChargeKind = "FEE"
	ChargeKindInvoice ChargeKind = "INVOICE"
)

// errorCode returns the business-rule error code for an overpayment against
// this kind of charge
func (k ChargeKind) errorCode() string {
	if k == ChargeKindInvoice {
		return "EXCEEDS_BALANCE"
	}
	return "OVERPAYMENT"
}

// ChargeSource abstracts anything money can be applied against: a fee
// definition (via the cumulative payments of one student) or an invoice.
// Both payment paths share the single no-overpayment rule implemented here.
type ChargeSource interface {
	ChargeKind() ChargeKind
	ChargeTotal() decimal.Decimal
	ChargePaid() decimal.Decimal
}

// Outstanding returns the amount still payable against the charge
func Outstanding(c ChargeSource) decimal.Decimal {
	return c.ChargeTotal().Sub(c.ChargePaid())
}

// ValidatePayment enforces the overpayment invariant: cumulative payments
// against a charge source must never exceed its total amount. The returned
// error reports the maximum allowed remaining amount rounded to 2 decimals.
func ValidatePayment(c ChargeSource, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Payment amount must be greater than zero")
	}
	remaining := Outstanding(c)
	if amount.GreaterThan(remaining) {
		return shared.NewOverpaymentError(c.ChargeKind().errorCode(), amount, remaining)
	}
	return nil
}

// SettlesInFull returns true if applying amount settles the charge completely
func SettlesInFull(c ChargeSource, amount decimal.Decimal) bool {
	return c.ChargePaid().Add(amount).GreaterThanOrEqual(c.ChargeTotal())
}
