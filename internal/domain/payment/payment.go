package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

const AmountScale = 2

// MaxAmount is the largest charged value the NUMERIC(19,2) amount column holds.
var MaxAmount = decimal.RequireFromString("99999999999999999.99")

var (
	// FeeRate is the base fee charged on every payment.
	FeeRate = decimal.RequireFromString("0.15")
	// TaxFactor is applied on top of the base fee.
	TaxFactor = decimal.RequireFromString("1.16")
)

type Payment struct {
	ID     int64           `json:"id"`
	LoanID int64           `json:"loan_id"`
	Amount decimal.Decimal `json:"amount"`
	Issued time.Time       `json:"issued"`
	Status bool            `json:"status"`
}

// ChargeFor returns the amount stored for a requested payment:
// requested + requested*FeeRate*TaxFactor, rounded half away from zero to cents.
func ChargeFor(requested decimal.Decimal) decimal.Decimal {
	return requested.Add(requested.Mul(FeeRate).Mul(TaxFactor)).Round(AmountScale)
}

// NewPayment validates the requested amount and returns an active payment
// whose Amount already includes the surcharge.
func NewPayment(loanID int64, requested decimal.Decimal, issued time.Time) (*Payment, error) {
	if loanID <= 0 {
		return nil, ErrLoanNotFound
	}
	if !requested.Round(AmountScale).IsPositive() {
		return nil, ErrInvalidAmount
	}
	charged := ChargeFor(requested)
	if charged.GreaterThan(MaxAmount) {
		return nil, ErrAmountTooLarge
	}

	return &Payment{
		LoanID: loanID,
		Amount: charged,
		Issued: issued,
		Status: true,
	}, nil
}

func (p *Payment) Disable() {
	p.Status = false
}

func (p *Payment) Enable() {
	p.Status = true
}

// MarkDeleted reports a physically deleted payment as inactive.
func (p *Payment) MarkDeleted() {
	p.Status = false
}
