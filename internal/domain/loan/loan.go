package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits stored for every amount.
const AmountScale = 2

// MaxAmount is the largest value the NUMERIC(19,2) amount column holds.
var MaxAmount = decimal.RequireFromString("99999999999999999.99")

type Loan struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Issued     time.Time       `json:"issued"`
	Status     bool            `json:"status"`
}

func NewLoan(customerID int64, amount decimal.Decimal, issued time.Time) (*Loan, error) {
	if customerID <= 0 {
		return nil, ErrCustomerNotFound
	}

	rounded := amount.Round(AmountScale)
	if !rounded.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if rounded.GreaterThan(MaxAmount) {
		return nil, ErrAmountTooLarge
	}

	return &Loan{
		CustomerID: customerID,
		Amount:     rounded,
		Issued:     issued,
		Status:     true,
	}, nil
}

func (l *Loan) Disable() {
	l.Status = false
}

func (l *Loan) Enable() {
	l.Status = true
}

// MarkDeleted reports a physically deleted loan as inactive.
func (l *Loan) MarkDeleted() {
	l.Status = false
}
