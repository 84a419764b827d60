package dto

import (
	"github.com/shopspring/decimal"
)

// SuccessResponse wraps every successful payload as {"body": ...}.
type SuccessResponse struct {
	Body any `json:"body"`
}

// ErrorResponse wraps every failure as {"errors": {...}}.
type ErrorResponse struct {
	Errors ErrorDetail `json:"errors"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Amount renders a monetary value as a JSON number with exactly two decimals.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}
