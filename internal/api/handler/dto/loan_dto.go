package dto

import (
	"lending-service/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	CustomerID *int64           `json:"customer_id" validate:"required"`
	Amount     *decimal.Decimal `json:"amount" validate:"required" swaggertype:"number"`
}

type LoanResponse struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Amount     Amount `json:"amount" swaggertype:"number"`
	Status     bool   `json:"status"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	if l == nil {
		return LoanResponse{}
	}
	return LoanResponse{
		ID:         l.ID,
		CustomerID: l.CustomerID,
		Amount:     NewAmount(l.Amount),
		Status:     l.Status,
	}
}

func NewLoanListResponse(loans []*loan.Loan) []LoanResponse {
	resp := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		resp = append(resp, NewLoanResponse(l))
	}
	return resp
}
