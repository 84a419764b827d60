package dto

import (
	"time"

	"lending-service/internal/domain/payment"

	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	LoanID *int64           `json:"loan_id" validate:"required"`
	Amount *decimal.Decimal `json:"amount" validate:"required" swaggertype:"number"`
}

type PaymentResponse struct {
	ID     int64     `json:"id"`
	LoanID int64     `json:"loan_id"`
	Amount Amount    `json:"amount" swaggertype:"number"`
	Issued time.Time `json:"issued"`
	Status bool      `json:"status"`
}

func NewPaymentResponse(p *payment.Payment) PaymentResponse {
	if p == nil {
		return PaymentResponse{}
	}
	return PaymentResponse{
		ID:     p.ID,
		LoanID: p.LoanID,
		Amount: NewAmount(p.Amount),
		Issued: p.Issued,
		Status: p.Status,
	}
}

func NewPaymentListResponse(payments []*payment.Payment) []PaymentResponse {
	resp := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, NewPaymentResponse(p))
	}
	return resp
}
