package payment

import (
	"context"

	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"
)

var (
	ErrNotFound = apperrors.NotFound("Record not found")

	ErrLoanNotFound = apperrors.NewValidationError("loan_id", "Loan not found")

	ErrInvalidAmount = apperrors.NewValidationError("amount", "amount must be greater than zero")

	ErrAmountTooLarge = apperrors.NewValidationError("amount", "charged amount must have at most 17 integer digits")
)

type Repository interface {
	// Create locks the parent loan row and inserts the payment in one
	// transaction. It returns ErrLoanNotFound when the loan is missing.
	Create(ctx context.Context, payment *Payment) error

	FindByID(ctx context.Context, paymentID int64) (*Payment, error)

	// FindAll filters on the payment's own status; the text filter matches
	// the customer owning the payment's loan.
	FindAll(ctx context.Context, params pagination.Params) ([]*Payment, error)

	Delete(ctx context.Context, paymentID int64) (*Payment, error)

	SetStatus(ctx context.Context, paymentID int64, status bool) (*Payment, error)
}
