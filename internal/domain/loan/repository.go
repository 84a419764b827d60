package loan

import (
	"context"

	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"
)

var (
	ErrNotFound = apperrors.NotFound("Record not found")

	ErrCustomerNotFound = apperrors.NewValidationError("customer_id", "Customer not found")

	ErrInvalidAmount = apperrors.NewValidationError("amount", "amount must be greater than zero")

	ErrAmountTooLarge = apperrors.NewValidationError("amount", "amount must have at most 17 integer digits")
)

type Repository interface {
	// Create locks the owning customer row and inserts the loan in one
	// transaction. It returns ErrCustomerNotFound when the customer is missing.
	Create(ctx context.Context, loan *Loan) error

	FindByID(ctx context.Context, loanID int64) (*Loan, error)

	// FindAll filters on the loan's own status; the text filter matches the
	// owning customer's full name or email.
	FindAll(ctx context.Context, params pagination.Params) ([]*Loan, error)

	Delete(ctx context.Context, loanID int64) (*Loan, error)

	SetStatus(ctx context.Context, loanID int64, status bool) (*Loan, error)
}
