package customer

import (
	"context"

	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"
)

var (
	ErrNotFound = apperrors.NotFound("Record not found")

	ErrEmailAlreadyRegistered = apperrors.Conflict("Email already registered")

	ErrMissingParameter = apperrors.NewValidationError("", "Missing parameter")

	ErrInvalidEmail = apperrors.NewValidationError("email", "Invalid email address")

	ErrFullNameTooLong = apperrors.NewValidationError("full_name", "full_name must be at most 200 characters")

	ErrEmailTooLong = apperrors.NewValidationError("email", "email must be at most 100 characters")
)

type CustomerRepository interface {
	// Save inserts when ID is zero and updates full_name/email otherwise.
	Save(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindAll(ctx context.Context, params pagination.Params) ([]*Customer, error)

	// ExistsByEmail reports whether another customer (id != excludeID) already uses email.
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)

	// Delete removes the customer and, by cascade, its loans and payments,
	// returning the row as it was before deletion.
	Delete(ctx context.Context, customerID int64) (*Customer, error)

	SetStatus(ctx context.Context, customerID int64, status bool) (*Customer, error)
}
