package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"lending-service/internal/domain/customer"
	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"

	"github.com/jackc/pgx/v5"
)

const (
	insertCustomerSQL = `
        INSERT INTO customers (full_name, email, status)
        VALUES ($1, $2, $3)
        RETURNING id`

	updateCustomerSQL = `
        UPDATE customers
        SET full_name = $1,
            email = $2
        WHERE id = $3`

	selectCustomerByIDSQL = `
        SELECT id, full_name, email, status
        FROM customers
        WHERE id = $1`

	selectCustomersSQL = `
        SELECT id, full_name, email, status
        FROM customers
        WHERE status = $1
          AND (full_name ILIKE $2 OR email ILIKE $2)
        ORDER BY id ASC
        LIMIT $3 OFFSET $4`

	customerEmailExistsSQL = `SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1 AND id <> $2)`

	deleteCustomerSQL = `
        DELETE FROM customers
        WHERE id = $1
        RETURNING id, full_name, email, status`

	setCustomerStatusSQL = `
        UPDATE customers
        SET status = $1
        WHERE id = $2
        RETURNING id, full_name, email, status`
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	if cust.ID == 0 {
		return r.createCustomer(ctx, cust)
	}
	return r.updateCustomer(ctx, cust)
}

func (r *CustomerRepository) createCustomer(ctx context.Context, cust *customer.Customer) (err error) {
	defer recordQuery("customer_insert", time.Now(), &err)
	r.logger.DebugContext(ctx, "Attempting to insert new customer", slog.String("email", cust.Email))

	err = r.db.QueryRow(ctx, insertCustomerSQL, cust.FullName, cust.Email, cust.Status).Scan(&cust.ID)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.String("email", cust.Email))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) updateCustomer(ctx context.Context, cust *customer.Customer) (err error) {
	defer recordQuery("customer_update", time.Now(), &err)
	logger := r.logger.With(slog.Int64("customerID", cust.ID))
	logger.DebugContext(ctx, "Attempting to update customer")

	cmdTag, err := r.db.Exec(ctx, updateCustomerSQL, cust.FullName, cust.Email, cust.ID)
	if err != nil {
		translatedErr := translateDBError(err, logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			logger.WarnContext(ctx, "Failed to update customer due to unique constraint violation")
			return translatedErr
		}
		logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		logger.WarnContext(ctx, "Update affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	logger.InfoContext(ctx, "Customer updated successfully")
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (_ *customer.Customer, err error) {
	defer recordQuery("customer_find_by_id", time.Now(), &err)

	cust, err := scanCustomer(r.db.QueryRow(ctx, selectCustomerByIDSQL, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query customer by ID", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customer by ID: %w", apperrors.ErrDatabase, err)
	}
	return cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, params pagination.Params) (_ []*customer.Customer, err error) {
	defer recordQuery("customer_find_all", time.Now(), &err)

	rows, err := r.db.Query(ctx, selectCustomersSQL, params.Status, params.Pattern(), params.Limit(), params.Offset())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0, params.Limit())
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	r.logger.DebugContext(ctx, "Finished listing customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (exists bool, err error) {
	defer recordQuery("customer_email_exists", time.Now(), &err)

	if err = r.db.QueryRow(ctx, customerEmailExistsSQL, email, excludeID).Scan(&exists); err != nil {
		r.logger.ErrorContext(ctx, "Failed to check customer email", slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to check customer email: %w", apperrors.ErrDatabase, err)
	}
	return exists, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) (_ *customer.Customer, err error) {
	defer recordQuery("customer_delete", time.Now(), &err)

	cust, err := scanCustomer(r.db.QueryRow(ctx, deleteCustomerSQL, customerID))
	if err != nil {
		translated := translateDBError(err, r.logger)
		if errors.Is(translated, apperrors.ErrNotFound) {
			r.logger.WarnContext(ctx, "Customer to delete not found", slog.Int64("customerID", customerID))
		}
		return nil, translated
	}

	r.logger.InfoContext(ctx, "Customer deleted with its loans and payments", slog.Int64("customerID", customerID))
	return cust, nil
}

func (r *CustomerRepository) SetStatus(ctx context.Context, customerID int64, status bool) (_ *customer.Customer, err error) {
	defer recordQuery("customer_set_status", time.Now(), &err)

	cust, err := scanCustomer(r.db.QueryRow(ctx, setCustomerStatusSQL, status, customerID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Customer status updated", slog.Int64("customerID", customerID), slog.Bool("status", status))
	return cust, nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var cust customer.Customer
	if err := row.Scan(&cust.ID, &cust.FullName, &cust.Email, &cust.Status); err != nil {
		return nil, err
	}
	return &cust, nil
}
