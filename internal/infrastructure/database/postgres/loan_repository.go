package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-service/internal/domain/loan"
	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"

	"github.com/jackc/pgx/v5"
)

const (
	lockCustomerSQL = `SELECT id FROM customers WHERE id = $1 FOR KEY SHARE`

	insertLoanSQL = `
        INSERT INTO loans (customer_id, amount, issued, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	selectLoanByIDSQL = `
        SELECT id, customer_id, amount, issued, status
        FROM loans
        WHERE id = $1`

	selectLoansSQL = `
        SELECT l.id, l.customer_id, l.amount, l.issued, l.status
        FROM loans l
        JOIN customers c ON c.id = l.customer_id
        WHERE l.status = $1
          AND (c.full_name ILIKE $2 OR c.email ILIKE $2)
        ORDER BY l.id ASC
        LIMIT $3 OFFSET $4`

	deleteLoanSQL = `
        DELETE FROM loans
        WHERE id = $1
        RETURNING id, customer_id, amount, issued, status`

	setLoanStatusSQL = `
        UPDATE loans
        SET status = $1
        WHERE id = $2
        RETURNING id, customer_id, amount, issued, status`
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) Create(ctx context.Context, newLoan *loan.Loan) (err error) {
	defer recordQuery("loan_insert", time.Now(), &err)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rollback(ctx, tx, r.logger)

	var customerID int64
	if err = tx.QueryRow(ctx, lockCustomerSQL, newLoan.CustomerID).Scan(&customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer for loan does not exist", "customer_id", newLoan.CustomerID)
			return loan.ErrCustomerNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock customer row", "error", err)
		return fmt.Errorf("%w: failed to lock customer: %w", apperrors.ErrDatabase, err)
	}

	err = tx.QueryRow(ctx, insertLoanSQL, newLoan.CustomerID, newLoan.Amount, newLoan.Issued, newLoan.Status).Scan(&newLoan.ID)
	if err != nil {
		return r.loanWriteError(ctx, "Failed to insert loan", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return r.loanWriteError(ctx, "Failed to commit loan", err)
	}

	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", newLoan.ID, "customer_id", newLoan.CustomerID)
	return nil
}

// loanWriteError maps a foreign key violation (raised at commit for the
// deferred constraint) to ErrCustomerNotFound.
func (r *LoanRepository) loanWriteError(ctx context.Context, msg string, err error) error {
	translated := translateDBError(err, r.logger)
	if errors.Is(translated, errNumericOutOfRange) {
		return loan.ErrAmountTooLarge
	}
	if errors.Is(translated, apperrors.ErrValidation) {
		return loan.ErrCustomerNotFound
	}
	r.logger.ErrorContext(ctx, msg, "error", err)
	return translated
}

func (r *LoanRepository) FindByID(ctx context.Context, loanID int64) (_ *loan.Loan, err error) {
	defer recordQuery("loan_find_by_id", time.Now(), &err)

	l, err := scanLoan(r.db.QueryRow(ctx, selectLoanByIDSQL, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found in DB", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf("%w: failed to get loan by ID: %w", apperrors.ErrDatabase, err)
	}
	return l, nil
}

func (r *LoanRepository) FindAll(ctx context.Context, params pagination.Params) (_ []*loan.Loan, err error) {
	defer recordQuery("loan_find_all", time.Now(), &err)
	logCtx := r.logger.With(slog.String("operation", "FindAll"))

	rows, err := r.db.Query(ctx, selectLoansSQL, params.Status, params.Pattern(), params.Limit(), params.Offset())
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to query loans", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]*loan.Loan, 0, params.Limit())
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			logCtx.ErrorContext(ctx, "Failed to scan loan row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed scanning loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, l)
	}

	if err = rows.Err(); err != nil {
		logCtx.ErrorContext(ctx, "Error iterating loan rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating loans: %w", apperrors.ErrDatabase, err)
	}

	logCtx.DebugContext(ctx, "Finished listing loans", slog.Int("count", len(loans)))
	return loans, nil
}

func (r *LoanRepository) Delete(ctx context.Context, loanID int64) (_ *loan.Loan, err error) {
	defer recordQuery("loan_delete", time.Now(), &err)

	l, err := scanLoan(r.db.QueryRow(ctx, deleteLoanSQL, loanID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Loan deleted with its payments", "loan_id", loanID)
	return l, nil
}

func (r *LoanRepository) SetStatus(ctx context.Context, loanID int64, status bool) (_ *loan.Loan, err error) {
	defer recordQuery("loan_set_status", time.Now(), &err)

	l, err := scanLoan(r.db.QueryRow(ctx, setLoanStatusSQL, status, loanID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Loan status updated", "loan_id", loanID, "status", status)
	return l, nil
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	if err := row.Scan(&l.ID, &l.CustomerID, &l.Amount, &l.Issued, &l.Status); err != nil {
		return nil, err
	}
	return &l, nil
}
