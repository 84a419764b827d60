package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-service/internal/domain/payment"
	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"

	"github.com/jackc/pgx/v5"
)

const (
	lockLoanSQL = `SELECT id FROM loans WHERE id = $1 FOR KEY SHARE`

	insertPaymentSQL = `
        INSERT INTO payments (loan_id, amount, issued, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	selectPaymentByIDSQL = `
        SELECT id, loan_id, amount, issued, status
        FROM payments
        WHERE id = $1`

	selectPaymentsSQL = `
        SELECT p.id, p.loan_id, p.amount, p.issued, p.status
        FROM payments p
        JOIN loans l ON l.id = p.loan_id
        JOIN customers c ON c.id = l.customer_id
        WHERE p.status = $1
          AND (c.full_name ILIKE $2 OR c.email ILIKE $2)
        ORDER BY p.id ASC
        LIMIT $3 OFFSET $4`

	deletePaymentSQL = `
        DELETE FROM payments
        WHERE id = $1
        RETURNING id, loan_id, amount, issued, status`

	setPaymentStatusSQL = `
        UPDATE payments
        SET status = $1
        WHERE id = $2
        RETURNING id, loan_id, amount, issued, status`
)

type PaymentRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ payment.Repository = (*PaymentRepository)(nil)

func NewPaymentRepository(db DBPool, logger *slog.Logger) *PaymentRepository {
	return &PaymentRepository{db: db, logger: logger.With("component", "PaymentRepository")}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) (err error) {
	defer recordQuery("payment_insert", time.Now(), &err)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rollback(ctx, tx, r.logger)

	var loanID int64
	if err = tx.QueryRow(ctx, lockLoanSQL, p.LoanID).Scan(&loanID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan for payment does not exist", "loan_id", p.LoanID)
			return payment.ErrLoanNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to lock loan row", "error", err)
		return fmt.Errorf("%w: failed to lock loan: %w", apperrors.ErrDatabase, err)
	}

	if err = tx.QueryRow(ctx, insertPaymentSQL, p.LoanID, p.Amount, p.Issued, p.Status).Scan(&p.ID); err != nil {
		return r.paymentWriteError(ctx, "Failed to insert payment", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return r.paymentWriteError(ctx, "Failed to commit payment", err)
	}

	r.logger.InfoContext(ctx, "Payment created in DB", "payment_id", p.ID, "loan_id", p.LoanID)
	return nil
}

func (r *PaymentRepository) paymentWriteError(ctx context.Context, msg string, err error) error {
	translated := translateDBError(err, r.logger)
	if errors.Is(translated, errNumericOutOfRange) {
		return payment.ErrAmountTooLarge
	}
	if errors.Is(translated, apperrors.ErrValidation) {
		return payment.ErrLoanNotFound
	}
	r.logger.ErrorContext(ctx, msg, "error", err)
	return translated
}

func (r *PaymentRepository) FindByID(ctx context.Context, paymentID int64) (_ *payment.Payment, err error) {
	defer recordQuery("payment_find_by_id", time.Now(), &err)

	p, err := scanPayment(r.db.QueryRow(ctx, selectPaymentByIDSQL, paymentID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	return p, nil
}

func (r *PaymentRepository) FindAll(ctx context.Context, params pagination.Params) (_ []*payment.Payment, err error) {
	defer recordQuery("payment_find_all", time.Now(), &err)

	rows, err := r.db.Query(ctx, selectPaymentsSQL, params.Status, params.Pattern(), params.Limit(), params.Offset())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query payments", "error", err)
		return nil, fmt.Errorf("%w: failed to query payments: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]*payment.Payment, 0, params.Limit())
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan payment row", "error", err)
			return nil, fmt.Errorf("%w: failed scanning payment row: %w", apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating payments: %w", apperrors.ErrDatabase, err)
	}
	return payments, nil
}

func (r *PaymentRepository) Delete(ctx context.Context, paymentID int64) (_ *payment.Payment, err error) {
	defer recordQuery("payment_delete", time.Now(), &err)

	p, err := scanPayment(r.db.QueryRow(ctx, deletePaymentSQL, paymentID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Payment deleted", "payment_id", paymentID)
	return p, nil
}

func (r *PaymentRepository) SetStatus(ctx context.Context, paymentID int64, status bool) (_ *payment.Payment, err error) {
	defer recordQuery("payment_set_status", time.Now(), &err)

	p, err := scanPayment(r.db.QueryRow(ctx, setPaymentStatusSQL, status, paymentID))
	if err != nil {
		return nil, translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Payment status updated", "payment_id", paymentID, "status", status)
	return p, nil
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	if err := row.Scan(&p.ID, &p.LoanID, &p.Amount, &p.Issued, &p.Status); err != nil {
		return nil, err
	}
	return &p, nil
}
