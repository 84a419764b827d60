package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lending-service/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type seedCustomer struct {
	FullName string
	Email    string
	Status   bool
}

type seedLoan struct {
	// Customer is the index into seedCustomers.
	Customer int
	Amount   int64
	Status   bool
}

var seedCustomers = []seedCustomer{
	{"Juan Perez", "juan@email.com", true},
	{"Maria Rodriguez", "maria@email.com", true},
	{"Luis Martinez", "luis@email.com", true},
	{"Ana Garcia", "ana@email.com", true},
	{"Pedro Lopez", "pedro@email.com", true},
	{"Laura Sanchez", "laura@email.com", true},
	{"Carlos Gomez", "carlos@email.com", true},
	{"Sofia Diaz", "sofia@email.com", true},
	{"Daniel Martin", "daniel@email.com", true},
	{"Elena Fernandez", "elena@email.com", false},
}

var seedLoans = []seedLoan{
	{0, 2987, false}, {0, 8683, true}, {0, 4532, true},
	{1, 7543, true}, {1, 1852, false}, {1, 7543, true},
	{2, 6752, true}, {2, 9125, true}, {2, 5122, false},
	{3, 1321, true}, {3, 6910, true}, {3, 5679, false},
	{4, 8765, true}, {4, 4875, true}, {4, 8765, true},
	{5, 2435, true}, {5, 3456, false}, {5, 4298, true},
	{6, 5690, true}, {6, 6342, false}, {6, 3467, true},
	{7, 2783, true}, {7, 7234, true}, {7, 2764, false},
	{8, 7198, true}, {8, 5971, true}, {8, 1346, true},
	{9, 1233, false}, {9, 8543, false}, {9, 3744, false},
}

const (
	countCustomersSQL     = `SELECT COUNT(*) FROM customers`
	insertSeedCustomerSQL = `INSERT INTO customers (full_name, email, status) VALUES ($1, $2, $3) RETURNING id`
	insertSeedLoanSQL     = `INSERT INTO loans (customer_id, amount, issued, status) VALUES ($1, $2, $3, $4)`
)

// Seed loads the demo customers and loans in one transaction. It does
// nothing when the customers table already has rows.
func Seed(ctx context.Context, db DBPool, issued time.Time, logger *slog.Logger) (seeded bool, err error) {
	logger = logger.With("component", "Seeder")

	tx, err := db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rollback(ctx, tx, logger)

	var count int64
	if err := tx.QueryRow(ctx, countCustomersSQL).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: counting customers: %w", apperrors.ErrDatabase, err)
	}
	if count > 0 {
		logger.InfoContext(ctx, "Seed already applied, skipping", "customers", count)
		return false, nil
	}

	ids := make([]int64, len(seedCustomers))
	for i, c := range seedCustomers {
		if err := tx.QueryRow(ctx, insertSeedCustomerSQL, c.FullName, c.Email, c.Status).Scan(&ids[i]); err != nil {
			return false, fmt.Errorf("%w: seeding customer %s: %w", apperrors.ErrDatabase, c.Email, err)
		}
	}

	for i, l := range seedLoans {
		amount := decimal.NewFromInt(l.Amount).Round(2)
		if _, err := tx.Exec(ctx, insertSeedLoanSQL, ids[l.Customer], amount, issued, l.Status); err != nil {
			return false, fmt.Errorf("%w: seeding loan %d: %w", apperrors.ErrDatabase, i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("%w: committing seed: %w", apperrors.ErrDatabase, err)
	}
	logger.InfoContext(ctx, "Seed data loaded", "customers", len(seedCustomers), "loans", len(seedLoans))
	return true, nil
}
