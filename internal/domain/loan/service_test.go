package loan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
	_ "time/tzdata"

	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var fixedNow = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*MockRepository, *MockPublisher, LoanService) {
	t.Helper()
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	repo := new(MockRepository)
	pub := new(MockPublisher)
	svc := NewLoanService(repo, pub, logger,
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(loc),
	)
	return repo, pub, svc
}

func TestCreateLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, pub, svc := newTestService(t)
		repo.On("Create", ctx, mock.MatchedBy(func(l *Loan) bool {
			if l.CustomerID != 3 || !l.Amount.Equal(decimal.NewFromInt(1000)) || !l.Status {
				return false
			}
			l.ID = 31
			return true
		})).Return(nil).Once()
		pub.On("Publish", ctx, routingKey("loan.created")).Return(nil).Once()

		l, err := svc.CreateLoan(ctx, 3, decimal.NewFromInt(1000))

		require.NoError(t, err)
		assert.Equal(t, int64(31), l.ID)
		assert.Equal(t, "1000.00", l.Amount.StringFixed(2))
		assert.True(t, l.Issued.Equal(fixedNow))
		assert.Equal(t, "America/Mexico_City", l.Issued.Location().String())
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("Customer not found", func(t *testing.T) {
		repo, pub, svc := newTestService(t)
		repo.On("Create", ctx, mock.AnythingOfType("*loan.Loan")).Return(ErrCustomerNotFound).Once()

		l, err := svc.CreateLoan(ctx, 999, decimal.NewFromInt(50))

		assert.Nil(t, l)
		assert.ErrorIs(t, err, ErrCustomerNotFound)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Deferred foreign key violation maps to customer not found", func(t *testing.T) {
		repo, _, svc := newTestService(t)
		repo.On("Create", ctx, mock.AnythingOfType("*loan.Loan")).
			Return(errors.Join(apperrors.ErrValidation, errors.New("fk_loans_customer"))).Once()

		_, err := svc.CreateLoan(ctx, 7, decimal.NewFromInt(50))

		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("Invalid amount never reaches repository", func(t *testing.T) {
		repo, _, svc := newTestService(t)

		_, err := svc.CreateLoan(ctx, 1, decimal.Zero)

		assert.ErrorIs(t, err, ErrInvalidAmount)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Amount rejected by storage", func(t *testing.T) {
		repo, pub, svc := newTestService(t)
		repo.On("Create", ctx, mock.AnythingOfType("*loan.Loan")).Return(ErrAmountTooLarge).Once()

		_, err := svc.CreateLoan(ctx, 1, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, ErrAmountTooLarge)
		assert.NotErrorIs(t, err, ErrCustomerNotFound)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Database failure", func(t *testing.T) {
		repo, _, svc := newTestService(t)
		repo.On("Create", ctx, mock.AnythingOfType("*loan.Loan")).Return(apperrors.ErrDatabase).Once()

		_, err := svc.CreateLoan(ctx, 1, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, apperrors.ErrDatabase)
		assert.NotErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("Publish failure is swallowed", func(t *testing.T) {
		repo, pub, svc := newTestService(t)
		repo.On("Create", ctx, mock.AnythingOfType("*loan.Loan")).Return(nil).Once()
		pub.On("Publish", ctx, mock.Anything).Return(errors.New("channel closed")).Once()

		l, err := svc.CreateLoan(ctx, 1, decimal.NewFromInt(10))

		require.NoError(t, err)
		assert.NotNil(t, l)
	})
}

func TestGetLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, _, svc := newTestService(t)
		expected := &Loan{ID: 5, CustomerID: 2, Amount: decimal.NewFromInt(1852), Status: false}
		repo.On("FindByID", ctx, int64(5)).Return(expected, nil).Once()

		l, err := svc.GetLoan(ctx, 5)

		require.NoError(t, err)
		assert.Equal(t, expected, l)
	})

	t.Run("Issued is reported in the reference zone", func(t *testing.T) {
		repo, _, svc := newTestService(t)
		repo.On("FindByID", ctx, int64(6)).Return(&Loan{ID: 6, Issued: fixedNow, Status: true}, nil).Once()

		l, err := svc.GetLoan(ctx, 6)

		require.NoError(t, err)
		assert.Equal(t, "2024-03-15T12:30:00-06:00", l.Issued.Format(time.RFC3339))
	})

	t.Run("Not found", func(t *testing.T) {
		repo, _, svc := newTestService(t)
		repo.On("FindByID", ctx, int64(404)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := svc.GetLoan(ctx, 404)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListLoans(t *testing.T) {
	ctx := context.Background()
	params, err := pagination.New("", false, 1, 50, pagination.DefaultLimits())
	require.NoError(t, err)

	repo, _, svc := newTestService(t)
	expected := []*Loan{{ID: 1, Status: false}, {ID: 5, Status: false}}
	repo.On("FindAll", ctx, params).Return(expected, nil).Once()

	loans, err := svc.ListLoans(ctx, params)

	require.NoError(t, err)
	assert.Equal(t, expected, loans)
}

func TestDeleteLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, pub, svc := newTestService(t)
		repo.On("Delete", ctx, int64(4)).Return(&Loan{ID: 4, CustomerID: 2, Status: true}, nil).Once()
		pub.On("Publish", ctx, routingKey("loan.deleted")).Return(nil).Once()

		l, err := svc.DeleteLoan(ctx, 4)

		require.NoError(t, err)
		assert.False(t, l.Status)
		pub.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		repo, _, svc := newTestService(t)
		repo.On("Delete", ctx, int64(4)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := svc.DeleteLoan(ctx, 4)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLoanStatusChanges(t *testing.T) {
	ctx := context.Background()

	t.Run("Disable", func(t *testing.T) {
		repo, pub, svc := newTestService(t)
		repo.On("SetStatus", ctx, int64(8), false).Return(&Loan{ID: 8, Status: false}, nil).Once()
		pub.On("Publish", ctx, routingKey("loan.disabled")).Return(nil).Once()

		l, err := svc.DisableLoan(ctx, 8)

		require.NoError(t, err)
		assert.False(t, l.Status)
		pub.AssertExpectations(t)
	})

	t.Run("Enable", func(t *testing.T) {
		repo, pub, svc := newTestService(t)
		repo.On("SetStatus", ctx, int64(8), true).Return(&Loan{ID: 8, Status: true}, nil).Once()
		pub.On("Publish", ctx, routingKey("loan.enabled")).Return(nil).Once()

		l, err := svc.EnableLoan(ctx, 8)

		require.NoError(t, err)
		assert.True(t, l.Status)
	})

	t.Run("Not found", func(t *testing.T) {
		repo, _, svc := newTestService(t)
		repo.On("SetStatus", ctx, int64(8), true).Return(nil, apperrors.ErrNotFound).Once()

		_, err := svc.EnableLoan(ctx, 8)

		assert.ErrorIs(t, err, ErrNotFound)
	})
}
