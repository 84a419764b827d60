package payment_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
	_ "time/tzdata"

	"lending-service/internal/domain/payment"
	"lending-service/internal/event"
	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, p *payment.Payment) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepository) FindByID(ctx context.Context, id int64) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *mockRepository) FindAll(ctx context.Context, params pagination.Params) ([]*payment.Payment, error) {
	args := m.Called(ctx, params)
	list, _ := args.Get(0).([]*payment.Payment)
	return list, args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, id int64) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, status bool) (*payment.Payment, error) {
	args := m.Called(ctx, id, status)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

type capturePublisher struct {
	keys []string
}

func (c *capturePublisher) Publish(_ context.Context, evt event.LifecycleEvent) error {
	c.keys = append(c.keys, evt.RoutingKey())
	return nil
}

func setup() (*mockRepository, *capturePublisher, payment.PaymentService) {
	repo := new(mockRepository)
	pub := &capturePublisher{}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := payment.NewPaymentService(repo, pub, slog.New(slog.NewTextHandler(io.Discard, nil)),
		payment.WithClock(func() time.Time { return now }))
	return repo, pub, svc
}

func TestPaymentService_CreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Stores surcharged amount", func(t *testing.T) {
		repo, pub, svc := setup()
		repo.On("Create", ctx, mock.MatchedBy(func(p *payment.Payment) bool {
			if p.LoanID != 12 || p.Amount.StringFixed(2) != "1174.00" {
				return false
			}
			p.ID = 1
			return true
		})).Return(nil).Once()

		p, err := svc.CreatePayment(ctx, 12, decimal.NewFromInt(1000))

		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, "1174.00", p.Amount.StringFixed(2))
		assert.True(t, p.Status)
		assert.False(t, p.Issued.IsZero())
		assert.Equal(t, []string{"payment.created"}, pub.keys)
		repo.AssertExpectations(t)
	})

	t.Run("Loan not found", func(t *testing.T) {
		repo, pub, svc := setup()
		repo.On("Create", ctx, mock.Anything).Return(payment.ErrLoanNotFound).Once()

		_, err := svc.CreatePayment(ctx, 999, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, payment.ErrLoanNotFound)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Empty(t, pub.keys)
	})

	t.Run("Invalid amount", func(t *testing.T) {
		repo, _, svc := setup()

		_, err := svc.CreatePayment(ctx, 1, decimal.Zero)

		assert.ErrorIs(t, err, payment.ErrInvalidAmount)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Charged amount rejected by storage", func(t *testing.T) {
		repo, pub, svc := setup()
		repo.On("Create", ctx, mock.Anything).Return(payment.ErrAmountTooLarge).Once()

		_, err := svc.CreatePayment(ctx, 1, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, payment.ErrAmountTooLarge)
		assert.NotErrorIs(t, err, payment.ErrLoanNotFound)
		assert.Empty(t, pub.keys)
	})

	t.Run("Database failure", func(t *testing.T) {
		repo, _, svc := setup()
		dbErr := errors.New("connection reset")
		repo.On("Create", ctx, mock.Anything).Return(dbErr).Once()

		_, err := svc.CreatePayment(ctx, 1, decimal.NewFromInt(10))

		assert.ErrorIs(t, err, dbErr)
	})
}

func TestPaymentService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("Get not found", func(t *testing.T) {
		repo, _, svc := setup()
		repo.On("FindByID", ctx, int64(7)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := svc.GetPayment(ctx, 7)

		assert.ErrorIs(t, err, payment.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		repo, _, svc := setup()
		params, err := pagination.New("juan", true, 2, 5, pagination.DefaultLimits())
		require.NoError(t, err)
		repo.On("FindAll", ctx, params).Return([]*payment.Payment{}, nil).Once()

		list, err := svc.ListPayments(ctx, params)

		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Delete marks snapshot inactive", func(t *testing.T) {
		repo, pub, svc := setup()
		repo.On("Delete", ctx, int64(7)).Return(&payment.Payment{ID: 7, Status: true}, nil).Once()

		p, err := svc.DeletePayment(ctx, 7)

		require.NoError(t, err)
		assert.False(t, p.Status)
		assert.Equal(t, []string{"payment.deleted"}, pub.keys)
	})

	t.Run("Disable then enable", func(t *testing.T) {
		repo, pub, svc := setup()
		repo.On("SetStatus", ctx, int64(7), false).Return(&payment.Payment{ID: 7, Status: false}, nil).Once()
		repo.On("SetStatus", ctx, int64(7), true).Return(&payment.Payment{ID: 7, Status: true}, nil).Once()

		p, err := svc.DisablePayment(ctx, 7)
		require.NoError(t, err)
		assert.False(t, p.Status)

		p, err = svc.EnablePayment(ctx, 7)
		require.NoError(t, err)
		assert.True(t, p.Status)
		assert.Equal(t, []string{"payment.disabled", "payment.enabled"}, pub.keys)
	})

	t.Run("Status change not found", func(t *testing.T) {
		repo, _, svc := setup()
		repo.On("SetStatus", ctx, int64(70), false).Return(nil, apperrors.ErrNotFound).Once()

		_, err := svc.DisablePayment(ctx, 70)

		assert.ErrorIs(t, err, payment.ErrNotFound)
	})
}

func TestPaymentService_IssuedUsesReferenceZone(t *testing.T) {
	ctx := context.Background()
	loc, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

	repo := new(mockRepository)
	svc := payment.NewPaymentService(repo, &capturePublisher{}, slog.New(slog.NewTextHandler(io.Discard, nil)),
		payment.WithClock(func() time.Time { return now }), payment.WithLocation(loc))

	stored := func() *payment.Payment {
		return &payment.Payment{ID: 1, LoanID: 12, Amount: decimal.RequireFromString("1174"), Issued: now, Status: true}
	}
	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	repo.On("FindByID", ctx, int64(1)).Return(stored(), nil).Once()
	repo.On("FindAll", ctx, mock.Anything).Return([]*payment.Payment{stored()}, nil).Once()
	repo.On("SetStatus", ctx, int64(1), false).Return(stored(), nil).Once()
	repo.On("Delete", ctx, int64(1)).Return(stored(), nil).Once()

	created, err := svc.CreatePayment(ctx, 12, decimal.NewFromInt(1000))
	require.NoError(t, err)
	want := created.Issued.Format(time.RFC3339)
	assert.Equal(t, "2024-03-15T12:30:00-06:00", want)

	got, err := svc.GetPayment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, got.Issued.Format(time.RFC3339))

	list, err := svc.ListPayments(ctx, pagination.Params{Status: true, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, want, list[0].Issued.Format(time.RFC3339))

	disabled, err := svc.DisablePayment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, disabled.Issued.Format(time.RFC3339))

	deleted, err := svc.DeletePayment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, deleted.Issued.Format(time.RFC3339))
}
