package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-service/internal/event"
	"lending-service/internal/infrastructure/monitoring"
	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"

	"github.com/shopspring/decimal"
)

type PaymentService interface {
	GetPayment(ctx context.Context, paymentID int64) (*Payment, error)
	ListPayments(ctx context.Context, params pagination.Params) ([]*Payment, error)
	CreatePayment(ctx context.Context, loanID int64, amount decimal.Decimal) (*Payment, error)
	DeletePayment(ctx context.Context, paymentID int64) (*Payment, error)
	DisablePayment(ctx context.Context, paymentID int64) (*Payment, error)
	EnablePayment(ctx context.Context, paymentID int64) (*Payment, error)
}

type paymentService struct {
	repo   Repository
	pub    event.EventPublisher
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

type Option func(*paymentService)

func WithClock(now func() time.Time) Option {
	return func(s *paymentService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *paymentService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewPaymentService(repo Repository, pub event.EventPublisher, logger *slog.Logger, opts ...Option) PaymentService {
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &paymentService{
		repo:   repo,
		pub:    pub,
		logger: logger.With(slog.String("component", "paymentService")),
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *paymentService) publish(ctx context.Context, action event.Action, p *Payment) {
	monitoring.RecordLifecycle(string(event.ResourcePayment), string(action))

	evt := event.NewLifecycleEvent(event.ResourcePayment, action, p.ID, p)
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish payment event", "routingKey", evt.RoutingKey(), "paymentID", p.ID, "error", err)
	}
}

// localize reports issued in the reference timezone; pgx scans it in time.Local.
func (s *paymentService) localize(p *Payment) *Payment {
	if !p.Issued.IsZero() {
		p.Issued = p.Issued.In(s.loc)
	}
	return p
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID int64) (*Payment, error) {
	p, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Payment not found", "paymentID", paymentID)
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get payment", "paymentID", paymentID, "error", err)
		return nil, fmt.Errorf("failed to get payment %d: %w", paymentID, err)
	}
	return s.localize(p), nil
}

func (s *paymentService) ListPayments(ctx context.Context, params pagination.Params) ([]*Payment, error) {
	payments, err := s.repo.FindAll(ctx, params)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list payments", "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	for _, p := range payments {
		s.localize(p)
	}
	return payments, nil
}

func (s *paymentService) CreatePayment(ctx context.Context, loanID int64, amount decimal.Decimal) (*Payment, error) {
	s.logger.InfoContext(ctx, "Creating payment", "loanID", loanID, "requested", amount.String())

	p, err := NewPayment(loanID, amount, s.now().In(s.loc))
	if err != nil {
		s.logger.WarnContext(ctx, "Payment validation failed", "loanID", loanID, "error", err)
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrAmountTooLarge) {
			s.logger.WarnContext(ctx, "Payment amount rejected by storage", "loanID", loanID)
			return nil, ErrAmountTooLarge
		}
		if errors.Is(err, ErrLoanNotFound) || errors.Is(err, apperrors.ErrValidation) {
			s.logger.WarnContext(ctx, "Loan not found for new payment", "loanID", loanID)
			return nil, ErrLoanNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to save payment", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	s.logger.InfoContext(ctx, "Payment created", "paymentID", p.ID, "loanID", loanID, "charged", p.Amount.StringFixed(AmountScale))
	s.publish(ctx, event.ActionCreated, p)
	return p, nil
}

func (s *paymentService) DeletePayment(ctx context.Context, paymentID int64) (*Payment, error) {
	p, err := s.repo.Delete(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Payment not found", "paymentID", paymentID)
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to delete payment", "paymentID", paymentID, "error", err)
		return nil, fmt.Errorf("failed to delete payment %d: %w", paymentID, err)
	}
	s.localize(p).MarkDeleted()

	s.logger.InfoContext(ctx, "Payment deleted", "paymentID", paymentID)
	s.publish(ctx, event.ActionDeleted, p)
	return p, nil
}

func (s *paymentService) DisablePayment(ctx context.Context, paymentID int64) (*Payment, error) {
	return s.setStatus(ctx, paymentID, false, event.ActionDisabled)
}

func (s *paymentService) EnablePayment(ctx context.Context, paymentID int64) (*Payment, error) {
	return s.setStatus(ctx, paymentID, true, event.ActionEnabled)
}

func (s *paymentService) setStatus(ctx context.Context, paymentID int64, status bool, action event.Action) (*Payment, error) {
	p, err := s.repo.SetStatus(ctx, paymentID, status)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Payment not found", "paymentID", paymentID)
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to change payment status", "paymentID", paymentID, "error", err)
		return nil, fmt.Errorf("failed to set status for payment %d: %w", paymentID, err)
	}
	s.localize(p)

	s.logger.InfoContext(ctx, "Payment status changed", "paymentID", paymentID, "status", status)
	s.publish(ctx, action, p)
	return p, nil
}
