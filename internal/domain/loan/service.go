package loan

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

type LoanService interface {
	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	ListLoans(ctx context.Context, params pagination.Params) ([]*Loan, error)

	CreateLoan(ctx context.Context, customerID int64, amount decimal.Decimal) (*Loan, error)

	DeleteLoan(ctx context.Context, loanID int64) (*Loan, error)

	DisableLoan(ctx context.Context, loanID int64) (*Loan, error)

	EnableLoan(ctx context.Context, loanID int64) (*Loan, error)
}

type Option func(*loanServiceImpl)

// WithClock overrides the time source used for the issued timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *loanServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the reference timezone for issued timestamps. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *loanServiceImpl) {
		if loc != nil {
			s.loc = loc
		}
	}
}

type loanServiceImpl struct {
	repo   Repository
	pub    event.EventPublisher
	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

func NewLoanService(r Repository, pub event.EventPublisher, logger *slog.Logger, opts ...Option) LoanService {
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &loanServiceImpl{
		repo:   r,
		pub:    pub,
		logger: logger.With(slog.String("component", "loanService")),
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *loanServiceImpl) publish(ctx context.Context, action event.Action, l *Loan) {
	monitoring.RecordLifecycle(string(event.ResourceLoan), string(action))

	evt := event.NewLifecycleEvent(event.ResourceLoan, action, l.ID, l)
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.logger.Error("Failed to publish loan event", "routingKey", evt.RoutingKey(), "loanID", l.ID, "error", err)
	}
}

// localize reports issued in the reference timezone; pgx scans it in time.Local.
func (s *loanServiceImpl) localize(l *Loan) *Loan {
	if !l.Issued.IsZero() {
		l.Issued = l.Issued.In(s.loc)
	}
	return l
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	s.logger.Info("Getting loan details", "loanID", loanID)
	l, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Loan not found", "loanID", loanID)
			return nil, ErrNotFound
		}
		s.logger.Error("Failed to get loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}
	return s.localize(l), nil
}

func (s *loanServiceImpl) ListLoans(ctx context.Context, params pagination.Params) ([]*Loan, error) {
	s.logger.Info("Listing loans", "status", params.Status, "page", params.Page, "pageSize", params.PageSize)
	loans, err := s.repo.FindAll(ctx, params)
	if err != nil {
		s.logger.Error("Failed to list loans", "error", err)
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	for _, l := range loans {
		s.localize(l)
	}
	return loans, nil
}

func (s *loanServiceImpl) CreateLoan(ctx context.Context, customerID int64, amount decimal.Decimal) (*Loan, error) {
	s.logger.Info("Creating new loan", "customerID", customerID, "amount", amount.StringFixed(AmountScale))

	l, err := NewLoan(customerID, amount, s.now().In(s.loc))
	if err != nil {
		s.logger.Warn("Loan validation failed", "customerID", customerID, "error", err)
		return nil, err
	}

	if err := s.repo.Create(ctx, l); err != nil {
		if errors.Is(err, ErrAmountTooLarge) {
			s.logger.Warn("Loan amount rejected by storage", "customerID", customerID)
			return nil, ErrAmountTooLarge
		}
		if errors.Is(err, ErrCustomerNotFound) || errors.Is(err, apperrors.ErrValidation) {
			s.logger.Warn("Customer not found for new loan", "customerID", customerID)
			return nil, ErrCustomerNotFound
		}
		s.logger.Error("Failed to save loan", "customerID", customerID, "error", err)
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	s.logger.Info("Loan created successfully", "loanID", l.ID, "customerID", customerID)
	s.publish(ctx, event.ActionCreated, l)
	return l, nil
}

func (s *loanServiceImpl) DeleteLoan(ctx context.Context, loanID int64) (*Loan, error) {
	s.logger.Info("Deleting loan", "loanID", loanID)
	l, err := s.repo.Delete(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Loan not found", "loanID", loanID)
			return nil, ErrNotFound
		}
		s.logger.Error("Failed to delete loan", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("failed to delete loan %d: %w", loanID, err)
	}
	s.localize(l).MarkDeleted()

	s.logger.Info("Loan deleted", "loanID", loanID)
	s.publish(ctx, event.ActionDeleted, l)
	return l, nil
}

func (s *loanServiceImpl) DisableLoan(ctx context.Context, loanID int64) (*Loan, error) {
	return s.setStatus(ctx, loanID, false, event.ActionDisabled)
}

func (s *loanServiceImpl) EnableLoan(ctx context.Context, loanID int64) (*Loan, error) {
	return s.setStatus(ctx, loanID, true, event.ActionEnabled)
}

func (s *loanServiceImpl) setStatus(ctx context.Context, loanID int64, status bool, action event.Action) (*Loan, error) {
	s.logger.Info("Changing loan status", "loanID", loanID, "status", status)
	l, err := s.repo.SetStatus(ctx, loanID, status)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Loan not found", "loanID", loanID)
			return nil, ErrNotFound
		}
		s.logger.Error("Failed to change loan status", "loanID", loanID, "error", err)
		return nil, fmt.Errorf("failed to set status for loan %d: %w", loanID, err)
	}
	s.localize(l)

	s.publish(ctx, action, l)
	return l, nil
}
