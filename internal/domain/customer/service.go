package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"lending-service/internal/event"
	"lending-service/internal/infrastructure/monitoring"
	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"
)

const (
	inputValidationPassed = "Input validation passed"
	customerNotFound      = "Customer not found by repository"
)

type CustomerService interface {
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	ListCustomers(ctx context.Context, params pagination.Params) ([]*Customer, error)
	CreateCustomer(ctx context.Context, fullName, email string) (*Customer, error)
	UpdateCustomer(ctx context.Context, customerID int64, fullName, email *string) (*Customer, error)
	DeleteCustomer(ctx context.Context, customerID int64) (*Customer, error)
	DisableCustomer(ctx context.Context, customerID int64) (*Customer, error)
	EnableCustomer(ctx context.Context, customerID int64) (*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, eventPublisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if eventPublisher == nil {
		eventPublisher = event.NoopPublisher{}
	}

	return &customerService{
		repo:   repo,
		pub:    eventPublisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) publish(ctx context.Context, action event.Action, cust *Customer) {
	monitoring.RecordLifecycle(string(event.ResourceCustomer), string(action))

	evt := event.NewLifecycleEvent(event.ResourceCustomer, action, cust.ID, cust)
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish customer event",
			slog.String("routingKey", evt.RoutingKey()), slog.Int64("customerID", cust.ID), slog.Any("error", err))
	}
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.DebugContext(ctx, "Attempting to get customer by ID")

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	logger.DebugContext(ctx, "Successfully retrieved customer")
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, params pagination.Params) ([]*Customer, error) {
	logger := s.logger.With(slog.Bool("status", params.Status), slog.Int("page", params.Page), slog.Int("pageSize", params.PageSize))
	logger.DebugContext(ctx, "Attempting to list customers")

	customers, err := s.repo.FindAll(ctx, params)
	if err != nil {
		logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	logger.DebugContext(ctx, "Successfully listed customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) CreateCustomer(ctx context.Context, fullName, email string) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	customer, err := NewCustomer(fullName, email)
	if err != nil {
		s.logger.WarnContext(ctx, "Validation failed for new customer", slog.Any("error", err))
		return nil, err
	}
	logger := s.logger.With(slog.String("email", customer.Email))
	logger.DebugContext(ctx, inputValidationPassed)

	exists, err := s.repo.ExistsByEmail(ctx, customer.Email, 0)
	if err != nil {
		logger.ErrorContext(ctx, "Repository error checking email uniqueness", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if exists {
		logger.WarnContext(ctx, "Business rule failed: email already registered")
		return nil, ErrEmailAlreadyRegistered
	}

	if err := s.repo.Save(ctx, customer); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			logger.WarnContext(ctx, "Email claimed concurrently, unique constraint rejected insert")
			return nil, ErrEmailAlreadyRegistered
		}
		logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	logger.InfoContext(ctx, "Successfully created new customer", slog.Int64("customerID", customer.ID))
	s.publish(ctx, event.ActionCreated, customer)
	return customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, fullName, email *string) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.InfoContext(ctx, "Attempting to update customer")

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, "Customer not found by repository for update")
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error finding customer for update", slog.Any("error", err))
		return nil, fmt.Errorf("cannot find customer %d to update: %w", customerID, err)
	}

	changed := false
	if fullName != nil {
		name, err := ValidateFullName(*fullName)
		if err != nil {
			logger.WarnContext(ctx, "Validation failed: full_name", slog.Any("error", err))
			return nil, err
		}
		if name != customer.FullName {
			customer.FullName = name
			changed = true
		}
	}

	if email != nil {
		normalized, err := NormalizeEmail(*email)
		if err != nil {
			logger.WarnContext(ctx, "Validation failed: email", slog.Any("error", err))
			return nil, err
		}
		if normalized != customer.Email {
			taken, err := s.repo.ExistsByEmail(ctx, normalized, customerID)
			if err != nil {
				logger.ErrorContext(ctx, "Repository error checking email uniqueness", slog.Any("error", err))
				return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
			}
			if taken {
				logger.WarnContext(ctx, "Business rule failed: email used by another customer")
				return nil, ErrEmailAlreadyRegistered
			}
			customer.Email = normalized
			changed = true
		}
	}

	if !changed {
		logger.InfoContext(ctx, "No change needed, skipping save")
		return customer, nil
	}

	if err := s.repo.Save(ctx, customer); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			logger.WarnContext(ctx, "Unique constraint rejected email update")
			return nil, ErrEmailAlreadyRegistered
		case errors.Is(err, apperrors.ErrNotFound):
			logger.WarnContext(ctx, "Customer disappeared before save completed")
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository failed to save updated customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save customer %d: %w", customerID, err)
	}

	logger.InfoContext(ctx, "Successfully updated customer")
	s.publish(ctx, event.ActionUpdated, customer)
	return customer, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.InfoContext(ctx, "Attempting to delete customer")

	customer, err := s.repo.Delete(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}
	customer.MarkDeleted()

	logger.InfoContext(ctx, "Successfully deleted customer")
	s.publish(ctx, event.ActionDeleted, customer)
	return customer, nil
}

func (s *customerService) DisableCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	return s.setStatus(ctx, customerID, false)
}

func (s *customerService) EnableCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	return s.setStatus(ctx, customerID, true)
}

func (s *customerService) setStatus(ctx context.Context, customerID int64, status bool) (*Customer, error) {
	action := event.ActionEnabled
	if !status {
		action = event.ActionDisabled
	}
	logger := s.logger.With(slog.Int64("customerID", customerID), slog.String("action", string(action)))
	logger.InfoContext(ctx, "Attempting to change customer status")

	customer, err := s.repo.SetStatus(ctx, customerID, status)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository error changing customer status", slog.Any("error", err))
		return nil, fmt.Errorf("failed to set status for customer %d: %w", customerID, err)
	}

	logger.InfoContext(ctx, "Successfully changed customer status")
	s.publish(ctx, action, customer)
	return customer, nil
}
