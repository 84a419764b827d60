package customer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"lending-service/internal/domain/customer"
	"lending-service/internal/event"
	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.LifecycleEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt event.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.RoutingKey())
	}
	return keys
}

func setupTest() (*customer.MockCustomerRepository, *recordingPublisher, customer.CustomerService) {
	mockRepo := new(customer.MockCustomerRepository)
	pub := &recordingPublisher{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := customer.NewCustomerService(mockRepo, pub, logger)
	return mockRepo, pub, service
}

func strPtr(s string) *string { return &s }

func TestCustomerService_CreateCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, pub, service := setupTest()

		mockRepo.On("ExistsByEmail", ctx, "juan@email.com", int64(0)).Return(false, nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			match := c.ID == 0 && c.FullName == "Juan Perez" && c.Email == "juan@email.com" && c.Status
			if match {
				c.ID = 11
			}
			return match
		})).Return(nil).Once()

		created, err := service.CreateCustomer(ctx, " Juan Perez ", "Juan@Email.com")

		require.NoError(t, err)
		assert.Equal(t, &customer.Customer{ID: 11, FullName: "Juan Perez", Email: "juan@email.com", Status: true}, created)
		assert.Equal(t, []string{"customer.created"}, pub.keys())
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Invalid Email", func(t *testing.T) {
		mockRepo, pub, service := setupTest()

		_, err := service.CreateCustomer(ctx, "Juan", "juan-at-email")

		assert.ErrorIs(t, err, customer.ErrInvalidEmail)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, pub.keys())
	})

	t.Run("Error - Missing Name", func(t *testing.T) {
		mockRepo, _, service := setupTest()

		_, err := service.CreateCustomer(ctx, "  ", "juan@email.com")

		assert.ErrorIs(t, err, customer.ErrMissingParameter)
		mockRepo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - Email Already Registered", func(t *testing.T) {
		mockRepo, pub, service := setupTest()
		mockRepo.On("ExistsByEmail", ctx, "juan@email.com", int64(0)).Return(true, nil).Once()

		_, err := service.CreateCustomer(ctx, "Juan", "JUAN@email.com")

		assert.ErrorIs(t, err, customer.ErrEmailAlreadyRegistered)
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, pub.keys())
	})

	t.Run("Error - Unique Violation On Insert", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("ExistsByEmail", ctx, "juan@email.com", int64(0)).Return(false, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*customer.Customer")).Return(apperrors.ErrAlreadyExists).Once()

		_, err := service.CreateCustomer(ctx, "Juan", "juan@email.com")

		assert.ErrorIs(t, err, customer.ErrEmailAlreadyRegistered)
	})

	t.Run("Error - Repository Save Failure", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		dbError := errors.New("database connection failed")
		mockRepo.On("ExistsByEmail", ctx, "juan@email.com", int64(0)).Return(false, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*customer.Customer")).Return(dbError).Once()

		created, err := service.CreateCustomer(ctx, "Juan", "juan@email.com")

		assert.Nil(t, created)
		assert.ErrorIs(t, err, dbError)
		assert.Contains(t, err.Error(), "failed to save new customer")
	})

	t.Run("Publish failure does not fail the request", func(t *testing.T) {
		mockRepo, pub, service := setupTest()
		pub.err = errors.New("broker down")
		mockRepo.On("ExistsByEmail", ctx, "juan@email.com", int64(0)).Return(false, nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*customer.Customer")).Return(nil).Once()

		created, err := service.CreateCustomer(ctx, "Juan", "juan@email.com")

		require.NoError(t, err)
		assert.NotNil(t, created)
	})
}

func TestCustomerService_GetCustomer(t *testing.T) {
	ctx := context.Background()
	customerID := int64(42)

	t.Run("Success", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		expected := &customer.Customer{ID: customerID, FullName: "Test", Email: "t@e.com", Status: true}
		mockRepo.On("FindByID", ctx, customerID).Return(expected, nil).Once()

		cust, err := service.GetCustomer(ctx, customerID)

		assert.NoError(t, err)
		assert.Equal(t, expected, cust)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindByID", ctx, customerID).Return(nil, apperrors.ErrNotFound).Once()

		cust, err := service.GetCustomer(ctx, customerID)

		assert.Nil(t, cust)
		assert.ErrorIs(t, err, customer.ErrNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Error - Repository Failure", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		dbError := errors.New("timeout")
		mockRepo.On("FindByID", ctx, customerID).Return(nil, dbError).Once()

		_, err := service.GetCustomer(ctx, customerID)

		assert.ErrorIs(t, err, dbError)
		assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCustomerService_ListCustomers(t *testing.T) {
	ctx := context.Background()
	params, err := pagination.New("maria", true, 1, 10, pagination.DefaultLimits())
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		expected := []*customer.Customer{{ID: 2, FullName: "Maria Rodriguez", Email: "maria@email.com", Status: true}}
		mockRepo.On("FindAll", ctx, params).Return(expected, nil).Once()

		list, err := service.ListCustomers(ctx, params)

		assert.NoError(t, err)
		assert.Equal(t, expected, list)
	})

	t.Run("Empty", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindAll", ctx, params).Return([]*customer.Customer{}, nil).Once()

		list, err := service.ListCustomers(ctx, params)

		assert.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Error - Repository Failure", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindAll", ctx, params).Return(nil, apperrors.ErrDatabase).Once()

		_, err := service.ListCustomers(ctx, params)

		assert.ErrorIs(t, err, apperrors.ErrDatabase)
	})
}

func TestCustomerService_UpdateCustomer(t *testing.T) {
	ctx := context.Background()
	customerID := int64(1)
	existing := func() *customer.Customer {
		return &customer.Customer{ID: customerID, FullName: "Juan Perez", Email: "juan@email.com", Status: true}
	}

	t.Run("Success - Email Only", func(t *testing.T) {
		mockRepo, pub, service := setupTest()
		mockRepo.On("FindByID", ctx, customerID).Return(existing(), nil).Once()
		mockRepo.On("ExistsByEmail", ctx, "juan.perez@email.com", customerID).Return(false, nil).Once()
		mockRepo.On("Save", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.ID == customerID && c.Email == "juan.perez@email.com" && c.FullName == "Juan Perez"
		})).Return(nil).Once()

		updated, err := service.UpdateCustomer(ctx, customerID, nil, strPtr("Juan.Perez@Email.com"))

		require.NoError(t, err)
		assert.Equal(t, "juan.perez@email.com", updated.Email)
		assert.Equal(t, "Juan Perez", updated.FullName)
		assert.Equal(t, []string{"customer.updated"}, pub.keys())
		mockRepo.AssertExpectations(t)
	})

	t.Run("Success - Own Email Is Not A Conflict", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindByID", ctx, customerID).Return(existing(), nil).Once()
		mockRepo.On("Save", ctx, mock.AnythingOfType("*customer.Customer")).Return(nil).Once()

		updated, err := service.UpdateCustomer(ctx, customerID, strPtr("Juan P."), strPtr("JUAN@email.com"))

		require.NoError(t, err)
		assert.Equal(t, "Juan P.", updated.FullName)
		mockRepo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("No Change Skips Save", func(t *testing.T) {
		mockRepo, pub, service := setupTest()
		mockRepo.On("FindByID", ctx, customerID).Return(existing(), nil).Once()

		updated, err := service.UpdateCustomer(ctx, customerID, nil, nil)

		require.NoError(t, err)
		assert.Equal(t, existing(), updated)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, pub.keys())
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindByID", ctx, customerID).Return(nil, apperrors.ErrNotFound).Once()

		_, err := service.UpdateCustomer(ctx, customerID, strPtr("X"), nil)

		assert.ErrorIs(t, err, customer.ErrNotFound)
	})

	t.Run("Error - Email Used By Another Customer", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindByID", ctx, customerID).Return(existing(), nil).Once()
		mockRepo.On("ExistsByEmail", ctx, "maria@email.com", customerID).Return(true, nil).Once()

		_, err := service.UpdateCustomer(ctx, customerID, nil, strPtr("maria@email.com"))

		assert.ErrorIs(t, err, customer.ErrEmailAlreadyRegistered)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("Error - Invalid Email", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindByID", ctx, customerID).Return(existing(), nil).Once()

		_, err := service.UpdateCustomer(ctx, customerID, nil, strPtr("nope"))

		assert.ErrorIs(t, err, customer.ErrInvalidEmail)
	})
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	ctx := context.Background()
	customerID := int64(3)

	t.Run("Success - Snapshot Reports Inactive", func(t *testing.T) {
		mockRepo, pub, service := setupTest()
		mockRepo.On("Delete", ctx, customerID).
			Return(&customer.Customer{ID: customerID, FullName: "Luis Martinez", Email: "luis@email.com", Status: true}, nil).Once()

		deleted, err := service.DeleteCustomer(ctx, customerID)

		require.NoError(t, err)
		assert.Equal(t, customerID, deleted.ID)
		assert.False(t, deleted.Status)
		assert.Equal(t, []string{"customer.deleted"}, pub.keys())
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockRepo, pub, service := setupTest()
		mockRepo.On("Delete", ctx, customerID).Return(nil, apperrors.ErrNotFound).Once()

		_, err := service.DeleteCustomer(ctx, customerID)

		assert.ErrorIs(t, err, customer.ErrNotFound)
		assert.Empty(t, pub.keys())
	})
}

func TestCustomerService_StatusChanges(t *testing.T) {
	ctx := context.Background()
	customerID := int64(10)

	t.Run("Disable", func(t *testing.T) {
		mockRepo, pub, service := setupTest()
		mockRepo.On("SetStatus", ctx, customerID, false).
			Return(&customer.Customer{ID: customerID, Status: false}, nil).Once()

		cust, err := service.DisableCustomer(ctx, customerID)

		require.NoError(t, err)
		assert.False(t, cust.Status)
		assert.Equal(t, []string{"customer.disabled"}, pub.keys())
	})

	t.Run("Enable", func(t *testing.T) {
		mockRepo, pub, service := setupTest()
		mockRepo.On("SetStatus", ctx, customerID, true).
			Return(&customer.Customer{ID: customerID, Status: true}, nil).Once()

		cust, err := service.EnableCustomer(ctx, customerID)

		require.NoError(t, err)
		assert.True(t, cust.Status)
		assert.Equal(t, []string{"customer.enabled"}, pub.keys())
	})

	t.Run("Error - Not Found", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("SetStatus", ctx, int64(999), false).Return(nil, apperrors.ErrNotFound).Once()

		_, err := service.DisableCustomer(ctx, 999)

		assert.ErrorIs(t, err, customer.ErrNotFound)
	})
}

func TestNewCustomerService_NilRepositoryPanics(t *testing.T) {
	assert.Panics(t, func() {
		customer.NewCustomerService(nil, nil, nil)
	})
}
