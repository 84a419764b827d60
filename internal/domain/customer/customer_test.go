package customer

import (
	"strings"
	"testing"

	"lending-service/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer("  Juan Perez ", " Juan@Email.COM ")
	require.NoError(t, err)
	assert.Equal(t, "Juan Perez", c.FullName, "full name should be trimmed")
	assert.Equal(t, "juan@email.com", c.Email, "email should be trimmed and lower-cased")
	assert.True(t, c.Status, "new customers start active")
	assert.Zero(t, c.ID)
}

func TestNewCustomer_Validation(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		email    string
		wantErr  error
	}{
		{"missing name", "   ", "a@b.com", ErrMissingParameter},
		{"missing email", "Ana", "", ErrMissingParameter},
		{"invalid email", "Ana", "not-an-email", ErrInvalidEmail},
		{"name too long", strings.Repeat("x", MaxFullNameLength+1), "a@b.com", ErrFullNameTooLong},
		{"email too long", "Ana", strings.Repeat("a", 95) + "@b.com", ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCustomer(tt.fullName, tt.email)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	email, err := NormalizeEmail("\tMaria@Email.com\n")
	require.NoError(t, err)
	assert.Equal(t, "maria@email.com", email)

	_, err = NormalizeEmail("maria@")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestCustomerStatusTransitions(t *testing.T) {
	c := &Customer{ID: 1, Status: true}

	c.Disable()
	assert.False(t, c.Status)

	c.Enable()
	assert.True(t, c.Status)

	c.MarkDeleted()
	assert.False(t, c.Status, "deleted snapshot reports inactive")
}
