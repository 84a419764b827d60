package customer

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MaxFullNameLength = 200
	MaxEmailLength    = 100
)

type Customer struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Status   bool   `json:"status"`
}

var emailValidator = validator.New()

// NewCustomer validates the input and returns an active customer ready to be saved.
func NewCustomer(fullName, email string) (*Customer, error) {
	name, err := ValidateFullName(fullName)
	if err != nil {
		return nil, err
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return &Customer{
		FullName: name,
		Email:    normalized,
		Status:   true,
	}, nil
}

func ValidateFullName(fullName string) (string, error) {
	name := strings.TrimSpace(fullName)
	if name == "" {
		return "", ErrMissingParameter
	}
	if utf8.RuneCountInString(name) > MaxFullNameLength {
		return "", ErrFullNameTooLong
	}
	return name, nil
}

// NormalizeEmail checks address syntax (no deliverability lookup) and returns
// the canonical lower-cased form used for storage and uniqueness checks.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrMissingParameter
	}
	if err := emailValidator.Var(email, "email"); err != nil {
		return "", ErrInvalidEmail
	}
	email = strings.ToLower(email)
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return "", ErrEmailTooLong
	}
	return email, nil
}

func (c *Customer) Disable() {
	c.Status = false
}

func (c *Customer) Enable() {
	c.Status = true
}

// MarkDeleted reports a physically deleted customer as inactive.
func (c *Customer) MarkDeleted() {
	c.Status = false
}
