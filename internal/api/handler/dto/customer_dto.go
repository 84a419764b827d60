package dto

import (
	"lending-service/internal/domain/customer"
)

type CreateCustomerRequest struct {
	FullName *string `json:"full_name" validate:"required"`
	Email    *string `json:"email" validate:"required"`
}

// UpdateCustomerRequest changes only the fields that are present.
type UpdateCustomerRequest struct {
	ID       *int64  `json:"id" validate:"required,gt=0"`
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type CustomerResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Status   bool   `json:"status"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		ID:       cust.ID,
		FullName: cust.FullName,
		Email:    cust.Email,
		Status:   cust.Status,
	}
}

func NewCustomerListResponse(customers []*customer.Customer) []CustomerResponse {
	resp := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, NewCustomerResponse(c))
	}
	return resp
}
