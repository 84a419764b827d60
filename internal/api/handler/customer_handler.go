package handler

import (
	"context"
	"log/slog"
	"net/http"

	"lending-service/internal/api/handler/dto"
	"lending-service/internal/domain/customer"
	"lending-service/internal/pkg/pagination"
)

type CustomerHandler struct {
	service customer.CustomerService
	limits  pagination.Limits
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, limits pagination.Limits, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		limits:  limits.Normalize(),
		logger:  l.With("component", "CustomerHandler"),
	}
}

// GetCustomer handles GET /customers/retrieve/{id}
// @Summary Retrieve a customer
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.CustomerResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid id"
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /customers/retrieve/{id} [get]
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	cust, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusOK, dto.NewCustomerResponse(cust))
}

// ListCustomers handles GET /customers/list
// @Summary List customers
// @Description Filters by status and a case-insensitive substring of full_name or email, ordered by id.
// @Tags Customers
// @Produce json
// @Param filter query string false "Substring of full_name or email"
// @Param status query bool false "Active (true, default) or inactive (false)"
// @Param page query int false "Page number, starting at 1"
// @Param page_size query int false "Page size (default 50, max 100)"
// @Success 200 {object} dto.SuccessResponse{body=[]dto.CustomerResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Router /customers/list [get]
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	params, err := dto.ParseListQuery(r.URL.Query(), h.limits)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	customers, err := h.service.ListCustomers(r.Context(), params)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Listed customers", slog.Int("count", len(customers)))
	RespondBody(w, http.StatusOK, dto.NewCustomerListResponse(customers))
}

// CreateCustomer handles POST /customers/create
// @Summary Create a customer
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CreateCustomerRequest true "Customer creation request"
// @Success 201 {object} dto.SuccessResponse{body=dto.CustomerResponse}
// @Failure 400 {object} dto.ErrorResponse "Malformed JSON"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Failure 422 {object} dto.ErrorResponse "Missing parameter or invalid email"
// @Router /customers/create [post]
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create customer request")

	var req dto.CreateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	created, err := h.service.CreateCustomer(r.Context(), *req.FullName, *req.Email)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer created", slog.Int64("customerID", created.ID))
	RespondBody(w, http.StatusCreated, dto.NewCustomerResponse(created))
}

// UpdateCustomer handles PUT /customers/update
// @Summary Update a customer's name and/or email
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.UpdateCustomerRequest true "Fields to change"
// @Success 200 {object} dto.SuccessResponse{body=dto.CustomerResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Failure 422 {object} dto.ErrorResponse "Validation failed"
// @Router /customers/update [put]
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	updated, err := h.service.UpdateCustomer(r.Context(), *req.ID, req.FullName, req.Email)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

// DeleteCustomer handles DELETE /customers/delete/{id}
// @Summary Delete a customer with its loans and payments
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.CustomerResponse} "Snapshot of the deleted customer, status false"
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /customers/delete/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.DeleteCustomer)
}

// DisableCustomer handles DELETE /customers/disable/{id}
// @Summary Disable a customer
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.CustomerResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /customers/disable/{id} [delete]
func (h *CustomerHandler) DisableCustomer(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.DisableCustomer)
}

// EnableCustomer handles PATCH /customers/enable/{id}
// @Summary Enable a customer
// @Tags Customers
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.CustomerResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /customers/enable/{id} [patch]
func (h *CustomerHandler) EnableCustomer(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.EnableCustomer)
}

func (h *CustomerHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*customer.Customer, error)) {
	customerID, err := getIDFromURL(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	cust, err := op(r.Context(), customerID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusOK, dto.NewCustomerResponse(cust))
}
