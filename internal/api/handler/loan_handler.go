package handler

import (
	"context"
	"log/slog"
	"net/http"

	"lending-service/internal/api/handler/dto"
	"lending-service/internal/domain/loan"
	"lending-service/internal/pkg/pagination"
)

type LoanHandler struct {
	service loan.LoanService
	limits  pagination.Limits
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, limits pagination.Limits, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		limits:  limits.Normalize(),
		logger:  l.With("component", "LoanHandler"),
	}
}

// GetLoan handles GET /loans/retrieve/{id}
// @Summary Retrieve a loan
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.LoanResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /loans/retrieve/{id} [get]
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := getIDFromURL(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusOK, dto.NewLoanResponse(domainLoan))
}

// ListLoans handles GET /loans/list
// @Summary List loans
// @Description Filters by the loan's status and a substring of the owning customer's full_name or email.
// @Tags Loans
// @Produce json
// @Param filter query string false "Substring of the customer's full_name or email"
// @Param status query bool false "Loan status, default true"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.SuccessResponse{body=[]dto.LoanResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Router /loans/list [get]
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	params, err := dto.ParseListQuery(r.URL.Query(), h.limits)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	loans, err := h.service.ListLoans(r.Context(), params)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

// CreateLoan handles POST /loans/create
// @Summary Create a loan for an existing customer
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request"
// @Success 201 {object} dto.SuccessResponse{body=dto.LoanResponse}
// @Failure 400 {object} dto.ErrorResponse "Malformed JSON"
// @Failure 422 {object} dto.ErrorResponse "Missing parameter, invalid amount or customer not found"
// @Router /loans/create [post]
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	createdLoan, err := h.service.CreateLoan(r.Context(), *req.CustomerID, *req.Amount)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan created", "loanID", createdLoan.ID)
	RespondBody(w, http.StatusCreated, dto.NewLoanResponse(createdLoan))
}

// DeleteLoan handles DELETE /loans/delete/{id}
// @Summary Delete a loan with its payments
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.LoanResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /loans/delete/{id} [delete]
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.DeleteLoan)
}

// DisableLoan handles DELETE /loans/disable/{id}
// @Summary Disable a loan
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.LoanResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /loans/disable/{id} [delete]
func (h *LoanHandler) DisableLoan(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.DisableLoan)
}

// EnableLoan handles PATCH /loans/enable/{id}
// @Summary Enable a loan
// @Tags Loans
// @Produce json
// @Param id path int true "Loan ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.LoanResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /loans/enable/{id} [patch]
func (h *LoanHandler) EnableLoan(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.EnableLoan)
}

func (h *LoanHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*loan.Loan, error)) {
	loanID, err := getIDFromURL(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	l, err := op(r.Context(), loanID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusOK, dto.NewLoanResponse(l))
}
