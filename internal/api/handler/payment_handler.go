package handler

import (
	"context"
	"log/slog"
	"net/http"

	"lending-service/internal/api/handler/dto"
	"lending-service/internal/domain/payment"
	"lending-service/internal/pkg/pagination"
)

type PaymentHandler struct {
	service payment.PaymentService
	limits  pagination.Limits
	logger  *slog.Logger
}

func NewPaymentHandler(s payment.PaymentService, limits pagination.Limits, l *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: s,
		limits:  limits.Normalize(),
		logger:  l.With("component", "PaymentHandler"),
	}
}

// GetPayment handles GET /payments/retrieve/{id}
// @Summary Retrieve a payment
// @Tags Payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.PaymentResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /payments/retrieve/{id} [get]
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := getIDFromURL(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	p, err := h.service.GetPayment(r.Context(), paymentID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusOK, dto.NewPaymentResponse(p))
}

// ListPayments handles GET /payments/list
// @Summary List payments
// @Tags Payments
// @Produce json
// @Param filter query string false "Substring of the paying customer's full_name or email"
// @Param status query bool false "Payment status, default true"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.SuccessResponse{body=[]dto.PaymentResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid query parameters"
// @Router /payments/list [get]
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	params, err := dto.ParseListQuery(r.URL.Query(), h.limits)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	payments, err := h.service.ListPayments(r.Context(), params)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusOK, dto.NewPaymentListResponse(payments))
}

// CreatePayment handles POST /payments/create
// @Summary Register a payment against a loan
// @Description The stored amount includes a 15% fee taxed at 16%: amount + amount*0.15*1.16.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentRequest true "Payment creation request"
// @Success 201 {object} dto.SuccessResponse{body=dto.PaymentResponse}
// @Failure 400 {object} dto.ErrorResponse "Malformed JSON"
// @Failure 422 {object} dto.ErrorResponse "Missing parameter, invalid amount or loan not found"
// @Router /payments/create [post]
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := dto.Validate(req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	p, err := h.service.CreatePayment(r.Context(), *req.LoanID, *req.Amount)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusCreated, dto.NewPaymentResponse(p))
}

// DeletePayment handles DELETE /payments/delete/{id}
// @Summary Delete a payment
// @Tags Payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.PaymentResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /payments/delete/{id} [delete]
func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.DeletePayment)
}

// DisablePayment handles DELETE /payments/disable/{id}
// @Summary Disable a payment
// @Tags Payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.PaymentResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /payments/disable/{id} [delete]
func (h *PaymentHandler) DisablePayment(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.DisablePayment)
}

// EnablePayment handles PATCH /payments/enable/{id}
// @Summary Enable a payment
// @Tags Payments
// @Produce json
// @Param id path int true "Payment ID"
// @Success 200 {object} dto.SuccessResponse{body=dto.PaymentResponse}
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /payments/enable/{id} [patch]
func (h *PaymentHandler) EnablePayment(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.EnablePayment)
}

func (h *PaymentHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (*payment.Payment, error)) {
	paymentID, err := getIDFromURL(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	p, err := op(r.Context(), paymentID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	RespondBody(w, http.StatusOK, dto.NewPaymentResponse(p))
}
