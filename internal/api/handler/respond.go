package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"lending-service/internal/api/handler/dto"
	"lending-service/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

const internalErrorMessage = "An unexpected error occurred."

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: no request body", apperrors.ErrInvalidArgument)
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", apperrors.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: malformed JSON: %v", apperrors.ErrInvalidArgument, err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"errors":{"code":"INTERNAL","message":"An unexpected error occurred."}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// RespondBody writes the success envelope.
func RespondBody(w http.ResponseWriter, status int, body any) {
	respondJSON(w, status, dto.SuccessResponse{Body: body})
}

// RespondCode writes the error envelope for failures that never reach a
// service, such as unmatched routes or rejected rate limits.
func RespondCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.ErrorResponse{Errors: dto.ErrorDetail{Code: code, Message: message}})
}

var statusByCode = map[string]int{
	apperrors.CodeNotFound:        http.StatusNotFound,
	apperrors.CodeInvalidArgument: http.StatusBadRequest,
	apperrors.CodeValidation:      http.StatusUnprocessableEntity,
	apperrors.CodeConflict:        http.StatusConflict,
}

// errorDetail maps an error to its HTTP status and client-facing envelope.
func errorDetail(err error) (int, dto.ErrorDetail) {
	code := apperrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		return http.StatusInternalServerError, dto.ErrorDetail{Code: apperrors.CodeInternal, Message: internalErrorMessage}
	}

	detail := dto.ErrorDetail{Code: code}
	switch code {
	case apperrors.CodeNotFound:
		detail.Message = apperrors.MessageOf(err, "Record not found")
	case apperrors.CodeInvalidArgument:
		detail.Message = err.Error()
	default:
		detail.Message = apperrors.MessageOf(err, err.Error())
	}
	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		detail.Field = validationErr.Field
	}
	return status, detail
}

// respondError logs expected outcomes at WARN and everything else at ERROR.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, detail := errorDetail(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", slog.Int("status", status), slog.Any("error", err))
	} else {
		logger.WarnContext(r.Context(), "Request rejected", slog.Int("status", status), slog.String("code", detail.Code), slog.Any("error", err))
	}
	respondJSON(w, status, dto.ErrorResponse{Errors: detail})
}

func getIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		return 0, fmt.Errorf("%w: id not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}
