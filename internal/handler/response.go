package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/logging"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// RespondDomainError maps a service error onto an HTTP status. Caller errors
// are logged at warn; faults (cipher, storage, anything unrecognised) at
// error.
func RespondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())

	var appErr *AppError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		appErr = ErrInvalidAmount
	case errors.Is(err, domain.ErrInvalidCurrency):
		appErr = ErrInvalidCurrency
	case errors.Is(err, domain.ErrInvalidStatus):
		appErr = ErrInvalidStatus
	case errors.Is(err, domain.ErrValidation):
		appErr = ErrValidationFailed
	case errors.Is(err, domain.ErrForbidden):
		appErr = ErrForbidden
	case errors.Is(err, domain.ErrNotFound):
		appErr = ErrResourceNotFound
	case errors.Is(err, domain.ErrConflict):
		appErr = ErrPaymentConflict
	}

	if appErr != nil {
		log.Warn("request rejected", "code", appErr.Code, "error", err)
		RespondAppError(w, appErr, nil)
		return
	}

	switch {
	case errors.Is(err, domain.ErrCipherKey), errors.Is(err, domain.ErrEncryption):
		log.Error("field cipher failure", "error", err)
	case errors.Is(err, domain.ErrStorage):
		log.Error("storage failure", "error", err)
	default:
		log.Error("unhandled domain error", "error", err)
	}
	RespondAppError(w, ErrInternalError, nil)
}
