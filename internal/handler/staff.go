package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payment-portal/internal/auth"
	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/store"
)

type auditEventDTO struct {
	ID         uuid.UUID         `json:"id"`
	ActorID    int64             `json:"actor_id"`
	EventType  string            `json:"event_type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Metadata   map[string]string `json:"metadata"`
}

type pagingDTO struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

func (h *PaymentHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	q := r.URL.Query()
	status := domain.PaymentStatus(strings.ToUpper(q.Get("status")))
	if status == "" {
		status = domain.PaymentStatusPending
	}

	var fields []FieldError
	limit, ok := queryInt(q.Get("limit"))
	if !ok {
		fields = append(fields, FieldError{Field: "limit", Message: "must be an integer"})
	}
	offset, ok := queryInt(q.Get("offset"))
	if !ok {
		fields = append(fields, FieldError{Field: "offset", Message: "must be an integer"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	limit, offset = store.NormalizePage(limit, offset)

	payments, err := h.payments.ListPaymentsByStatus(r.Context(), caller, status, limit, offset)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	out := make([]paymentDTO, 0, len(payments))
	for i := range payments {
		out = append(out, toPaymentDTO(&payments[i], caller))
	}
	RespondSuccess(w, http.StatusOK, map[string]any{
		"payments": out,
		"paging":   pagingDTO{Status: string(status), Limit: limit, Offset: offset},
	})
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	paymentID, ok := parsePaymentID(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	p, err := h.payments.VerifyPayment(r.Context(), caller, paymentID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPaymentDTO(p, caller))
}

func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	paymentID, ok := parsePaymentID(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	p, err := h.payments.SubmitPayment(r.Context(), caller, paymentID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPaymentDTO(p, caller))
}

func (h *PaymentHandler) Events(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	paymentID, ok := parsePaymentID(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	events, err := h.payments.PaymentHistory(r.Context(), caller, paymentID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	out := make([]auditEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventDTO{
			ID:         e.ID,
			ActorID:    e.ActorID,
			EventType:  string(e.EventType),
			OccurredAt: e.OccurredAt,
			Metadata:   e.Metadata,
		})
	}
	RespondSuccess(w, http.StatusOK, out)
}

// queryInt parses an optional integer query parameter. Empty means zero,
// which NormalizePage turns into the default.
func queryInt(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}
