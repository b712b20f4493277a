package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/josh-kwaku/swift-payment-portal/internal/auth"
	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/service/payment"
)

type paymentService interface {
	CreatePayment(ctx context.Context, caller auth.Principal, req payment.CreatePaymentRequest) (int64, error)
	GetPayment(ctx context.Context, caller auth.Principal, paymentID int64) (*domain.Payment, error)
	ListPaymentsByStatus(ctx context.Context, caller auth.Principal, status domain.PaymentStatus, limit, offset int) ([]domain.Payment, error)
	VerifyPayment(ctx context.Context, caller auth.Principal, paymentID int64) (*domain.Payment, error)
	SubmitPayment(ctx context.Context, caller auth.Principal, paymentID int64) (*domain.Payment, error)
	PaymentHistory(ctx context.Context, caller auth.Principal, paymentID int64) ([]domain.AuditEvent, error)
}

type PaymentHandler struct {
	payments paymentService
}

func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type createPaymentRequest struct {
	AmountMinorUnits   int64  `json:"amount_minor_units" validate:"gt=0,lte=100000000"`
	Currency           string `json:"currency" validate:"required,oneof=ZAR USD EUR GBP"`
	SwiftCode          string `json:"swift_code" validate:"required,swift"`
	DestinationAccount string `json:"destination_account" validate:"required,account_number"`
	BeneficiaryName    string `json:"beneficiary_name" validate:"max=70"`
	PurposeText        string `json:"purpose" validate:"max=255"`
}

type paymentDTO struct {
	ID                 int64      `json:"id"`
	CustomerID         int64      `json:"customer_id"`
	AmountMinorUnits   int64      `json:"amount_minor_units"`
	Currency           string     `json:"currency"`
	DestinationAccount string     `json:"destination_account"`
	SwiftCode          string     `json:"swift_code"`
	BeneficiaryName    string     `json:"beneficiary_name,omitempty"`
	PurposeText        string     `json:"purpose"`
	Status             string     `json:"status"`
	VerifiedBy         *int64     `json:"verified_by,omitempty"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	SubmittedBy        *int64     `json:"submitted_by,omitempty"`
	SubmittedAt        *time.Time `json:"submitted_at,omitempty"`
	SwiftReference     *string    `json:"swift_reference,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// toPaymentDTO renders p for caller. Only staff see the full destination
// account; customers get it masked to the last four characters.
func toPaymentDTO(p *domain.Payment, caller auth.Principal) paymentDTO {
	account := p.DestinationAccount
	if !payment.Can(caller.Role, payment.CapReadAny) {
		account = maskAccount(p)
	}
	return paymentDTO{
		ID:                 p.ID,
		CustomerID:         p.CustomerID,
		AmountMinorUnits:   p.AmountMinorUnits,
		Currency:           string(p.Currency),
		DestinationAccount: account,
		SwiftCode:          p.SwiftCode,
		BeneficiaryName:    p.BeneficiaryName,
		PurposeText:        p.PurposeText,
		Status:             string(p.Status),
		VerifiedBy:         p.VerifiedBy,
		VerifiedAt:         p.VerifiedAt,
		SubmittedBy:        p.SubmittedBy,
		SubmittedAt:        p.SubmittedAt,
		SwiftReference:     p.SwiftReference,
		CreatedAt:          p.CreatedAt,
	}
}

func maskAccount(p *domain.Payment) string {
	last4 := p.AccountLast4()
	return strings.Repeat("*", max(len(p.DestinationAccount)-len(last4), 0)) + last4
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createPaymentRequest
	fields, err := decodeJSONBody(w, r, &req)
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	id, err := h.payments.CreatePayment(r.Context(), caller, payment.CreatePaymentRequest{
		AmountMinorUnits:   req.AmountMinorUnits,
		Currency:           domain.Currency(req.Currency),
		DestinationAccount: req.DestinationAccount,
		SwiftCode:          strings.ToUpper(req.SwiftCode),
		BeneficiaryName:    strings.TrimSpace(req.BeneficiaryName),
		PurposeText:        strings.TrimSpace(req.PurposeText),
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/payments/%d", id))
	RespondSuccess(w, http.StatusCreated, map[string]any{
		"id":     id,
		"status": domain.PaymentStatusPending,
	})
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	p, err := h.payments.GetPayment(r.Context(), caller, paymentID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPaymentDTO(p, caller))
}

func parsePaymentID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
