// Package store owns the persisted form of a payment. It seals the
// sensitive fields on the way in, opens them on the way out, and guards
// every status change with a conditional write keyed on the expected
// current status.
package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
	MaxListOffset    = 10_000
)

type fieldCipher interface {
	Encrypt(plaintext string) ([]byte, error)
	Decrypt(blob []byte) (string, error)
}

type CreateParams struct {
	CustomerID         int64
	AmountMinorUnits   int64
	Currency           domain.Currency
	DestinationAccount string
	SwiftCode          string
	BeneficiaryName    string
	PurposeText        string
}

func (p CreateParams) validate() error {
	if p.AmountMinorUnits <= 0 {
		return domain.ErrInvalidAmount
	}
	if !p.Currency.IsValid() {
		return domain.ErrInvalidCurrency
	}
	if p.DestinationAccount == "" {
		return fmt.Errorf("destination account: %w", domain.ErrMissingField)
	}
	if p.SwiftCode == "" {
		return fmt.Errorf("swift code: %w", domain.ErrMissingField)
	}
	return nil
}

type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() uuid.UUID
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NormalizePage clamps a page request to the bounds every listing honours.
func NormalizePage(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	switch {
	case offset < 0:
		offset = 0
	case offset > MaxListOffset:
		offset = MaxListOffset
	}
	return limit, offset
}

func seal(c fieldCipher, p CreateParams, now time.Time) (*repository.PaymentRecord, error) {
	account, err := c.Encrypt(p.DestinationAccount)
	if err != nil {
		return nil, fmt.Errorf("seal: destination account: %w", err)
	}
	swift, err := c.Encrypt(p.SwiftCode)
	if err != nil {
		return nil, fmt.Errorf("seal: swift code: %w", err)
	}

	return &repository.PaymentRecord{
		CustomerID:            p.CustomerID,
		AmountMinorUnits:      p.AmountMinorUnits,
		Currency:              p.Currency,
		DestinationAccountEnc: account,
		SwiftCodeEnc:          swift,
		BeneficiaryName:       p.BeneficiaryName,
		PurposeText:           p.PurposeText,
		Status:                domain.PaymentStatusPending,
		CreatedAt:             now,
	}, nil
}

func open(c fieldCipher, rec *repository.PaymentRecord) (*domain.Payment, error) {
	account, err := c.Decrypt(rec.DestinationAccountEnc)
	if err != nil {
		return nil, fmt.Errorf("open payment %d: destination account: %w", rec.ID, err)
	}
	swift, err := c.Decrypt(rec.SwiftCodeEnc)
	if err != nil {
		return nil, fmt.Errorf("open payment %d: swift code: %w", rec.ID, err)
	}

	return &domain.Payment{
		ID:                 rec.ID,
		CustomerID:         rec.CustomerID,
		AmountMinorUnits:   rec.AmountMinorUnits,
		Currency:           rec.Currency,
		DestinationAccount: account,
		SwiftCode:          swift,
		BeneficiaryName:    rec.BeneficiaryName,
		PurposeText:        rec.PurposeText,
		Status:             rec.Status,
		VerifiedBy:         rec.VerifiedBy,
		VerifiedAt:         rec.VerifiedAt,
		SubmittedBy:        rec.SubmittedBy,
		SubmittedAt:        rec.SubmittedAt,
		SwiftReference:     rec.SwiftReference,
		CreatedAt:          rec.CreatedAt,
	}, nil
}

func openAll(c fieldCipher, recs []repository.PaymentRecord) ([]domain.Payment, error) {
	out := make([]domain.Payment, 0, len(recs))
	for i := range recs {
		p, err := open(c, &recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func createdEvent(id uuid.UUID, rec *repository.PaymentRecord) *domain.AuditEvent {
	return &domain.AuditEvent{
		ID:         id,
		ActorID:    rec.CustomerID,
		EventType:  domain.AuditEventPaymentCreate,
		EntityID:   rec.ID,
		OccurredAt: rec.CreatedAt,
		Metadata: map[string]string{
			"amount_minor_units": strconv.FormatInt(rec.AmountMinorUnits, 10),
			"currency":           string(rec.Currency),
			"status":             string(domain.PaymentStatusPending),
		},
	}
}

func verifiedEvent(id uuid.UUID, paymentID, employeeID int64, at time.Time) *domain.AuditEvent {
	return &domain.AuditEvent{
		ID:         id,
		ActorID:    employeeID,
		EventType:  domain.AuditEventPaymentVerify,
		EntityID:   paymentID,
		OccurredAt: at,
		Metadata: map[string]string{
			"from": string(domain.PaymentStatusPending),
			"to":   string(domain.PaymentStatusVerified),
		},
	}
}

func submittedEvent(id uuid.UUID, paymentID, employeeID int64, swiftReference string, at time.Time) *domain.AuditEvent {
	return &domain.AuditEvent{
		ID:         id,
		ActorID:    employeeID,
		EventType:  domain.AuditEventPaymentSubmit,
		EntityID:   paymentID,
		OccurredAt: at,
		Metadata: map[string]string{
			"from":            string(domain.PaymentStatusVerified),
			"to":              string(domain.PaymentStatusSubmitted),
			"swift_reference": swiftReference,
		},
	}
}
