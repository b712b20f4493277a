package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/josh-kwaku/swift-payment-portal/internal/auth"
	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/logging"
	"github.com/josh-kwaku/swift-payment-portal/internal/mt103"
	"github.com/josh-kwaku/swift-payment-portal/internal/store"
)

const unknownOrderingCustomer = "CUSTOMER"

type CreatePaymentRequest struct {
	AmountMinorUnits   int64
	Currency           domain.Currency
	DestinationAccount string
	SwiftCode          string
	BeneficiaryName    string
	PurposeText        string
}

func (s *Service) CreatePayment(ctx context.Context, caller auth.Principal, req CreatePaymentRequest) (int64, error) {
	if err := authorize(caller, opCreatePayment); err != nil {
		return 0, fmt.Errorf("CreatePayment: %w", err)
	}

	var id int64
	err := s.bounded(ctx, "create", func(ctx context.Context) error {
		var err error
		id, err = s.store.Create(ctx, store.CreateParams{
			CustomerID:         caller.ID,
			AmountMinorUnits:   req.AmountMinorUnits,
			Currency:           req.Currency,
			DestinationAccount: req.DestinationAccount,
			SwiftCode:          req.SwiftCode,
			BeneficiaryName:    req.BeneficiaryName,
			PurposeText:        req.PurposeText,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("CreatePayment: %w", err)
	}

	s.metrics.IncTransition(string(domain.AuditEventPaymentCreate))
	logging.FromContext(ctx).Info("payment created",
		"payment_id", id,
		"customer_id", caller.ID,
		"amount_minor_units", req.AmountMinorUnits,
		"currency", req.Currency,
	)
	return id, nil
}

// GetPayment returns the payment if the caller may see it. Customers only
// see their own; anyone else's payment looks like it does not exist.
func (s *Service) GetPayment(ctx context.Context, caller auth.Principal, paymentID int64) (*domain.Payment, error) {
	if err := authorize(caller, opGetPayment); err != nil {
		return nil, fmt.Errorf("GetPayment: %w", err)
	}

	p, err := s.get(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("GetPayment: %w", err)
	}
	if p.CustomerID != caller.ID && !Can(caller.Role, CapReadAny) {
		return nil, fmt.Errorf("GetPayment: %w", domain.ErrNotFound)
	}
	return p, nil
}

func (s *Service) ListPaymentsByStatus(ctx context.Context, caller auth.Principal, status domain.PaymentStatus, limit, offset int) ([]domain.Payment, error) {
	if err := authorize(caller, opListByStatus); err != nil {
		return nil, fmt.Errorf("ListPaymentsByStatus: %w", err)
	}

	var payments []domain.Payment
	err := s.bounded(ctx, "list", func(ctx context.Context) error {
		var err error
		payments, err = s.store.ListByStatus(ctx, status, limit, offset)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("ListPaymentsByStatus: %w", err)
	}
	return payments, nil
}

// VerifyPayment moves a PENDING payment to VERIFIED. A payment that is not
// pending, or does not exist, is a conflict.
func (s *Service) VerifyPayment(ctx context.Context, caller auth.Principal, paymentID int64) (*domain.Payment, error) {
	if err := authorize(caller, opVerifyPayment); err != nil {
		return nil, fmt.Errorf("VerifyPayment: %w", err)
	}

	var applied bool
	err := s.bounded(ctx, "verify", func(ctx context.Context) error {
		var err error
		applied, err = s.store.Verify(ctx, paymentID, caller.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("VerifyPayment: %w", err)
	}
	if !applied {
		s.metrics.IncConflict("verify")
		return nil, fmt.Errorf("VerifyPayment: payment %d not pending or missing: %w", paymentID, domain.ErrConflict)
	}

	s.metrics.IncTransition(string(domain.AuditEventPaymentVerify))
	logging.FromContext(ctx).Info("payment verified",
		"payment_id", paymentID,
		"employee_id", caller.ID,
	)

	p, err := s.get(ctx, paymentID)
	if err != nil {
		// The transition is committed; report it rather than the read.
		logging.FromContext(ctx).Warn("re-read after verify failed",
			"payment_id", paymentID,
			"error", err,
		)
		employeeID := caller.ID
		return &domain.Payment{
			ID:         paymentID,
			Status:     domain.PaymentStatusVerified,
			VerifiedBy: &employeeID,
		}, nil
	}
	return p, nil
}

// SubmitPayment renders the MT103 for a VERIFIED payment and records it as
// the SWIFT reference. Losing a race to another submitter discards the
// rendered message.
func (s *Service) SubmitPayment(ctx context.Context, caller auth.Principal, paymentID int64) (*domain.Payment, error) {
	if err := authorize(caller, opSubmitPayment); err != nil {
		return nil, fmt.Errorf("SubmitPayment: %w", err)
	}

	p, err := s.get(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.IncConflict("submit")
			return nil, fmt.Errorf("SubmitPayment: payment %d missing: %w", paymentID, domain.ErrConflict)
		}
		return nil, fmt.Errorf("SubmitPayment: %w", err)
	}
	if p.Status != domain.PaymentStatusVerified {
		s.metrics.IncConflict("submit")
		return nil, fmt.Errorf("SubmitPayment: payment %d is %s: %w", paymentID, p.Status, domain.ErrConflict)
	}

	payer, err := s.orderingCustomer(ctx, p.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("SubmitPayment: %w", err)
	}

	reference, err := s.encoder.Encode(mt103.Message{
		PaymentID:        p.ID,
		AmountMinorUnits: p.AmountMinorUnits,
		Currency:         string(p.Currency),
		PurposeText:      p.PurposeText,
		ReceiverBIC:      p.SwiftCode,
		OrderingCustomer: payer,
		Beneficiary: mt103.Party{
			Name:    p.BeneficiaryName,
			Account: p.DestinationAccount,
		},
	})
	if err != nil {
		logging.FromContext(ctx).Error("mt103 encoding rejected stored payment",
			"payment_id", p.ID,
			"error", err,
		)
		return nil, fmt.Errorf("SubmitPayment: %w", err)
	}

	var applied bool
	err = s.bounded(ctx, "submit", func(ctx context.Context) error {
		var err error
		applied, err = s.store.Submit(ctx, paymentID, caller.ID, reference)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("SubmitPayment: %w", err)
	}
	if !applied {
		s.metrics.IncConflict("submit")
		return nil, fmt.Errorf("SubmitPayment: payment %d already moved on: %w", paymentID, domain.ErrConflict)
	}

	s.metrics.IncTransition(string(domain.AuditEventPaymentSubmit))
	logging.FromContext(ctx).Info("payment submitted",
		"payment_id", paymentID,
		"employee_id", caller.ID,
		"currency", p.Currency,
	)

	submitted, err := s.get(ctx, paymentID)
	if err != nil {
		logging.FromContext(ctx).Warn("re-read after submit failed",
			"payment_id", paymentID,
			"error", err,
		)
		employeeID := caller.ID
		fallback := *p
		fallback.Status = domain.PaymentStatusSubmitted
		fallback.SubmittedBy = &employeeID
		fallback.SwiftReference = &reference
		return &fallback, nil
	}
	return submitted, nil
}

// PaymentHistory returns the audit trail of one payment, oldest first.
func (s *Service) PaymentHistory(ctx context.Context, caller auth.Principal, paymentID int64) ([]domain.AuditEvent, error) {
	if err := authorize(caller, opPaymentHistory); err != nil {
		return nil, fmt.Errorf("PaymentHistory: %w", err)
	}

	if _, err := s.get(ctx, paymentID); err != nil {
		return nil, fmt.Errorf("PaymentHistory: %w", err)
	}

	var events []domain.AuditEvent
	err := s.bounded(ctx, "events", func(ctx context.Context) error {
		var err error
		events, err = s.store.ListEvents(ctx, paymentID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("PaymentHistory: %w", err)
	}
	return events, nil
}

func (s *Service) get(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	var p *domain.Payment
	err := s.bounded(ctx, "get", func(ctx context.Context) error {
		var err error
		p, err = s.store.GetByID(ctx, paymentID)
		return err
	})
	return p, err
}

func (s *Service) orderingCustomer(ctx context.Context, customerID int64) (mt103.Party, error) {
	var profile *domain.CustomerProfile
	err := s.bounded(ctx, "profile", func(ctx context.Context) error {
		var err error
		profile, err = s.profiles.GetProfile(ctx, customerID)
		return err
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logging.FromContext(ctx).Warn("no customer profile, using placeholder payer",
			"customer_id", customerID,
		)
		return mt103.Party{Name: unknownOrderingCustomer}, nil
	case err != nil:
		return mt103.Party{}, fmt.Errorf("orderingCustomer: %w", err)
	}
	return mt103.Party{Name: profile.FullName, Account: profile.AccountLast4}, nil
}
