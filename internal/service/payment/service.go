// Package payment drives a payment through PENDING, VERIFIED and SUBMITTED.
// The store is the only authority on current status; this package gates
// callers, builds the MT103 text and reports conflicts.
package payment

import (
	"context"
	"time"

	"github.com/josh-kwaku/swift-payment-portal/internal/config"
	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/metrics"
	"github.com/josh-kwaku/swift-payment-portal/internal/mt103"
	"github.com/josh-kwaku/swift-payment-portal/internal/store"
)

type paymentStore interface {
	Create(ctx context.Context, p store.CreateParams) (int64, error)
	Verify(ctx context.Context, paymentID, employeeID int64) (bool, error)
	Submit(ctx context.Context, paymentID, employeeID int64, swiftReference string) (bool, error)
	GetByID(ctx context.Context, paymentID int64) (*domain.Payment, error)
	ListByStatus(ctx context.Context, status domain.PaymentStatus, limit, offset int) ([]domain.Payment, error)
	ListEvents(ctx context.Context, paymentID int64) ([]domain.AuditEvent, error)
}

type messageEncoder interface {
	Encode(m mt103.Message) (string, error)
}

type customerProfiles interface {
	GetProfile(ctx context.Context, customerID int64) (*domain.CustomerProfile, error)
}

type Service struct {
	store    paymentStore
	encoder  messageEncoder
	profiles customerProfiles
	metrics  *metrics.LifecycleMetrics
	config   *config.Config
}

func NewService(
	st paymentStore,
	encoder messageEncoder,
	profiles customerProfiles,
	m *metrics.LifecycleMetrics,
	cfg *config.Config,
) *Service {
	return &Service{
		store:    st,
		encoder:  encoder,
		profiles: profiles,
		metrics:  m,
		config:   cfg,
	}
}

// bounded runs fn under the configured store deadline and records its
// latency. A zero timeout leaves the caller's context untouched.
func (s *Service) bounded(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if s.config != nil && s.config.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.StoreTimeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	s.metrics.ObserveStore(op, time.Since(start))
	return err
}
