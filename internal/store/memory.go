package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/repository"
)

// MemoryStore keeps payments in process. Each payment sits behind its own
// atomic pointer so reads never block. Transitions run under mu, which also
// guards the event log: the status check, the event append and the row swap
// happen as one step, mirroring the conditional UPDATE and audit insert that
// share a transaction in Postgres. One transition wins, the rest get false.
type MemoryStore struct {
	cipher fieldCipher
	opts   options

	nextID   atomic.Int64
	payments sync.Map // int64 -> *atomic.Pointer[repository.PaymentRecord]

	mu     sync.RWMutex
	events []domain.AuditEvent
}

func NewMemoryStore(cipher fieldCipher, opts ...Option) *MemoryStore {
	return &MemoryStore{cipher: cipher, opts: buildOptions(opts)}
}

func (s *MemoryStore) Create(ctx context.Context, p CreateParams) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}
	if err := p.validate(); err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}

	rec, err := seal(s.cipher, p, s.opts.now())
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}
	rec.ID = s.nextID.Add(1)

	ptr := new(atomic.Pointer[repository.PaymentRecord])
	ptr.Store(rec)

	// Row and event become visible together.
	s.mu.Lock()
	s.payments.Store(rec.ID, ptr)
	s.events = append(s.events, *createdEvent(s.opts.newID(), rec))
	s.mu.Unlock()

	return rec.ID, nil
}

func (s *MemoryStore) Verify(ctx context.Context, paymentID, employeeID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("Verify: %w", err)
	}

	now := s.opts.now()
	applied := s.transition(paymentID, domain.PaymentStatusPending, func(rec *repository.PaymentRecord) *domain.AuditEvent {
		rec.Status = domain.PaymentStatusVerified
		rec.VerifiedBy = &employeeID
		rec.VerifiedAt = &now
		return verifiedEvent(s.opts.newID(), paymentID, employeeID, now)
	})
	return applied, nil
}

func (s *MemoryStore) Submit(ctx context.Context, paymentID, employeeID int64, swiftReference string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("Submit: %w", err)
	}

	now := s.opts.now()
	applied := s.transition(paymentID, domain.PaymentStatusVerified, func(rec *repository.PaymentRecord) *domain.AuditEvent {
		rec.Status = domain.PaymentStatusSubmitted
		rec.SubmittedBy = &employeeID
		rec.SubmittedAt = &now
		rec.SwiftReference = &swiftReference
		return submittedEvent(s.opts.newID(), paymentID, employeeID, swiftReference, now)
	})
	return applied, nil
}

// transition applies fn to the row when it is in status from. The event fn
// returns is appended before the new row is published, so a reader that
// sees the new status always finds its event.
func (s *MemoryStore) transition(paymentID int64, from domain.PaymentStatus, fn func(*repository.PaymentRecord) *domain.AuditEvent) bool {
	v, ok := s.payments.Load(paymentID)
	if !ok {
		return false
	}
	ptr := v.(*atomic.Pointer[repository.PaymentRecord])

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := ptr.Load()
	if cur.Status != from {
		return false
	}
	next := *cur
	event := fn(&next)
	s.events = append(s.events, *event)
	ptr.Store(&next)
	return true
}

func (s *MemoryStore) GetByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	v, ok := s.payments.Load(paymentID)
	if !ok {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
	}
	p, err := open(s.cipher, v.(*atomic.Pointer[repository.PaymentRecord]).Load())
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (s *MemoryStore) ListByStatus(ctx context.Context, status domain.PaymentStatus, limit, offset int) ([]domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("ListByStatus: %q: %w", status, domain.ErrInvalidStatus)
	}
	limit, offset = NormalizePage(limit, offset)

	var matched []repository.PaymentRecord
	s.payments.Range(func(_, v any) bool {
		rec := v.(*atomic.Pointer[repository.PaymentRecord]).Load()
		if rec.Status == status {
			matched = append(matched, *rec)
		}
		return true
	})

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	if offset >= len(matched) {
		return []domain.Payment{}, nil
	}
	matched = matched[offset:min(offset+limit, len(matched))]

	payments, err := openAll(s.cipher, matched)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	return payments, nil
}

func (s *MemoryStore) ListEvents(ctx context.Context, paymentID int64) ([]domain.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ListEvents: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []domain.AuditEvent
	for _, e := range s.events {
		if e.EntityID == paymentID {
			events = append(events, e)
		}
	}
	return events, nil
}
