package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/repository"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type paymentRepo interface {
	Insert(ctx context.Context, tx *sql.Tx, rec *repository.PaymentRecord) error
	GetByID(ctx context.Context, id int64) (*repository.PaymentRecord, error)
	ListByStatus(ctx context.Context, status domain.PaymentStatus, limit, offset int) ([]repository.PaymentRecord, error)
	MarkVerified(ctx context.Context, tx *sql.Tx, id, employeeID int64, at time.Time) (bool, error)
	MarkSubmitted(ctx context.Context, tx *sql.Tx, id, employeeID int64, swiftReference string, at time.Time) (bool, error)
}

type auditRepo interface {
	Insert(ctx context.Context, tx *sql.Tx, event *domain.AuditEvent) error
	ListByEntity(ctx context.Context, entityID int64) ([]domain.AuditEvent, error)
}

// PostgresStore runs every mutation in its own transaction so the payment
// row and its audit event commit or roll back together.
type PostgresStore struct {
	db       txRunner
	payments paymentRepo
	audit    auditRepo
	cipher   fieldCipher
	opts     options
}

// NewPostgres wires the store onto a connection pool with the default
// repositories.
func NewPostgres(pool *sql.DB, cipher fieldCipher, opts ...Option) *PostgresStore {
	return NewPostgresStore(
		repository.NewDB(pool),
		repository.NewPaymentRepository(pool),
		repository.NewAuditLogRepository(pool),
		cipher,
		opts...,
	)
}

func NewPostgresStore(db txRunner, payments paymentRepo, audit auditRepo, cipher fieldCipher, opts ...Option) *PostgresStore {
	return &PostgresStore{
		db:       db,
		payments: payments,
		audit:    audit,
		cipher:   cipher,
		opts:     buildOptions(opts),
	}
}

func (s *PostgresStore) Create(ctx context.Context, p CreateParams) (int64, error) {
	if err := p.validate(); err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}

	rec, err := seal(s.cipher, p, s.opts.now())
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.payments.Insert(ctx, tx, rec); err != nil {
			return err
		}
		return s.audit.Insert(ctx, tx, createdEvent(s.opts.newID(), rec))
	})
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}
	return rec.ID, nil
}

func (s *PostgresStore) Verify(ctx context.Context, paymentID, employeeID int64) (bool, error) {
	now := s.opts.now()

	var applied bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		applied, err = s.payments.MarkVerified(ctx, tx, paymentID, employeeID, now)
		if err != nil || !applied {
			return err
		}
		return s.audit.Insert(ctx, tx, verifiedEvent(s.opts.newID(), paymentID, employeeID, now))
	})
	if err != nil {
		return false, fmt.Errorf("Verify: %w", err)
	}
	return applied, nil
}

func (s *PostgresStore) Submit(ctx context.Context, paymentID, employeeID int64, swiftReference string) (bool, error) {
	now := s.opts.now()

	var applied bool
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		applied, err = s.payments.MarkSubmitted(ctx, tx, paymentID, employeeID, swiftReference, now)
		if err != nil || !applied {
			return err
		}
		return s.audit.Insert(ctx, tx, submittedEvent(s.opts.newID(), paymentID, employeeID, swiftReference, now))
	})
	if err != nil {
		return false, fmt.Errorf("Submit: %w", err)
	}
	return applied, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	rec, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	p, err := open(s.cipher, rec)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status domain.PaymentStatus, limit, offset int) ([]domain.Payment, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("ListByStatus: %q: %w", status, domain.ErrInvalidStatus)
	}
	limit, offset = NormalizePage(limit, offset)

	recs, err := s.payments.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	payments, err := openAll(s.cipher, recs)
	if err != nil {
		return nil, fmt.Errorf("ListByStatus: %w", err)
	}
	return payments, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, paymentID int64) ([]domain.AuditEvent, error) {
	events, err := s.audit.ListByEntity(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("ListEvents: %w", err)
	}
	return events, nil
}
