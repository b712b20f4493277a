package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
)

const paymentColumns = `payment_id, customer_id, amount_minor_units, currency,
	destination_account_enc, swift_code_enc, beneficiary_name, purpose_text,
	status, verified_by, verified_at, submitted_by, submitted_at, swift_reference,
	created_at`

// PaymentRecord is the persisted shape of a payment. The sensitive columns
// hold sealed blobs and never leave the store package in this form.
type PaymentRecord struct {
	ID                    int64
	CustomerID            int64
	AmountMinorUnits      int64
	Currency              domain.Currency
	DestinationAccountEnc []byte
	SwiftCodeEnc          []byte
	BeneficiaryName       string
	PurposeText           string
	Status                domain.PaymentStatus
	VerifiedBy            *int64
	VerifiedAt            *time.Time
	SubmittedBy           *int64
	SubmittedAt           *time.Time
	SwiftReference        *string
	CreatedAt             time.Time
}

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Insert(ctx context.Context, tx *sql.Tx, rec *PaymentRecord) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO payments (
			customer_id, amount_minor_units, currency,
			destination_account_enc, swift_code_enc, beneficiary_name, purpose_text,
			status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING payment_id`,
		rec.CustomerID, rec.AmountMinorUnits, rec.Currency,
		rec.DestinationAccountEnc, rec.SwiftCodeEnc, rec.BeneficiaryName, rec.PurposeText,
		rec.Status, rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return storageErr("Insert", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*PaymentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, id,
	)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, storageErr("GetByID", err)
	}
	return p, nil
}

// ListByStatus returns the oldest payments first so review queues drain in
// arrival order.
func (r *PaymentRepository) ListByStatus(ctx context.Context, status domain.PaymentStatus, limit, offset int) ([]PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments
		WHERE status = $1 ORDER BY created_at, payment_id LIMIT $2 OFFSET $3`,
		status, limit, offset,
	)
	if err != nil {
		return nil, storageErr("ListByStatus", err)
	}
	defer rows.Close()

	var payments []PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, storageErr("ListByStatus: scan", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("ListByStatus: rows", err)
	}
	return payments, nil
}

// MarkVerified moves a PENDING payment to VERIFIED. It reports false when
// no row matched, meaning the payment is gone or was already moved on.
func (r *PaymentRepository) MarkVerified(ctx context.Context, tx *sql.Tx, id, employeeID int64, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = $1, verified_by = $2, verified_at = $3
		WHERE payment_id = $4 AND status = $5`,
		domain.PaymentStatusVerified, employeeID, at, id, domain.PaymentStatusPending,
	)
	if err != nil {
		return false, storageErr("MarkVerified", err)
	}
	return affectedOne("MarkVerified", res)
}

// MarkSubmitted moves a VERIFIED payment to SUBMITTED, recording the
// outgoing message reference.
func (r *PaymentRepository) MarkSubmitted(ctx context.Context, tx *sql.Tx, id, employeeID int64, swiftReference string, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = $1, submitted_by = $2, submitted_at = $3, swift_reference = $4
		WHERE payment_id = $5 AND status = $6`,
		domain.PaymentStatusSubmitted, employeeID, at, swiftReference, id, domain.PaymentStatusVerified,
	)
	if err != nil {
		return false, storageErr("MarkSubmitted", err)
	}
	return affectedOne("MarkSubmitted", res)
}

func affectedOne(op string, res sql.Result) (bool, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return false, storageErr(op+": rows affected", err)
	}
	return rows == 1, nil
}

func scanPayment(s scanner) (*PaymentRecord, error) {
	var p PaymentRecord
	var verifiedBy, submittedBy sql.NullInt64

	err := s.Scan(
		&p.ID, &p.CustomerID, &p.AmountMinorUnits, &p.Currency,
		&p.DestinationAccountEnc, &p.SwiftCodeEnc, &p.BeneficiaryName, &p.PurposeText,
		&p.Status, &verifiedBy, &p.VerifiedAt, &submittedBy, &p.SubmittedAt, &p.SwiftReference,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verifiedBy.Valid {
		p.VerifiedBy = &verifiedBy.Int64
	}
	if submittedBy.Valid {
		p.SubmittedBy = &submittedBy.Int64
	}
	return &p, nil
}
