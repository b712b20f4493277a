package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) GetProfile(ctx context.Context, customerID int64) (*domain.CustomerProfile, error) {
	var c domain.CustomerProfile
	err := r.db.QueryRowContext(ctx,
		`SELECT customer_id, full_name, account_last4 FROM customer_profiles WHERE customer_id = $1`,
		customerID,
	).Scan(&c.CustomerID, &c.FullName, &c.AccountLast4)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetProfile: %w", domain.ErrNotFound)
		}
		return nil, storageErr("GetProfile", err)
	}
	return &c, nil
}
