package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/josh-kwaku/swift-payment-portal/internal/auth"
	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/fieldcrypt"
)

const (
	JWTSecret = "test-jwt-secret"
	keyHex    = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

// FixedTime is the clock most tests pin to. It renders as value date 260314.
var FixedTime = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func FixedClock() time.Time { return FixedTime }

func NewCipher(t *testing.T) *fieldcrypt.Cipher {
	t.Helper()
	c, err := fieldcrypt.FromHex(keyHex, "production", nil)
	if err != nil {
		t.Fatalf("build cipher: %v", err)
	}
	return c
}

func Customer(id int64) auth.Principal {
	return auth.Principal{ID: id, Role: auth.RoleCustomer}
}

func Employee(id int64) auth.Principal {
	return auth.Principal{ID: id, Role: auth.RoleEmployee}
}

func Token(t *testing.T, p auth.Principal) string {
	t.Helper()
	token, err := auth.GenerateToken(p, JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func SeedCustomerProfile(t *testing.T, db *sql.DB, customerID int64, fullName, accountLast4 string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO customer_profiles (customer_id, full_name, account_last4)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (customer_id) DO NOTHING`,
		customerID, fullName, accountLast4,
	)
	if err != nil {
		t.Fatalf("seed customer profile: %v", err)
	}
}

func CountAuditEvents(t *testing.T, db *sql.DB, paymentID int64, eventType domain.AuditEventType) int {
	t.Helper()
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM audit_logs WHERE entity_id = $1 AND event_type = $2`,
		paymentID, eventType,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count audit events: %v", err)
	}
	return count
}

// Profiles is an in-memory customer profile source.
type Profiles map[int64]domain.CustomerProfile

func (p Profiles) GetProfile(_ context.Context, customerID int64) (*domain.CustomerProfile, error) {
	c, ok := p[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}
