package store_test

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/store"
	"github.com/josh-kwaku/swift-payment-portal/internal/testutil"
)

func TestPostgresStore_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewPostgres(db, testutil.NewCipher(t))
	ctx := context.Background()

	id, err := s.Create(ctx, validParams(11))
	require.NoError(t, err)
	assert.Positive(t, id)

	ok, err := s.Verify(ctx, id, 900)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(ctx, id, 901)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Submit(ctx, id, 902, "MT103-REF")
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSubmitted, p.Status)
	assert.Equal(t, "DE89370400440532013000", p.DestinationAccount)
	require.NotNil(t, p.SwiftReference)
	assert.Equal(t, "MT103-REF", *p.SwiftReference)

	events, err := s.ListEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.AuditEventPaymentCreate, events[0].EventType)
	assert.Equal(t, domain.AuditEventPaymentVerify, events[1].EventType)
	assert.Equal(t, int64(900), events[1].ActorID)
	assert.Equal(t, domain.AuditEventPaymentSubmit, events[2].EventType)
	assert.Equal(t, "MT103-REF", events[2].Metadata["swift_reference"])
}

func TestPostgresStore_SensitiveColumnsAreSealed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewPostgres(db, testutil.NewCipher(t))
	ctx := context.Background()

	id, err := s.Create(ctx, validParams(3))
	require.NoError(t, err)

	var account, swift []byte
	err = db.QueryRow(
		`SELECT destination_account_enc, swift_code_enc FROM payments WHERE payment_id = $1`, id,
	).Scan(&account, &swift)
	require.NoError(t, err)

	assert.False(t, bytes.Contains(account, []byte("DE89370400440532013000")))
	assert.False(t, bytes.Contains(swift, []byte("DEUTDEFF")))
}

func TestPostgresStore_AuditLogIsAppendOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewPostgres(db, testutil.NewCipher(t))

	id, err := s.Create(context.Background(), validParams(3))
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE audit_logs SET actor_id = 0 WHERE entity_id = $1`, id)
	assert.Error(t, err)

	_, err = db.Exec(`DELETE FROM audit_logs WHERE entity_id = $1`, id)
	assert.Error(t, err)
}

func TestPostgresStore_ConcurrentVerify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewPostgres(db, testutil.NewCipher(t))
	ctx := context.Background()

	id, err := s.Create(ctx, validParams(5))
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := range workers {
		wg.Add(1)
		go func(employee int64) {
			defer wg.Done()
			ok, err := s.Verify(ctx, id, employee)
			assert.NoError(t, err)
			results <- ok
		}(int64(200 + i))
	}
	wg.Wait()
	close(results)

	var wins int
	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one verify should apply")

	var verifies int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM audit_logs WHERE entity_id = $1 AND event_type = 'PAY_VERIFY'`, id,
	).Scan(&verifies)
	require.NoError(t, err)
	assert.Equal(t, 1, verifies)
}

func TestPostgresStore_ListByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewPostgres(db, testutil.NewCipher(t))
	ctx := context.Background()

	var ids []int64
	for i := range 3 {
		id, err := s.Create(ctx, validParams(int64(i+1)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := s.Verify(ctx, ids[0], 1)
	require.NoError(t, err)

	pending, err := s.ListByStatus(ctx, domain.PaymentStatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[1], pending[0].ID)
	assert.Equal(t, "DEUTDEFF", pending[0].SwiftCode)

	verified, err := s.ListByStatus(ctx, domain.PaymentStatusVerified, 10, 0)
	require.NoError(t, err)
	require.Len(t, verified, 1)
	assert.Equal(t, ids[0], verified[0].ID)
}

func TestPostgresStore_GetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewPostgres(db, testutil.NewCipher(t))

	_, err := s.GetByID(context.Background(), 424242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
