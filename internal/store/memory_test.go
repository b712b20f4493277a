package store_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
	"github.com/josh-kwaku/swift-payment-portal/internal/store"
	"github.com/josh-kwaku/swift-payment-portal/internal/testutil"
)

func validParams(customerID int64) store.CreateParams {
	return store.CreateParams{
		CustomerID:         customerID,
		AmountMinorUnits:   10000,
		Currency:           domain.CurrencyUSD,
		DestinationAccount: "DE89370400440532013000",
		SwiftCode:          "DEUTDEFF",
		BeneficiaryName:    "Acme GmbH",
		PurposeText:        "Invoice 2291",
	}
}

func newMemoryStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	return store.NewMemoryStore(testutil.NewCipher(t))
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, validParams(7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	p, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, "DE89370400440532013000", p.DestinationAccount)
	assert.Equal(t, "DEUTDEFF", p.SwiftCode)
	assert.Nil(t, p.VerifiedBy)
	assert.Nil(t, p.SwiftReference)

	events, err := s.ListEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuditEventPaymentCreate, events[0].EventType)
	assert.Equal(t, int64(7), events[0].ActorID)
}

func TestMemoryStore_CreateValidation(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*store.CreateParams)
		wantErr error
	}{
		{"zero amount", func(p *store.CreateParams) { p.AmountMinorUnits = 0 }, domain.ErrInvalidAmount},
		{"negative amount", func(p *store.CreateParams) { p.AmountMinorUnits = -1 }, domain.ErrInvalidAmount},
		{"unknown currency", func(p *store.CreateParams) { p.Currency = "JPY" }, domain.ErrInvalidCurrency},
		{"missing account", func(p *store.CreateParams) { p.DestinationAccount = "" }, domain.ErrMissingField},
		{"missing swift", func(p *store.CreateParams) { p.SwiftCode = "" }, domain.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams(1)
			tt.mutate(&p)
			_, err := s.Create(ctx, p)
			require.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := newMemoryStore(t)
	_, err := s.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_TransitionsAreForwardOnly(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, validParams(1))
	require.NoError(t, err)

	ok, err := s.Submit(ctx, id, 50, "REF")
	require.NoError(t, err)
	assert.False(t, ok, "submit from PENDING must not apply")

	ok, err = s.Verify(ctx, id, 50)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Verify(ctx, id, 51)
	require.NoError(t, err)
	assert.False(t, ok, "second verify must not apply")

	ok, err = s.Submit(ctx, id, 52, "REF")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Submit(ctx, id, 53, "OTHER")
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSubmitted, p.Status)
	require.NotNil(t, p.VerifiedBy)
	assert.Equal(t, int64(50), *p.VerifiedBy)
	require.NotNil(t, p.SubmittedBy)
	assert.Equal(t, int64(52), *p.SubmittedBy)
	require.NotNil(t, p.SwiftReference)
	assert.Equal(t, "REF", *p.SwiftReference)

	events, err := s.ListEvents(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.AuditEventPaymentVerify, events[1].EventType)
	assert.Equal(t, domain.AuditEventPaymentSubmit, events[2].EventType)
	assert.Equal(t, "REF", events[2].Metadata["swift_reference"])
}

func TestMemoryStore_UnknownPaymentTransition(t *testing.T) {
	s := newMemoryStore(t)
	ok, err := s.Verify(context.Background(), 404, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ConcurrentVerify(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, validParams(1))
	require.NoError(t, err)

	const workers = 32
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := range workers {
		wg.Add(1)
		go func(employee int64) {
			defer wg.Done()
			ok, err := s.Verify(ctx, id, employee)
			assert.NoError(t, err)
			results <- ok
		}(int64(100 + i))
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

	events, err := s.ListEvents(ctx, id)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestMemoryStore_RandomInterleavingNeverRegresses(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	ids := make([]int64, 8)
	for i := range ids {
		id, err := s.Create(ctx, validParams(int64(i+1)))
		require.NoError(t, err)
		ids[i] = id
	}

	var wg sync.WaitGroup
	for w := range 16 {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, seed+1))
			for range 200 {
				id := ids[rng.IntN(len(ids))]
				if rng.IntN(2) == 0 {
					_, _ = s.Verify(ctx, id, 1)
				} else {
					_, _ = s.Submit(ctx, id, 2, "REF")
				}
			}
		}(uint64(w))
	}

	// Observed rank per payment must never decrease while writers run.
	last := make(map[int64]int, len(ids))
	for range 500 {
		for _, id := range ids {
			p, err := s.GetByID(ctx, id)
			require.NoError(t, err)
			rank := p.Status.Rank()
			require.GreaterOrEqual(t, rank, last[id])
			last[id] = rank
		}
	}
	wg.Wait()

	for _, id := range ids {
		events, err := s.ListEvents(ctx, id)
		require.NoError(t, err)
		var verifies, submits int
		for _, e := range events {
			switch e.EventType {
			case domain.AuditEventPaymentVerify:
				verifies++
			case domain.AuditEventPaymentSubmit:
				submits++
			}
		}
		assert.LessOrEqual(t, verifies, 1)
		assert.LessOrEqual(t, submits, 1)
		assert.LessOrEqual(t, submits, verifies)
	}
}

func TestMemoryStore_HistoryOrderUnderRacingTransitions(t *testing.T) {
	s := newMemoryStore(t)
	ctx := context.Background()

	const payments = 2000
	for i := range payments {
		id, err := s.Create(ctx, validParams(int64(i+1)))
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Verify(ctx, id, 1)
		}()
		go func() {
			defer wg.Done()
			for {
				p, err := s.GetByID(ctx, id)
				if !assert.NoError(t, err) {
					return
				}
				if p.Status == domain.PaymentStatusVerified {
					events, err := s.ListEvents(ctx, id)
					assert.NoError(t, err)
					assert.Len(t, events, 2, "verified row must already carry its event")
				}
				if ok, _ := s.Submit(ctx, id, 2, "REF"); ok {
					return
				}
			}
		}()
		wg.Wait()

		events, err := s.ListEvents(ctx, id)
		require.NoError(t, err)
		require.Len(t, events, 3)
		require.Equal(t, domain.AuditEventPaymentCreate, events[0].EventType)
		require.Equal(t, domain.AuditEventPaymentVerify, events[1].EventType, "payment %d", id)
		require.Equal(t, domain.AuditEventPaymentSubmit, events[2].EventType, "payment %d", id)
	}
}

func TestMemoryStore_ListByStatus(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tick := 0
	s := store.NewMemoryStore(testutil.NewCipher(t), store.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	ctx := context.Background()

	var ids []int64
	for i := range 5 {
		id, err := s.Create(ctx, validParams(int64(i+1)))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	_, err := s.Verify(ctx, ids[1], 9)
	require.NoError(t, err)

	pending, err := s.ListByStatus(ctx, domain.PaymentStatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 4)
	assert.Equal(t, ids[0], pending[0].ID)
	assert.Equal(t, ids[2], pending[1].ID)

	page, err := s.ListByStatus(ctx, domain.PaymentStatusPending, 2, 3)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[4], page[0].ID)

	empty, err := s.ListByStatus(ctx, domain.PaymentStatusPending, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.ListByStatus(ctx, "BOGUS", 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := newMemoryStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, validParams(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{"defaults", 0, 0, store.DefaultListLimit, 0},
		{"negative limit", -5, 0, store.DefaultListLimit, 0},
		{"over max", 1000, 0, store.MaxListLimit, 0},
		{"at max", store.MaxListLimit, 0, store.MaxListLimit, 0},
		{"negative offset", 10, -3, 10, 0},
		{"offset over max", 10, 50_000, 10, store.MaxListOffset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, o := store.NormalizePage(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, l)
			assert.Equal(t, tt.wantOffset, o)
		})
	}
}
