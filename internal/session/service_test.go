package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sandwormmr-eng/spun/internal/models"
	"github.com/sandwormmr-eng/spun/internal/oracle"
	"github.com/sandwormmr-eng/spun/internal/store"

	"github.com/shopspring/decimal"
)

type fakeRates struct {
	rate decimal.Decimal
	err  error
}

func (f *fakeRates) GetRate(ctx context.Context) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.rate, nil
}

// fakeChain returns its responses in order, repeating the last one once the
// script runs out.
type fakeChain struct {
	mu        sync.Mutex
	responses []bool
	err       error
	calls     int
}

func (f *fakeChain) FindTransactionByMarker(ctx context.Context, marker string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if len(f.responses) == 0 {
		return false, nil
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func (f *fakeChain) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const testRecipient = "FN74faeP6NUnUqtFwohKKQzbWLbbWjJf3Dw5LGPe1gDt"

func newTestService(st store.Store, rate string, chain *fakeChain) *Service {
	return NewService(st, &fakeRates{rate: decimal.RequireFromString(rate)}, chain, 125, testRecipient)
}

func TestCreateSession_LocksPriceAtCurrentRate(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st, "250", &fakeChain{})

	resp, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// 125 / 250 = 0.5
	if !resp.TokenAmount.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("Expected token amount 0.5, got %s", resp.TokenAmount.String())
	}
	if resp.RecipientAddress != testRecipient {
		t.Errorf("Expected recipient %s, got %s", testRecipient, resp.RecipientAddress)
	}

	// The persisted record carries the locked amount.
	stored, err := st.GetSession(context.Background(), resp.SessionId)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !stored.TokenAmount.Equal(resp.TokenAmount) {
		t.Errorf("Stored amount %s differs from returned %s", stored.TokenAmount, resp.TokenAmount)
	}
	if stored.Status != models.SessionPending {
		t.Errorf("Expected pending status, got %s", stored.Status)
	}
}

func TestCreateSession_RoundsToFourPlaces(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(), "30", &fakeChain{})

	resp, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// 125 / 30 = 4.16666... -> 4.1667
	if !resp.TokenAmount.Equal(decimal.RequireFromString("4.1667")) {
		t.Errorf("Expected token amount 4.1667, got %s", resp.TokenAmount.String())
	}
}

func TestCreateSession_IdentifiersAreIndependent(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(), "100", &fakeChain{})

	first, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	second, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if len(first.ReferenceKey) != 64 {
		t.Errorf("Expected 64 hex chars of reference key, got %d", len(first.ReferenceKey))
	}
	if first.ReferenceKey == second.ReferenceKey {
		t.Error("Reference keys collided across sessions")
	}
	if first.SessionId == second.SessionId {
		t.Error("Session ids collided across sessions")
	}
	if first.SessionId == first.ReferenceKey {
		t.Error("Reference key must not be derivable from session id")
	}
}

func TestCreateSession_PricingUnavailable(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewService(st, &fakeRates{err: oracle.ErrUnavailable}, &fakeChain{}, 125, testRecipient)

	_, err := svc.CreateSession(context.Background(), "")
	if !errors.Is(err, oracle.ErrUnavailable) {
		t.Fatalf("Expected pricing unavailable error, got %v", err)
	}
}

func TestCreateSession_StoreDownStillReturnsSession(t *testing.T) {
	svc := NewService(store.NewUnavailableStore(), &fakeRates{rate: decimal.NewFromInt(100)}, &fakeChain{}, 125, testRecipient)

	resp, err := svc.CreateSession(context.Background(), "AFF1")
	if err != nil {
		t.Fatalf("Expected best-effort session despite store being down, got %v", err)
	}
	if resp.SessionId == "" || resp.ReferenceKey == "" {
		t.Error("Expected session identifiers even without persistence")
	}

	// Confirmation is then impossible, surfaced as a store failure.
	_, err = svc.CheckConfirmation(context.Background(), resp.SessionId)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable on confirmation check, got %v", err)
	}
}

func TestCheckConfirmation_UnknownSession(t *testing.T) {
	svc := newTestService(store.NewMemoryStore(), "100", &fakeChain{})

	_, err := svc.CheckConfirmation(context.Background(), "does-not-exist")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestCheckConfirmation_PendingThenConfirmedCreditsReferral(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	chain := &fakeChain{responses: []bool{false, true}}
	svc := newTestService(st, "100", chain)

	if err := st.PutReferral(ctx, &models.Referral{Code: "AFF1"}); err != nil {
		t.Fatalf("PutReferral failed: %v", err)
	}

	resp, err := svc.CreateSession(ctx, "AFF1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	confirmed, err := svc.CheckConfirmation(ctx, resp.SessionId)
	if err != nil {
		t.Fatalf("First check failed: %v", err)
	}
	if confirmed {
		t.Fatal("Expected first check to report unconfirmed")
	}

	confirmed, err = svc.CheckConfirmation(ctx, resp.SessionId)
	if err != nil {
		t.Fatalf("Second check failed: %v", err)
	}
	if !confirmed {
		t.Fatal("Expected second check to report confirmed")
	}

	stored, err := st.GetSession(ctx, resp.SessionId)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stored.Status != models.SessionConfirmed {
		t.Errorf("Expected confirmed status, got %s", stored.Status)
	}

	referral, err := st.GetReferral(ctx, "AFF1")
	if err != nil {
		t.Fatalf("GetReferral failed: %v", err)
	}
	if referral.Conversions != 1 {
		t.Errorf("Expected 1 conversion, got %d", referral.Conversions)
	}
}

func TestCheckConfirmation_IdempotentAfterConfirm(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	chain := &fakeChain{responses: []bool{true}}
	svc := newTestService(st, "100", chain)

	_ = st.PutReferral(ctx, &models.Referral{Code: "AFF1"})
	resp, err := svc.CreateSession(ctx, "AFF1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		confirmed, err := svc.CheckConfirmation(ctx, resp.SessionId)
		if err != nil {
			t.Fatalf("Check %d failed: %v", i+1, err)
		}
		if !confirmed {
			t.Fatalf("Check %d expected confirmed", i+1)
		}
	}

	// The second check takes the fast path: no new chain query.
	if got := chain.callCount(); got != 1 {
		t.Errorf("Expected 1 chain query, got %d", got)
	}

	referral, _ := st.GetReferral(ctx, "AFF1")
	if referral.Conversions != 1 {
		t.Errorf("Expected exactly 1 conversion, got %d", referral.Conversions)
	}
}

func TestCheckConfirmation_ConcurrentChecksCreditOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	chain := &fakeChain{responses: []bool{true}}
	svc := newTestService(st, "100", chain)

	_ = st.PutReferral(ctx, &models.Referral{Code: "AFF1"})
	resp, err := svc.CreateSession(ctx, "AFF1")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Hit the unexported path directly so the store-level guard is
	// exercised even when requests land on different processes and
	// the in-process singleflight cannot collapse them.
	const n = 8
	var wg sync.WaitGroup
	results := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			confirmed, err := svc.checkConfirmation(ctx, resp.SessionId)
			if err != nil {
				t.Errorf("Concurrent check failed: %v", err)
				return
			}
			results[i] = confirmed
		}(i)
	}
	wg.Wait()

	for i, confirmed := range results {
		if !confirmed {
			t.Errorf("Check %d expected confirmed", i)
		}
	}

	stored, _ := st.GetSession(ctx, resp.SessionId)
	if stored.Status != models.SessionConfirmed {
		t.Errorf("Expected confirmed status, got %s", stored.Status)
	}

	referral, _ := st.GetReferral(ctx, "AFF1")
	if referral.Conversions != 1 {
		t.Errorf("Expected exactly 1 conversion after %d concurrent checks, got %d", n, referral.Conversions)
	}
}

func TestCheckConfirmation_MissingReferralSkippedSilently(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := newTestService(st, "100", &fakeChain{responses: []bool{true}})

	resp, err := svc.CreateSession(ctx, "ghost-code")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	confirmed, err := svc.CheckConfirmation(ctx, resp.SessionId)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !confirmed {
		t.Fatal("Expected confirmed despite missing referral record")
	}
}

func TestCheckConfirmation_ChainUnavailable(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	chainErr := errors.New("rpc down")
	svc := newTestService(st, "100", &fakeChain{err: chainErr})

	resp, err := svc.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	_, err = svc.CheckConfirmation(ctx, resp.SessionId)
	if !errors.Is(err, chainErr) {
		t.Fatalf("Expected chain error to propagate, got %v", err)
	}

	// The session stays pending and a later check can still succeed.
	stored, _ := st.GetSession(ctx, resp.SessionId)
	if stored.Status != models.SessionPending {
		t.Errorf("Expected pending status after failed check, got %s", stored.Status)
	}
}
