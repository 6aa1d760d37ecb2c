package store

import (
	"context"

	"github.com/sandwormmr-eng/spun/internal/models"
)

// Compile-time check: *UnavailableStore must satisfy Store.
var _ Store = (*UnavailableStore)(nil)

// UnavailableStore is the degraded-mode backend used when no persistence is
// configured. Session creation still succeeds for the caller (best-effort, the
// payer can complete the transfer), but every read or write against the store
// reports ErrUnavailable so confirmation checks surface the degradation
// instead of silently losing data.
type UnavailableStore struct{}

func NewUnavailableStore() *UnavailableStore {
	return &UnavailableStore{}
}

func (u *UnavailableStore) GetSession(ctx context.Context, sessionId string) (*models.Session, error) {
	return nil, ErrUnavailable
}

func (u *UnavailableStore) PutSession(ctx context.Context, session *models.Session) error {
	return ErrUnavailable
}

func (u *UnavailableStore) ConfirmSession(ctx context.Context, sessionId string) (bool, error) {
	return false, ErrUnavailable
}

func (u *UnavailableStore) GetReferral(ctx context.Context, code string) (*models.Referral, error) {
	return nil, ErrUnavailable
}

func (u *UnavailableStore) PutReferral(ctx context.Context, referral *models.Referral) error {
	return ErrUnavailable
}

func (u *UnavailableStore) IncrementClicks(ctx context.Context, code string) error {
	return ErrUnavailable
}

func (u *UnavailableStore) IncrementConversions(ctx context.Context, code string) error {
	return ErrUnavailable
}

func (u *UnavailableStore) Degraded() bool {
	return true
}

func (u *UnavailableStore) Close() {}
