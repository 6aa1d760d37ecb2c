package store

import (
	"context"
	"errors"

	"github.com/sandwormmr-eng/spun/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound    = errors.New("record not found")
	ErrUnavailable = errors.New("store unavailable")
	ErrConflict    = errors.New("concurrent modification detected")
)

// Store defines the contract that every backend (SQLite, Redis, ...) must
// satisfy. It is a plain keyed record store with no cross-record
// transactionality; the conditional and increment operations below exist so
// that callers can run their read-modify-write sequences without lost
// updates.
type Store interface {
	// --- Sessions ---
	GetSession(ctx context.Context, sessionId string) (*models.Session, error)
	PutSession(ctx context.Context, session *models.Session) error

	// ConfirmSession flips the session from pending to confirmed, but only
	// if it is still pending. It returns true when this call performed the
	// transition and false when the session was already confirmed, so that
	// concurrent confirmation checks cannot double-credit a referral.
	ConfirmSession(ctx context.Context, sessionId string) (bool, error)

	// --- Referrals ---
	GetReferral(ctx context.Context, code string) (*models.Referral, error)
	PutReferral(ctx context.Context, referral *models.Referral) error

	// IncrementClicks and IncrementConversions apply an atomic counter
	// bump so that concurrent requests never lose an update. Both return
	// ErrNotFound when no referral exists for the code.
	IncrementClicks(ctx context.Context, code string) error
	IncrementConversions(ctx context.Context, code string) error

	// Degraded reports whether the store is running without persistence.
	// A degraded store hands out sessions that can never be confirmed;
	// callers must be able to tell this apart from normal operation.
	Degraded() bool

	// --- Lifecycle ---
	Close()
}
