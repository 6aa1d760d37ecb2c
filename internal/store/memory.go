package store

import (
	"context"
	"sync"

	"github.com/sandwormmr-eng/spun/internal/models"
)

// Compile-time check: *MemoryStore must satisfy Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps all records in process memory behind a single mutex.
// It backs tests and is not meant for deployments that need durability.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]models.Session
	referrals map[string]models.Referral
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]models.Session),
		referrals: make(map[string]models.Referral),
	}
}

func (m *MemoryStore) GetSession(ctx context.Context, sessionId string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionId]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (m *MemoryStore) PutSession(ctx context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.Id] = *session
	return nil
}

func (m *MemoryStore) ConfirmSession(ctx context.Context, sessionId string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionId]
	if !ok {
		return false, ErrNotFound
	}
	if session.Status != models.SessionPending {
		return false, nil
	}

	session.Status = models.SessionConfirmed
	m.sessions[sessionId] = session
	return true, nil
}

func (m *MemoryStore) GetReferral(ctx context.Context, code string) (*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	referral, ok := m.referrals[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &referral, nil
}

func (m *MemoryStore) PutReferral(ctx context.Context, referral *models.Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.referrals[referral.Code] = *referral
	return nil
}

func (m *MemoryStore) IncrementClicks(ctx context.Context, code string) error {
	return m.increment(code, func(r *models.Referral) {
		r.Clicks++
	})
}

func (m *MemoryStore) IncrementConversions(ctx context.Context, code string) error {
	return m.increment(code, func(r *models.Referral) {
		r.Conversions++
	})
}

func (m *MemoryStore) increment(code string, bump func(*models.Referral)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	referral, ok := m.referrals[code]
	if !ok {
		return ErrNotFound
	}
	bump(&referral)
	m.referrals[code] = referral
	return nil
}

func (m *MemoryStore) Degraded() bool {
	return false
}

func (m *MemoryStore) Close() {}
