package referral

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/sandwormmr-eng/spun/internal/models"
	"github.com/sandwormmr-eng/spun/internal/store"

	"go.uber.org/zap"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)

// Service manages affiliate referral codes: admin-gated creation and stats,
// public click tracking. Conversion crediting is driven by the session
// lifecycle, not by this service.
type Service struct {
	store           store.Store
	adminSecret     string
	earningsPerSale int64
}

func NewService(st store.Store, adminSecret string, earningsPerSale int64) *Service {
	return &Service{
		store:           st,
		adminSecret:     adminSecret,
		earningsPerSale: earningsPerSale,
	}
}

// authorize compares the caller's credential against the configured admin
// secret in constant time. An unconfigured secret rejects everything.
func (s *Service) authorize(secret string) error {
	if s.adminSecret == "" || secret == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.adminSecret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Create registers a referral code. It overwrites any existing record with
// the same code, resetting its counters; callers who want to preserve
// counters must fetch and merge first.
func (s *Service) Create(ctx context.Context, secret, code, name, contactHandle string) (*models.Referral, error) {
	if err := s.authorize(secret); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, ErrInvalidInput
	}

	referral := &models.Referral{
		Code:          code,
		Name:          name,
		ContactHandle: contactHandle,
		Clicks:        0,
		Conversions:   0,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.store.PutReferral(ctx, referral); err != nil {
		return nil, err
	}

	zap.L().Info("Referral created", zap.String("code", code))
	return referral, nil
}

// RecordClick bumps the click counter for a code. Unknown codes and a
// down store are swallowed: a tracking pixel must never error out the
// visiting page.
func (s *Service) RecordClick(ctx context.Context, code string) error {
	if code == "" {
		return ErrInvalidInput
	}

	err := s.store.IncrementClicks(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		zap.L().Debug("Click on unknown referral code", zap.String("code", code))
		return nil
	}
	if errors.Is(err, store.ErrUnavailable) {
		zap.L().Warn("Click not recorded, store unavailable", zap.String("code", code))
		return nil
	}
	return err
}

// Stats returns a referral record with its derived earnings estimate. The
// estimate uses a flat per-conversion rate, not the actual sale amounts.
func (s *Service) Stats(ctx context.Context, secret, code string) (*models.ReferralStatsResponse, error) {
	if err := s.authorize(secret); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, ErrInvalidInput
	}

	referral, err := s.store.GetReferral(ctx, code)
	if err != nil {
		return nil, err
	}

	return &models.ReferralStatsResponse{
		Referral:          *referral,
		EstimatedEarnings: referral.Conversions * s.earningsPerSale,
	}, nil
}
