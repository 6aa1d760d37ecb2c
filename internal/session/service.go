package session

import (
	"context"
	"errors"
	"time"

	"github.com/sandwormmr-eng/spun/internal/models"
	"github.com/sandwormmr-eng/spun/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// tokenAmountPlaces is the precision the token amount is rounded to when
// the price is locked at session creation.
const tokenAmountPlaces = 4

// RateSource answers how much fiat one token unit is currently worth.
type RateSource interface {
	GetRate(ctx context.Context) (decimal.Decimal, error)
}

// ChainObserver answers whether a transaction referencing a marker has
// reached the chain.
type ChainObserver interface {
	FindTransactionByMarker(ctx context.Context, marker string) (bool, error)
}

// Service drives the payment session lifecycle: it creates sessions with a
// locked price and a fresh reference marker, and it confirms them against
// on-chain evidence, crediting the referral conversion exactly once.
type Service struct {
	store     store.Store
	rates     RateSource
	chain     ChainObserver
	priceUSD  decimal.Decimal
	recipient string

	// checks collapses concurrent confirmation polls for the same session
	// into one chain query and one transition attempt.
	checks singleflight.Group
}

func NewService(st store.Store, rates RateSource, chain ChainObserver, priceUSD int64, recipient string) *Service {
	return &Service{
		store:     st,
		rates:     rates,
		chain:     chain,
		priceUSD:  decimal.NewFromInt(priceUSD),
		recipient: recipient,
	}
}

// CreateSession reserves a reference marker, locks the token price at the
// oracle's current rate and persists a pending session. Persistence is
// best-effort: a session is still handed out when the store is down, it
// just can never be confirmed.
func (s *Service) CreateSession(ctx context.Context, referralCode string) (*models.CreateSessionResponse, error) {
	rate, err := s.rates.GetRate(ctx)
	if err != nil {
		return nil, err
	}

	referenceKey, err := NewReferenceKey()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Id:           NewSessionId(),
		ReferenceKey: referenceKey,
		TokenAmount:  s.priceUSD.DivRound(rate, tokenAmountPlaces),
		ReferralCode: referralCode,
		Status:       models.SessionPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.PutSession(ctx, session); err != nil {
		// Best-effort: the payer can still complete the transfer, but
		// confirmation checks against this session will fail.
		zap.L().Warn("Session not persisted, continuing without persistence",
			zap.String("session_id", session.Id),
			zap.Bool("store_degraded", s.store.Degraded()),
			zap.Error(err))
	} else {
		zap.L().Info("Session created",
			zap.String("session_id", session.Id),
			zap.String("token_amount", session.TokenAmount.String()),
			zap.Bool("has_referral", referralCode != ""))
	}

	return &models.CreateSessionResponse{
		SessionId:        session.Id,
		ReferenceKey:     session.ReferenceKey,
		TokenAmount:      session.TokenAmount,
		RecipientAddress: s.recipient,
	}, nil
}

// CheckConfirmation reports whether the session's payment has landed
// on-chain. The first check that finds evidence flips the session to
// confirmed and credits the referral conversion; repeated and concurrent
// checks are collapsed and can never credit twice.
func (s *Service) CheckConfirmation(ctx context.Context, sessionId string) (bool, error) {
	confirmed, err, _ := s.checks.Do(sessionId, func() (any, error) {
		return s.checkConfirmation(ctx, sessionId)
	})
	if err != nil {
		return false, err
	}
	return confirmed.(bool), nil
}

func (s *Service) checkConfirmation(ctx context.Context, sessionId string) (bool, error) {
	session, err := s.store.GetSession(ctx, sessionId)
	if err != nil {
		return false, err
	}

	// Idempotent fast path: no new chain query, no re-crediting.
	if session.Confirmed() {
		return true, nil
	}

	found, err := s.chain.FindTransactionByMarker(ctx, session.ReferenceKey)
	if err != nil {
		return false, err
	}
	if !found {
		// Expected outcome of early polling, not an error.
		return false, nil
	}

	transitioned, err := s.store.ConfirmSession(ctx, sessionId)
	if err != nil {
		return false, err
	}

	// Only the caller that performed the transition credits the referral,
	// so at most one conversion is counted per session.
	if transitioned && session.ReferralCode != "" {
		s.creditReferral(ctx, sessionId, session.ReferralCode)
	}

	return true, nil
}

// creditReferral bumps the conversion counter for the session's referral
// code. Failures here are bookkeeping problems, never the buyer's: the
// confirmation result does not depend on this succeeding.
func (s *Service) creditReferral(ctx context.Context, sessionId, code string) {
	err := s.store.IncrementConversions(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		zap.L().Debug("Referral code has no record, skipping credit",
			zap.String("session_id", sessionId),
			zap.String("code", code))
		return
	}
	if err != nil {
		zap.L().Warn("Failed to credit referral conversion",
			zap.String("session_id", sessionId),
			zap.String("code", code),
			zap.Error(err))
		return
	}

	zap.L().Info("Referral conversion credited",
		zap.String("session_id", sessionId),
		zap.String("code", code))
}
