package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandwormmr-eng/spun/internal/models"
	"github.com/sandwormmr-eng/spun/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *Service) GetSession(ctx context.Context, sessionId string) (*models.Session, error) {
	var (
		session models.Session
		amount  string
	)
	err := s.db.QueryRowContext(ctx, queryGetSession, sessionId).Scan(
		&session.Id, &session.ReferenceKey, &amount, &session.ReferralCode, &session.Status, &session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		zap.L().Error("Failed to query session",
			zap.String("session_id", sessionId),
			zap.Error(err))
		return nil, fmt.Errorf("unable to query session: %w", err)
	}

	session.TokenAmount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt token amount for session %s: %w", sessionId, err)
	}

	return &session, nil
}

func (s *Service) PutSession(ctx context.Context, session *models.Session) error {
	_, err := s.db.ExecContext(ctx, queryUpsertSession,
		session.Id, session.ReferenceKey, session.TokenAmount.String(),
		session.ReferralCode, session.Status, session.CreatedAt)
	if err != nil {
		zap.L().Error("Failed to store session",
			zap.String("session_id", session.Id),
			zap.Error(err))
		return fmt.Errorf("unable to store session: %w", err)
	}

	zap.L().Debug("Session stored", zap.String("session_id", session.Id))
	return nil
}

// ConfirmSession performs the pending -> confirmed transition with a
// conditional update. The status guard in the WHERE clause makes the
// transition first-writer-wins: exactly one caller observes true.
func (s *Service) ConfirmSession(ctx context.Context, sessionId string) (bool, error) {
	result, err := s.db.ExecContext(ctx, queryConfirmSession,
		models.SessionConfirmed, sessionId, models.SessionPending)
	if err != nil {
		zap.L().Error("Failed to confirm session",
			zap.String("session_id", sessionId),
			zap.Error(err))
		return false, fmt.Errorf("unable to confirm session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to read affected rows: %w", err)
	}
	if affected > 0 {
		zap.L().Info("Session confirmed", zap.String("session_id", sessionId))
		return true, nil
	}

	// No row transitioned: either the session does not exist or another
	// caller already confirmed it.
	var status string
	err = s.db.QueryRowContext(ctx, queryGetSessionStatus, sessionId).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, store.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("unable to query session status: %w", err)
	}

	return false, nil
}
