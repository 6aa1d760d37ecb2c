package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandwormmr-eng/spun/internal/models"
	"github.com/sandwormmr-eng/spun/internal/store"

	"go.uber.org/zap"
)

func (s *Service) GetReferral(ctx context.Context, code string) (*models.Referral, error) {
	var referral models.Referral
	err := s.db.QueryRowContext(ctx, queryGetReferral, code).Scan(
		&referral.Code, &referral.Name, &referral.ContactHandle,
		&referral.Clicks, &referral.Conversions, &referral.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		zap.L().Error("Failed to query referral",
			zap.String("code", code),
			zap.Error(err))
		return nil, fmt.Errorf("unable to query referral: %w", err)
	}

	return &referral, nil
}

func (s *Service) PutReferral(ctx context.Context, referral *models.Referral) error {
	_, err := s.db.ExecContext(ctx, queryUpsertReferral,
		referral.Code, referral.Name, referral.ContactHandle,
		referral.Clicks, referral.Conversions, referral.CreatedAt)
	if err != nil {
		zap.L().Error("Failed to store referral",
			zap.String("code", referral.Code),
			zap.Error(err))
		return fmt.Errorf("unable to store referral: %w", err)
	}

	zap.L().Info("Referral stored", zap.String("code", referral.Code))
	return nil
}

func (s *Service) IncrementClicks(ctx context.Context, code string) error {
	return s.incrementCounter(ctx, queryIncrementClicks, code)
}

func (s *Service) IncrementConversions(ctx context.Context, code string) error {
	return s.incrementCounter(ctx, queryIncrementConversions, code)
}

// incrementCounter bumps a referral counter in a single UPDATE so that
// concurrent increments for the same code never lose an update.
func (s *Service) incrementCounter(ctx context.Context, query, code string) error {
	result, err := s.db.ExecContext(ctx, query, code)
	if err != nil {
		zap.L().Error("Failed to increment referral counter",
			zap.String("code", code),
			zap.Error(err))
		return fmt.Errorf("unable to increment referral counter: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to read affected rows: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}
