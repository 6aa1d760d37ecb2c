package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandwormmr-eng/spun/internal/models"
	"github.com/sandwormmr-eng/spun/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes match the original KV layout so existing records stay readable.
const (
	sessionPrefix  = "session:"
	referralPrefix = "ref:"
)

// casRetries bounds the optimistic WATCH retry loop.
const casRetries = 5

// Compile-time check: *Service must satisfy store.Store.
var _ store.Store = (*Service)(nil)

// Service is the Redis-backed session store. Records are stored as JSON
// blobs; conditional updates run inside WATCH transactions so concurrent
// writers retry instead of overwriting each other.
type Service struct {
	client *redis.Client
}

func NewService(ctx context.Context, cfg models.StoreConfig) (*Service, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	zap.L().Info("Redis store initialized", zap.String("addr", cfg.RedisAddr))
	return &Service{client: client}, nil
}

func (s *Service) Degraded() bool {
	return false
}

func (s *Service) Close() {
	if err := s.client.Close(); err != nil {
		zap.L().Warn("Failed to close redis client", zap.Error(err))
	}
}

func (s *Service) GetSession(ctx context.Context, sessionId string) (*models.Session, error) {
	var session models.Session
	if err := s.getJSON(ctx, sessionPrefix+sessionId, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Service) PutSession(ctx context.Context, session *models.Session) error {
	return s.putJSON(ctx, sessionPrefix+session.Id, session)
}

// ConfirmSession flips the session to confirmed inside a WATCH transaction.
// If another caller confirms first, the re-read shows the new status and this
// call reports false without re-crediting.
func (s *Service) ConfirmSession(ctx context.Context, sessionId string) (bool, error) {
	key := sessionPrefix + sessionId
	transitioned := false

	for attempt := 0; attempt < casRetries; attempt++ {
		transitioned = false
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				return store.ErrNotFound
			}
			if err != nil {
				return err
			}

			var session models.Session
			if err := json.Unmarshal([]byte(data), &session); err != nil {
				return fmt.Errorf("corrupt session record: %w", err)
			}
			if session.Status != models.SessionPending {
				return nil
			}

			session.Status = models.SessionConfirmed
			updated, err := json.Marshal(&session)
			if err != nil {
				return fmt.Errorf("unable to marshal session: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, 0)
				return nil
			})
			if err == nil {
				transitioned = true
			}
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return false, store.ErrNotFound
		}
		if err != nil {
			zap.L().Error("Failed to confirm session",
				zap.String("session_id", sessionId),
				zap.Error(err))
			return false, fmt.Errorf("unable to confirm session: %w", err)
		}
		if transitioned {
			zap.L().Info("Session confirmed", zap.String("session_id", sessionId))
		}
		return transitioned, nil
	}

	return false, store.ErrConflict
}

func (s *Service) GetReferral(ctx context.Context, code string) (*models.Referral, error) {
	var referral models.Referral
	if err := s.getJSON(ctx, referralPrefix+code, &referral); err != nil {
		return nil, err
	}
	return &referral, nil
}

func (s *Service) PutReferral(ctx context.Context, referral *models.Referral) error {
	return s.putJSON(ctx, referralPrefix+referral.Code, referral)
}

func (s *Service) IncrementClicks(ctx context.Context, code string) error {
	return s.incrementCounter(ctx, code, func(r *models.Referral) {
		r.Clicks++
	})
}

func (s *Service) IncrementConversions(ctx context.Context, code string) error {
	return s.incrementCounter(ctx, code, func(r *models.Referral) {
		r.Conversions++
	})
}

// incrementCounter applies a read-modify-write bump under WATCH so two
// sessions crediting the same code concurrently never lose an update.
func (s *Service) incrementCounter(ctx context.Context, code string, bump func(*models.Referral)) error {
	key := referralPrefix + code

	for attempt := 0; attempt < casRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				return store.ErrNotFound
			}
			if err != nil {
				return err
			}

			var referral models.Referral
			if err := json.Unmarshal([]byte(data), &referral); err != nil {
				return fmt.Errorf("corrupt referral record: %w", err)
			}
			bump(&referral)

			updated, err := json.Marshal(&referral)
			if err != nil {
				return fmt.Errorf("unable to marshal referral: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			zap.L().Error("Failed to increment referral counter",
				zap.String("code", code),
				zap.Error(err))
			return fmt.Errorf("unable to increment referral counter: %w", err)
		}
		return nil
	}

	return store.ErrConflict
}

func (s *Service) getJSON(ctx context.Context, key string, out any) error {
	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("unable to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("corrupt record at %s: %w", key, err)
	}
	return nil
}

func (s *Service) putJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("unable to marshal record: %w", err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("unable to write %s: %w", key, err)
	}
	return nil
}
