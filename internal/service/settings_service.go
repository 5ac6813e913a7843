package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"investment-ledger/internal/domain"
	"investment-ledger/internal/errors"
)

const settingsCacheKey = "settings:global"

// SettingsService serves the global settings merged over the defaults. When
// a Redis client is given, reads are cached until the TTL expires or the
// settings are updated.
type SettingsService struct {
	store  domain.Store
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewSettingsService(store domain.Store, rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		store:  store,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	settings := domain.DefaultSettings()
	stored, err := s.store.Settings().GetSettings(ctx)
	switch {
	case err == nil:
		settings = settings.Merge(*stored)
	case errors.IsNotFound(err):
	default:
		return nil, err
	}

	s.toCache(ctx, &settings)
	return &settings, nil
}

// Update overlays the non-empty fields of patch onto the current settings.
func (s *SettingsService) Update(ctx context.Context, actor domain.Actor, patch domain.Settings) (*domain.Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	patch.UpdatedAt = time.Time{}
	next := current.Merge(patch)
	if err := s.store.Settings().SaveSettings(ctx, &next); err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if err := s.rdb.Del(ctx, settingsCacheKey).Err(); err != nil {
			s.logger.Warn("Failed to invalidate settings cache", zap.Error(err))
		}
	}

	s.logger.Info("Settings updated", zap.String("actor_id", actor.UserID))
	return &next, nil
}

func (s *SettingsService) fromCache(ctx context.Context) (*domain.Settings, bool) {
	if s.rdb == nil {
		return nil, false
	}

	raw, err := s.rdb.Get(ctx, settingsCacheKey).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			s.logger.Warn("Settings cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var settings domain.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		s.logger.Warn("Discarding malformed cached settings", zap.Error(err))
		return nil, false
	}
	return &settings, true
}

func (s *SettingsService) toCache(ctx context.Context, settings *domain.Settings) {
	if s.rdb == nil {
		return
	}

	payload, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, settingsCacheKey, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("Settings cache write failed", zap.Error(err))
	}
}
