package analytics

import (
	"context"

	"go.uber.org/zap"

	"github.com/mockprep/backend/internal/storage/models"
	"github.com/mockprep/backend/pkg/logger"
)

type Store interface {
	GetUserAnalytics(ctx context.Context, userID string) (*models.UserAnalytics, error)
}

type Cache interface {
	GetAnalytics(ctx context.Context, userID string) (*models.UserAnalytics, bool, error)
	SetAnalytics(ctx context.Context, userID string, analytics *models.UserAnalytics) error
}

type Service struct {
	store Store
	cache Cache
}

type Option func(*Service)

func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the user's analytics, serving from cache when possible. Cache
// failures fall through to the store.
func (s *Service) Get(ctx context.Context, userID string) (*models.UserAnalytics, error) {
	if s.cache != nil {
		cached, found, err := s.cache.GetAnalytics(ctx, userID)
		if err != nil {
			logger.Warn("Analytics cache read failed", zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	result, err := s.store.GetUserAnalytics(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetAnalytics(ctx, userID, result); err != nil {
			logger.Warn("Analytics cache write failed", zap.Error(err))
		}
	}
	return result, nil
}
