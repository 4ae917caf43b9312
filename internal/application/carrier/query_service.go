package carrier

import (
	"context"

	"github.com/erp/carrier-sync/internal/domain/carrier"
	"go.uber.org/zap"
)

// CountryCache caches the active carriers of each country under a generation.
// Invalidate moves to a new generation, so entries written under an older one
// are never read again.
type CountryCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64, country string) ([]carrier.Summary, bool, error)
	Set(ctx context.Context, gen int64, country string, carriers []carrier.Summary) error
	Invalidate(ctx context.Context) error
}

// QueryService answers read-only catalog queries.
type QueryService struct {
	repo   carrier.Repository
	cache  CountryCache
	logger *zap.Logger
}

// NewQueryService creates a QueryService. cache may be nil.
func NewQueryService(repo carrier.Repository, cache CountryCache, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// AllIDs returns every stored carrier ID, deleted ones included.
func (s *QueryService) AllIDs(ctx context.Context) ([]int64, error) {
	return s.repo.AllIDs(ctx)
}

// ActiveByCountry returns the non-deleted carriers of a country ordered by ID.
// Cache errors are logged and the store is used instead.
func (s *QueryService) ActiveByCountry(ctx context.Context, country string) ([]carrier.Summary, error) {
	country = carrier.NormalizeCountry(country)

	// The generation is read before the store so that a fill racing a sync
	// is written under the generation the sync retires.
	useCache := s.cache != nil
	var gen int64
	if useCache {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.logger.Warn("Country cache unavailable", zap.Error(err))
			useCache = false
		}
	}

	if useCache {
		cached, ok, err := s.cache.Get(ctx, gen, country)
		if err != nil {
			s.logger.Warn("Country cache read failed", zap.String("country", country), zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	carriers, err := s.repo.ActiveByCountry(ctx, country)
	if err != nil {
		return nil, err
	}

	if useCache {
		if err := s.cache.Set(ctx, gen, country, carriers); err != nil {
			s.logger.Warn("Country cache write failed", zap.String("country", country), zap.Error(err))
		}
	}
	return carriers, nil
}

// GetByID returns a carrier by ID, including soft-deleted ones.
func (s *QueryService) GetByID(ctx context.Context, id int64) (*carrier.Carrier, error) {
	return s.repo.FindByID(ctx, id)
}

// InvalidateCache drops every cached country.
func (s *QueryService) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Country cache invalidation failed", zap.Error(err))
		return err
	}
	return nil
}

// OnSyncCompleted is a Synchronizer hook that invalidates the cache.
func (s *QueryService) OnSyncCompleted(ctx context.Context, result *SyncResult) {
	if err := s.InvalidateCache(ctx); err == nil {
		s.logger.Debug("Country cache invalidated", zap.String("run_id", result.RunID.String()))
	}
}
