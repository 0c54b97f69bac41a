package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	"github.com/kennytong915/Japan-Ramen-Database/internal/repository"
)

const (
	rankingKeyPrefix = "ranking:top:"
	rankingCacheTTL  = 5 * time.Minute
)

// RestaurantService implements restaurant lookups and the ranking list. The
// ranking aggregates approved comment scores and is cached briefly in Redis
// since it is expensive to compute and tolerates slight staleness.
type RestaurantService struct {
	restaurants repository.RestaurantRepository
	cache       *redis.Client
	logger      *slog.Logger
}

// NewRestaurantService creates a new restaurant service. The cache client may
// be nil, in which case every ranking call hits the database.
func NewRestaurantService(
	restaurants repository.RestaurantRepository,
	cache *redis.Client,
	logger *slog.Logger,
) *RestaurantService {
	return &RestaurantService{
		restaurants: restaurants,
		cache:       cache,
		logger:      logger,
	}
}

// GetRestaurant retrieves a restaurant by its ID.
func (s *RestaurantService) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	restaurant, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return restaurant, nil
}

// Ranking returns the top restaurants by average approved-comment score.
func (s *RestaurantService) Ranking(ctx context.Context, limit int) ([]domain.RestaurantRanking, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	key := fmt.Sprintf("%s%d", rankingKeyPrefix, limit)

	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	rankings, err := s.restaurants.Ranking(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("restaurant ranking: %w", err)
	}

	s.toCache(ctx, key, rankings)

	return rankings, nil
}

// fromCache returns the cached ranking or nil. Cache failures are logged and
// treated as misses.
func (s *RestaurantService) fromCache(ctx context.Context, key string) []domain.RestaurantRanking {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.WarnContext(ctx, "ranking cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	var rankings []domain.RestaurantRanking
	if err := json.Unmarshal(data, &rankings); err != nil {
		s.logger.WarnContext(ctx, "ranking cache entry corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil
	}

	return rankings
}

func (s *RestaurantService) toCache(ctx context.Context, key string, rankings []domain.RestaurantRanking) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(rankings)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, data, rankingCacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "ranking cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
