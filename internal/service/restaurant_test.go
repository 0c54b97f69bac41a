package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	apperrors "github.com/kennytong915/Japan-Ramen-Database/pkg/errors"
)

func newTestRestaurantService(t *testing.T) (*RestaurantService, *mockRestaurantRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	restaurants := new(mockRestaurantRepository)
	svc := NewRestaurantService(restaurants, client, newTestLogger())
	return svc, restaurants, mr
}

func sampleRankings() []domain.RestaurantRanking {
	return []domain.RestaurantRanking{
		{RestaurantID: "rest-1", Name: "Ichiran Shibuya", AverageScore: 4.67, CommentCount: 12},
		{RestaurantID: "rest-2", Name: "Afuri Ebisu", AverageScore: 4.33, CommentCount: 8},
	}
}

func TestGetRestaurant_Success(t *testing.T) {
	svc, restaurants, _ := newTestRestaurantService(t)
	ctx := context.Background()

	expected := &domain.Restaurant{ID: "rest-1", Name: "Ichiran Shibuya"}
	restaurants.On("GetByID", ctx, "rest-1").Return(expected, nil)

	restaurant, err := svc.GetRestaurant(ctx, "rest-1")

	require.NoError(t, err)
	assert.Equal(t, expected, restaurant)
}

func TestGetRestaurant_NotFound(t *testing.T) {
	svc, restaurants, _ := newTestRestaurantService(t)
	ctx := context.Background()

	restaurants.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	restaurant, err := svc.GetRestaurant(ctx, "missing")

	assert.Nil(t, restaurant)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRanking_CacheMissThenHit(t *testing.T) {
	svc, restaurants, _ := newTestRestaurantService(t)
	ctx := context.Background()

	restaurants.On("Ranking", ctx, 10).Return(sampleRankings(), nil).Once()

	first, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	// Second call is served from the cache; the repository mock only
	// allows one call.
	second, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	restaurants.AssertExpectations(t)
}

func TestRanking_CacheExpiry(t *testing.T) {
	svc, restaurants, mr := newTestRestaurantService(t)
	ctx := context.Background()

	restaurants.On("Ranking", ctx, 10).Return(sampleRankings(), nil).Twice()

	_, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)

	mr.FastForward(rankingCacheTTL + 1)

	_, err = svc.Ranking(ctx, 10)
	require.NoError(t, err)

	restaurants.AssertExpectations(t)
}

func TestRanking_DefaultAndCappedLimit(t *testing.T) {
	svc, restaurants, _ := newTestRestaurantService(t)
	ctx := context.Background()

	restaurants.On("Ranking", ctx, 10).Return(sampleRankings(), nil).Once()
	restaurants.On("Ranking", ctx, 100).Return(sampleRankings(), nil).Once()

	_, err := svc.Ranking(ctx, 0)
	require.NoError(t, err)

	_, err = svc.Ranking(ctx, 1000)
	require.NoError(t, err)

	restaurants.AssertExpectations(t)
}

func TestRanking_NilCacheFallsThrough(t *testing.T) {
	restaurants := new(mockRestaurantRepository)
	svc := NewRestaurantService(restaurants, nil, newTestLogger())
	ctx := context.Background()

	restaurants.On("Ranking", ctx, 10).Return(sampleRankings(), nil).Twice()

	_, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	_, err = svc.Ranking(ctx, 10)
	require.NoError(t, err)

	restaurants.AssertExpectations(t)
}
