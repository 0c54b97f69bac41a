package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	apperrors "github.com/kennytong915/Japan-Ramen-Database/pkg/errors"
)

// ─── Restaurant column definitions ──────────────────────────────────────────

var restaurantCols = []string{"id", "name", "area", "score", "seats", "created_at"}

var rankingCols = []string{"id", "name", "average_score", "comment_count"}

func sampleRestaurant() domain.Restaurant {
	return domain.Restaurant{
		ID:        "rest-1",
		Name:      "Ichiran Shibuya",
		Area:      "Shibuya",
		Score:     4.5,
		Seats:     20,
		CreatedAt: now,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// RestaurantRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestRestaurantRepository_GetByID_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewRestaurantRepository(mock)

	rest := sampleRestaurant()
	mock.ExpectQuery("SELECT .+ FROM restaurants").
		WithArgs(rest.ID).
		WillReturnRows(
			pgxmock.NewRows(restaurantCols).
				AddRow(rest.ID, rest.Name, rest.Area, rest.Score, rest.Seats, rest.CreatedAt),
		)

	result, err := repo.GetByID(context.Background(), rest.ID)
	require.NoError(t, err)
	assert.Equal(t, rest.Name, result.Name)
	assert.Equal(t, rest.Area, result.Area)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestaurantRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewRestaurantRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM restaurants").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByID(context.Background(), "missing-id")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestaurantRepository_Ranking_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewRestaurantRepository(mock)

	mock.ExpectQuery("SELECT rest.id, rest.name").
		WithArgs(10).
		WillReturnRows(
			pgxmock.NewRows(rankingCols).
				AddRow("rest-1", "Ichiran Shibuya", 4.67, 12).
				AddRow("rest-2", "Afuri Ebisu", 4.33, 8),
		)

	rankings, err := repo.Ranking(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rankings, 2)
	assert.Equal(t, "rest-1", rankings[0].RestaurantID)
	assert.InDelta(t, 4.67, rankings[0].AverageScore, 0.001)
	assert.Equal(t, 8, rankings[1].CommentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestaurantRepository_Ranking_DefaultLimit(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewRestaurantRepository(mock)

	mock.ExpectQuery("SELECT rest.id, rest.name").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(rankingCols))

	rankings, err := repo.Ranking(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.RestaurantRanking{}, rankings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
