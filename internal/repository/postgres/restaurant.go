package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/database"
	apperrors "github.com/kennytong915/Japan-Ramen-Database/pkg/errors"
)

// RestaurantRepository implements repository.RestaurantRepository using PostgreSQL.
type RestaurantRepository struct {
	pool database.DBTX
}

// NewRestaurantRepository creates a new PostgreSQL-backed restaurant repository.
func NewRestaurantRepository(pool database.DBTX) *RestaurantRepository {
	return &RestaurantRepository{pool: pool}
}

// GetByID retrieves a restaurant by its ID.
func (r *RestaurantRepository) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	query := `
		SELECT id, name, area, score, seats, created_at
		FROM restaurants
		WHERE id = $1`

	var rest domain.Restaurant

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rest.ID,
		&rest.Name,
		&rest.Area,
		&rest.Score,
		&rest.Seats,
		&rest.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan restaurant: %w", err)
	}

	return &rest, nil
}

// Ranking returns restaurants ordered by the average of their approved
// comments' overall scores. Restaurants without approved comments are
// excluded; ties break on comment count, then name for a stable order.
func (r *RestaurantRepository) Ranking(ctx context.Context, limit int) ([]domain.RestaurantRanking, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT rest.id, rest.name,
		       ROUND(AVG(c.overall_score)::numeric, 2)::float8 AS average_score,
		       COUNT(c.id) AS comment_count
		FROM restaurants rest
		JOIN comments c ON c.restaurant_id = rest.id AND c.approved = true
		GROUP BY rest.id, rest.name
		ORDER BY average_score DESC, comment_count DESC, rest.name ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list restaurant ranking: %w", err)
	}
	defer rows.Close()

	var rankings []domain.RestaurantRanking

	for rows.Next() {
		var rk domain.RestaurantRanking

		if err := rows.Scan(
			&rk.RestaurantID,
			&rk.Name,
			&rk.AverageScore,
			&rk.CommentCount,
		); err != nil {
			return nil, fmt.Errorf("scan ranking row: %w", err)
		}

		rankings = append(rankings, rk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranking rows: %w", err)
	}

	if rankings == nil {
		rankings = []domain.RestaurantRanking{}
	}

	return rankings, nil
}
