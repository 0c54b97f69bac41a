package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/database"
	apperrors "github.com/kennytong915/Japan-Ramen-Database/pkg/errors"
)

// CommentRepository implements repository.CommentRepository using PostgreSQL.
// Photos live in a separate comment_photos table keyed by comment and are
// loaded in a second batched query to avoid row multiplication.
type CommentRepository struct {
	pool database.DBTX
}

// NewCommentRepository creates a new PostgreSQL-backed comment repository.
func NewCommentRepository(pool database.DBTX) *CommentRepository {
	return &CommentRepository{pool: pool}
}

const commentColumns = `c.id, c.user_id, u.username, c.restaurant_id,
	       c.food_comment, c.visiting_comment, c.environment_comment,
	       c.food_score, c.visiting_score, c.environment_score, c.overall_score,
	       c.reported, c.report_reason, c.reported_at, c.approved,
	       c.created_at, c.updated_at`

// Create inserts a new comment into the database.
func (r *CommentRepository) Create(ctx context.Context, c *domain.Comment) error {
	query := `
		INSERT INTO comments (id, user_id, restaurant_id,
		                      food_comment, visiting_comment, environment_comment,
		                      food_score, visiting_score, environment_score, overall_score,
		                      reported, report_reason, reported_at, approved,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.RestaurantID,
		c.FoodComment,
		c.VisitingComment,
		c.EnvironmentComment,
		c.FoodScore,
		c.VisitingScore,
		c.EnvironmentScore,
		c.OverallScore,
		c.Reported,
		c.ReportReason,
		c.ReportedAt,
		c.Approved,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("comment", "id", c.ID)
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// GetByID retrieves a comment with its photos by its ID.
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1`

	c, err := r.scanComment(ctx, query, id)
	if err != nil {
		return nil, err
	}

	if err := r.loadPhotos(ctx, []*domain.Comment{c}); err != nil {
		return nil, err
	}

	return c, nil
}

// Update persists text, score, and moderation fields of an existing comment.
func (r *CommentRepository) Update(ctx context.Context, c *domain.Comment) error {
	now := time.Now().UTC()
	c.UpdatedAt = &now

	query := `
		UPDATE comments
		SET food_comment = $1, visiting_comment = $2, environment_comment = $3,
		    food_score = $4, visiting_score = $5, environment_score = $6, overall_score = $7,
		    reported = $8, report_reason = $9, reported_at = $10, approved = $11,
		    updated_at = $12
		WHERE id = $13`

	ct, err := r.pool.Exec(ctx, query,
		c.FoodComment,
		c.VisitingComment,
		c.EnvironmentComment,
		c.FoodScore,
		c.VisitingScore,
		c.EnvironmentScore,
		c.OverallScore,
		c.Reported,
		c.ReportReason,
		c.ReportedAt,
		c.Approved,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("comment", c.ID)
	}

	return nil
}

// Delete removes a comment from the database. Photos cascade via the schema.
func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM comments WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("comment", id)
	}

	return nil
}

// ListApprovedByRestaurant returns paginated approved comments for a restaurant,
// newest first, along with the total count.
func (r *CommentRepository) ListApprovedByRestaurant(ctx context.Context, restaurantID string, page, perPage int) ([]domain.Comment, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT ` + commentColumns + `,
		       count(*) OVER() AS total_count
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.restaurant_id = $1 AND c.approved = true
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3`

	return r.listWithCount(ctx, query, restaurantID, limit, offset)
}

// ListByUser returns all comments written by a user, newest first.
func (r *CommentRepository) ListByUser(ctx context.Context, userID string) ([]domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC`

	return r.list(ctx, query, userID)
}

// ListReported returns all comments currently flagged for moderation, oldest
// report first so moderators work the queue in order.
func (r *CommentRepository) ListReported(ctx context.Context) ([]domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.reported = true
		ORDER BY c.reported_at ASC`

	return r.list(ctx, query)
}

// LatestByUserAndRestaurant returns the most recent comment a user wrote for a
// restaurant. Photos are not loaded; callers only need the timestamp.
func (r *CommentRepository) LatestByUserAndRestaurant(ctx context.Context, userID, restaurantID string) (*domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.user_id = $1 AND c.restaurant_id = $2
		ORDER BY c.created_at DESC
		LIMIT 1`

	return r.scanComment(ctx, query, userID, restaurantID)
}

// CountPhotos returns the number of photos attached to a comment.
func (r *CommentRepository) CountPhotos(ctx context.Context, commentID string) (int, error) {
	query := `SELECT COUNT(*) FROM comment_photos WHERE comment_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, commentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count comment photos: %w", err)
	}

	return count, nil
}

// AddPhoto appends a photo URL to a comment at the next position.
func (r *CommentRepository) AddPhoto(ctx context.Context, commentID, photoURL string) error {
	query := `
		INSERT INTO comment_photos (comment_id, photo_url, position)
		SELECT $1, $2, COALESCE(MAX(position) + 1, 0)
		FROM comment_photos
		WHERE comment_id = $1`

	_, err := r.pool.Exec(ctx, query, commentID, photoURL)
	if err != nil {
		return fmt.Errorf("insert comment photo: %w", err)
	}

	return nil
}

// PhotosByRestaurant returns photo URLs from approved comments of a restaurant,
// newest comment first, each paired with the commenter's username.
func (r *CommentRepository) PhotosByRestaurant(ctx context.Context, restaurantID string) ([]domain.RestaurantPhoto, error) {
	query := `
		SELECT cp.photo_url, u.username
		FROM comment_photos cp
		JOIN comments c ON c.id = cp.comment_id
		JOIN users u ON u.id = c.user_id
		WHERE c.restaurant_id = $1 AND c.approved = true
		ORDER BY c.created_at DESC, cp.position ASC`

	rows, err := r.pool.Query(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list restaurant photos: %w", err)
	}
	defer rows.Close()

	var photos []domain.RestaurantPhoto

	for rows.Next() {
		var p domain.RestaurantPhoto

		if err := rows.Scan(&p.URL, &p.Username); err != nil {
			return nil, fmt.Errorf("scan restaurant photo row: %w", err)
		}

		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurant photo rows: %w", err)
	}

	if photos == nil {
		photos = []domain.RestaurantPhoto{}
	}

	return photos, nil
}

// LatestPhotoURL returns the first photo of the most recent approved comment
// with photos, or ErrNotFound when the restaurant has none.
func (r *CommentRepository) LatestPhotoURL(ctx context.Context, restaurantID string) (string, error) {
	query := `
		SELECT cp.photo_url
		FROM comment_photos cp
		JOIN comments c ON c.id = cp.comment_id
		WHERE c.restaurant_id = $1 AND c.approved = true
		ORDER BY c.created_at DESC, cp.position ASC
		LIMIT 1`

	var url string

	err := r.pool.QueryRow(ctx, query, restaurantID).Scan(&url)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("scan latest photo: %w", err)
	}

	return url, nil
}

// scanComment is a helper that executes a query expected to return a single comment row.
func (r *CommentRepository) scanComment(ctx context.Context, query string, args ...any) (*domain.Comment, error) {
	var c domain.Comment

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.UserID,
		&c.Username,
		&c.RestaurantID,
		&c.FoodComment,
		&c.VisitingComment,
		&c.EnvironmentComment,
		&c.FoodScore,
		&c.VisitingScore,
		&c.EnvironmentScore,
		&c.OverallScore,
		&c.Reported,
		&c.ReportReason,
		&c.ReportedAt,
		&c.Approved,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}

	if c.Photos == nil {
		c.Photos = []string{}
	}

	return &c, nil
}

// list executes a multi-row comment query and batch-loads photos for the result.
func (r *CommentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments, _, err := collectComments(rows, false)
	if err != nil {
		return nil, err
	}

	if err := r.loadPhotosInto(ctx, comments); err != nil {
		return nil, err
	}

	return comments, nil
}

// listWithCount is list for queries carrying a count(*) OVER() column.
func (r *CommentRepository) listWithCount(ctx context.Context, query string, args ...any) ([]domain.Comment, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments, totalCount, err := collectComments(rows, true)
	if err != nil {
		return nil, 0, err
	}

	if err := r.loadPhotosInto(ctx, comments); err != nil {
		return nil, 0, err
	}

	return comments, totalCount, nil
}

func collectComments(rows pgx.Rows, withCount bool) ([]domain.Comment, int, error) {
	var (
		comments   []domain.Comment
		totalCount int
	)

	for rows.Next() {
		var c domain.Comment

		dest := []any{
			&c.ID,
			&c.UserID,
			&c.Username,
			&c.RestaurantID,
			&c.FoodComment,
			&c.VisitingComment,
			&c.EnvironmentComment,
			&c.FoodScore,
			&c.VisitingScore,
			&c.EnvironmentScore,
			&c.OverallScore,
			&c.Reported,
			&c.ReportReason,
			&c.ReportedAt,
			&c.Approved,
			&c.CreatedAt,
			&c.UpdatedAt,
		}
		if withCount {
			dest = append(dest, &totalCount)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan comment row: %w", err)
		}

		c.Photos = []string{}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate comment rows: %w", err)
	}

	if comments == nil {
		comments = []domain.Comment{}
	}

	return comments, totalCount, nil
}

// loadPhotosInto batch-loads photos for a slice of comments in one query.
func (r *CommentRepository) loadPhotosInto(ctx context.Context, comments []domain.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	ptrs := make([]*domain.Comment, len(comments))
	for i := range comments {
		ptrs[i] = &comments[i]
	}

	return r.loadPhotos(ctx, ptrs)
}

func (r *CommentRepository) loadPhotos(ctx context.Context, comments []*domain.Comment) error {
	ids := make([]string, len(comments))
	byID := make(map[string]*domain.Comment, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		byID[c.ID] = c
		if c.Photos == nil {
			c.Photos = []string{}
		}
	}

	query := `
		SELECT comment_id, photo_url
		FROM comment_photos
		WHERE comment_id = ANY($1)
		ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list comment photos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var commentID, url string

		if err := rows.Scan(&commentID, &url); err != nil {
			return fmt.Errorf("scan comment photo row: %w", err)
		}

		if c, ok := byID[commentID]; ok {
			c.Photos = append(c.Photos, url)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate comment photo rows: %w", err)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
