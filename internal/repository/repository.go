package repository

import (
	"context"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
)

// CommentRepository defines the interface for comment persistence operations.
type CommentRepository interface {
	// Create inserts a new comment into the store.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment with its photos by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Comment, error)

	// Update persists changed text, score, and moderation fields.
	Update(ctx context.Context, comment *domain.Comment) error

	// Delete removes a comment and its photos from the store.
	Delete(ctx context.Context, id string) error

	// ListApprovedByRestaurant returns approved comments for a restaurant,
	// newest first, along with the total count.
	ListApprovedByRestaurant(ctx context.Context, restaurantID string, page, perPage int) ([]domain.Comment, int, error)

	// ListByUser returns all comments written by a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Comment, error)

	// ListReported returns all comments currently flagged for moderation.
	ListReported(ctx context.Context) ([]domain.Comment, error)

	// LatestByUserAndRestaurant returns the most recent comment a user wrote
	// for a restaurant, or ErrNotFound when none exists.
	LatestByUserAndRestaurant(ctx context.Context, userID, restaurantID string) (*domain.Comment, error)

	// CountPhotos returns the number of photos attached to a comment.
	CountPhotos(ctx context.Context, commentID string) (int, error)

	// AddPhoto appends a photo URL to a comment.
	AddPhoto(ctx context.Context, commentID, photoURL string) error

	// PhotosByRestaurant returns photo URLs from approved comments, newest
	// comment first, each paired with the commenter's username.
	PhotosByRestaurant(ctx context.Context, restaurantID string) ([]domain.RestaurantPhoto, error)

	// LatestPhotoURL returns the first photo of the most recent approved
	// comment with photos, or ErrNotFound when the restaurant has none.
	LatestPhotoURL(ctx context.Context, restaurantID string) (string, error)
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// UpdateLoginState persists failed-login counters and lockout timestamps.
	UpdateLoginState(ctx context.Context, user *domain.User) error
}

// RestaurantRepository defines the interface for restaurant persistence operations.
type RestaurantRepository interface {
	// GetByID retrieves a restaurant by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)

	// Ranking returns restaurants ordered by average approved-comment score,
	// limited to the given number of entries.
	Ranking(ctx context.Context, limit int) ([]domain.RestaurantRanking, error)
}
