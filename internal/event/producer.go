package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	pkgkafka "github.com/kennytong915/Japan-Ramen-Database/pkg/kafka"
)

// Kafka topic constants for comment domain events.
const (
	TopicCommentCreated  = "ramen.comment.created"
	TopicCommentUpdated  = "ramen.comment.updated"
	TopicCommentDeleted  = "ramen.comment.deleted"
	TopicCommentReported = "ramen.comment.reported"
	TopicCommentReviewed = "ramen.comment.reviewed"
	TopicPhotoUploaded   = "ramen.comment.photo_uploaded"
)

// Aggregate type constant.
const AggregateTypeComment = "comment"

// Source identifier for events originating from the directory service.
const SourceDirectoryService = "ramen-directory"

// CommentCreatedData is the payload for a comment.created event.
type CommentCreatedData struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	RestaurantID string `json:"restaurant_id"`
	OverallScore int    `json:"overall_score"`
	Approved     bool   `json:"approved"`
}

// CommentUpdatedData is the payload for a comment.updated event.
type CommentUpdatedData struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	RestaurantID string `json:"restaurant_id"`
	OverallScore int    `json:"overall_score"`
}

// CommentDeletedData is the payload for a comment.deleted event.
type CommentDeletedData struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
}

// CommentReportedData is the payload for a comment.reported event.
type CommentReportedData struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Reason       string `json:"reason"`
}

// CommentReviewedData is the payload for a comment.reviewed event.
type CommentReviewedData struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Approved     bool   `json:"approved"`
}

// PhotoUploadedData is the payload for a comment.photo_uploaded event.
type PhotoUploadedData struct {
	CommentID    string `json:"comment_id"`
	RestaurantID string `json:"restaurant_id"`
	PhotoURL     string `json:"photo_url"`
}

// Producer publishes comment domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the directory service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCommentCreated publishes a comment.created event.
func (p *Producer) PublishCommentCreated(ctx context.Context, c *domain.Comment) error {
	data := CommentCreatedData{
		ID:           c.ID,
		UserID:       c.UserID,
		RestaurantID: c.RestaurantID,
		OverallScore: c.OverallScore,
		Approved:     c.Approved,
	}

	event, err := pkgkafka.NewEvent(TopicCommentCreated, c.ID, AggregateTypeComment, SourceDirectoryService, data)
	if err != nil {
		return fmt.Errorf("create comment.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCommentCreated, event); err != nil {
		return fmt.Errorf("publish comment.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published comment.created event",
		slog.String("comment_id", c.ID),
		slog.String("restaurant_id", c.RestaurantID),
	)

	return nil
}

// PublishCommentUpdated publishes a comment.updated event.
func (p *Producer) PublishCommentUpdated(ctx context.Context, c *domain.Comment) error {
	data := CommentUpdatedData{
		ID:           c.ID,
		UserID:       c.UserID,
		RestaurantID: c.RestaurantID,
		OverallScore: c.OverallScore,
	}

	event, err := pkgkafka.NewEvent(TopicCommentUpdated, c.ID, AggregateTypeComment, SourceDirectoryService, data)
	if err != nil {
		return fmt.Errorf("create comment.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCommentUpdated, event); err != nil {
		return fmt.Errorf("publish comment.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published comment.updated event",
		slog.String("comment_id", c.ID),
	)

	return nil
}

// PublishCommentDeleted publishes a comment.deleted event.
func (p *Producer) PublishCommentDeleted(ctx context.Context, id, restaurantID string) error {
	data := CommentDeletedData{ID: id, RestaurantID: restaurantID}

	event, err := pkgkafka.NewEvent(TopicCommentDeleted, id, AggregateTypeComment, SourceDirectoryService, data)
	if err != nil {
		return fmt.Errorf("create comment.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCommentDeleted, event); err != nil {
		return fmt.Errorf("publish comment.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published comment.deleted event",
		slog.String("comment_id", id),
	)

	return nil
}

// PublishCommentReported publishes a comment.reported event.
func (p *Producer) PublishCommentReported(ctx context.Context, c *domain.Comment, reason string) error {
	data := CommentReportedData{
		ID:           c.ID,
		RestaurantID: c.RestaurantID,
		Reason:       reason,
	}

	event, err := pkgkafka.NewEvent(TopicCommentReported, c.ID, AggregateTypeComment, SourceDirectoryService, data)
	if err != nil {
		return fmt.Errorf("create comment.reported event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCommentReported, event); err != nil {
		return fmt.Errorf("publish comment.reported event: %w", err)
	}

	p.logger.DebugContext(ctx, "published comment.reported event",
		slog.String("comment_id", c.ID),
	)

	return nil
}

// PublishCommentReviewed publishes a comment.reviewed event.
func (p *Producer) PublishCommentReviewed(ctx context.Context, c *domain.Comment) error {
	data := CommentReviewedData{
		ID:           c.ID,
		RestaurantID: c.RestaurantID,
		Approved:     c.Approved,
	}

	event, err := pkgkafka.NewEvent(TopicCommentReviewed, c.ID, AggregateTypeComment, SourceDirectoryService, data)
	if err != nil {
		return fmt.Errorf("create comment.reviewed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCommentReviewed, event); err != nil {
		return fmt.Errorf("publish comment.reviewed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published comment.reviewed event",
		slog.String("comment_id", c.ID),
		slog.Bool("approved", c.Approved),
	)

	return nil
}

// PublishPhotoUploaded publishes a comment.photo_uploaded event.
func (p *Producer) PublishPhotoUploaded(ctx context.Context, commentID, restaurantID, photoURL string) error {
	data := PhotoUploadedData{
		CommentID:    commentID,
		RestaurantID: restaurantID,
		PhotoURL:     photoURL,
	}

	event, err := pkgkafka.NewEvent(TopicPhotoUploaded, commentID, AggregateTypeComment, SourceDirectoryService, data)
	if err != nil {
		return fmt.Errorf("create comment.photo_uploaded event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPhotoUploaded, event); err != nil {
		return fmt.Errorf("publish comment.photo_uploaded event: %w", err)
	}

	p.logger.DebugContext(ctx, "published comment.photo_uploaded event",
		slog.String("comment_id", commentID),
	)

	return nil
}
