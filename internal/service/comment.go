package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kennytong915/Japan-Ramen-Database/internal/contentfilter"
	"github.com/kennytong915/Japan-Ramen-Database/internal/domain"
	"github.com/kennytong915/Japan-Ramen-Database/internal/event"
	"github.com/kennytong915/Japan-Ramen-Database/internal/repository"
	"github.com/kennytong915/Japan-Ramen-Database/internal/storage"
	apperrors "github.com/kennytong915/Japan-Ramen-Database/pkg/errors"
)

// CommentConfig holds the policy knobs for comment submission and photo
// attachment.
type CommentConfig struct {
	// Cooldown is the minimum interval between a user's consecutive comments
	// on the same restaurant. Zero disables the restriction.
	Cooldown time.Duration

	// MaxPhotos caps the number of photos attached to a single comment.
	MaxPhotos int

	// AllowedContentTypes is the photo upload content-type allowlist.
	AllowedContentTypes []string
}

// CommentService implements the business logic for comment submission,
// moderation, and photo attachment.
type CommentService struct {
	comments     repository.CommentRepository
	users        repository.UserRepository
	restaurants  repository.RestaurantRepository
	filter       *contentfilter.Filter
	storage      storage.Storage
	producer     *event.Producer
	cooldown     time.Duration
	maxPhotos    int
	allowedTypes map[string]struct{}
	logger       *slog.Logger

	// now is replaceable in tests to exercise cooldown windows.
	now func() time.Time
}

// NewCommentService creates a new comment service.
func NewCommentService(
	comments repository.CommentRepository,
	users repository.UserRepository,
	restaurants repository.RestaurantRepository,
	filter *contentfilter.Filter,
	store storage.Storage,
	producer *event.Producer,
	cfg CommentConfig,
	logger *slog.Logger,
) *CommentService {
	allowed := make(map[string]struct{}, len(cfg.AllowedContentTypes))
	for _, ct := range cfg.AllowedContentTypes {
		allowed[ct] = struct{}{}
	}

	return &CommentService{
		comments:     comments,
		users:        users,
		restaurants:  restaurants,
		filter:       filter,
		storage:      store,
		producer:     producer,
		cooldown:     cfg.Cooldown,
		maxPhotos:    cfg.MaxPhotos,
		allowedTypes: allowed,
		logger:       logger,
		now:          time.Now,
	}
}

// CommentDraft holds the text fields and scores for creating or updating a comment.
type CommentDraft struct {
	FoodComment        string `json:"food_comment" validate:"required,min=2,max=1000"`
	VisitingComment    string `json:"visiting_comment" validate:"required,min=2,max=1000"`
	EnvironmentComment string `json:"environment_comment" validate:"required,min=2,max=1000"`
	FoodScore          int    `json:"food_score" validate:"required,gte=1,lte=5"`
	VisitingScore      int    `json:"visiting_score" validate:"required,gte=1,lte=5"`
	EnvironmentScore   int    `json:"environment_score" validate:"required,gte=1,lte=5"`
	OverallScore       int    `json:"overall_score" validate:"required,gte=1,lte=5"`
}

// CreateComment validates author and restaurant, enforces the cooldown policy,
// redacts disallowed terms, and persists the new comment. New comments are
// visible immediately; moderation only hides them after a reviewed report.
func (s *CommentService) CreateComment(ctx context.Context, userID, restaurantID string, draft *CommentDraft) (*domain.Comment, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, fmt.Errorf("get comment author: %w", err)
	}

	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("restaurant", restaurantID)
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}

	eligibleAt, err := s.nextEligibleAt(ctx, userID, restaurantID)
	if err != nil {
		return nil, err
	}
	if eligibleAt != nil {
		return nil, apperrors.CooldownActive(eligibleAt.Sub(s.now()))
	}

	filtered := s.redactDraft(ctx, draft)

	now := s.now().UTC()
	comment := &domain.Comment{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Username:           user.Username,
		RestaurantID:       restaurantID,
		FoodComment:        filtered.FoodComment,
		VisitingComment:    filtered.VisitingComment,
		EnvironmentComment: filtered.EnvironmentComment,
		FoodScore:          filtered.FoodScore,
		VisitingScore:      filtered.VisitingScore,
		EnvironmentScore:   filtered.EnvironmentScore,
		OverallScore:       filtered.OverallScore,
		Approved:           true,
		Photos:             []string{},
		CreatedAt:          now,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	// Publish event; errors are logged but do not fail the operation.
	if err := s.producer.PublishCommentCreated(ctx, comment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish comment.created event",
			slog.String("comment_id", comment.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "comment created",
		slog.String("comment_id", comment.ID),
		slog.String("user_id", userID),
		slog.String("restaurant_id", restaurantID),
	)

	return comment, nil
}

// GetComment retrieves a comment by its ID.
func (s *CommentService) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment by id: %w", err)
	}
	return comment, nil
}

// UpdateComment re-applies content filtering and persists changed fields.
// Only the author may edit; editing is not subject to the cooldown policy.
func (s *CommentService) UpdateComment(ctx context.Context, id, requesterID string, draft *CommentDraft) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get comment for update: %w", err)
	}

	if comment.UserID != requesterID {
		return nil, apperrors.Forbidden("only the author may edit a comment")
	}

	filtered := s.redactDraft(ctx, draft)

	comment.FoodComment = filtered.FoodComment
	comment.VisitingComment = filtered.VisitingComment
	comment.EnvironmentComment = filtered.EnvironmentComment
	comment.FoodScore = filtered.FoodScore
	comment.VisitingScore = filtered.VisitingScore
	comment.EnvironmentScore = filtered.EnvironmentScore
	comment.OverallScore = filtered.OverallScore

	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}

	if err := s.producer.PublishCommentUpdated(ctx, comment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish comment.updated event",
			slog.String("comment_id", comment.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "comment updated",
		slog.String("comment_id", comment.ID),
	)

	return comment, nil
}

// DeleteComment permanently removes a comment. The author or an administrator
// may delete; removal is final.
func (s *CommentService) DeleteComment(ctx context.Context, id, requesterID, requesterRole string) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get comment for delete: %w", err)
	}

	if comment.UserID != requesterID && requesterRole != domain.RoleAdmin {
		return apperrors.Forbidden("only the author or an administrator may delete a comment")
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	if err := s.producer.PublishCommentDeleted(ctx, id, comment.RestaurantID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish comment.deleted event",
			slog.String("comment_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "comment deleted",
		slog.String("comment_id", id),
		slog.String("requester_id", requesterID),
	)

	return nil
}

// ListByRestaurant returns a paginated list of approved comments for a restaurant.
func (s *CommentService) ListByRestaurant(ctx context.Context, restaurantID string, page, perPage int) ([]domain.Comment, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	comments, total, err := s.comments.ListApprovedByRestaurant(ctx, restaurantID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments by restaurant: %w", err)
	}

	return comments, total, nil
}

// ListByUser returns all comments written by a user.
func (s *CommentService) ListByUser(ctx context.Context, userID string) ([]domain.Comment, error) {
	comments, err := s.comments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list comments by user: %w", err)
	}
	return comments, nil
}

// ReportComment flags a comment for moderation with the given reason. Repeat
// reports overwrite the previous reason and timestamp.
func (s *CommentService) ReportComment(ctx context.Context, commentID, reason string) error {
	if len(reason) < domain.MinReportReasonLength || len(reason) > domain.MaxReportReasonLength {
		return apperrors.InvalidInput(fmt.Sprintf("report reason must be between %d and %d characters",
			domain.MinReportReasonLength, domain.MaxReportReasonLength))
	}

	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("get comment for report: %w", err)
	}

	now := s.now().UTC()
	comment.Reported = true
	comment.ReportReason = &reason
	comment.ReportedAt = &now

	if err := s.comments.Update(ctx, comment); err != nil {
		return fmt.Errorf("report comment: %w", err)
	}

	if err := s.producer.PublishCommentReported(ctx, comment, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish comment.reported event",
			slog.String("comment_id", commentID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "comment reported",
		slog.String("comment_id", commentID),
	)

	return nil
}

// ListReported returns all comments awaiting moderation.
func (s *CommentService) ListReported(ctx context.Context) ([]domain.Comment, error) {
	comments, err := s.comments.ListReported(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reported comments: %w", err)
	}
	return comments, nil
}

// ReviewReportedComment resolves a report. Approving restores visibility and
// clears the report; rejecting hides the comment and leaves the report flag
// set so the decision stays auditable.
func (s *CommentService) ReviewReportedComment(ctx context.Context, commentID string, approve bool) (*domain.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("get comment for review: %w", err)
	}

	if !comment.Reported {
		return nil, apperrors.InvalidState("comment is not currently reported")
	}

	if approve {
		comment.Approved = true
		comment.Reported = false
		comment.ReportReason = nil
		comment.ReportedAt = nil
	} else {
		comment.Approved = false
	}

	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("review reported comment: %w", err)
	}

	if err := s.producer.PublishCommentReviewed(ctx, comment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish comment.reviewed event",
			slog.String("comment_id", commentID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "reported comment reviewed",
		slog.String("comment_id", commentID),
		slog.Bool("approved", approve),
	)

	return comment, nil
}

// CanComment reports whether the user may currently comment on the restaurant,
// along with the instant eligibility is restored when they may not.
func (s *CommentService) CanComment(ctx context.Context, userID, restaurantID string) (bool, *time.Time, error) {
	eligibleAt, err := s.nextEligibleAt(ctx, userID, restaurantID)
	if err != nil {
		return false, nil, err
	}
	return eligibleAt == nil, eligibleAt, nil
}

// nextEligibleAt computes the cooldown expiry for the (user, restaurant) pair.
// A nil result means the user is eligible now. The check is recomputed from
// the most recent comment on every call; the check and a subsequent create are
// not serialized, so two concurrent submissions can both pass it.
func (s *CommentService) nextEligibleAt(ctx context.Context, userID, restaurantID string) (*time.Time, error) {
	if s.cooldown <= 0 {
		return nil, nil
	}

	latest, err := s.comments.LatestByUserAndRestaurant(ctx, userID, restaurantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest comment: %w", err)
	}

	eligibleAt := latest.CreatedAt.Add(s.cooldown)
	if !s.now().Before(eligibleAt) {
		return nil, nil
	}

	return &eligibleAt, nil
}

// PhotoUpload is a single file in a photo attachment batch.
type PhotoUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// AttachPhotosResult holds the stored URLs and per-item errors of a batch upload.
type AttachPhotosResult struct {
	URLs   []string          `json:"urls"`
	Errors map[string]string `json:"errors,omitempty"`
}

// AttachPhotos uploads a batch of photos for a comment. A batch that would
// push the comment past the photo cap is rejected wholesale before any upload.
// Within an admitted batch, failures are isolated per item: one bad file does
// not abort uploads that already succeeded.
func (s *CommentService) AttachPhotos(ctx context.Context, commentID, requesterID string, batch []PhotoUpload) (*AttachPhotosResult, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("get comment for photo upload: %w", err)
	}

	if comment.UserID != requesterID {
		return nil, apperrors.Forbidden("only the author may attach photos to a comment")
	}

	// Empty files are skipped, not counted against the cap.
	type indexed struct {
		idx  int
		item PhotoUpload
	}
	var uploads []indexed
	for i, item := range batch {
		if item.Size <= 0 {
			continue
		}
		uploads = append(uploads, indexed{idx: i, item: item})
	}

	if len(uploads) == 0 {
		return &AttachPhotosResult{URLs: []string{}}, nil
	}

	existing, err := s.comments.CountPhotos(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("count existing photos: %w", err)
	}

	if existing+len(uploads) > s.maxPhotos {
		return nil, apperrors.LimitExceeded(fmt.Sprintf(
			"comment already has %d photos, adding %d would exceed the limit of %d",
			existing, len(uploads), s.maxPhotos))
	}

	result := &AttachPhotosResult{
		URLs:   []string{},
		Errors: make(map[string]string),
	}

	for _, u := range uploads {
		itemKey := fmt.Sprintf("file_%d", u.idx)

		if _, ok := s.allowedTypes[u.item.ContentType]; !ok {
			result.Errors[itemKey] = fmt.Sprintf("content type %q is not allowed", u.item.ContentType)
			continue
		}

		key := storage.PhotoKey(requesterID, commentID, u.item.FileName, s.now())

		uploaded, err := s.storage.Upload(ctx, &storage.UploadInput{
			Key:         key,
			ContentType: u.item.ContentType,
			Size:        u.item.Size,
			Data:        u.item.Data,
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "photo upload failed",
				slog.String("comment_id", commentID),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			result.Errors[itemKey] = "upload to storage failed"
			continue
		}

		if err := s.comments.AddPhoto(ctx, commentID, uploaded.URL); err != nil {
			// Attempt to clean up the uploaded blob on DB failure.
			if delErr := s.storage.Delete(ctx, key); delErr != nil {
				s.logger.ErrorContext(ctx, "failed to clean up storage after db error",
					slog.String("key", key),
					slog.String("error", delErr.Error()),
				)
			}
			result.Errors[itemKey] = "saving photo record failed"
			continue
		}

		result.URLs = append(result.URLs, uploaded.URL)

		if err := s.producer.PublishPhotoUploaded(ctx, commentID, comment.RestaurantID, uploaded.URL); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish comment.photo_uploaded event",
				slog.String("comment_id", commentID),
				slog.String("error", err.Error()),
			)
		}
	}

	if len(result.Errors) == 0 {
		result.Errors = nil
	}

	s.logger.InfoContext(ctx, "photo batch processed",
		slog.String("comment_id", commentID),
		slog.Int("stored", len(result.URLs)),
		slog.Int("failed", len(batch)-len(result.URLs)),
	)

	return result, nil
}

// PhotosByRestaurant flattens photo URLs across all visible comments of a
// restaurant for gallery display, most recent comment first.
func (s *CommentService) PhotosByRestaurant(ctx context.Context, restaurantID string) ([]domain.RestaurantPhoto, error) {
	photos, err := s.comments.PhotosByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list restaurant photos: %w", err)
	}
	return photos, nil
}

// LatestPhotoURL returns the first photo of the most recent visible comment
// with photos, or ErrNotFound when the restaurant has none.
func (s *CommentService) LatestPhotoURL(ctx context.Context, restaurantID string) (string, error) {
	url, err := s.comments.LatestPhotoURL(ctx, restaurantID)
	if err != nil {
		return "", fmt.Errorf("get latest photo: %w", err)
	}
	return url, nil
}

// redactDraft masks disallowed terms in the draft's text fields and logs when
// any field was altered.
func (s *CommentService) redactDraft(ctx context.Context, draft *CommentDraft) CommentDraft {
	filtered := *draft
	filtered.FoodComment = s.filter.Redact(draft.FoodComment)
	filtered.VisitingComment = s.filter.Redact(draft.VisitingComment)
	filtered.EnvironmentComment = s.filter.Redact(draft.EnvironmentComment)

	if filtered.FoodComment != draft.FoodComment ||
		filtered.VisitingComment != draft.VisitingComment ||
		filtered.EnvironmentComment != draft.EnvironmentComment {
		s.logger.InfoContext(ctx, "comment content was filtered")
	}

	return filtered
}
