package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kennytong915/Japan-Ramen-Database/internal/service"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/httputil"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/middleware"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/pagination"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/validator"
)

// CommentHandler handles HTTP requests for comment endpoints.
type CommentHandler struct {
	service   *service.CommentService
	maxPhotos int
	logger    *slog.Logger
}

// NewCommentHandler creates a new comment HTTP handler.
func NewCommentHandler(svc *service.CommentService, maxPhotos int, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{
		service:   svc,
		maxPhotos: maxPhotos,
		logger:    logger,
	}
}

// --- Request DTOs ---

// CommentRequest is the JSON request body for creating or updating a comment.
type CommentRequest struct {
	FoodComment        string `json:"food_comment" validate:"required,min=2,max=1000"`
	VisitingComment    string `json:"visiting_comment" validate:"required,min=2,max=1000"`
	EnvironmentComment string `json:"environment_comment" validate:"required,min=2,max=1000"`
	FoodScore          int    `json:"food_score" validate:"required,gte=1,lte=5"`
	VisitingScore      int    `json:"visiting_score" validate:"required,gte=1,lte=5"`
	EnvironmentScore   int    `json:"environment_score" validate:"required,gte=1,lte=5"`
	OverallScore       int    `json:"overall_score" validate:"required,gte=1,lte=5"`
}

func (r *CommentRequest) draft() *service.CommentDraft {
	return &service.CommentDraft{
		FoodComment:        r.FoodComment,
		VisitingComment:    r.VisitingComment,
		EnvironmentComment: r.EnvironmentComment,
		FoodScore:          r.FoodScore,
		VisitingScore:      r.VisitingScore,
		EnvironmentScore:   r.EnvironmentScore,
		OverallScore:       r.OverallScore,
	}
}

// ReportCommentRequest is the JSON request body for reporting a comment.
type ReportCommentRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=1000"`
}

// ReviewCommentRequest is the JSON request body for reviewing a reported comment.
// Approve is a pointer so an explicit false survives validation.
type ReviewCommentRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// EligibilityResponse reports whether the authenticated user may comment on
// a restaurant, and if not, when the cooldown expires.
type EligibilityResponse struct {
	Eligible       bool       `json:"eligible"`
	NextEligibleAt *time.Time `json:"next_eligible_at,omitempty"`
}

// --- Handlers ---

// CreateComment handles POST /api/v1/restaurants/{restaurantId}/comments
// @Summary Submit a comment
// @Description Submits a three-aspect review for a restaurant. Subject to the per-restaurant cooldown policy.
// @Tags comments
// @Accept json
// @Produce json
// @Param restaurantId path string true "Restaurant ID"
// @Param request body CommentRequest true "Comment to submit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /api/v1/restaurants/{restaurantId}/comments [post]
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")
	if restaurantID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "restaurant id is required"},
		})
		return
	}

	req, ok := decodeComment(w, r)
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	comment, err := h.service.CreateComment(r.Context(), userID, restaurantID, req.draft())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: comment})
}

// GetComment handles GET /api/v1/comments/{id}
func (h *CommentHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "comment id is required"},
		})
		return
	}

	comment, err := h.service.GetComment(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: comment})
}

// UpdateComment handles PUT /api/v1/comments/{id}
// Only the original author may update a comment.
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "comment id is required"},
		})
		return
	}

	req, ok := decodeComment(w, r)
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	comment, err := h.service.UpdateComment(r.Context(), id, userID, req.draft())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: comment})
}

// DeleteComment handles DELETE /api/v1/comments/{id}
// The author or an admin may delete a comment.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "comment id is required"},
		})
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	role := middleware.RoleFromContext(r.Context())
	if err := h.service.DeleteComment(r.Context(), id, userID, role); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListComments handles GET /api/v1/restaurants/{restaurantId}/comments
// @Summary List restaurant comments
// @Description Returns paginated approved comments for a restaurant, newest first.
// @Tags comments
// @Produce json
// @Param restaurantId path string true "Restaurant ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/restaurants/{restaurantId}/comments [get]
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")
	if restaurantID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "restaurant id is required"},
		})
		return
	}

	params := pagination.FromRequest(r)

	comments, total, err := h.service.ListByRestaurant(r.Context(), restaurantID, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(comments, total, params.Page, params.PerPage))
}

// ListMyComments handles GET /api/v1/users/me/comments
func (h *CommentHandler) ListMyComments(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	comments, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: comments})
}

// Eligibility handles GET /api/v1/restaurants/{restaurantId}/comments/eligibility
// It lets clients check the cooldown before presenting the comment form.
func (h *CommentHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")
	if restaurantID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "restaurant id is required"},
		})
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	eligible, nextAt, err := h.service.CanComment(r.Context(), userID, restaurantID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: EligibilityResponse{Eligible: eligible, NextEligibleAt: nextAt},
	})
}

// ReportComment handles POST /api/v1/comments/{id}/report
// @Summary Report a comment
// @Description Flags a comment for moderator review. The comment stays visible until reviewed.
// @Tags moderation
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param request body ReportCommentRequest true "Report reason"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/comments/{id}/report [post]
func (h *CommentHandler) ReportComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "comment id is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ReportCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.ReportComment(r.Context(), id, req.Reason); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListReported handles GET /api/v1/moderation/comments
// Admin only. Returns reported comments ordered oldest report first.
func (h *CommentHandler) ListReported(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListReported(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: comments})
}

// ReviewComment handles POST /api/v1/moderation/comments/{id}/review
// Admin only. Approving clears the report; rejecting hides the comment.
func (h *CommentHandler) ReviewComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "comment id is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ReviewCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	comment, err := h.service.ReviewReportedComment(r.Context(), id, *req.Approve)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: comment})
}

// decodeComment reads and validates a CommentRequest body, writing the error
// response itself on failure.
func decodeComment(w http.ResponseWriter, r *http.Request) (*CommentRequest, bool) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return nil, false
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return nil, false
	}

	return &req, true
}
