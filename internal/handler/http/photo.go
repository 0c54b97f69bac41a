package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kennytong915/Japan-Ramen-Database/internal/service"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/httputil"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/middleware"
)

// maxPhotoBytes is the per-file upload limit.
const maxPhotoBytes = 5 << 20

// AttachPhotos handles POST /api/v1/comments/{id}/photos
// @Summary Attach photos to a comment
// @Description Uploads up to the remaining photo allowance for a comment as multipart/form-data under the "photos" field. Failures within an admitted batch are reported per file.
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Comment ID"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/comments/{id}/photos [post]
func (h *CommentHandler) AttachPhotos(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "comment id is required"},
		})
		return
	}

	// Cap the whole request at the batch allowance plus form overhead.
	limit := int64(h.maxPhotos)*maxPhotoBytes + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid multipart form: " + err.Error()},
		})
		return
	}

	headers := r.MultipartForm.File["photos"]
	if len(headers) == 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "at least one file under the 'photos' field is required"},
		})
		return
	}

	batch := make([]service.PhotoUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "open uploaded file: " + err.Error()},
			})
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		batch = append(batch, service.PhotoUpload{
			FileName:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Data:        file,
		})
	}

	userID := middleware.UserIDFromContext(r.Context())
	result, err := h.service.AttachPhotos(r.Context(), id, userID, batch)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// RestaurantPhotos handles GET /api/v1/restaurants/{restaurantId}/photos
// Returns the photo gallery across a restaurant's approved comments,
// each URL paired with the uploader's username.
func (h *CommentHandler) RestaurantPhotos(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")
	if restaurantID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "restaurant id is required"},
		})
		return
	}

	photos, err := h.service.PhotosByRestaurant(r.Context(), restaurantID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: photos})
}

// LatestPhoto handles GET /api/v1/restaurants/{restaurantId}/photos/latest
func (h *CommentHandler) LatestPhoto(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantId")
	if restaurantID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "restaurant id is required"},
		})
		return
	}

	url, err := h.service.LatestPhotoURL(r.Context(), restaurantID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"url": url}})
}
