package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kennytong915/Japan-Ramen-Database/internal/service"
	"github.com/kennytong915/Japan-Ramen-Database/pkg/httputil"
)

// RestaurantHandler handles HTTP requests for restaurant endpoints.
type RestaurantHandler struct {
	service *service.RestaurantService
	logger  *slog.Logger
}

// NewRestaurantHandler creates a new restaurant HTTP handler.
func NewRestaurantHandler(svc *service.RestaurantService, logger *slog.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		service: svc,
		logger:  logger,
	}
}

// GetRestaurant handles GET /api/v1/restaurants/{restaurantId}
func (h *RestaurantHandler) GetRestaurant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "restaurantId")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "restaurant id is required"},
		})
		return
	}

	restaurant, err := h.service.GetRestaurant(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: restaurant})
}

// Ranking handles GET /api/v1/restaurants/ranking
// @Summary Restaurant ranking
// @Description Returns restaurants ranked by average overall score across approved comments.
// @Tags restaurants
// @Produce json
// @Param limit query int false "Number of entries (max 100)" default(10)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/restaurants/ranking [get]
func (h *RestaurantHandler) Ranking(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	rankings, err := h.service.Ranking(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: rankings})
}
