package search_areas

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

const (
	msgInvalidLimit = "некорректный параметр limit"
	msgInvalidQuery = "параметр q обязателен"
)

type Handler struct {
	service AreaService
	logger  Logger
}

func NewHandler(service AreaService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/areas/search?q=&limit=
// Маршрут публичный; если передан токен, в ответе отмечается избранное
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	q := r.URL.Query()

	req := &models.SearchRequest{UserID: userID, Query: q.Get("q")}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			h.logger.Warn("GET /areas/search - Invalid limit: %v", err)
			handlers.RespondBadRequest(w, msgInvalidLimit)
			return
		}
		req.Limit = limit
	}

	result, err := h.service.SearchAreas(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, areas.ErrInvalidInput):
			h.logger.Warn("GET /areas/search - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		default:
			h.logger.Error("GET /areas/search - Failed to search areas: q=%q, error=%v", req.Query, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /areas/search - Areas found: count=%d, source=%s", len(result.Areas), result.Source)
	handlers.RespondJSON(w, http.StatusOK, result)
}
