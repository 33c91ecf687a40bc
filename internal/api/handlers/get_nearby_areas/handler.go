package get_nearby_areas

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
)

const (
	msgInvalidQuery = "некорректные параметры поиска: ожидаются lat, lng и опционально radiusKm, maxHourlyRate, ev, disabled"
	msgInvalidInput = "координаты или фильтры вне допустимого диапазона"
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

// Handle GET /api/v1/areas
// Маршрут публичный; если передан токен, в ответе отмечается избранное
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	req, err := parseQuery(r.URL.Query(), userID)
	if err != nil {
		h.logger.Warn("GET /areas - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.GetNearby(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, areas.ErrInvalidInput):
			h.logger.Warn("GET /areas - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /areas - Failed to search areas: lat=%.5f, lng=%.5f, error=%v",
				req.Latitude, req.Longitude, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /areas - Areas found: count=%d, source=%s", len(result.Areas), result.Source)
	handlers.RespondJSON(w, http.StatusOK, result)
}
