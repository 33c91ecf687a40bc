package rate_area

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidRating      = "оценка должна быть от 1 до 5"
	msgNotFound           = "парковка не найдена"
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

// Handle POST /api/v1/areas/{areaId}/ratings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["areaId"]

	var req models.RateRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /areas/{areaId}/ratings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.RateArea(r.Context(), areaID, &req)
	if err != nil {
		switch {
		case errors.Is(err, areas.ErrInvalidInput):
			h.logger.Warn("POST /areas/{areaId}/ratings - Invalid rating: area_id=%s, error=%v", areaID, err)
			handlers.RespondBadRequest(w, msgInvalidRating)

		case errors.Is(err, areas.ErrAreaNotFound):
			h.logger.Warn("POST /areas/{areaId}/ratings - Area not found: area_id=%s", areaID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("POST /areas/{areaId}/ratings - Failed to rate area: area_id=%s, error=%v", areaID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /areas/{areaId}/ratings - Area rated: area_id=%s, rating=%.2f, count=%d",
		areaID, result.Rating, result.NumberOfRatings)
	handlers.RespondJSON(w, http.StatusOK, result)
}
