package update_area

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
	msgInvalidArea        = "некорректные данные парковки"
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

// Handle PATCH /api/v1/areas/{areaId}
// totalSpots и availableSpots в теле не принимаются: их меняют места и бронирования
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["areaId"]

	var req models.UpdateAreaRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /areas/{areaId} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	area, err := h.service.UpdateArea(r.Context(), areaID, &req)
	if err != nil {
		switch {
		case errors.Is(err, areas.ErrInvalidInput):
			h.logger.Warn("PATCH /areas/{areaId} - Invalid area: area_id=%s, error=%v", areaID, err)
			handlers.RespondBadRequest(w, msgInvalidArea)

		case errors.Is(err, areas.ErrAreaNotFound):
			h.logger.Warn("PATCH /areas/{areaId} - Area not found: area_id=%s", areaID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("PATCH /areas/{areaId} - Failed to update area: area_id=%s, error=%v", areaID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /areas/{areaId} - Area updated: area_id=%s", areaID)
	handlers.RespondJSON(w, http.StatusOK, area)
}
