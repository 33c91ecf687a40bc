package get_area_spots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
)

const msgNotFound = "парковка не найдена"

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

// Handle GET /api/v1/areas/{areaId}/spots
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["areaId"]

	result, err := h.service.GetSpots(r.Context(), areaID)
	if err != nil {
		switch {
		case errors.Is(err, areas.ErrAreaNotFound):
			h.logger.Warn("GET /areas/{areaId}/spots - Area not found: area_id=%s", areaID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /areas/{areaId}/spots - Failed to get spots: area_id=%s, error=%v", areaID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /areas/{areaId}/spots - Spots retrieved: area_id=%s, count=%d, available=%d, source=%s",
		areaID, len(result.Spots), result.AvailableSpots, result.Source)
	handlers.RespondJSON(w, http.StatusOK, result)
}
