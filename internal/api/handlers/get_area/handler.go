package get_area

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
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

// Handle GET /api/v1/areas/{areaId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["areaId"]
	userID, _ := middleware.GetUserID(r.Context())

	area, err := h.service.GetByID(r.Context(), areaID, userID)
	if err != nil {
		switch {
		case errors.Is(err, areas.ErrAreaNotFound):
			h.logger.Warn("GET /areas/{areaId} - Area not found: area_id=%s", areaID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /areas/{areaId} - Failed to get area: area_id=%s, error=%v", areaID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /areas/{areaId} - Area retrieved: area_id=%s, source=%s", areaID, area.Source)
	handlers.RespondJSON(w, http.StatusOK, area)
}
