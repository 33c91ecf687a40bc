package delete_area

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
)

const (
	msgNotFound = "парковка не найдена"
	msgInUse    = "на парковке есть занятые места"
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

// Handle DELETE /api/v1/areas/{areaId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["areaId"]

	if err := h.service.DeleteArea(r.Context(), areaID); err != nil {
		switch {
		case errors.Is(err, areas.ErrAreaNotFound):
			h.logger.Warn("DELETE /areas/{areaId} - Area not found: area_id=%s", areaID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, areas.ErrAreaInUse):
			h.logger.Warn("DELETE /areas/{areaId} - Area in use: area_id=%s, error=%v", areaID, err)
			handlers.RespondConflict(w, msgInUse)

		default:
			h.logger.Error("DELETE /areas/{areaId} - Failed to delete area: area_id=%s, error=%v", areaID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /areas/{areaId} - Area deleted: area_id=%s", areaID)
	handlers.RespondNoContent(w)
}
