package create_area

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidArea        = "некорректные данные парковки или мест"
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

// Handle POST /api/v1/areas
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAreaRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /areas - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	area, err := h.service.CreateArea(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, areas.ErrInvalidInput):
			h.logger.Warn("POST /areas - Invalid area: name=%q, error=%v", req.Name, err)
			handlers.RespondBadRequest(w, msgInvalidArea)

		default:
			h.logger.Error("POST /areas - Failed to create area: name=%q, error=%v", req.Name, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /areas - Area created: area_id=%s, total_spots=%d", area.ID, area.TotalSpots)
	handlers.RespondJSON(w, http.StatusCreated, area)
}
