package area_spots

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
	msgInvalidSpot        = "некорректные данные места"
	msgAreaNotFound       = "парковка не найдена"
	msgSpotNotFound       = "место не найдено"
	msgNumberTaken        = "место с таким номером уже есть на парковке"
	msgSpotInUse          = "место занято бронированием"
)

// Handler места парковки: добавление, изменение, удаление
// Счетчики парковки меняются вместе с набором мест
type Handler struct {
	service SpotService
	logger  Logger
}

func NewHandler(service SpotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Add POST /api/v1/areas/{areaId}/spots
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["areaId"]

	var req models.CreateSpotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /areas/{areaId}/spots - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	spot, err := h.service.AddSpot(r.Context(), areaID, &req)
	if err != nil {
		h.respondError(w, "POST /areas/{areaId}/spots", areaID, err)
		return
	}

	h.logger.Info("POST /areas/{areaId}/spots - Spot added: area_id=%s, spot_id=%s", areaID, spot.ID)
	handlers.RespondJSON(w, http.StatusCreated, spot)
}

// Update PATCH /api/v1/areas/{areaId}/spots/{spotId}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	areaID, spotID := vars["areaId"], vars["spotId"]

	var req models.UpdateSpotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /areas/{areaId}/spots/{spotId} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	spot, err := h.service.UpdateSpot(r.Context(), areaID, spotID, &req)
	if err != nil {
		h.respondError(w, "PATCH /areas/{areaId}/spots/{spotId}", areaID, err)
		return
	}

	h.logger.Info("PATCH /areas/{areaId}/spots/{spotId} - Spot updated: area_id=%s, spot_id=%s", areaID, spotID)
	handlers.RespondJSON(w, http.StatusOK, spot)
}

// Delete DELETE /api/v1/areas/{areaId}/spots/{spotId}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	areaID, spotID := vars["areaId"], vars["spotId"]

	if err := h.service.DeleteSpot(r.Context(), areaID, spotID); err != nil {
		h.respondError(w, "DELETE /areas/{areaId}/spots/{spotId}", areaID, err)
		return
	}

	h.logger.Info("DELETE /areas/{areaId}/spots/{spotId} - Spot deleted: area_id=%s, spot_id=%s", areaID, spotID)
	handlers.RespondNoContent(w)
}

func (h *Handler) respondError(w http.ResponseWriter, route, areaID string, err error) {
	switch {
	case errors.Is(err, areas.ErrInvalidInput):
		h.logger.Warn("%s - Invalid spot: area_id=%s, error=%v", route, areaID, err)
		handlers.RespondBadRequest(w, msgInvalidSpot)

	case errors.Is(err, areas.ErrAreaNotFound):
		h.logger.Warn("%s - Area not found: area_id=%s", route, areaID)
		handlers.RespondNotFound(w, msgAreaNotFound)

	case errors.Is(err, areas.ErrSpotNotFound):
		h.logger.Warn("%s - Spot not found: area_id=%s", route, areaID)
		handlers.RespondNotFound(w, msgSpotNotFound)

	case errors.Is(err, areas.ErrSpotNumberTaken):
		h.logger.Warn("%s - Spot number taken: area_id=%s, error=%v", route, areaID, err)
		handlers.RespondConflict(w, msgNumberTaken)

	case errors.Is(err, areas.ErrSpotInUse):
		h.logger.Warn("%s - Spot in use: area_id=%s", route, areaID)
		handlers.RespondConflict(w, msgSpotInUse)

	default:
		h.logger.Error("%s - Failed: area_id=%s, error=%v", route, areaID, err)
		handlers.RespondInternalError(w)
	}
}
