package quote_area

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
)

const (
	msgInvalidTime = "некорректный формат времени, ожидаются start и end в RFC3339"
	msgNotFound    = "парковка не найдена"
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

// Handle GET /api/v1/areas/{areaId}/quote?start=&end=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["areaId"]
	q := r.URL.Query()

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		h.logger.Warn("GET /areas/{areaId}/quote - Invalid start: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		h.logger.Warn("GET /areas/{areaId}/quote - Invalid end: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	quote, err := h.service.Quote(r.Context(), areaID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, areas.ErrAreaNotFound):
			h.logger.Warn("GET /areas/{areaId}/quote - Area not found: area_id=%s", areaID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, areas.ErrInvalidInput):
			h.logger.Warn("GET /areas/{areaId}/quote - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidTime)

		default:
			h.logger.Error("GET /areas/{areaId}/quote - Failed to quote: area_id=%s, error=%v", areaID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /areas/{areaId}/quote - Quote: area_id=%s, total_cost=%.2f", areaID, quote.TotalCost)
	handlers.RespondJSON(w, http.StatusOK, quote)
}
