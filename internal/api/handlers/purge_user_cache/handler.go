package purge_user_cache

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
)

type Handler struct {
	service UserService
	logger  Logger
}

func NewHandler(service UserService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/users/{userId}/cache
// Вызывается клиентом при выходе из аккаунта
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if err := h.service.PurgeCache(r.Context(), userID); err != nil {
		h.logger.Error("DELETE /users/{userId}/cache - Failed to purge cache: user_id=%s, error=%v", userID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("DELETE /users/{userId}/cache - Local replica purged: user_id=%s", userID)
	handlers.RespondNoContent(w)
}
