package delete_user

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/users"
)

const (
	msgNotFound     = "профиль не найден"
	msgLiveBookings = "сначала отмените незавершенные бронирования"
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

// Handle DELETE /api/v1/users/{userId}
// Удаляет профиль, избранное и завершенные бронирования
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	if err := h.service.Delete(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			h.logger.Warn("DELETE /users/{userId} - Profile not found: user_id=%s", userID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, users.ErrUserHasLiveBookings):
			h.logger.Warn("DELETE /users/{userId} - Live bookings remain: user_id=%s", userID)
			handlers.RespondConflict(w, msgLiveBookings)

		default:
			h.logger.Error("DELETE /users/{userId} - Failed to delete profile: user_id=%s, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /users/{userId} - Profile deleted: user_id=%s", userID)
	handlers.RespondNoContent(w)
}
