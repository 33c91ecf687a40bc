package favorites

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
)

const (
	msgAreaNotFound = "парковка не найдена"
	msgInvalidInput = "некорректный ID парковки"
)

// Handler избранные парковки пользователя: список, добавление, удаление
type Handler struct {
	service FavoriteService
	logger  Logger
}

func NewHandler(service FavoriteService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// List GET /api/v1/users/{userId}/favorites
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	result, err := h.service.ListFavorites(r.Context(), userID)
	if err != nil {
		h.logger.Error("GET /users/{userId}/favorites - Failed to list favorites: user_id=%s, error=%v", userID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /users/{userId}/favorites - Favorites retrieved: user_id=%s, count=%d", userID, len(result.AreaIDs))
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Add PUT /api/v1/users/{userId}/favorites/{areaId}
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, areaID := vars["userId"], vars["areaId"]

	if err := h.service.AddFavorite(r.Context(), userID, areaID); err != nil {
		switch {
		case errors.Is(err, areas.ErrAreaNotFound):
			h.logger.Warn("PUT /users/{userId}/favorites/{areaId} - Area not found: area_id=%s", areaID)
			handlers.RespondNotFound(w, msgAreaNotFound)

		case errors.Is(err, areas.ErrInvalidInput):
			h.logger.Warn("PUT /users/{userId}/favorites/{areaId} - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PUT /users/{userId}/favorites/{areaId} - Failed to add favorite: user_id=%s, area_id=%s, error=%v",
				userID, areaID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /users/{userId}/favorites/{areaId} - Favorite added: user_id=%s, area_id=%s", userID, areaID)
	handlers.RespondNoContent(w)
}

// Remove DELETE /api/v1/users/{userId}/favorites/{areaId}
// Удаление отсутствующей записи не считается ошибкой
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, areaID := vars["userId"], vars["areaId"]

	if err := h.service.RemoveFavorite(r.Context(), userID, areaID); err != nil {
		h.logger.Error("DELETE /users/{userId}/favorites/{areaId} - Failed to remove favorite: user_id=%s, area_id=%s, error=%v",
			userID, areaID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("DELETE /users/{userId}/favorites/{areaId} - Favorite removed: user_id=%s, area_id=%s", userID, areaID)
	handlers.RespondNoContent(w)
}
