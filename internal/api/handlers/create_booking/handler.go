package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ParkingService/internal/service/ledger"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTime        = "некорректный формат времени, ожидается RFC3339"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidInput       = "некорректные параметры бронирования"
	msgAreaNotFound       = "парковка не найдена"
	msgSpotNotFound       = "место не найдено"
	msgUserNotFound       = "профиль пользователя не найден"
	msgSpotNotAvailable   = "место уже занято"
)

type Handler struct {
	ledger Ledger
	logger Logger
}

func NewHandler(ledger Ledger, logger Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /bookings - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	ledgerReq, err := req.ToLedgerRequest(userID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	booking, err := h.ledger.CreateBooking(r.Context(), ledgerReq)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: user_id=%s, error=%v", userID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, ledger.ErrAreaNotFound):
			h.logger.Warn("POST /bookings - Area not found: area_id=%s", req.ParkingAreaID)
			handlers.RespondNotFound(w, msgAreaNotFound)

		case errors.Is(err, ledger.ErrSpotNotFound):
			h.logger.Warn("POST /bookings - Spot not found: area_id=%s, spot_id=%s", req.ParkingAreaID, req.ParkingSpotID)
			handlers.RespondNotFound(w, msgSpotNotFound)

		case errors.Is(err, ledger.ErrUserNotFound):
			h.logger.Warn("POST /bookings - User profile not found: user_id=%s", userID)
			handlers.RespondNotFound(w, msgUserNotFound)

		case errors.Is(err, ledger.ErrSpotNotAvailable):
			h.logger.Warn("POST /bookings - Spot not available: spot_id=%s, user_id=%s", req.ParkingSpotID, userID)
			handlers.RespondConflict(w, msgSpotNotAvailable)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: user_id=%s, spot_id=%s, error=%v",
				userID, req.ParkingSpotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%s, user_id=%s, spot_id=%s",
		booking.ID, userID, booking.ParkingSpotID)
	handlers.RespondJSON(w, http.StatusCreated, models.FromDomainBooking(booking))
}
