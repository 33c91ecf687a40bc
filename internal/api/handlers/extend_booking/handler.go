package extend_booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ParkingService/internal/service/ledger"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTime        = "некорректный формат времени, ожидается RFC3339"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidEndTime     = "новое время окончания должно быть позже текущего"
	msgNotFound           = "бронирование не найдено"
	msgForbidden          = "доступ запрещен"
	msgCannotExtend       = "бронирование не может быть продлено"
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

// Handle PATCH /api/v1/bookings/{bookingId}/extend
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["bookingId"]

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /bookings/{id}/extend - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ExtendBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/extend - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	newEnd, err := time.Parse(time.RFC3339, req.NewEndTime)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/extend - Failed to parse time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	booking, err := h.ledger.ExtendBooking(r.Context(), &ledger.ExtendBookingRequest{
		BookingID:  bookingID,
		UserID:     userID,
		NewEndTime: newEnd,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/extend - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, ledger.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/extend - Access denied: booking_id=%s, user_id=%s", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, ledger.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/extend - Invalid end time: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidEndTime)

		case errors.Is(err, ledger.ErrCannotExtend), errors.Is(err, ledger.ErrInvalidTransition):
			h.logger.Warn("PATCH /bookings/{id}/extend - Cannot extend: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgCannotExtend)

		default:
			h.logger.Error("PATCH /bookings/{id}/extend - Failed to extend booking: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/extend - Booking extended: booking_id=%s, end_time=%s, total_cost=%.2f",
		bookingID, booking.EndTime.Format(time.RFC3339), booking.TotalCost)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainBooking(booking))
}
