package complete_booking

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

type Ledger interface {
	CompleteBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
