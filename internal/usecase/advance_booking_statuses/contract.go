package advance_booking_statuses

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ListDueForActivation(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error)
	ListOverdueActive(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error)
}

// Ledger переходы статусов, затрагивающие места и счетчики
type Ledger interface {
	ActivateBooking(ctx context.Context, bookingID string, asOf time.Time) (*domain.Booking, error)
	ExpireBooking(ctx context.Context, bookingID string, cutoff time.Time) (*domain.Booking, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
