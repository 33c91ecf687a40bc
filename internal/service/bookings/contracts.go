package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByUser(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
}

// BookingCache локальная реплика бронирований
type BookingCache interface {
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListUserBookings(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)
	SaveBookings(bookings ...*domain.Booking)
	ReplaceUserBookings(userID string, bookings []*domain.Booking, asOf time.Time)
}

// Metrics учет чтений из реплики
type Metrics interface {
	CacheFallback(entity string)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальный провайдер времени
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
