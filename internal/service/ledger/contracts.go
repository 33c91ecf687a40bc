package ledger

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, from []domain.BookingStatus, to domain.BookingStatus) error
	UpdateEndTime(ctx context.Context, id string, endTime time.Time, totalCost float64) error
}

// SpotRepository интерфейс репозитория парковочных мест
type SpotRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ParkingSpot, error)
	Reserve(ctx context.Context, id string) error
	Release(ctx context.Context, id string) (bool, error)
}

// AreaRepository интерфейс репозитория парковок
type AreaRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ParkingArea, error)
	AdjustAvailableSpots(ctx context.Context, id string, delta int) (int, error)
}

// UserRepository интерфейс репозитория профилей
type UserRepository interface {
	AppendBookingHistory(ctx context.Context, userID, bookingID string) error
}

// EventPublisher публикует изменения доступности мест в живую ленту
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SpotEvent) error
}

// BookingCache локальная реплика бронирований
type BookingCache interface {
	SaveBookings(bookings ...*domain.Booking)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics учет результатов операций
type Metrics interface {
	ObserveLedger(operation, result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider реальный провайдер времени
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
