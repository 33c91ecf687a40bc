package users

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// UserRepository интерфейс репозитория профилей
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}

// BookingRepository бронирования, удаляемые вместе с профилем
type BookingRepository interface {
	DeleteTerminalByUser(ctx context.Context, userID string) (int64, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// FavoriteRepository избранные парковки
type FavoriteRepository interface {
	ListByUser(ctx context.Context, userID string) ([]string, error)
}

// UserCache локальная реплика профилей
type UserCache interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	SaveUser(u *domain.User)
	PurgeUser(ctx context.Context, userID string) error
}

// Metrics учет чтений из реплики
type Metrics interface {
	CacheFallback(entity string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
