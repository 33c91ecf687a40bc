package areas

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// AreaRepository интерфейс репозитория парковок
type AreaRepository interface {
	Create(ctx context.Context, a *domain.ParkingArea) error
	GetByID(ctx context.Context, id string) (*domain.ParkingArea, error)
	Nearby(ctx context.Context, filter domain.NearbyFilter) ([]*domain.ParkingArea, error)
	Search(ctx context.Context, text string, limit int) ([]*domain.ParkingArea, error)
	SetAvailableSpots(ctx context.Context, id string, available int) (int, error)
	AdjustCounters(ctx context.Context, id string, totalDelta, availableDelta int) (total, available int, err error)
	Update(ctx context.Context, id string, patch domain.AreaPatch) (*domain.ParkingArea, error)
	Rate(ctx context.Context, id string, score float64) (*domain.ParkingArea, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// SpotRepository интерфейс репозитория мест
type SpotRepository interface {
	CreateBatch(ctx context.Context, spots []*domain.ParkingSpot) error
	GetByID(ctx context.Context, id string) (*domain.ParkingSpot, error)
	ListByArea(ctx context.Context, areaID string) ([]*domain.ParkingSpot, error)
	ListByAreaForUpdate(ctx context.Context, areaID string) ([]*domain.ParkingSpot, error)
	Update(ctx context.Context, areaID, id string, patch domain.SpotPatch) (*domain.ParkingSpot, error)
	Delete(ctx context.Context, areaID, id string) (bool, error)
}

// FavoriteRepository интерфейс репозитория избранного
type FavoriteRepository interface {
	Add(ctx context.Context, userID, areaID string) error
	Remove(ctx context.Context, userID, areaID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]string, error)
}

// AreaCache локальная реплика парковок и мест
type AreaCache interface {
	GetArea(ctx context.Context, id string) (*domain.ParkingArea, error)
	NearbyAreas(ctx context.Context, filter domain.NearbyFilter) ([]*domain.ParkingArea, error)
	SearchAreas(ctx context.Context, text string, limit int) ([]*domain.ParkingArea, error)
	ListSpots(ctx context.Context, areaID string) ([]*domain.ParkingSpot, error)
	SaveAreas(areas ...*domain.ParkingArea)
	SaveSpots(spots ...*domain.ParkingSpot)
	DeleteArea(ctx context.Context, areaID string) error
	DeleteSpot(ctx context.Context, spotID string) error
}

// EventPublisher публикует изменения доступности мест в живую ленту
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SpotEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
