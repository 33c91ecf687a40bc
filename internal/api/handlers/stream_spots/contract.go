package stream_spots

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/infra/realtime"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

// Feed подписка на изменения доступности мест (realtime.Hub)
type Feed interface {
	Subscribe(path string, onChange realtime.ChangeFunc, onError realtime.ErrorFunc) (realtime.Handle, error)
	Unsubscribe(handle realtime.Handle) bool
}

// AreaService начальный снимок мест перед потоком изменений
type AreaService interface {
	GetSpots(ctx context.Context, areaID string) (*models.SpotListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
