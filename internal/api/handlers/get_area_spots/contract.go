package get_area_spots

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

type AreaService interface {
	GetSpots(ctx context.Context, areaID string) (*models.SpotListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
