package get_nearby_areas

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

type AreaService interface {
	GetNearby(ctx context.Context, req *models.NearbyRequest) (*models.AreaListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
