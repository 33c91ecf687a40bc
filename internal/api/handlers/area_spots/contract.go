package area_spots

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

type SpotService interface {
	AddSpot(ctx context.Context, areaID string, req *models.CreateSpotRequest) (*models.SpotResponse, error)
	UpdateSpot(ctx context.Context, areaID, spotID string, req *models.UpdateSpotRequest) (*models.SpotResponse, error)
	DeleteSpot(ctx context.Context, areaID, spotID string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
