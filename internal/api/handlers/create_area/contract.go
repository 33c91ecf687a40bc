package create_area

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

type AreaService interface {
	CreateArea(ctx context.Context, req *models.CreateAreaRequest) (*models.AreaResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
