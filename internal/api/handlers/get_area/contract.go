package get_area

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

type AreaService interface {
	GetByID(ctx context.Context, id, userID string) (*models.AreaResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
