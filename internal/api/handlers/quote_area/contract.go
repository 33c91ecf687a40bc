package quote_area

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

type AreaService interface {
	Quote(ctx context.Context, areaID string, start, end time.Time) (*models.QuoteResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
