package favorites

import (
	"context"

	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

type FavoriteService interface {
	ListFavorites(ctx context.Context, userID string) (*models.FavoritesResponse, error)
	AddFavorite(ctx context.Context, userID, areaID string) error
	RemoveFavorite(ctx context.Context, userID, areaID string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
