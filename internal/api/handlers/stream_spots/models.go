package stream_spots

import (
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

// Типы сообщений ленты
const (
	MessageSnapshot = "snapshot"
	MessageSpot     = "spot"
	MessageError    = "error"
)

// Message кадр ленты; заполнено только поле, соответствующее Type
type Message struct {
	Type     string                   `json:"type"`
	Snapshot *models.SpotListResponse `json:"snapshot,omitempty"`
	Spot     *domain.SpotEvent        `json:"spot,omitempty"`
	Error    string                   `json:"error,omitempty"`
}
