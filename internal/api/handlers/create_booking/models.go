package create_booking

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/service/ledger"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ParkingAreaID string  `json:"parkingAreaId"`
	ParkingSpotID string  `json:"parkingSpotId"`
	StartTime     string  `json:"startTime"` // RFC3339
	EndTime       string  `json:"endTime"`   // RFC3339
	VehicleNumber string  `json:"vehicleNumber"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
}

// ToLedgerRequest конвертирует HTTP запрос в запрос леджера (с парсингом времени)
func (r *CreateBookingRequest) ToLedgerRequest(userID string) (*ledger.CreateBookingRequest, error) {
	start, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse(time.RFC3339, r.EndTime)
	if err != nil {
		return nil, err
	}

	return &ledger.CreateBookingRequest{
		UserID:        userID,
		ParkingAreaID: r.ParkingAreaID,
		ParkingSpotID: r.ParkingSpotID,
		StartTime:     start,
		EndTime:       end,
		VehicleNumber: r.VehicleNumber,
		PaymentMethod: r.PaymentMethod,
	}, nil
}
