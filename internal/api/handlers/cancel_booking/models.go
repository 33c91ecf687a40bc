package cancel_booking

import "github.com/m04kA/SMC-ParkingService/internal/service/ledger"

// CancelBookingRequest HTTP request model, тело необязательно
// Если переданы парковка и место, они должны совпадать с бронированием
type CancelBookingRequest struct {
	ParkingAreaID string `json:"parkingAreaId,omitempty"`
	ParkingSpotID string `json:"parkingSpotId,omitempty"`
}

// ToLedgerRequest конвертирует HTTP запрос в запрос леджера
func (r *CancelBookingRequest) ToLedgerRequest(bookingID, userID string) *ledger.CancelBookingRequest {
	return &ledger.CancelBookingRequest{
		BookingID:     bookingID,
		UserID:        userID,
		ParkingAreaID: r.ParkingAreaID,
		ParkingSpotID: r.ParkingSpotID,
	}
}
