package extend_booking

// ExtendBookingRequest HTTP request model
type ExtendBookingRequest struct {
	NewEndTime string `json:"newEndTime"` // RFC3339
}
