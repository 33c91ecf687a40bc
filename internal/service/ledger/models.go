package ledger

import "time"

// CreateBookingRequest запрос на бронирование места
type CreateBookingRequest struct {
	UserID        string
	ParkingAreaID string
	ParkingSpotID string
	StartTime     time.Time
	EndTime       time.Time // если не позже StartTime, берется StartTime + 1 час
	VehicleNumber string
	PaymentMethod *string
}

// CancelBookingRequest запрос на отмену
// ParkingAreaID и ParkingSpotID опциональны: если переданы, должны совпадать с бронированием
type CancelBookingRequest struct {
	BookingID     string
	UserID        string
	ParkingAreaID string
	ParkingSpotID string
}

// ExtendBookingRequest запрос на продление
type ExtendBookingRequest struct {
	BookingID  string
	UserID     string
	NewEndTime time.Time
}

// Результаты операций для метрик
const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultFailed   = "failed"
)

// Названия операций для метрик и логов
const (
	opCreate   = "CreateBooking"
	opCancel   = "CancelBooking"
	opExtend   = "ExtendBooking"
	opComplete = "CompleteBooking"
	opActivate = "ActivateBooking"
	opExpire   = "ExpireBooking"
)
