package ledger

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// validateCreateRequest валидирует запрос на бронирование
func validateCreateRequest(req *CreateBookingRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	if req.ParkingAreaID == "" {
		return fmt.Errorf("%w: parkingAreaID is required", ErrInvalidInput)
	}

	if req.ParkingSpotID == "" {
		return fmt.Errorf("%w: parkingSpotID is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}

	vehicle := strings.TrimSpace(req.VehicleNumber)
	if vehicle == "" {
		return fmt.Errorf("%w: vehicleNumber is required", ErrInvalidInput)
	}
	if len(vehicle) > domain.MaxVehicleNumberLength {
		return fmt.Errorf("%w: vehicleNumber is longer than %d", ErrInvalidInput, domain.MaxVehicleNumberLength)
	}

	if req.PaymentMethod != nil && !domain.IsValidPaymentMethod(*req.PaymentMethod) {
		return fmt.Errorf("%w: unknown paymentMethod %q", ErrInvalidInput, *req.PaymentMethod)
	}

	return nil
}

func validateCancelRequest(req *CancelBookingRequest) error {
	if req.BookingID == "" {
		return fmt.Errorf("%w: bookingID is required", ErrInvalidInput)
	}
	if req.UserID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}
	return nil
}

func validateExtendRequest(req *ExtendBookingRequest) error {
	if req.BookingID == "" {
		return fmt.Errorf("%w: bookingID is required", ErrInvalidInput)
	}
	if req.UserID == "" {
		return fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}
	if req.NewEndTime.IsZero() {
		return fmt.Errorf("%w: newEndTime is required", ErrInvalidInput)
	}
	return nil
}

// matchesLocation проверяет опциональные areaID/spotID из запроса на отмену
func matchesLocation(b *domain.Booking, areaID, spotID string) bool {
	if areaID != "" && areaID != b.ParkingAreaID {
		return false
	}
	if spotID != "" && spotID != b.ParkingSpotID {
		return false
	}
	return true
}
