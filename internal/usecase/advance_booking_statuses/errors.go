package advance_booking_statuses

import "errors"

var (
	// ErrListBookings возвращается, когда не удалось получить пачку бронирований
	ErrListBookings = errors.New("advance_booking_statuses: failed to list bookings")

	// ErrInvalidSchedule возвращается при некорректном cron выражении
	ErrInvalidSchedule = errors.New("advance_booking_statuses: invalid schedule")
)
