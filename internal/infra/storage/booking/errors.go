package booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("booking.repository: booking not found")

	// ErrSpotAlreadyBooked возвращается, когда на место уже есть незавершенное бронирование
	ErrSpotAlreadyBooked = errors.New("booking.repository: spot already has a live booking")

	// ErrUnknownUser возвращается, когда профиль пользователя не существует (foreign key)
	ErrUnknownUser = errors.New("booking.repository: unknown user")

	// ErrStatusChanged возвращается, когда статус бронирования изменился с момента чтения
	ErrStatusChanged = errors.New("booking.repository: booking status changed concurrently")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("booking.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("booking.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("booking.repository: failed to scan row")
)
