package users

import "errors"

var (
	// ErrUserNotFound возвращается, когда профиль не найден
	ErrUserNotFound = errors.New("users.service: user not found")

	// ErrUserExists возвращается при повторном создании профиля
	ErrUserExists = errors.New("users.service: user already exists")

	// ErrUserHasLiveBookings возвращается при удалении профиля с незавершенными бронированиями
	ErrUserHasLiveBookings = errors.New("users.service: user has live bookings")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("users.service: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("users.service: internal error")
)
