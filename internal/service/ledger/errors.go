package ledger

import "errors"

var (
	// ErrInvalidInput возвращается при невалидных входных данных
	ErrInvalidInput = errors.New("ledger.service: invalid input")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("ledger.service: booking not found")

	// ErrAreaNotFound возвращается, когда парковка не найдена
	ErrAreaNotFound = errors.New("ledger.service: parking area not found")

	// ErrSpotNotFound возвращается, когда место не найдено или не принадлежит парковке
	ErrSpotNotFound = errors.New("ledger.service: parking spot not found")

	// ErrSpotNotAvailable возвращается, когда место уже занято
	ErrSpotNotAvailable = errors.New("ledger.service: parking spot not available")

	// ErrUserNotFound возвращается, когда профиль пользователя не существует
	ErrUserNotFound = errors.New("ledger.service: user not found")

	// ErrAccessDenied возвращается при попытке изменить чужое бронирование
	ErrAccessDenied = errors.New("ledger.service: access denied")

	// ErrCannotCancel возвращается, когда бронирование нельзя отменить
	ErrCannotCancel = errors.New("ledger.service: booking cannot be cancelled")

	// ErrCannotExtend возвращается, когда бронирование нельзя продлить
	ErrCannotExtend = errors.New("ledger.service: booking cannot be extended")

	// ErrInvalidTransition возвращается при недопустимой смене статуса
	ErrInvalidTransition = errors.New("ledger.service: invalid status transition")

	// ErrInternal возвращается при внутренних ошибках
	ErrInternal = errors.New("ledger.service: internal error")
)
