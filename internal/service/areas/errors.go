package areas

import "errors"

var (
	// ErrAreaNotFound возвращается, когда парковка не найдена
	ErrAreaNotFound = errors.New("areas.service: parking area not found")

	// ErrSpotNotFound возвращается, когда места нет на этой парковке
	ErrSpotNotFound = errors.New("areas.service: spot not found")

	// ErrSpotNumberTaken возвращается, когда номер места уже занят на парковке
	ErrSpotNumberTaken = errors.New("areas.service: spot number already taken")

	// ErrSpotInUse возвращается при удалении места, занятого бронированием
	ErrSpotInUse = errors.New("areas.service: spot is occupied")

	// ErrAreaInUse возвращается при удалении парковки с занятыми местами
	ErrAreaInUse = errors.New("areas.service: parking area has occupied spots")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("areas.service: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("areas.service: internal error")
)
