package spot

import "errors"

var (
	// ErrSpotNotFound возвращается, когда место не найдено
	ErrSpotNotFound = errors.New("spot.repository: spot not found")

	// ErrSpotNotAvailable возвращается, когда место уже занято
	ErrSpotNotAvailable = errors.New("spot.repository: spot not available")

	// ErrSpotNumberTaken возвращается, когда номер места уже есть на этой парковке
	ErrSpotNumberTaken = errors.New("spot.repository: spot number already taken")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("spot.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("spot.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("spot.repository: failed to scan row")
)
