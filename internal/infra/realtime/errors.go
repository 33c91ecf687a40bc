package realtime

import "errors"

var (
	// ErrInvalidPath возвращается при подписке на путь вне parking_spots/
	ErrInvalidPath = errors.New("realtime: invalid subscription path")

	// ErrFeedReconnected передается подписчикам, когда соединение LISTEN было восстановлено
	// Часть уведомлений могла быть потеряна, подписчику стоит перечитать состояние
	ErrFeedReconnected = errors.New("realtime: feed connection re-established, events may have been lost")

	// ErrFeedClosed передается подписчикам при остановке ленты
	ErrFeedClosed = errors.New("realtime: feed closed")

	// ErrPublish возвращается при ошибке отправки уведомления
	ErrPublish = errors.New("realtime: failed to publish event")
)
