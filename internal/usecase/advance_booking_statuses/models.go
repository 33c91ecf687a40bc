package advance_booking_statuses

import "time"

// Config параметры задачи
type Config struct {
	BatchSize   int           // размер пачки за один запуск
	GracePeriod time.Duration // сколько ACTIVE бронирование может превышать endTime до EXPIRED
	RunTimeout  time.Duration // ограничение одного запуска по расписанию
}

// Result итог одного запуска
type Result struct {
	Activated int
	Expired   int
	Skipped   int // статус уже изменился параллельно
	Failed    int
}
