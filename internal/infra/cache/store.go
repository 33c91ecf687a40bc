package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

var (
	// ErrNotCached возвращается, когда записи нет в локальной реплике
	ErrNotCached = errors.New("cache: entry not cached")

	// ErrCache возвращается при ошибке работы с локальной репликой
	ErrCache = errors.New("cache: local replica error")

	// ErrUnsupportedDriver возвращается при неизвестном драйвере
	ErrUnsupportedDriver = errors.New("cache: unsupported driver")
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Pool пул воркеров, на котором выполняются все обращения к реплике
type Pool interface {
	Submit(fn func(ctx context.Context)) bool
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Open открывает локальную реплику: sqlite (встроенная, по умолчанию) или mysql
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: Open - %s: %v", ErrCache, driver, err)
	}

	if driver == "sqlite" {
		// sqlite не любит параллельных писателей
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%w: Open - get sql.DB: %v", ErrCache, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Store локальная реплика бронирований, парковок, мест и профилей
// Записи отправляются в пул без ожидания, чтения ждут свободного воркера
// Ошибки записи логируются и не возвращаются: реплика работает по принципу best-effort
// Воркеры выполняют записи в произвольном порядке, поэтому запись не заменяет более свежую версию строки
// (updated_at у бронирований и профилей, last_updated у парковок и мест)
type Store struct {
	db     *gorm.DB
	pool   Pool
	logger Logger
}

// New создает хранилище и мигрирует схему
func New(db *gorm.DB, pool Pool, logger Logger) (*Store, error) {
	if err := db.AutoMigrate(&bookingEntity{}, &areaEntity{}, &spotEntity{}, &userEntity{}); err != nil {
		return nil, fmt.Errorf("%w: New - auto migrate: %v", ErrCache, err)
	}

	return &Store{db: db, pool: pool, logger: logger}, nil
}

// SaveBookings обновляет бронирования в реплике
func (s *Store) SaveBookings(bookings ...*domain.Booking) {
	if len(bookings) == 0 {
		return
	}

	entities := make([]bookingEntity, len(bookings))
	for i, b := range bookings {
		entities[i] = newBookingEntity(b)
	}

	s.submit("SaveBookings", func(ctx context.Context) error {
		return upsertNewer(s.db.WithContext(ctx), columnUpdatedAt, entities)
	})
}

// ReplaceUserBookings заменяет закэшированные бронирования пользователя полным списком, прочитанным в момент asOf
// Строки, которых нет в списке, удаляются, только если они не менялись после asOf:
// запись, сделанная после начала чтения, свежее списка
func (s *Store) ReplaceUserBookings(userID string, bookings []*domain.Booking, asOf time.Time) {
	entities := make([]bookingEntity, len(bookings))
	ids := make([]string, len(bookings))
	for i, b := range bookings {
		entities[i] = newBookingEntity(b)
		ids[i] = b.ID
	}

	s.submit("ReplaceUserBookings", func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			q := tx.Where("user_id = ? AND updated_at <= ?", userID, asOf.UTC())
			if len(ids) > 0 {
				q = q.Where("id NOT IN ?", ids)
			}
			if err := q.Delete(&bookingEntity{}).Error; err != nil {
				return err
			}
			return upsertNewer(tx, columnUpdatedAt, entities)
		})
	})
}

// GetBooking читает бронирование из реплики
func (s *Store) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	var e bookingEntity
	if err := s.read(ctx, "GetBooking", func(db *gorm.DB) error {
		return db.Where("id = ?", id).Take(&e).Error
	}); err != nil {
		return nil, err
	}
	return e.toDomain(), nil
}

// ListUserBookings бронирования пользователя с фильтром по статусу и окну времени
// Окна применяются в памяти: так сравнение времени не зависит от драйвера реплики
func (s *Store) ListUserBookings(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	var entities []bookingEntity
	if err := s.read(ctx, "ListUserBookings", func(db *gorm.DB) error {
		q := db.Where("user_id = ?", filter.UserID)
		if filter.Status != nil {
			q = q.Where("status = ?", string(*filter.Status))
		}
		return q.Find(&entities).Error
	}); err != nil {
		return nil, err
	}

	now := filter.Now
	bookings := make([]*domain.Booking, 0, len(entities))
	for i := range entities {
		b := entities[i].toDomain()
		if inWindow(b, filter.Window, now) {
			bookings = append(bookings, b)
		}
	}

	sortBookings(bookings, filter.Window)
	return bookings, nil
}

// SaveAreas обновляет парковки в реплике
func (s *Store) SaveAreas(areas ...*domain.ParkingArea) {
	if len(areas) == 0 {
		return
	}

	entities := make([]areaEntity, len(areas))
	for i, a := range areas {
		entities[i] = newAreaEntity(a)
	}

	s.submit("SaveAreas", func(ctx context.Context) error {
		return upsertNewer(s.db.WithContext(ctx), columnLastUpdated, entities)
	})
}

// GetArea читает парковку из реплики
func (s *Store) GetArea(ctx context.Context, id string) (*domain.ParkingArea, error) {
	var e areaEntity
	if err := s.read(ctx, "GetArea", func(db *gorm.DB) error {
		return db.Where("id = ?", id).Take(&e).Error
	}); err != nil {
		return nil, err
	}
	return e.toDomain(), nil
}

// NearbyAreas поиск рядом по квадрату расстояния, ближайшие первыми
func (s *Store) NearbyAreas(ctx context.Context, filter domain.NearbyFilter) ([]*domain.ParkingArea, error) {
	lat, lng := filter.Latitude, filter.Longitude

	var entities []areaEntity
	if err := s.read(ctx, "NearbyAreas", func(db *gorm.DB) error {
		q := db.Where("((latitude - ?) * (latitude - ?) + (longitude - ?) * (longitude - ?)) <= ?",
			lat, lat, lng, lng, filter.RadiusSquared())

		if filter.HasConstraints() {
			q = q.Where("available_spots > ?", 0)
		}
		if filter.MaxHourlyRate != nil {
			q = q.Where("hourly_rate <= ?", *filter.MaxHourlyRate)
		}
		if filter.NeedsEV {
			q = q.Where("has_electric_charging = ?", true)
		}
		if filter.NeedsDisabled {
			q = q.Where("has_disabled_access = ?", true)
		}
		return q.Find(&entities).Error
	}); err != nil {
		return nil, err
	}

	areas := make([]*domain.ParkingArea, len(entities))
	for i := range entities {
		areas[i] = entities[i].toDomain()
	}

	sort.SliceStable(areas, func(i, j int) bool {
		return areas[i].DistanceSquared(lat, lng) < areas[j].DistanceSquared(lat, lng)
	})
	return areas, nil
}

// SearchAreas поиск по подстроке в названии или адресе без учета регистра
// Экранирование через '!': sqlite и mysql по-разному разбирают обратную косую черту в литерале
func (s *Store) SearchAreas(ctx context.Context, text string, limit int) ([]*domain.ParkingArea, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"

	var entities []areaEntity
	if err := s.read(ctx, "SearchAreas", func(db *gorm.DB) error {
		return db.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(address) LIKE ? ESCAPE '!'", pattern, pattern).
			Order("name ASC").Order("id ASC").
			Limit(limit).
			Find(&entities).Error
	}); err != nil {
		return nil, err
	}

	areas := make([]*domain.ParkingArea, len(entities))
	for i := range entities {
		areas[i] = entities[i].toDomain()
	}
	return areas, nil
}

// DeleteArea удаляет парковку и ее места из реплики
func (s *Store) DeleteArea(ctx context.Context, areaID string) error {
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("parking_area_id = ?", areaID).Delete(&spotEntity{}).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", areaID).Delete(&areaEntity{}).Error
		})
	})
	if err != nil {
		return fmt.Errorf("%w: DeleteArea - %s: %v", ErrCache, areaID, err)
	}
	return nil
}

// DeleteSpot удаляет место из реплики
func (s *Store) DeleteSpot(ctx context.Context, spotID string) error {
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Where("id = ?", spotID).Delete(&spotEntity{}).Error
	})
	if err != nil {
		return fmt.Errorf("%w: DeleteSpot - %s: %v", ErrCache, spotID, err)
	}
	return nil
}

// SaveSpots обновляет места в реплике
func (s *Store) SaveSpots(spots ...*domain.ParkingSpot) {
	if len(spots) == 0 {
		return
	}

	entities := make([]spotEntity, len(spots))
	for i, sp := range spots {
		entities[i] = newSpotEntity(sp)
	}

	s.submit("SaveSpots", func(ctx context.Context) error {
		return upsertNewer(s.db.WithContext(ctx), columnLastUpdated, entities)
	})
}

// ListSpots места парковки из реплики
func (s *Store) ListSpots(ctx context.Context, areaID string) ([]*domain.ParkingSpot, error) {
	var entities []spotEntity
	if err := s.read(ctx, "ListSpots", func(db *gorm.DB) error {
		return db.Where("parking_area_id = ?", areaID).
			Order("floor ASC").Order("section ASC").Order("spot_number ASC").
			Find(&entities).Error
	}); err != nil {
		return nil, err
	}

	spots := make([]*domain.ParkingSpot, len(entities))
	for i := range entities {
		spots[i] = entities[i].toDomain()
	}
	return spots, nil
}

// SaveUser обновляет профиль в реплике
func (s *Store) SaveUser(u *domain.User) {
	entities := []userEntity{newUserEntity(u)}
	s.submit("SaveUser", func(ctx context.Context) error {
		return upsertNewer(s.db.WithContext(ctx), columnUpdatedAt, entities)
	})
}

// GetUser читает профиль из реплики
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var e userEntity
	if err := s.read(ctx, "GetUser", func(db *gorm.DB) error {
		return db.Where("id = ?", id).Take(&e).Error
	}); err != nil {
		return nil, err
	}
	return e.toDomain(), nil
}

// PurgeUser удаляет профиль и бронирования пользователя из реплики (выход из аккаунта)
// В отличие от записей выполняется синхронно: вызывающему нужен результат
func (s *Store) PurgeUser(ctx context.Context, userID string) error {
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", userID).Delete(&bookingEntity{}).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", userID).Delete(&userEntity{}).Error
		})
	})
	if err != nil {
		return fmt.Errorf("%w: PurgeUser - %s: %v", ErrCache, userID, err)
	}
	return nil
}

const (
	columnUpdatedAt   = "updated_at"
	columnLastUpdated = "last_updated"
)

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// versioned строка реплики с отметкой времени последнего изменения
type versioned interface {
	version() time.Time
}

// upsertNewer вставляет строку или обновляет существующую, если та не новее
// Условие проверяется в UPDATE, а не в ON CONFLICT: mysql не поддерживает WHERE в ON DUPLICATE KEY UPDATE
func upsertNewer[T versioned](db *gorm.DB, column string, rows []T) error {
	for i := range rows {
		row := &rows[i]

		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			continue
		}

		if err := db.Model(row).Where(column+" <= ?", (*row).version()).Select("*").Updates(row).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) submit(op string, fn func(ctx context.Context) error) {
	s.pool.Submit(func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			s.logger.Warn("cache.%s: write failed: %v", op, err)
		}
	})
}

func (s *Store) read(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		return fn(s.db.WithContext(ctx))
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotCached
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCache, op, err)
	}
	return nil
}

func inWindow(b *domain.Booking, window domain.BookingWindow, now time.Time) bool {
	switch window {
	case domain.WindowUpcoming:
		return !b.StartTime.Before(now)
	case domain.WindowCurrent:
		return !b.StartTime.After(now) && !b.EndTime.Before(now)
	case domain.WindowPast:
		return b.EndTime.Before(now)
	default:
		return true
	}
}

// sortBookings тот же порядок, что и у удаленного хранилища
func sortBookings(bookings []*domain.Booking, window domain.BookingWindow) {
	ascending := window == domain.WindowUpcoming || window == domain.WindowCurrent
	sort.SliceStable(bookings, func(i, j int) bool {
		if ascending {
			return bookings[i].StartTime.Before(bookings[j].StartTime)
		}
		return bookings[i].StartTime.After(bookings[j].StartTime)
	})
}
