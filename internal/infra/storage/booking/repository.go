package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

// Коды ошибок PostgreSQL
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var columns = []string{
	"id",
	"user_id",
	"parking_area_id",
	"parking_area_name",
	"parking_spot_id",
	"spot_number",
	"start_time",
	"end_time",
	"total_cost",
	"payment_method",
	"payment_id",
	"is_paid",
	"status",
	"vehicle_number",
	"confirmation_code",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новое бронирование
// ID и код подтверждения генерирует вызывающий код
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"id",
			"user_id",
			"parking_area_id",
			"parking_area_name",
			"parking_spot_id",
			"spot_number",
			"start_time",
			"end_time",
			"total_cost",
			"payment_method",
			"payment_id",
			"is_paid",
			"status",
			"vehicle_number",
			"confirmation_code",
		).
		Values(
			booking.ID,
			booking.UserID,
			booking.ParkingAreaID,
			booking.ParkingAreaName,
			booking.ParkingSpotID,
			booking.SpotNumber,
			booking.StartTime,
			booking.EndTime,
			booking.TotalCost,
			booking.PaymentMethod,
			booking.PaymentID,
			booking.IsPaid,
			booking.Status,
			booking.VehicleNumber,
			booking.ConfirmationCode,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: Create - spot %s", ErrSpotAlreadyBooked, booking.ParkingSpotID)
		case foreignKeyViolation:
			return fmt.Errorf("%w: Create - user %s", ErrUnknownUser, booking.UserID)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate получает бронирование и блокирует строку до конца транзакции
// Вне транзакции работает как GetByID
func (r *Repository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return r.getByID(ctx, id, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getByID(ctx context.Context, id string, forUpdate bool) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetByUser получает бронирования пользователя с фильтрацией по статусу и окну времени
//
// Окна:
//   - upcoming: start_time >= now, ближайшие первыми
//   - current:  start_time <= now <= end_time
//   - past:     end_time < now, последние первыми
func (r *Repository) GetByUser(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("bookings").
		Where(squirrel.Eq{"user_id": filter.UserID})

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}

	switch filter.Window {
	case domain.WindowUpcoming:
		selectBuilder = selectBuilder.
			Where(squirrel.GtOrEq{"start_time": filter.Now}).
			OrderBy("start_time ASC")
	case domain.WindowCurrent:
		selectBuilder = selectBuilder.
			Where(squirrel.LtOrEq{"start_time": filter.Now}).
			Where(squirrel.GtOrEq{"end_time": filter.Now}).
			OrderBy("start_time ASC")
	case domain.WindowPast:
		selectBuilder = selectBuilder.
			Where(squirrel.Lt{"end_time": filter.Now}).
			OrderBy("start_time DESC")
	default:
		selectBuilder = selectBuilder.OrderBy("start_time DESC")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUser - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUser - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListDueForActivation бронирования PENDING/CONFIRMED, время начала которых наступило
func (r *Repository) ListDueForActivation(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("bookings").
		Where(squirrel.Eq{"status": []string{string(domain.StatusPending), string(domain.StatusConfirmed)}}).
		Where(squirrel.LtOrEq{"start_time": now}).
		OrderBy("start_time ASC").
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListDueForActivation - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListDueForActivation - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListOverdueActive бронирования ACTIVE, закончившиеся не позже cutoff
func (r *Repository) ListOverdueActive(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusActive}).
		Where(squirrel.LtOrEq{"end_time": cutoff}).
		OrderBy("end_time ASC").
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdueActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdueActive - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatus переводит бронирование в статус to, только если текущий статус входит в from
// Если строка не изменилась, различаем отсутствие бронирования и гонку по статусу
func (r *Repository) UpdateStatus(ctx context.Context, id string, from []domain.BookingStatus, to domain.BookingStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	fromStrings := make([]string, len(from))
	for i, s := range from {
		fromStrings[i] = string(s)
	}

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": fromStrings}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: UpdateStatus - booking %s is not in %v", ErrStatusChanged, id, from)
	}

	return nil
}

// UpdateEndTime сохраняет новое время окончания и стоимость
func (r *Repository) UpdateEndTime(ctx context.Context, id string, endTime time.Time, totalCost float64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("end_time", endTime).
		Set("total_cost", totalCost).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateEndTime - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateEndTime - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateEndTime - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ParkingAreaID,
		&booking.ParkingAreaName,
		&booking.ParkingSpotID,
		&booking.SpotNumber,
		&booking.StartTime,
		&booking.EndTime,
		&booking.TotalCost,
		&booking.PaymentMethod,
		&booking.PaymentID,
		&booking.IsPaid,
		&booking.Status,
		&booking.VehicleNumber,
		&booking.ConfirmationCode,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// DeleteTerminalByUser удаляет завершенные бронирования пользователя
// Незавершенные остаются и удерживают внешний ключ на профиль
func (r *Repository) DeleteTerminalByUser(ctx context.Context, userID string) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	live := make([]string, len(domain.NonTerminalStatuses))
	for i, s := range domain.NonTerminalStatuses {
		live[i] = string(s)
	}

	query, args, err := psqlbuilder.Delete("bookings").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.NotEq{"status": live}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: DeleteTerminalByUser - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteTerminalByUser - execute delete: %v", ErrExecQuery, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteTerminalByUser - get rows affected: %v", ErrExecQuery, err)
	}

	return deleted, nil
}
