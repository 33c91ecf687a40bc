package spot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

const uniqueViolation = "23505"

var columns = []string{
	"id",
	"parking_area_id",
	"spot_number",
	"floor",
	"section",
	"available",
	"is_reserved",
	"is_handicapped",
	"is_electric_charging",
	"position_x",
	"position_y",
	"type",
	"last_updated",
}

// Repository репозиторий мест на парковках
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория мест
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateBatch сохраняет набор мест одним запросом
func (r *Repository) CreateBatch(ctx context.Context, spots []*domain.ParkingSpot) error {
	if len(spots) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := psqlbuilder.Insert("parking_spots").
		Columns(
			"id",
			"parking_area_id",
			"spot_number",
			"floor",
			"section",
			"available",
			"is_reserved",
			"is_handicapped",
			"is_electric_charging",
			"position_x",
			"position_y",
			"type",
		)

	for _, s := range spots {
		insertBuilder = insertBuilder.Values(
			s.ID,
			s.ParkingAreaID,
			s.SpotNumber,
			s.Floor,
			s.Section,
			s.Available,
			s.Reserved,
			s.Handicapped,
			s.ElectricCharging,
			s.PositionX,
			s.PositionY,
			s.Type,
		)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: CreateBatch - build insert query: %v", ErrBuildQuery, err)
	}

	_, err = executor.ExecContext(ctx, query, args...)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: CreateBatch - %s", ErrSpotNumberTaken, pqErr.Detail)
	}
	if err != nil {
		return fmt.Errorf("%w: CreateBatch - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetByID получает место по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.ParkingSpot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("parking_spots").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	s, err := scanSpot(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSpotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan spot: %v", ErrScanRow, err)
	}

	return s, nil
}

// ListByArea получает все места парковки
func (r *Repository) ListByArea(ctx context.Context, areaID string) ([]*domain.ParkingSpot, error) {
	return r.listByArea(ctx, "ListByArea", areaID, false)
}

// ListByAreaForUpdate получает места парковки и блокирует их строки до конца транзакции
// Занятие места (Reserve) ждет снятия блокировки
func (r *Repository) ListByAreaForUpdate(ctx context.Context, areaID string) ([]*domain.ParkingSpot, error) {
	return r.listByArea(ctx, "ListByAreaForUpdate", areaID, true)
}

func (r *Repository) listByArea(ctx context.Context, op, areaID string, forUpdate bool) ([]*domain.ParkingSpot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From("parking_spots").
		Where(squirrel.Eq{"parking_area_id": areaID}).
		OrderBy("floor ASC", "section ASC", "spot_number ASC")

	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	spots := make([]*domain.ParkingSpot, 0)
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, op, err)
		}
		spots = append(spots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return spots, nil
}

// Update применяет патч к месту парковки areaID и возвращает место после изменения
func (r *Repository) Update(ctx context.Context, areaID, id string, patch domain.SpotPatch) (*domain.ParkingSpot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("parking_spots").
		Set("last_updated", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "parking_area_id": areaID})

	if patch.SpotNumber != nil {
		updateBuilder = updateBuilder.Set("spot_number", *patch.SpotNumber)
	}
	if patch.Floor != nil {
		updateBuilder = updateBuilder.Set("floor", *patch.Floor)
	}
	if patch.Section != nil {
		updateBuilder = updateBuilder.Set("section", *patch.Section)
	}
	if patch.Reserved != nil {
		updateBuilder = updateBuilder.Set("is_reserved", *patch.Reserved)
	}
	if patch.Handicapped != nil {
		updateBuilder = updateBuilder.Set("is_handicapped", *patch.Handicapped)
	}
	if patch.ElectricCharging != nil {
		updateBuilder = updateBuilder.Set("is_electric_charging", *patch.ElectricCharging)
	}
	if patch.PositionX != nil {
		updateBuilder = updateBuilder.Set("position_x", *patch.PositionX)
	}
	if patch.PositionY != nil {
		updateBuilder = updateBuilder.Set("position_y", *patch.PositionY)
	}
	if patch.Type != nil {
		updateBuilder = updateBuilder.Set("type", *patch.Type)
	}

	query, args, err := updateBuilder.
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	s, err := scanSpot(executor.QueryRowContext(ctx, query, args...))

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return nil, fmt.Errorf("%w: Update - spot %s", ErrSpotNumberTaken, id)
	}
	if err == sql.ErrNoRows {
		return nil, ErrSpotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	return s, nil
}

// Delete удаляет свободное место парковки areaID
// false означает, что места нет или оно занято
func (r *Repository) Delete(ctx context.Context, areaID, id string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("parking_spots").
		Where(squirrel.Eq{"id": id, "parking_area_id": areaID, "available": true}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

// Reserve занимает место условным обновлением available: true -> false
// Ноль измененных строк означает, что место уже занято (или удалено)
func (r *Repository) Reserve(ctx context.Context, id string) error {
	changed, err := r.setAvailable(ctx, "Reserve", id, true, false)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("%w: Reserve - spot %s", ErrSpotNotAvailable, id)
	}
	return nil
}

// Release освобождает место условным обновлением available: false -> true
// Возвращает false, если место уже было свободно
func (r *Repository) Release(ctx context.Context, id string) (bool, error) {
	return r.setAvailable(ctx, "Release", id, false, true)
}

func (r *Repository) setAvailable(ctx context.Context, op, id string, from, to bool) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("parking_spots").
		Set("available", to).
		Set("last_updated", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"available": from}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	return rowsAffected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSpot(row rowScanner) (*domain.ParkingSpot, error) {
	var s domain.ParkingSpot

	err := row.Scan(
		&s.ID,
		&s.ParkingAreaID,
		&s.SpotNumber,
		&s.Floor,
		&s.Section,
		&s.Available,
		&s.Reserved,
		&s.Handicapped,
		&s.ElectricCharging,
		&s.PositionX,
		&s.PositionY,
		&s.Type,
		&s.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	return &s, nil
}
