package area

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/psqlbuilder"
)

var columns = []string{
	"id",
	"name",
	"address",
	"latitude",
	"longitude",
	"total_spots",
	"available_spots",
	"image_url",
	"hourly_rate",
	"operating_hours",
	"amenities",
	"has_covered_parking",
	"has_disabled_access",
	"has_electric_charging",
	"rating",
	"number_of_ratings",
	"last_updated",
}

// distanceExpr квадрат расстояния в градусах, аргументы: latitude, longitude
const distanceExpr = "((latitude - ?) * (latitude - ?) + (longitude - ?) * (longitude - ?))"

// clampedAvailable новое значение счетчика в пределах 0..total_spots
const clampedAvailable = "GREATEST(0, LEAST(total_spots, %s))"

// likeEscaper экранирует спецсимволы шаблона LIKE в пользовательском тексте
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Repository репозиторий парковок
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория парковок
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет парковку
func (r *Repository) Create(ctx context.Context, a *domain.ParkingArea) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("parking_areas").
		Columns(
			"id",
			"name",
			"address",
			"latitude",
			"longitude",
			"total_spots",
			"available_spots",
			"image_url",
			"hourly_rate",
			"operating_hours",
			"amenities",
			"has_covered_parking",
			"has_disabled_access",
			"has_electric_charging",
		).
		Values(
			a.ID,
			a.Name,
			a.Address,
			a.Latitude,
			a.Longitude,
			a.TotalSpots,
			a.AvailableSpots,
			a.ImageURL,
			a.HourlyRate,
			a.OperatingHours,
			pq.Array(a.Amenities),
			a.HasCoveredParking,
			a.HasDisabledAccess,
			a.HasElectricCharging,
		).
		Suffix("RETURNING last_updated").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&a.LastUpdated); err != nil {
		return fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetByID получает парковку по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.ParkingArea, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From("parking_areas").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanArea(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAreaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan area: %v", ErrScanRow, err)
	}

	return a, nil
}

// Nearby ищет парковки в пределах радиуса (сравнение квадратов расстояний в градусах)
// При заданных ограничениях возвращаются только парковки со свободными местами
func (r *Repository) Nearby(ctx context.Context, filter domain.NearbyFilter) ([]*domain.ParkingArea, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	lat, lng := filter.Latitude, filter.Longitude

	selectBuilder := psqlbuilder.Select(columns...).
		From("parking_areas").
		Where(squirrel.Expr(distanceExpr+" <= ?", lat, lat, lng, lng, filter.RadiusSquared()))

	if filter.HasConstraints() {
		selectBuilder = selectBuilder.Where(squirrel.Gt{"available_spots": 0})
	}
	if filter.MaxHourlyRate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"hourly_rate": *filter.MaxHourlyRate})
	}
	if filter.NeedsEV {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"has_electric_charging": true})
	}
	if filter.NeedsDisabled {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"has_disabled_access": true})
	}

	query, args, err := selectBuilder.
		OrderByClause(distanceExpr+" ASC", lat, lat, lng, lng).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Nearby - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "Nearby", query, args)
}

// AdjustAvailableSpots изменяет счетчик свободных мест на delta с ограничением 0..total_spots
// Возвращает новое значение счетчика
func (r *Repository) AdjustAvailableSpots(ctx context.Context, id string, delta int) (int, error) {
	return r.updateAvailable(ctx, "AdjustAvailableSpots", id,
		squirrel.Expr(fmt.Sprintf(clampedAvailable, "available_spots + ?"), delta))
}

// SetAvailableSpots записывает пересчитанное значение счетчика (с ограничением 0..total_spots)
func (r *Repository) SetAvailableSpots(ctx context.Context, id string, available int) (int, error) {
	return r.updateAvailable(ctx, "SetAvailableSpots", id,
		squirrel.Expr(fmt.Sprintf(clampedAvailable, "?::integer"), available))
}

// AdjustCounters меняет число мест и счетчик свободных при добавлении или удалении места
// Оба значения ограничиваются: total_spots >= 0, available_spots в пределах 0..новый total_spots
func (r *Repository) AdjustCounters(ctx context.Context, id string, totalDelta, availableDelta int) (total, available int, err error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("parking_areas").
		Set("total_spots", squirrel.Expr("GREATEST(0, total_spots + ?)", totalDelta)).
		Set("available_spots", squirrel.Expr(
			"GREATEST(0, LEAST(GREATEST(0, total_spots + ?), available_spots + ?))", totalDelta, availableDelta)).
		Set("last_updated", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING total_spots, available_spots").
		ToSql()

	if err != nil {
		return 0, 0, fmt.Errorf("%w: AdjustCounters - build update query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&total, &available)
	if err == sql.ErrNoRows {
		return 0, 0, ErrAreaNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("%w: AdjustCounters - execute update: %v", ErrExecQuery, err)
	}

	return total, available, nil
}

// Search ищет парковки по подстроке в названии или адресе без учета регистра
func (r *Repository) Search(ctx context.Context, text string, limit int) ([]*domain.ParkingArea, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	pattern := "%" + likeEscaper.Replace(text) + "%"

	query, args, err := psqlbuilder.Select(columns...).
		From("parking_areas").
		Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"address": pattern},
		}).
		OrderBy("name ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Search - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "Search", query, args)
}

// Update применяет патч и возвращает парковку после изменения
func (r *Repository) Update(ctx context.Context, id string, patch domain.AreaPatch) (*domain.ParkingArea, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("parking_areas").
		Set("last_updated", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if patch.Name != nil {
		updateBuilder = updateBuilder.Set("name", *patch.Name)
	}
	if patch.Address != nil {
		updateBuilder = updateBuilder.Set("address", *patch.Address)
	}
	if patch.Latitude != nil {
		updateBuilder = updateBuilder.Set("latitude", *patch.Latitude)
	}
	if patch.Longitude != nil {
		updateBuilder = updateBuilder.Set("longitude", *patch.Longitude)
	}
	if patch.ImageURL != nil {
		updateBuilder = updateBuilder.Set("image_url", *patch.ImageURL)
	}
	if patch.HourlyRate != nil {
		updateBuilder = updateBuilder.Set("hourly_rate", *patch.HourlyRate)
	}
	if patch.OperatingHours != nil {
		updateBuilder = updateBuilder.Set("operating_hours", *patch.OperatingHours)
	}
	if patch.Amenities != nil {
		updateBuilder = updateBuilder.Set("amenities", pq.Array(*patch.Amenities))
	}
	if patch.HasCoveredParking != nil {
		updateBuilder = updateBuilder.Set("has_covered_parking", *patch.HasCoveredParking)
	}
	if patch.HasDisabledAccess != nil {
		updateBuilder = updateBuilder.Set("has_disabled_access", *patch.HasDisabledAccess)
	}
	if patch.HasElectricCharging != nil {
		updateBuilder = updateBuilder.Set("has_electric_charging", *patch.HasElectricCharging)
	}

	query, args, err := updateBuilder.
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	a, err := scanArea(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAreaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	return a, nil
}

// Rate добавляет оценку к среднему и увеличивает число оценок одним обновлением
func (r *Repository) Rate(ctx context.Context, id string, score float64) (*domain.ParkingArea, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("parking_areas").
		Set("rating", squirrel.Expr("(rating * number_of_ratings + ?) / (number_of_ratings + 1)", score)).
		Set("number_of_ratings", squirrel.Expr("number_of_ratings + 1")).
		Set("last_updated", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Rate - build update query: %v", ErrBuildQuery, err)
	}

	a, err := scanArea(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAreaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Rate - execute update: %v", ErrExecQuery, err)
	}

	return a, nil
}

// Delete удаляет парковку вместе с местами и избранным (ON DELETE CASCADE), если на ней нет занятых мест
// false означает, что парковки нет или на ней есть занятые места
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("parking_areas").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("NOT EXISTS (SELECT 1 FROM parking_spots WHERE parking_area_id = ? AND available = FALSE)", id)).
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

func (r *Repository) updateAvailable(ctx context.Context, op, id string, value squirrel.Sqlizer) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("parking_areas").
		Set("available_spots", value).
		Set("last_updated", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING available_spots").
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	var available int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&available)
	if err == sql.ErrNoRows {
		return 0, ErrAreaNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	return available, nil
}

func (r *Repository) query(ctx context.Context, executor dbmetrics.DBExecutor, op, query string, args []interface{}) ([]*domain.ParkingArea, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	areas := make([]*domain.ParkingArea, 0)
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, op, err)
		}
		areas = append(areas, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return areas, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArea(row rowScanner) (*domain.ParkingArea, error) {
	var (
		a         domain.ParkingArea
		amenities pq.StringArray
	)

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Address,
		&a.Latitude,
		&a.Longitude,
		&a.TotalSpots,
		&a.AvailableSpots,
		&a.ImageURL,
		&a.HourlyRate,
		&a.OperatingHours,
		&amenities,
		&a.HasCoveredParking,
		&a.HasDisabledAccess,
		&a.HasElectricCharging,
		&a.Rating,
		&a.NumberOfRatings,
		&a.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	a.Amenities = []string(amenities)
	return &a, nil
}
