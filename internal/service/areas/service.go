package areas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/cache"
	areaRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/area"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

const (
	cacheEntityArea = "area"
	cacheEntitySpot = "spot"
)

// Service сервис парковок, мест и избранного
type Service struct {
	areaRepo     AreaRepository
	spotRepo     SpotRepository
	favoriteRepo FavoriteRepository
	publisher    EventPublisher
	cache        AreaCache
	txManager    TransactionManager
	metrics      Metrics
	logger       Logger
}

// NewService создает новый экземпляр сервиса парковок
// cache и metrics могут быть nil
func NewService(
	areaRepo AreaRepository,
	spotRepo SpotRepository,
	favoriteRepo FavoriteRepository,
	publisher EventPublisher,
	cache AreaCache,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		areaRepo:     areaRepo,
		spotRepo:     spotRepo,
		favoriteRepo: favoriteRepo,
		publisher:    publisher,
		cache:        cache,
		txManager:    txManager,
		metrics:      metrics,
		logger:       logger,
	}
}

// GetNearby ищет парковки в радиусе от точки, ближайшие первыми
// Если задан хотя бы один фильтр, в выдачу попадают только парковки со свободными местами
func (s *Service) GetNearby(ctx context.Context, req *models.NearbyRequest) (*models.AreaListResponse, error) {
	s.logger.Info("GetNearby: lat=%.5f, lng=%.5f, radius=%.1fkm, user=%s",
		req.Latitude, req.Longitude, req.RadiusKm, req.UserID)

	if err := validateNearbyRequest(req); err != nil {
		s.logger.Warn("GetNearby: validation failed: %v", err)
		return nil, err
	}

	filter := req.ToDomainFilter()
	source := models.SourceRemote

	areas, err := s.areaRepo.Nearby(ctx, filter)
	if err != nil {
		s.logger.Error("GetNearby: repository error: %v", err)

		if s.cache == nil {
			return nil, fmt.Errorf("%w: GetNearby - repository error: %v", ErrInternal, err)
		}
		cached, cacheErr := s.cache.NearbyAreas(ctx, filter)
		if cacheErr != nil {
			s.logger.Error("GetNearby: cache fallback failed: %v", cacheErr)
			return nil, fmt.Errorf("%w: GetNearby - repository error: %v", ErrInternal, err)
		}

		s.observeFallback(cacheEntityArea)
		areas, source = cached, models.SourceCache
	} else if s.cache != nil {
		s.cache.SaveAreas(areas...)
	}

	s.markFavorites(ctx, req.UserID, areas...)

	s.logger.Info("GetNearby: found %d areas (source=%s)", len(areas), source)
	return models.FromDomainAreaList(areas, source), nil
}

// GetByID получает парковку по ID
func (s *Service) GetByID(ctx context.Context, id, userID string) (*models.AreaResponse, error) {
	s.logger.Info("GetByID: fetching area id=%s", id)

	area, source, err := s.getArea(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	s.markFavorites(ctx, userID, area)

	resp := models.FromDomainArea(area)
	resp.Source = source
	return resp, nil
}

// GetSpots возвращает места парковки и сверяет счетчик свободных мест с фактическим набором
// При расхождении в хранилище записывается пересчитанное значение
func (s *Service) GetSpots(ctx context.Context, areaID string) (*models.SpotListResponse, error) {
	s.logger.Info("GetSpots: fetching spots of area id=%s", areaID)

	area, err := s.areaRepo.GetByID(ctx, areaID)
	if err != nil {
		if errors.Is(err, areaRepo.ErrAreaNotFound) {
			s.logger.Warn("GetSpots: area id=%s not found", areaID)
			return nil, ErrAreaNotFound
		}
		s.logger.Error("GetSpots: failed to get area id=%s: %v", areaID, err)
		return s.cachedSpots(ctx, areaID, err)
	}

	spots, err := s.spotRepo.ListByArea(ctx, areaID)
	if err != nil {
		s.logger.Error("GetSpots: failed to list spots of area id=%s: %v", areaID, err)
		return s.cachedSpots(ctx, areaID, err)
	}

	if s.cache != nil {
		s.cache.SaveSpots(spots...)
	}

	s.reconcile(ctx, area, spots)

	return models.FromDomainSpotList(areaID, spots, models.SourceRemote), nil
}

// reconcile пересчитывает счетчик по наблюдаемому набору мест
// Ошибка записи не мешает ответу: счетчик будет исправлен следующим чтением
func (s *Service) reconcile(ctx context.Context, area *domain.ParkingArea, spots []*domain.ParkingSpot) {
	observed := area.ClampAvailable(domain.CountAvailable(spots))
	if observed == area.AvailableSpots {
		return
	}

	s.logger.Warn("GetSpots: area id=%s counter drift: stored=%d, observed=%d",
		area.ID, area.AvailableSpots, observed)

	corrected, err := s.areaRepo.SetAvailableSpots(ctx, area.ID, observed)
	if err != nil {
		s.logger.Error("GetSpots: failed to correct counter of area id=%s: %v", area.ID, err)
		return
	}

	area.AvailableSpots = corrected
	if s.cache != nil {
		s.cache.SaveAreas(area)
	}
}

func (s *Service) cachedSpots(ctx context.Context, areaID string, remoteErr error) (*models.SpotListResponse, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("%w: GetSpots - repository error: %v", ErrInternal, remoteErr)
	}

	spots, err := s.cache.ListSpots(ctx, areaID)
	if err != nil || len(spots) == 0 {
		s.logger.Error("GetSpots: cache fallback failed for area id=%s: %v", areaID, err)
		return nil, fmt.Errorf("%w: GetSpots - repository error: %v", ErrInternal, remoteErr)
	}

	s.observeFallback(cacheEntitySpot)
	s.logger.Warn("GetSpots: served %d spots of area id=%s from cache", len(spots), areaID)
	return models.FromDomainSpotList(areaID, spots, models.SourceCache), nil
}

// CreateArea создает парковку вместе с местами в одной транзакции
// totalSpots равен числу мест, availableSpots числу свободных
func (s *Service) CreateArea(ctx context.Context, req *models.CreateAreaRequest) (*models.AreaResponse, error) {
	s.logger.Info("CreateArea: name=%q, spots=%d", req.Name, len(req.Spots))

	if err := validateCreateAreaRequest(req); err != nil {
		s.logger.Warn("CreateArea: validation failed: %v", err)
		return nil, err
	}

	area := &domain.ParkingArea{
		ID:                  domain.NewID(),
		Name:                strings.TrimSpace(req.Name),
		Address:             req.Address,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		ImageURL:            req.ImageURL,
		HourlyRate:          req.HourlyRate,
		OperatingHours:      req.OperatingHours,
		Amenities:           req.Amenities,
		HasCoveredParking:   req.HasCoveredParking,
		HasDisabledAccess:   req.HasDisabledAccess,
		HasElectricCharging: req.HasElectricCharging,
	}

	spots := make([]*domain.ParkingSpot, len(req.Spots))
	for i := range req.Spots {
		spots[i] = newSpot(area.ID, &req.Spots[i])
	}

	area.TotalSpots = len(spots)
	area.AvailableSpots = domain.CountAvailable(spots)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.areaRepo.Create(txCtx, area); err != nil {
			return fmt.Errorf("create area: %v", err)
		}
		if err := s.spotRepo.CreateBatch(txCtx, spots); err != nil {
			return fmt.Errorf("create spots: %v", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("CreateArea: %v", err)
		return nil, fmt.Errorf("%w: CreateArea - %v", ErrInternal, err)
	}

	if s.cache != nil {
		s.cache.SaveAreas(area)
		s.cache.SaveSpots(spots...)
	}

	s.logger.Info("CreateArea: created area id=%s with %d spots (%d available)",
		area.ID, area.TotalSpots, area.AvailableSpots)
	return models.FromDomainArea(area), nil
}

// newSpot новое место всегда свободно
func newSpot(areaID string, req *models.CreateSpotRequest) *domain.ParkingSpot {
	spotType := req.Type
	if spotType == "" {
		spotType = domain.SpotTypeRegular
	}

	return &domain.ParkingSpot{
		ID:               domain.NewID(),
		ParkingAreaID:    areaID,
		SpotNumber:       strings.TrimSpace(req.SpotNumber),
		Floor:            req.Floor,
		Section:          req.Section,
		Available:        true,
		Reserved:         req.Reserved,
		Handicapped:      req.Handicapped,
		ElectricCharging: req.ElectricCharging,
		PositionX:        req.PositionX,
		PositionY:        req.PositionY,
		Type:             spotType,
	}
}

// Quote рассчитывает длительность и стоимость по тарифу парковки
// Итоговая стоимость бронирования все равно пересчитывается при создании
func (s *Service) Quote(ctx context.Context, areaID string, start, end time.Time) (*models.QuoteResponse, error) {
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start is required", ErrInvalidInput)
	}

	area, _, err := s.getArea(ctx, "Quote", areaID)
	if err != nil {
		return nil, err
	}

	timeRange := domain.NewTimeRange(start, end)
	hours, minutes := timeRange.DurationParts()

	return &models.QuoteResponse{
		ParkingAreaID: area.ID,
		StartTime:     timeRange.Start,
		EndTime:       timeRange.End,
		DurationHours: timeRange.DurationHours(),
		Hours:         hours,
		Minutes:       minutes,
		HourlyRate:    area.HourlyRate,
		TotalCost:     timeRange.Cost(area.HourlyRate),
	}, nil
}

// AddFavorite добавляет парковку в избранное пользователя
func (s *Service) AddFavorite(ctx context.Context, userID, areaID string) error {
	s.logger.Info("AddFavorite: user=%s, area=%s", userID, areaID)

	if _, err := s.areaRepo.GetByID(ctx, areaID); err != nil {
		if errors.Is(err, areaRepo.ErrAreaNotFound) {
			s.logger.Warn("AddFavorite: area id=%s not found", areaID)
			return ErrAreaNotFound
		}
		s.logger.Error("AddFavorite: failed to get area id=%s: %v", areaID, err)
		return fmt.Errorf("%w: AddFavorite - get area: %v", ErrInternal, err)
	}

	if err := s.favoriteRepo.Add(ctx, userID, areaID); err != nil {
		s.logger.Error("AddFavorite: repository error: %v", err)
		return fmt.Errorf("%w: AddFavorite - repository error: %v", ErrInternal, err)
	}

	return nil
}

// RemoveFavorite убирает парковку из избранного; отсутствие записи не ошибка
func (s *Service) RemoveFavorite(ctx context.Context, userID, areaID string) error {
	s.logger.Info("RemoveFavorite: user=%s, area=%s", userID, areaID)

	removed, err := s.favoriteRepo.Remove(ctx, userID, areaID)
	if err != nil {
		s.logger.Error("RemoveFavorite: repository error: %v", err)
		return fmt.Errorf("%w: RemoveFavorite - repository error: %v", ErrInternal, err)
	}

	if !removed {
		s.logger.Info("RemoveFavorite: area id=%s was not in favorites of user=%s", areaID, userID)
	}
	return nil
}

// ListFavorites возвращает избранные парковки пользователя
func (s *Service) ListFavorites(ctx context.Context, userID string) (*models.FavoritesResponse, error) {
	ids, err := s.favoriteRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("ListFavorites: repository error for user=%s: %v", userID, err)
		return nil, fmt.Errorf("%w: ListFavorites - repository error: %v", ErrInternal, err)
	}

	if ids == nil {
		ids = []string{}
	}
	return &models.FavoritesResponse{UserID: userID, AreaIDs: ids}, nil
}

// getArea читает парковку из хранилища, при ошибке хранилища из реплики
func (s *Service) getArea(ctx context.Context, op, id string) (*domain.ParkingArea, string, error) {
	area, err := s.areaRepo.GetByID(ctx, id)
	if err == nil {
		if s.cache != nil {
			s.cache.SaveAreas(area)
		}
		return area, models.SourceRemote, nil
	}

	if errors.Is(err, areaRepo.ErrAreaNotFound) {
		s.logger.Warn("%s: area id=%s not found", op, id)
		return nil, "", ErrAreaNotFound
	}

	s.logger.Error("%s: repository error for area id=%s: %v", op, id, err)
	if s.cache == nil {
		return nil, "", fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	cached, cacheErr := s.cache.GetArea(ctx, id)
	if cacheErr != nil {
		if !errors.Is(cacheErr, cache.ErrNotCached) {
			s.logger.Error("%s: cache fallback failed for area id=%s: %v", op, id, cacheErr)
		}
		return nil, "", fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	s.observeFallback(cacheEntityArea)
	return cached, models.SourceCache, nil
}

// markFavorites отмечает избранные парковки пользователя
// Избранное вторично: при ошибке выдача возвращается без отметок
func (s *Service) markFavorites(ctx context.Context, userID string, areas ...*domain.ParkingArea) {
	if userID == "" || len(areas) == 0 {
		return
	}

	ids, err := s.favoriteRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("markFavorites: failed to load favorites of user=%s: %v", userID, err)
		return
	}

	favorites := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		favorites[id] = struct{}{}
	}
	for _, a := range areas {
		_, a.Favorite = favorites[a.ID]
	}
}

func (s *Service) observeFallback(entity string) {
	if s.metrics != nil {
		s.metrics.CacheFallback(entity)
	}
}
