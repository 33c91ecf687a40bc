package areas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	areaRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/area"
	spotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/spot"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

// SearchAreas ищет парковки по подстроке в названии или адресе
func (s *Service) SearchAreas(ctx context.Context, req *models.SearchRequest) (*models.AreaListResponse, error) {
	s.logger.Info("SearchAreas: q=%q, limit=%d, user=%s", req.Query, req.Limit, req.UserID)

	limit, err := validateSearchRequest(req)
	if err != nil {
		s.logger.Warn("SearchAreas: validation failed: %v", err)
		return nil, err
	}

	text := strings.TrimSpace(req.Query)
	source := models.SourceRemote

	areas, err := s.areaRepo.Search(ctx, text, limit)
	if err != nil {
		s.logger.Error("SearchAreas: repository error: %v", err)

		if s.cache == nil {
			return nil, fmt.Errorf("%w: SearchAreas - repository error: %v", ErrInternal, err)
		}
		cached, cacheErr := s.cache.SearchAreas(ctx, text, limit)
		if cacheErr != nil {
			s.logger.Error("SearchAreas: cache fallback failed: %v", cacheErr)
			return nil, fmt.Errorf("%w: SearchAreas - repository error: %v", ErrInternal, err)
		}

		s.observeFallback(cacheEntityArea)
		areas, source = cached, models.SourceCache
	} else if s.cache != nil {
		s.cache.SaveAreas(areas...)
	}

	s.markFavorites(ctx, req.UserID, areas...)

	s.logger.Info("SearchAreas: found %d areas (source=%s)", len(areas), source)
	return models.FromDomainAreaList(areas, source), nil
}

// RateArea добавляет оценку к среднему рейтингу парковки
// Оценки не привязаны к пользователю: повторная оценка учитывается как новая
func (s *Service) RateArea(ctx context.Context, areaID string, req *models.RateRequest) (*models.RatingResponse, error) {
	s.logger.Info("RateArea: area=%s, rating=%.1f", areaID, req.Rating)

	if !domain.IsValidRating(req.Rating) {
		s.logger.Warn("RateArea: rating %.2f out of range", req.Rating)
		return nil, fmt.Errorf("%w: rating must be within [%.0f, %.0f]", ErrInvalidInput, domain.MinRating, domain.MaxRating)
	}

	area, err := s.areaRepo.Rate(ctx, areaID, req.Rating)
	if err != nil {
		if errors.Is(err, areaRepo.ErrAreaNotFound) {
			s.logger.Warn("RateArea: area id=%s not found", areaID)
			return nil, ErrAreaNotFound
		}
		s.logger.Error("RateArea: repository error: %v", err)
		return nil, fmt.Errorf("%w: RateArea - repository error: %v", ErrInternal, err)
	}

	if s.cache != nil {
		s.cache.SaveAreas(area)
	}

	return &models.RatingResponse{
		ParkingAreaID:   area.ID,
		Rating:          area.Rating,
		NumberOfRatings: area.NumberOfRatings,
	}, nil
}

// UpdateArea меняет описание парковки; счетчики мест не редактируются
func (s *Service) UpdateArea(ctx context.Context, areaID string, req *models.UpdateAreaRequest) (*models.AreaResponse, error) {
	s.logger.Info("UpdateArea: area=%s", areaID)

	patch := req.ToDomainPatch()
	if err := validateAreaPatch(patch); err != nil {
		s.logger.Warn("UpdateArea: validation failed: %v", err)
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}

	area, err := s.areaRepo.Update(ctx, areaID, patch)
	if err != nil {
		if errors.Is(err, areaRepo.ErrAreaNotFound) {
			s.logger.Warn("UpdateArea: area id=%s not found", areaID)
			return nil, ErrAreaNotFound
		}
		s.logger.Error("UpdateArea: repository error: %v", err)
		return nil, fmt.Errorf("%w: UpdateArea - repository error: %v", ErrInternal, err)
	}

	if s.cache != nil {
		s.cache.SaveAreas(area)
	}

	s.logger.Info("UpdateArea: area id=%s updated", area.ID)
	return models.FromDomainArea(area), nil
}

// AddSpot добавляет свободное место: totalSpots и availableSpots растут на единицу в той же транзакции
func (s *Service) AddSpot(ctx context.Context, areaID string, req *models.CreateSpotRequest) (*models.SpotResponse, error) {
	s.logger.Info("AddSpot: area=%s, number=%q", areaID, req.SpotNumber)

	if err := validateSpotRequest("spot", req); err != nil {
		s.logger.Warn("AddSpot: validation failed: %v", err)
		return nil, err
	}

	spot := newSpot(areaID, req)

	var total, available int
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		total, available, err = s.areaRepo.AdjustCounters(txCtx, areaID, 1, 1)
		if err != nil {
			if errors.Is(err, areaRepo.ErrAreaNotFound) {
				s.logger.Warn("AddSpot: area id=%s not found", areaID)
				return ErrAreaNotFound
			}
			return fmt.Errorf("%w: AddSpot - adjust counters: %v", ErrInternal, err)
		}

		if err := s.spotRepo.CreateBatch(txCtx, []*domain.ParkingSpot{spot}); err != nil {
			if errors.Is(err, spotRepo.ErrSpotNumberTaken) {
				s.logger.Warn("AddSpot: number %q already taken in area id=%s", spot.SpotNumber, areaID)
				return fmt.Errorf("%w: %q", ErrSpotNumberTaken, spot.SpotNumber)
			}
			return fmt.Errorf("%w: AddSpot - create spot: %v", ErrInternal, err)
		}

		if err := s.publish(txCtx, areaID, spot.ID, true); err != nil {
			return fmt.Errorf("%w: AddSpot - %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("AddSpot: %v", err)
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.SaveSpots(spot)
	}
	s.refreshCachedArea(ctx, "AddSpot", areaID)

	s.logger.Info("AddSpot: spot id=%s added to area id=%s (total=%d, available=%d)",
		spot.ID, areaID, total, available)

	resp := models.FromDomainSpot(spot)
	return &resp, nil
}

// UpdateSpot меняет описание места; доступность не редактируется
func (s *Service) UpdateSpot(ctx context.Context, areaID, spotID string, req *models.UpdateSpotRequest) (*models.SpotResponse, error) {
	s.logger.Info("UpdateSpot: area=%s, spot=%s", areaID, spotID)

	patch := req.ToDomainPatch()
	if err := validateSpotPatch(patch); err != nil {
		s.logger.Warn("UpdateSpot: validation failed: %v", err)
		return nil, err
	}
	if patch.SpotNumber != nil {
		number := strings.TrimSpace(*patch.SpotNumber)
		patch.SpotNumber = &number
	}

	spot, err := s.spotRepo.Update(ctx, areaID, spotID, patch)
	if err != nil {
		switch {
		case errors.Is(err, spotRepo.ErrSpotNotFound):
			s.logger.Warn("UpdateSpot: spot id=%s not found in area id=%s", spotID, areaID)
			return nil, ErrSpotNotFound
		case errors.Is(err, spotRepo.ErrSpotNumberTaken):
			s.logger.Warn("UpdateSpot: number %q already taken in area id=%s", *patch.SpotNumber, areaID)
			return nil, fmt.Errorf("%w: %q", ErrSpotNumberTaken, *patch.SpotNumber)
		}
		s.logger.Error("UpdateSpot: repository error: %v", err)
		return nil, fmt.Errorf("%w: UpdateSpot - repository error: %v", ErrInternal, err)
	}

	if s.cache != nil {
		s.cache.SaveSpots(spot)
	}

	resp := models.FromDomainSpot(spot)
	return &resp, nil
}

// DeleteSpot удаляет свободное место: totalSpots и availableSpots уменьшаются на единицу в той же транзакции
// Занятое место не удаляется, пока бронирование его держит
func (s *Service) DeleteSpot(ctx context.Context, areaID, spotID string) error {
	s.logger.Info("DeleteSpot: area=%s, spot=%s", areaID, spotID)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		spot, err := s.spotRepo.GetByID(txCtx, spotID)
		if err != nil {
			if errors.Is(err, spotRepo.ErrSpotNotFound) {
				return ErrSpotNotFound
			}
			return fmt.Errorf("%w: DeleteSpot - get spot: %v", ErrInternal, err)
		}
		if spot.ParkingAreaID != areaID {
			s.logger.Warn("DeleteSpot: spot id=%s belongs to area id=%s, not %s", spotID, spot.ParkingAreaID, areaID)
			return ErrSpotNotFound
		}

		deleted, err := s.spotRepo.Delete(txCtx, areaID, spotID)
		if err != nil {
			return fmt.Errorf("%w: DeleteSpot - delete spot: %v", ErrInternal, err)
		}
		if !deleted {
			return ErrSpotInUse
		}

		if _, _, err := s.areaRepo.AdjustCounters(txCtx, areaID, -1, -1); err != nil {
			return fmt.Errorf("%w: DeleteSpot - adjust counters: %v", ErrInternal, err)
		}

		if err := s.publish(txCtx, areaID, spotID, false); err != nil {
			return fmt.Errorf("%w: DeleteSpot - %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("DeleteSpot: %v", err)
		} else {
			s.logger.Warn("DeleteSpot: spot id=%s: %v", spotID, err)
		}
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteSpot(ctx, spotID); err != nil {
			s.logger.Warn("DeleteSpot: %v", err)
		}
	}
	s.refreshCachedArea(ctx, "DeleteSpot", areaID)

	s.logger.Info("DeleteSpot: spot id=%s removed from area id=%s", spotID, areaID)
	return nil
}

// DeleteArea удаляет парковку вместе с местами и избранным
// Места блокируются до проверки: бронирование не может занять место между проверкой и удалением
func (s *Service) DeleteArea(ctx context.Context, areaID string) error {
	s.logger.Info("DeleteArea: area=%s", areaID)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		spots, err := s.spotRepo.ListByAreaForUpdate(txCtx, areaID)
		if err != nil {
			return fmt.Errorf("%w: DeleteArea - lock spots: %v", ErrInternal, err)
		}
		if occupied := len(spots) - domain.CountAvailable(spots); occupied > 0 {
			return fmt.Errorf("%w: %d occupied", ErrAreaInUse, occupied)
		}

		deleted, err := s.areaRepo.Delete(txCtx, areaID)
		if err != nil {
			return fmt.Errorf("%w: DeleteArea - delete area: %v", ErrInternal, err)
		}
		if !deleted {
			return ErrAreaNotFound
		}

		for _, spot := range spots {
			if err := s.publish(txCtx, areaID, spot.ID, false); err != nil {
				return fmt.Errorf("%w: DeleteArea - %v", ErrInternal, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("DeleteArea: %v", err)
		} else {
			s.logger.Warn("DeleteArea: area id=%s: %v", areaID, err)
		}
		return err
	}

	if s.cache != nil {
		if err := s.cache.DeleteArea(ctx, areaID); err != nil {
			s.logger.Warn("DeleteArea: %v", err)
		}
	}

	s.logger.Info("DeleteArea: area id=%s deleted", areaID)
	return nil
}

// refreshCachedArea перечитывает парковку после изменения счетчиков
func (s *Service) refreshCachedArea(ctx context.Context, op, areaID string) {
	if s.cache == nil {
		return
	}
	area, err := s.areaRepo.GetByID(ctx, areaID)
	if err != nil {
		s.logger.Warn("%s: failed to refresh cached area id=%s: %v", op, areaID, err)
		return
	}
	s.cache.SaveAreas(area)
}

func (s *Service) publish(ctx context.Context, areaID, spotID string, available bool) error {
	return s.publisher.Publish(ctx, domain.SpotEvent{
		ParkingAreaID: areaID,
		ParkingSpotID: spotID,
		Available:     available,
		UpdatedAt:     time.Now().UTC(),
	})
}
