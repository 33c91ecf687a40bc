package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-ParkingService/internal/service/users/models"
)

const cacheEntity = "user"

// Service сервис профилей пользователей
type Service struct {
	userRepo     UserRepository
	favoriteRepo FavoriteRepository
	bookingRepo  BookingRepository
	cache        UserCache
	txManager    TransactionManager
	metrics      Metrics
	logger       Logger
}

// NewService создает новый экземпляр сервиса профилей
// cache и metrics могут быть nil
func NewService(
	userRepo UserRepository,
	favoriteRepo FavoriteRepository,
	bookingRepo BookingRepository,
	cache UserCache,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		userRepo:     userRepo,
		favoriteRepo: favoriteRepo,
		bookingRepo:  bookingRepo,
		cache:        cache,
		txManager:    txManager,
		metrics:      metrics,
		logger:       logger,
	}
}

// Create создает профиль для пользователя, уже прошедшего аутентификацию
func (s *Service) Create(ctx context.Context, req *models.CreateUserRequest) (*models.UserResponse, error) {
	s.logger.Info("Create: creating profile for user=%s", req.ID)

	u := &domain.User{
		ID:              req.ID,
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		PhoneNumber:     req.PhoneNumber,
		ProfileImageURL: req.ProfileImageURL,
	}

	if u.ID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := validateProfile(u); err != nil {
		s.logger.Warn("Create: validation failed for user=%s: %v", req.ID, err)
		return nil, err
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, userRepo.ErrUserExists) {
			s.logger.Warn("Create: user=%s already exists", u.ID)
			return nil, ErrUserExists
		}
		s.logger.Error("Create: repository error for user=%s: %v", u.ID, err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	if s.cache != nil {
		s.cache.SaveUser(u)
	}

	s.logger.Info("Create: created profile for user=%s", u.ID)
	return models.FromDomainUser(u, models.SourceRemote), nil
}

// Get возвращает профиль с избранным и историей бронирований
func (s *Service) Get(ctx context.Context, id string) (*models.UserResponse, error) {
	s.logger.Info("Get: fetching profile of user=%s", id)

	u, err := s.load(ctx, id)
	if err == nil {
		if s.cache != nil {
			s.cache.SaveUser(u)
		}
		return models.FromDomainUser(u, models.SourceRemote), nil
	}

	if errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if s.cache == nil {
		return nil, err
	}

	cached, cacheErr := s.cache.GetUser(ctx, id)
	if cacheErr != nil {
		s.logger.Warn("Get: cache fallback failed for user=%s: %v", id, cacheErr)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CacheFallback(cacheEntity)
	}
	s.logger.Warn("Get: served profile of user=%s from cache", id)
	return models.FromDomainUser(cached, models.SourceCache), nil
}

// Update меняет редактируемые поля профиля
func (s *Service) Update(ctx context.Context, id string, req *models.UpdateUserRequest) (*models.UserResponse, error) {
	s.logger.Info("Update: updating profile of user=%s", id)

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		u.Email = strings.TrimSpace(*req.Email)
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = emptyToNil(req.PhoneNumber)
	}
	if req.ProfileImageURL != nil {
		u.ProfileImageURL = emptyToNil(req.ProfileImageURL)
	}

	if err := validateProfile(u); err != nil {
		s.logger.Warn("Update: validation failed for user=%s: %v", id, err)
		return nil, err
	}

	if err := s.userRepo.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, userRepo.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("Update: repository error for user=%s: %v", id, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	if s.cache != nil {
		s.cache.SaveUser(u)
	}

	s.logger.Info("Update: updated profile of user=%s", id)
	return models.FromDomainUser(u, models.SourceRemote), nil
}

// PurgeCache удаляет профиль и бронирования пользователя из локальной реплики (выход из аккаунта)
func (s *Service) PurgeCache(ctx context.Context, id string) error {
	s.logger.Info("PurgeCache: purging cached data of user=%s", id)

	if s.cache == nil {
		return nil
	}

	if err := s.cache.PurgeUser(ctx, id); err != nil {
		s.logger.Error("PurgeCache: %v", err)
		return fmt.Errorf("%w: PurgeCache - %v", ErrInternal, err)
	}
	return nil
}

// Delete удаляет профиль вместе с избранным и завершенными бронированиями
// Пока у пользователя есть незавершенные бронирования, удаление отклоняется:
// сначала их нужно отменить, иначе места останутся занятыми без владельца
func (s *Service) Delete(ctx context.Context, id string) error {
	s.logger.Info("Delete: deleting profile of user=%s", id)

	var purged int64
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		purged, err = s.bookingRepo.DeleteTerminalByUser(txCtx, id)
		if err != nil {
			return fmt.Errorf("%w: Delete - bookings: %v", ErrInternal, err)
		}

		if err := s.userRepo.Delete(txCtx, id); err != nil {
			switch {
			case errors.Is(err, userRepo.ErrUserNotFound):
				return ErrUserNotFound
			case errors.Is(err, userRepo.ErrUserHasBookings):
				return ErrUserHasLiveBookings
			}
			return fmt.Errorf("%w: Delete - repository error: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("Delete: %v", err)
		} else {
			s.logger.Warn("Delete: user=%s: %v", id, err)
		}
		return err
	}

	if s.cache != nil {
		if err := s.cache.PurgeUser(ctx, id); err != nil {
			s.logger.Warn("Delete: %v", err)
		}
	}

	s.logger.Info("Delete: deleted profile of user=%s (%d finished bookings removed)", id, purged)
	return nil
}

// load читает профиль и избранное из основного хранилища
func (s *Service) load(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userRepo.ErrUserNotFound) {
			s.logger.Warn("load: user=%s not found", id)
			return nil, ErrUserNotFound
		}
		s.logger.Error("load: repository error for user=%s: %v", id, err)
		return nil, fmt.Errorf("%w: load - repository error: %v", ErrInternal, err)
	}

	favorites, err := s.favoriteRepo.ListByUser(ctx, id)
	if err != nil {
		s.logger.Error("load: failed to list favorites of user=%s: %v", id, err)
		return nil, fmt.Errorf("%w: load - favorites: %v", ErrInternal, err)
	}

	u.FavoriteLocations = favorites
	return u, nil
}

func validateProfile(u *domain.User) error {
	if u.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(u.Name) > domain.MaxNameLength {
		return fmt.Errorf("%w: name is longer than %d", ErrInvalidInput, domain.MaxNameLength)
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidInput, u.Email)
	}
	return nil
}

func emptyToNil(v *string) *string {
	if strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}
