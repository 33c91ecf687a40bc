package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/cache"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ParkingService/internal/service/bookings/models"
)

const cacheEntity = "booking"

// Service сервис чтения бронирований
// Сначала читает основное хранилище и обновляет реплику; при его недоступности отвечает из реплики
type Service struct {
	bookingRepo  BookingRepository
	cache        BookingCache
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
// cache и metrics могут быть nil
func NewService(
	bookingRepo BookingRepository,
	cache BookingCache,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		cache:        cache,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// GetByID получает бронирование по ID
// Пользователь может видеть только своё бронирование
func (s *Service) GetByID(ctx context.Context, id string, userID string) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%s for user=%s", id, userID)

	source := models.SourceRemote
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%s not found", id)
			return nil, ErrBookingNotFound
		}

		s.logger.Error("GetByID: repository error for booking id=%s: %v", id, err)
		booking, err = s.fallbackBooking(ctx, id, err)
		if err != nil {
			return nil, err
		}
		source = models.SourceCache
	} else if s.cache != nil {
		s.cache.SaveBookings(booking)
	}

	if booking.UserID != userID {
		s.logger.Warn("GetByID: access denied for user=%s to booking id=%s", userID, id)
		return nil, ErrAccessDenied
	}

	resp := models.FromDomainBooking(booking)
	resp.Source = source
	return resp, nil
}

// GetUserBookings получает бронирования пользователя
// Опционально фильтрует по статусу и окну времени (upcoming, current, past)
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%s, status=%v, window=%v", req.UserID, req.Status, req.Window)

	filter, err := s.toFilter(req)
	if err != nil {
		s.logger.Warn("GetUserBookings: invalid filter for user=%s: %v", req.UserID, err)
		return nil, err
	}

	bookings, err := s.bookingRepo.GetByUser(ctx, filter)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%s: %v", req.UserID, err)

		if s.cache == nil {
			return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
		}

		cached, cacheErr := s.cache.ListUserBookings(ctx, filter)
		if cacheErr != nil {
			s.logger.Error("GetUserBookings: cache fallback failed for user=%s: %v", req.UserID, cacheErr)
			return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
		}

		s.observeFallback()
		s.logger.Warn("GetUserBookings: served %d bookings for user=%s from cache", len(cached), req.UserID)
		return models.FromDomainBookingList(cached, models.SourceCache), nil
	}

	if s.cache != nil {
		// Полный список заменяет реплику, чтобы в ней не оставались удаленные записи
		if filter.Status == nil && filter.Window == domain.WindowAll {
			s.cache.ReplaceUserBookings(req.UserID, bookings, filter.Now)
		} else {
			s.cache.SaveBookings(bookings...)
		}
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%s", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings, models.SourceRemote), nil
}

func (s *Service) toFilter(req *models.GetUserBookingsRequest) (domain.BookingFilter, error) {
	filter := domain.BookingFilter{
		UserID: req.UserID,
		Now:    s.timeProvider.Now(),
	}

	if req.UserID == "" {
		return filter, fmt.Errorf("%w: userID is required", ErrInvalidInput)
	}

	if req.Status != nil {
		status, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Status = &status
	}

	if req.Window != nil {
		window, err := domain.ParseBookingWindow(*req.Window)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Window = window
	}

	return filter, nil
}

// fallbackBooking читает бронирование из реплики после ошибки основного хранилища
func (s *Service) fallbackBooking(ctx context.Context, id string, remoteErr error) (*domain.Booking, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, remoteErr)
	}

	booking, err := s.cache.GetBooking(ctx, id)
	if err != nil {
		if !errors.Is(err, cache.ErrNotCached) {
			s.logger.Error("GetByID: cache fallback failed for booking id=%s: %v", id, err)
		}
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, remoteErr)
	}

	s.observeFallback()
	s.logger.Warn("GetByID: served booking id=%s from cache", id)
	return booking, nil
}

func (s *Service) observeFallback() {
	if s.metrics != nil {
		s.metrics.CacheFallback(cacheEntity)
	}
}
