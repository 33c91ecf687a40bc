package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	areaRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/area"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	spotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/spot"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
)

// Service согласует состояние мест, счетчик свободных мест парковки и незавершенные бронирования
// Каждая операция выполняется в одной транзакции: все шаги фиксируются вместе или откатываются
type Service struct {
	bookings     BookingRepository
	spots        SpotRepository
	areas        AreaRepository
	users        UserRepository
	publisher    EventPublisher
	cache        BookingCache
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса
// cache и metrics могут быть nil
func NewService(
	bookings BookingRepository,
	spots SpotRepository,
	areas AreaRepository,
	users UserRepository,
	publisher EventPublisher,
	cache BookingCache,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookings:     bookings,
		spots:        spots,
		areas:        areas,
		users:        users,
		publisher:    publisher,
		cache:        cache,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// CreateBooking бронирует место: создает бронирование, занимает место,
// уменьшает счетчик парковки и дописывает бронирование в историю пользователя
func (s *Service) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*domain.Booking, error) {
	s.logger.Info("CreateBooking: user=%s, area=%s, spot=%s, start=%s, end=%s",
		req.UserID, req.ParkingAreaID, req.ParkingSpotID, req.StartTime, req.EndTime)

	if err := validateCreateRequest(req); err != nil {
		s.logger.Warn("CreateBooking: validation failed: %v", err)
		s.observe(opCreate, err)
		return nil, err
	}

	var result *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		area, err := s.areas.GetByID(txCtx, req.ParkingAreaID)
		if err != nil {
			if errors.Is(err, areaRepo.ErrAreaNotFound) {
				s.logger.Warn("CreateBooking: area id=%s not found", req.ParkingAreaID)
				return ErrAreaNotFound
			}
			s.logger.Error("CreateBooking: failed to get area id=%s: %v", req.ParkingAreaID, err)
			return fmt.Errorf("%w: CreateBooking - get area: %v", ErrInternal, err)
		}

		spot, err := s.spots.GetByID(txCtx, req.ParkingSpotID)
		if err != nil {
			if errors.Is(err, spotRepo.ErrSpotNotFound) {
				s.logger.Warn("CreateBooking: spot id=%s not found", req.ParkingSpotID)
				return ErrSpotNotFound
			}
			s.logger.Error("CreateBooking: failed to get spot id=%s: %v", req.ParkingSpotID, err)
			return fmt.Errorf("%w: CreateBooking - get spot: %v", ErrInternal, err)
		}

		if spot.ParkingAreaID != area.ID {
			s.logger.Warn("CreateBooking: spot id=%s belongs to area id=%s, not %s",
				spot.ID, spot.ParkingAreaID, area.ID)
			return ErrSpotNotFound
		}

		if !spot.Available {
			s.logger.Warn("CreateBooking: spot id=%s is not available", spot.ID)
			return ErrSpotNotAvailable
		}

		// 1. Стоимость по тарифу парковки
		timeRange := domain.NewTimeRange(req.StartTime, req.EndTime)

		booking := &domain.Booking{
			ID:               domain.NewID(),
			UserID:           req.UserID,
			ParkingAreaID:    area.ID,
			ParkingAreaName:  area.Name,
			ParkingSpotID:    spot.ID,
			SpotNumber:       spot.SpotNumber,
			StartTime:        timeRange.Start,
			EndTime:          timeRange.End,
			TotalCost:        timeRange.Cost(area.HourlyRate),
			PaymentMethod:    req.PaymentMethod,
			Status:           domain.StatusPending,
			VehicleNumber:    req.VehicleNumber,
			ConfirmationCode: domain.NewConfirmationCode(),
		}

		// Подтверждение происходит в той же записи, отдельного шага нет
		if err := booking.Transition(domain.StatusConfirmed); err != nil {
			return fmt.Errorf("%w: CreateBooking - %v", ErrInternal, err)
		}

		// 2. Бронирование
		if err := s.bookings.Create(txCtx, booking); err != nil {
			switch {
			case errors.Is(err, bookingRepo.ErrSpotAlreadyBooked):
				s.logger.Warn("CreateBooking: spot id=%s already has a live booking", spot.ID)
				return ErrSpotNotAvailable
			case errors.Is(err, bookingRepo.ErrUnknownUser):
				s.logger.Warn("CreateBooking: user id=%s has no profile", req.UserID)
				return ErrUserNotFound
			}
			s.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: CreateBooking - create booking: %v", ErrInternal, err)
		}

		// 3. Место занято (compare-and-swap)
		if err := s.spots.Reserve(txCtx, spot.ID); err != nil {
			if errors.Is(err, spotRepo.ErrSpotNotAvailable) || errors.Is(err, spotRepo.ErrSpotNotFound) {
				s.logger.Warn("CreateBooking: spot id=%s was taken concurrently", spot.ID)
				return ErrSpotNotAvailable
			}
			s.logger.Error("CreateBooking: failed to reserve spot id=%s: %v", spot.ID, err)
			return fmt.Errorf("%w: CreateBooking - reserve spot: %v", ErrInternal, err)
		}

		if _, err := s.areas.AdjustAvailableSpots(txCtx, area.ID, -1); err != nil {
			s.logger.Error("CreateBooking: failed to decrement area id=%s: %v", area.ID, err)
			return fmt.Errorf("%w: CreateBooking - adjust available spots: %v", ErrInternal, err)
		}

		// 4. История пользователя
		if err := s.users.AppendBookingHistory(txCtx, req.UserID, booking.ID); err != nil {
			if errors.Is(err, userRepo.ErrUserNotFound) {
				s.logger.Warn("CreateBooking: user id=%s has no profile", req.UserID)
				return ErrUserNotFound
			}
			s.logger.Error("CreateBooking: failed to append history for user id=%s: %v", req.UserID, err)
			return fmt.Errorf("%w: CreateBooking - append booking history: %v", ErrInternal, err)
		}

		if err := s.publish(txCtx, spot.ParkingAreaID, spot.ID, false); err != nil {
			s.logger.Error("CreateBooking: failed to publish spot event: %v", err)
			return fmt.Errorf("%w: CreateBooking - %v", ErrInternal, err)
		}

		result = booking
		return nil
	})

	s.observe(opCreate, err)
	if err != nil {
		return nil, err
	}

	s.writeBack(result)
	s.logger.Info("CreateBooking: created booking id=%s, code=%s, cost=%.2f",
		result.ID, result.ConfirmationCode, result.TotalCost)

	return result, nil
}

// CancelBooking отменяет бронирование и освобождает место
// Повторная отмена уже отмененного бронирования ничего не меняет и не считается ошибкой
func (s *Service) CancelBooking(ctx context.Context, req *CancelBookingRequest) (*domain.Booking, error) {
	s.logger.Info("CancelBooking: booking=%s, user=%s", req.BookingID, req.UserID)

	if err := validateCancelRequest(req); err != nil {
		s.logger.Warn("CancelBooking: validation failed: %v", err)
		s.observe(opCancel, err)
		return nil, err
	}

	var result *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, opCancel, req.BookingID)
		if err != nil {
			return err
		}
		now := s.timeProvider.Now()

		if booking.UserID != req.UserID {
			s.logger.Warn("CancelBooking: user=%s tried to cancel booking id=%s owned by user=%s",
				req.UserID, booking.ID, booking.UserID)
			return ErrAccessDenied
		}

		if !matchesLocation(booking, req.ParkingAreaID, req.ParkingSpotID) {
			s.logger.Warn("CancelBooking: booking id=%s is not at area=%s spot=%s",
				booking.ID, req.ParkingAreaID, req.ParkingSpotID)
			return fmt.Errorf("%w: booking is not at the given area/spot", ErrInvalidInput)
		}

		result = booking

		if booking.Status == domain.StatusCancelled {
			s.logger.Info("CancelBooking: booking id=%s already cancelled", booking.ID)
			return nil
		}

		if !booking.CanBeCancelled(now) {
			s.logger.Warn("CancelBooking: booking id=%s cannot be cancelled (status=%s, end=%s)",
				booking.ID, booking.Status, booking.EndTime)
			return ErrCannotCancel
		}

		return s.finish(txCtx, opCancel, booking, domain.StatusCancelled)
	})

	s.observe(opCancel, err)
	if err != nil {
		return nil, err
	}

	s.writeBack(result)
	s.logger.Info("CancelBooking: booking id=%s is %s", result.ID, result.Status)

	return result, nil
}

// ExtendBooking продлевает активное бронирование и пересчитывает стоимость всего интервала
// Место не меняет состояния
func (s *Service) ExtendBooking(ctx context.Context, req *ExtendBookingRequest) (*domain.Booking, error) {
	s.logger.Info("ExtendBooking: booking=%s, user=%s, newEnd=%s", req.BookingID, req.UserID, req.NewEndTime)

	if err := validateExtendRequest(req); err != nil {
		s.logger.Warn("ExtendBooking: validation failed: %v", err)
		s.observe(opExtend, err)
		return nil, err
	}

	var result *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, opExtend, req.BookingID)
		if err != nil {
			return err
		}

		if booking.UserID != req.UserID {
			s.logger.Warn("ExtendBooking: user=%s tried to extend booking id=%s owned by user=%s",
				req.UserID, booking.ID, booking.UserID)
			return ErrAccessDenied
		}

		if !booking.CanBeExtended() {
			s.logger.Warn("ExtendBooking: booking id=%s has status %s", booking.ID, booking.Status)
			return ErrCannotExtend
		}

		if !req.NewEndTime.After(booking.EndTime) {
			s.logger.Warn("ExtendBooking: new end %s is not after current end %s", req.NewEndTime, booking.EndTime)
			return fmt.Errorf("%w: newEndTime must be after the current end time", ErrInvalidInput)
		}

		area, err := s.areas.GetByID(txCtx, booking.ParkingAreaID)
		if err != nil {
			if errors.Is(err, areaRepo.ErrAreaNotFound) {
				s.logger.Warn("ExtendBooking: area id=%s not found", booking.ParkingAreaID)
				return ErrAreaNotFound
			}
			s.logger.Error("ExtendBooking: failed to get area id=%s: %v", booking.ParkingAreaID, err)
			return fmt.Errorf("%w: ExtendBooking - get area: %v", ErrInternal, err)
		}

		timeRange := domain.NewTimeRange(booking.StartTime, req.NewEndTime)
		cost := timeRange.Cost(area.HourlyRate)

		if err := s.bookings.UpdateEndTime(txCtx, booking.ID, timeRange.End, cost); err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			s.logger.Error("ExtendBooking: failed to update booking id=%s: %v", booking.ID, err)
			return fmt.Errorf("%w: ExtendBooking - update end time: %v", ErrInternal, err)
		}

		booking.EndTime = timeRange.End
		booking.TotalCost = cost
		booking.UpdatedAt = s.timeProvider.Now()
		result = booking
		return nil
	})

	s.observe(opExtend, err)
	if err != nil {
		return nil, err
	}

	s.writeBack(result)
	s.logger.Info("ExtendBooking: booking id=%s now ends at %s, cost=%.2f", result.ID, result.EndTime, result.TotalCost)

	return result, nil
}

// CompleteBooking завершает активное бронирование (пользователь уехал) и освобождает место
func (s *Service) CompleteBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	s.logger.Info("CompleteBooking: booking=%s, user=%s", bookingID, userID)

	if bookingID == "" || userID == "" {
		err := fmt.Errorf("%w: bookingID and userID are required", ErrInvalidInput)
		s.observe(opComplete, err)
		return nil, err
	}

	var result *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, opComplete, bookingID)
		if err != nil {
			return err
		}

		if booking.UserID != userID {
			s.logger.Warn("CompleteBooking: user=%s tried to complete booking id=%s owned by user=%s",
				userID, booking.ID, booking.UserID)
			return ErrAccessDenied
		}

		result = booking
		return s.finish(txCtx, opComplete, booking, domain.StatusCompleted)
	})

	s.observe(opComplete, err)
	if err != nil {
		return nil, err
	}

	s.writeBack(result)
	return result, nil
}

// ActivateBooking переводит подтвержденное бронирование в ACTIVE, если на момент asOf оно уже началось
// Место уже занято с момента создания, поэтому счетчики не меняются
func (s *Service) ActivateBooking(ctx context.Context, bookingID string, asOf time.Time) (*domain.Booking, error) {
	var result *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, opActivate, bookingID)
		if err != nil {
			return err
		}

		if booking.Status == domain.StatusActive {
			result = booking
			return nil
		}

		if booking.StartTime.After(asOf) {
			s.logger.Warn("ActivateBooking: booking id=%s starts at %s, after %s", booking.ID, booking.StartTime, asOf)
			return fmt.Errorf("%w: booking %s has not started yet", ErrInvalidTransition, booking.ID)
		}

		if err := s.updateStatus(txCtx, opActivate, booking, domain.StatusActive); err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.writeBack(result)
	return result, nil
}

// ExpireBooking переводит активное бронирование, закончившееся не позже cutoff, в EXPIRED и освобождает место
// Окно проверяется повторно под блокировкой строки: бронирование могли продлить после выборки
func (s *Service) ExpireBooking(ctx context.Context, bookingID string, cutoff time.Time) (*domain.Booking, error) {
	var result *domain.Booking

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		booking, err := s.lockBooking(txCtx, opExpire, bookingID)
		if err != nil {
			return err
		}

		if booking.Status == domain.StatusExpired {
			result = booking
			return nil
		}

		if booking.EndTime.After(cutoff) {
			s.logger.Warn("ExpireBooking: booking id=%s ends at %s, after cutoff %s", booking.ID, booking.EndTime, cutoff)
			return fmt.Errorf("%w: booking %s has not ended before %s", ErrInvalidTransition, booking.ID, cutoff)
		}

		result = booking
		return s.finish(txCtx, opExpire, booking, domain.StatusExpired)
	})

	s.observe(opExpire, err)
	if err != nil {
		return nil, err
	}

	s.writeBack(result)
	s.logger.Info("ExpireBooking: booking id=%s expired, spot=%s released", result.ID, result.ParkingSpotID)

	return result, nil
}

// lockBooking читает бронирование с блокировкой строки до конца транзакции
func (s *Service) lockBooking(ctx context.Context, op, id string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%s not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: failed to get booking id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - get booking: %v", ErrInternal, op, err)
	}
	return booking, nil
}

// updateStatus меняет статус по машине состояний и сохраняет его условным обновлением
func (s *Service) updateStatus(ctx context.Context, op string, booking *domain.Booking, next domain.BookingStatus) error {
	from := booking.Status

	if err := booking.Transition(next); err != nil {
		s.logger.Warn("%s: booking id=%s: %v", op, booking.ID, err)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}

	err := s.bookings.UpdateStatus(ctx, booking.ID, []domain.BookingStatus{from}, next)
	if err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return ErrBookingNotFound
		case errors.Is(err, bookingRepo.ErrStatusChanged):
			s.logger.Warn("%s: booking id=%s changed status concurrently", op, booking.ID)
			return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, booking.ID)
		}
		s.logger.Error("%s: failed to update status of booking id=%s: %v", op, booking.ID, err)
		return fmt.Errorf("%w: %s - update status: %v", ErrInternal, op, err)
	}

	booking.UpdatedAt = s.timeProvider.Now()
	return nil
}

// finish переводит бронирование в завершающий статус и освобождает место
// Счетчик парковки увеличивается только если место действительно было занято
func (s *Service) finish(ctx context.Context, op string, booking *domain.Booking, next domain.BookingStatus) error {
	if err := s.updateStatus(ctx, op, booking, next); err != nil {
		return err
	}

	released, err := s.spots.Release(ctx, booking.ParkingSpotID)
	if err != nil {
		if errors.Is(err, spotRepo.ErrSpotNotFound) {
			s.logger.Warn("%s: spot id=%s no longer exists", op, booking.ParkingSpotID)
			return nil
		}
		s.logger.Error("%s: failed to release spot id=%s: %v", op, booking.ParkingSpotID, err)
		return fmt.Errorf("%w: %s - release spot: %v", ErrInternal, op, err)
	}

	if !released {
		s.logger.Warn("%s: spot id=%s was already available", op, booking.ParkingSpotID)
		return nil
	}

	if _, err := s.areas.AdjustAvailableSpots(ctx, booking.ParkingAreaID, 1); err != nil {
		if errors.Is(err, areaRepo.ErrAreaNotFound) {
			s.logger.Warn("%s: area id=%s no longer exists", op, booking.ParkingAreaID)
			return nil
		}
		s.logger.Error("%s: failed to increment area id=%s: %v", op, booking.ParkingAreaID, err)
		return fmt.Errorf("%w: %s - adjust available spots: %v", ErrInternal, op, err)
	}

	if err := s.publish(ctx, booking.ParkingAreaID, booking.ParkingSpotID, true); err != nil {
		s.logger.Error("%s: failed to publish spot event: %v", op, err)
		return fmt.Errorf("%w: %s - %v", ErrInternal, op, err)
	}

	return nil
}

func (s *Service) publish(ctx context.Context, areaID, spotID string, available bool) error {
	return s.publisher.Publish(ctx, domain.SpotEvent{
		ParkingAreaID: areaID,
		ParkingSpotID: spotID,
		Available:     available,
		UpdatedAt:     s.timeProvider.Now(),
	})
}

// writeBack обновляет локальную реплику после фиксации транзакции
func (s *Service) writeBack(booking *domain.Booking) {
	if s.cache == nil || booking == nil {
		return
	}
	s.cache.SaveBookings(booking)
}

func (s *Service) observe(op string, err error) {
	if s.metrics == nil {
		return
	}

	switch {
	case err == nil:
		s.metrics.ObserveLedger(op, resultOK)
	case errors.Is(err, ErrInternal):
		s.metrics.ObserveLedger(op, resultFailed)
	default:
		s.metrics.ObserveLedger(op, resultRejected)
	}
}
