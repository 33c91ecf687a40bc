package advance_booking_statuses

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/ledger"
)

// UseCase сохраняет переходы статусов, зависящие только от времени:
// PENDING/CONFIRMED -> ACTIVE по наступлении startTime,
// ACTIVE -> EXPIRED после endTime + grace с освобождением места
type UseCase struct {
	bookingRepo  BookingRepository
	ledger       Ledger
	cfg          Config
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(bookingRepo BookingRepository, ledger Ledger, cfg Config, logger Logger) *UseCase {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.GracePeriod < 0 {
		cfg.GracePeriod = domain.ExpiryGracePeriod
	}

	return &UseCase{
		bookingRepo:  bookingRepo,
		ledger:       ledger,
		cfg:          cfg,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет один проход
// Активация идет первой: бронирование, окно которого уже целиком прошло, за один проход
// становится ACTIVE и затем EXPIRED, не нарушая машину состояний
func (uc *UseCase) Execute(ctx context.Context) (*Result, error) {
	now := uc.timeProvider.Now()
	result := &Result{}

	due, err := uc.bookingRepo.ListDueForActivation(ctx, now, uc.cfg.BatchSize)
	if err != nil {
		uc.logger.Error("AdvanceBookingStatuses: failed to list due bookings: %v", err)
		return nil, fmt.Errorf("%w: due for activation: %v", ErrListBookings, err)
	}

	for _, b := range due {
		if _, err := uc.ledger.ActivateBooking(ctx, b.ID, now); err != nil {
			uc.record(result, "activate", b.ID, err)
			continue
		}
		result.Activated++
	}

	cutoff := now.Add(-uc.cfg.GracePeriod)
	overdue, err := uc.bookingRepo.ListOverdueActive(ctx, cutoff, uc.cfg.BatchSize)
	if err != nil {
		uc.logger.Error("AdvanceBookingStatuses: failed to list overdue bookings: %v", err)
		return result, fmt.Errorf("%w: overdue active: %v", ErrListBookings, err)
	}

	for _, b := range overdue {
		if _, err := uc.ledger.ExpireBooking(ctx, b.ID, cutoff); err != nil {
			uc.record(result, "expire", b.ID, err)
			continue
		}
		result.Expired++
	}

	if result.Activated+result.Expired+result.Failed > 0 {
		uc.logger.Info("AdvanceBookingStatuses: activated=%d, expired=%d, skipped=%d, failed=%d",
			result.Activated, result.Expired, result.Skipped, result.Failed)
	}

	return result, nil
}

// Register добавляет задачу в планировщик
func (uc *UseCase) Register(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		ctx := context.Background()
		if uc.cfg.RunTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, uc.cfg.RunTimeout)
			defer cancel()
		}

		if _, err := uc.Execute(ctx); err != nil {
			uc.logger.Error("AdvanceBookingStatuses: run failed: %v", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, spec, err)
	}

	return id, nil
}

// record учитывает ошибку перехода; гонки с пользователем (отмена, завершение) не считаются сбоем
func (uc *UseCase) record(result *Result, action, bookingID string, err error) {
	if errors.Is(err, ledger.ErrInvalidTransition) || errors.Is(err, ledger.ErrBookingNotFound) {
		uc.logger.Info("AdvanceBookingStatuses: %s booking id=%s skipped: %v", action, bookingID, err)
		result.Skipped++
		return
	}

	uc.logger.Error("AdvanceBookingStatuses: failed to %s booking id=%s: %v", action, bookingID, err)
	result.Failed++
}
