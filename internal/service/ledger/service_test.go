package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	areaRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/area"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	spotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/spot"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f *fixedTime) Now() time.Time { return f.now }

// state содержимое фейкового хранилища; копируется целиком для отката транзакции
type state struct {
	bookings map[string]domain.Booking
	spots    map[string]domain.ParkingSpot
	areas    map[string]domain.ParkingArea
	history  map[string][]string
	events   []domain.SpotEvent
}

func (s state) clone() state {
	c := state{
		bookings: make(map[string]domain.Booking, len(s.bookings)),
		spots:    make(map[string]domain.ParkingSpot, len(s.spots)),
		areas:    make(map[string]domain.ParkingArea, len(s.areas)),
		history:  make(map[string][]string, len(s.history)),
		events:   append([]domain.SpotEvent(nil), s.events...),
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.spots {
		c.spots[k] = v
	}
	for k, v := range s.areas {
		c.areas[k] = v
	}
	for k, v := range s.history {
		c.history[k] = append([]string(nil), v...)
	}
	return c
}

// fakeStore реализует все контракты сервиса поверх одной карты состояния
// Транзакции сериализуются одним мьютексом и откатываются к снимку при ошибке
type fakeStore struct {
	txMu sync.Mutex
	st   state

	historyErr error
	publishErr error
	onLock     func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{st: state{
		bookings: map[string]domain.Booking{},
		spots:    map[string]domain.ParkingSpot{},
		areas:    map[string]domain.ParkingArea{},
		history:  map[string][]string{},
	}}
}

func (f *fakeStore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	snapshot := f.st.clone()
	if err := fn(ctx); err != nil {
		f.st = snapshot
		return err
	}
	return nil
}

// bookings

type fakeBookings struct{ *fakeStore }

func (f fakeBookings) Create(_ context.Context, b *domain.Booking) error {
	if _, ok := f.st.history[b.UserID]; !ok {
		return bookingRepo.ErrUnknownUser
	}
	for _, existing := range f.st.bookings {
		if existing.ParkingSpotID == b.ParkingSpotID && !existing.Status.IsTerminal() {
			return bookingRepo.ErrSpotAlreadyBooked
		}
	}
	b.CreatedAt, b.UpdatedAt = testNow, testNow
	f.st.bookings[b.ID] = *b
	return nil
}

func (f fakeBookings) GetByIDForUpdate(_ context.Context, id string) (*domain.Booking, error) {
	if f.onLock != nil {
		f.onLock()
	}
	b, ok := f.st.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return &b, nil
}

func (f fakeBookings) UpdateStatus(_ context.Context, id string, from []domain.BookingStatus, to domain.BookingStatus) error {
	b, ok := f.st.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	for _, s := range from {
		if b.Status == s {
			b.Status = to
			f.st.bookings[id] = b
			return nil
		}
	}
	return bookingRepo.ErrStatusChanged
}

func (f fakeBookings) UpdateEndTime(_ context.Context, id string, end time.Time, cost float64) error {
	b, ok := f.st.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.EndTime, b.TotalCost = end, cost
	f.st.bookings[id] = b
	return nil
}

// spots

type fakeSpots struct{ *fakeStore }

func (f fakeSpots) GetByID(_ context.Context, id string) (*domain.ParkingSpot, error) {
	s, ok := f.st.spots[id]
	if !ok {
		return nil, spotRepo.ErrSpotNotFound
	}
	return &s, nil
}

func (f fakeSpots) Reserve(_ context.Context, id string) error {
	s, ok := f.st.spots[id]
	if !ok {
		return spotRepo.ErrSpotNotFound
	}
	if !s.Available {
		return spotRepo.ErrSpotNotAvailable
	}
	s.Available = false
	f.st.spots[id] = s
	return nil
}

func (f fakeSpots) Release(_ context.Context, id string) (bool, error) {
	s, ok := f.st.spots[id]
	if !ok {
		return false, spotRepo.ErrSpotNotFound
	}
	if s.Available {
		return false, nil
	}
	s.Available = true
	f.st.spots[id] = s
	return true, nil
}

// areas

type fakeAreas struct{ *fakeStore }

func (f fakeAreas) GetByID(_ context.Context, id string) (*domain.ParkingArea, error) {
	a, ok := f.st.areas[id]
	if !ok {
		return nil, areaRepo.ErrAreaNotFound
	}
	return &a, nil
}

func (f fakeAreas) AdjustAvailableSpots(_ context.Context, id string, delta int) (int, error) {
	a, ok := f.st.areas[id]
	if !ok {
		return 0, areaRepo.ErrAreaNotFound
	}
	a.AvailableSpots = a.ClampAvailable(a.AvailableSpots + delta)
	f.st.areas[id] = a
	return a.AvailableSpots, nil
}

// users

type fakeUsers struct{ *fakeStore }

func (f fakeUsers) AppendBookingHistory(_ context.Context, userID, bookingID string) error {
	if f.historyErr != nil {
		return f.historyErr
	}
	h, ok := f.st.history[userID]
	if !ok {
		return userRepo.ErrUserNotFound
	}
	f.st.history[userID] = append(h, bookingID)
	return nil
}

// publisher

type fakePublisher struct{ *fakeStore }

func (f fakePublisher) Publish(_ context.Context, e domain.SpotEvent) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.st.events = append(f.st.events, e)
	return nil
}

type fakeCache struct {
	mu    sync.Mutex
	saved []domain.Booking
}

func (c *fakeCache) SaveBookings(bookings ...*domain.Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range bookings {
		c.saved = append(c.saved, *b)
	}
}

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *fakeMetrics) ObserveLedger(op, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[op+"/"+result]++
}

type fixture struct {
	store   *fakeStore
	cache   *fakeCache
	metrics *fakeMetrics
	clock   *fixedTime
	svc     *Service
}

// newFixture парковка area-1: 50 мест, первые 15 свободны, тариф 2.50
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	store.st.areas["area-1"] = domain.ParkingArea{
		ID: "area-1", Name: "Central", TotalSpots: 50, AvailableSpots: 15, HourlyRate: 2.50,
	}
	for i := 1; i <= 50; i++ {
		id := fmt.Sprintf("A%d", i)
		store.st.spots[id] = domain.ParkingSpot{ID: id, ParkingAreaID: "area-1", SpotNumber: id, Available: i <= 15}
	}
	store.st.areas["area-2"] = domain.ParkingArea{ID: "area-2", TotalSpots: 1, AvailableSpots: 1, HourlyRate: 4}
	store.st.spots["B1"] = domain.ParkingSpot{ID: "B1", ParkingAreaID: "area-2", SpotNumber: "B1", Available: true}
	store.st.history["user-1"] = nil
	store.st.history["user-2"] = nil

	f := &fixture{
		store:   store,
		cache:   &fakeCache{},
		metrics: &fakeMetrics{},
		clock:   &fixedTime{now: testNow},
	}
	f.svc = NewService(
		fakeBookings{store}, fakeSpots{store}, fakeAreas{store}, fakeUsers{store}, fakePublisher{store},
		f.cache, store, f.metrics, logger.Nop{},
	)
	f.svc.timeProvider = f.clock
	return f
}

func (f *fixture) createRequest(spotID string, start, end time.Time) *CreateBookingRequest {
	return &CreateBookingRequest{
		UserID:        "user-1",
		ParkingAreaID: "area-1",
		ParkingSpotID: spotID,
		StartTime:     start,
		EndTime:       end,
		VehicleNumber: "A123BC77",
	}
}

// assertLedgerConsistent счетчик парковки совпадает с числом свободных мест,
// и на каждом занятом месте ровно одно незавершенное бронирование
func (f *fixture) assertLedgerConsistent(t *testing.T, areaID string) {
	t.Helper()

	available := 0
	for _, s := range f.store.st.spots {
		if s.ParkingAreaID != areaID {
			continue
		}
		if s.Available {
			available++
		}
		live := 0
		for _, b := range f.store.st.bookings {
			if b.ParkingSpotID == s.ID && !b.Status.IsTerminal() {
				live++
			}
		}
		if s.Available {
			assert.Zero(t, live, "free spot %s has a live booking", s.ID)
		}
		assert.LessOrEqual(t, live, 1, "spot %s", s.ID)
	}
	assert.Equal(t, available, f.store.st.areas[areaID].AvailableSpots)
}

func TestCreateBooking_ReservesSpot(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.createRequest("A1", testNow, testNow.Add(2*time.Hour)))
	require.NoError(t, err)

	assert.InDelta(t, 5.00, b.TotalCost, 1e-9)
	assert.Equal(t, domain.StatusConfirmed, b.Status)
	assert.True(t, domain.IsValidConfirmationCode(b.ConfirmationCode))
	assert.Equal(t, "Central", b.ParkingAreaName)
	assert.Equal(t, "A1", b.SpotNumber)

	assert.False(t, f.store.st.spots["A1"].Available)
	assert.Equal(t, 14, f.store.st.areas["area-1"].AvailableSpots)
	assert.Equal(t, []string{b.ID}, f.store.st.history["user-1"])

	require.Len(t, f.store.st.events, 1)
	assert.Equal(t, "parking_spots/area-1/A1", f.store.st.events[0].Path())
	assert.False(t, f.store.st.events[0].Available)

	require.Len(t, f.cache.saved, 1)
	assert.Equal(t, b.ID, f.cache.saved[0].ID)
	assert.Equal(t, 1, f.metrics.counts["CreateBooking/ok"])

	f.assertLedgerConsistent(t, "area-1")
}

func TestCreateBooking_DegenerateRangeIsOneHour(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.CreateBooking(context.Background(), f.createRequest("A2", testNow, testNow))
	require.NoError(t, err)

	assert.Equal(t, testNow.Add(time.Hour), b.EndTime)
	assert.InDelta(t, 1.0, b.Range().DurationHours(), 1e-9)
	assert.InDelta(t, 2.50, b.TotalCost, 1e-9)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	badMethod := "CASH"

	tests := []struct {
		name   string
		mutate func(r *CreateBookingRequest)
	}{
		{"no user", func(r *CreateBookingRequest) { r.UserID = "" }},
		{"no area", func(r *CreateBookingRequest) { r.ParkingAreaID = "" }},
		{"no spot", func(r *CreateBookingRequest) { r.ParkingSpotID = "" }},
		{"no start", func(r *CreateBookingRequest) { r.StartTime = time.Time{} }},
		{"blank vehicle", func(r *CreateBookingRequest) { r.VehicleNumber = "   " }},
		{"long vehicle", func(r *CreateBookingRequest) { r.VehicleNumber = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" }},
		{"unknown payment", func(r *CreateBookingRequest) { r.PaymentMethod = &badMethod }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.createRequest("A1", testNow, testNow.Add(time.Hour))
			tt.mutate(req)

			_, err := f.svc.CreateBooking(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	assert.Equal(t, 15, f.store.st.areas["area-1"].AvailableSpots)
}

func TestCreateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *CreateBookingRequest)
		wantErr error
	}{
		{"occupied spot", func(r *CreateBookingRequest) { r.ParkingSpotID = "A40" }, ErrSpotNotAvailable},
		{"unknown spot", func(r *CreateBookingRequest) { r.ParkingSpotID = "Z9" }, ErrSpotNotFound},
		{"spot of another area", func(r *CreateBookingRequest) { r.ParkingSpotID = "B1" }, ErrSpotNotFound},
		{"unknown area", func(r *CreateBookingRequest) { r.ParkingAreaID = "area-9" }, ErrAreaNotFound},
		{"unknown user", func(r *CreateBookingRequest) { r.UserID = "ghost" }, ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.createRequest("A1", testNow, testNow.Add(time.Hour))
			tt.mutate(req)

			_, err := f.svc.CreateBooking(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Empty(t, f.store.st.bookings)
			assert.Empty(t, f.store.st.events)
			f.assertLedgerConsistent(t, "area-1")
			assert.Equal(t, 1, f.metrics.counts["CreateBooking/rejected"])
		})
	}
}

func TestCreateBooking_RollsBackOnLateFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *fakeStore)
	}{
		{"history append fails", func(s *fakeStore) { s.historyErr = errors.New("connection reset") }},
		{"notify fails", func(s *fakeStore) { s.publishErr = errors.New("connection reset") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f.store)

			_, err := f.svc.CreateBooking(context.Background(), f.createRequest("A1", testNow, testNow.Add(time.Hour)))
			require.ErrorIs(t, err, ErrInternal)

			assert.Empty(t, f.store.st.bookings, "booking must not survive")
			assert.True(t, f.store.st.spots["A1"].Available, "spot must be free again")
			assert.Equal(t, 15, f.store.st.areas["area-1"].AvailableSpots)
			assert.Empty(t, f.store.st.history["user-1"])
			assert.Empty(t, f.cache.saved)
			assert.Equal(t, 1, f.metrics.counts["CreateBooking/failed"])
		})
	}
}

func TestCreateBooking_ConcurrentSameSpot(t *testing.T) {
	f := newFixture(t)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.CreateBooking(context.Background(), f.createRequest("A3", testNow, testNow.Add(time.Hour)))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrSpotNotAvailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, conflicts)
	assert.Equal(t, 14, f.store.st.areas["area-1"].AvailableSpots)
	f.assertLedgerConsistent(t, "area-1")
}

func TestCancelBooking_ReleasesSpot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow.Add(time.Hour), testNow.Add(3*time.Hour)))
	require.NoError(t, err)

	cancelled, err := f.svc.CancelBooking(ctx, &CancelBookingRequest{
		BookingID: b.ID, UserID: "user-1", ParkingAreaID: "area-1", ParkingSpotID: "A1",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, domain.StatusCancelled, f.store.st.bookings[b.ID].Status)
	assert.True(t, f.store.st.spots["A1"].Available)
	assert.Equal(t, 15, f.store.st.areas["area-1"].AvailableSpots)

	require.Len(t, f.store.st.events, 2)
	assert.True(t, f.store.st.events[1].Available)
	f.assertLedgerConsistent(t, "area-1")
}

func TestCancelBooking_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow.Add(time.Hour), testNow.Add(2*time.Hour)))
	require.NoError(t, err)

	req := &CancelBookingRequest{BookingID: b.ID, UserID: "user-1"}
	_, err = f.svc.CancelBooking(ctx, req)
	require.NoError(t, err)

	again, err := f.svc.CancelBooking(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, again.Status)

	assert.Equal(t, 15, f.store.st.areas["area-1"].AvailableSpots, "counter is incremented once")
	assert.Len(t, f.store.st.events, 2)
	f.assertLedgerConsistent(t, "area-1")
}

func TestCancelBooking_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow, testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = f.svc.CancelBooking(ctx, &CancelBookingRequest{BookingID: b.ID, UserID: "user-2"})
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.CancelBooking(ctx, &CancelBookingRequest{BookingID: b.ID, UserID: "user-1", ParkingSpotID: "A2"})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.CancelBooking(ctx, &CancelBookingRequest{BookingID: "missing", UserID: "user-1"})
	require.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.svc.CancelBooking(ctx, &CancelBookingRequest{UserID: "user-1"})
	require.ErrorIs(t, err, ErrInvalidInput)

	f.clock.now = testNow.Add(2 * time.Hour)
	_, err = f.svc.CancelBooking(ctx, &CancelBookingRequest{BookingID: b.ID, UserID: "user-1"})
	require.ErrorIs(t, err, ErrCannotCancel)

	assert.Equal(t, domain.StatusConfirmed, f.store.st.bookings[b.ID].Status)
	assert.Equal(t, 14, f.store.st.areas["area-1"].AvailableSpots)
}

func TestCancelBooking_CounterIsClamped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow.Add(time.Hour), testNow.Add(2*time.Hour)))
	require.NoError(t, err)

	// Счетчик разошелся с местами: уже на максимуме
	a := f.store.st.areas["area-1"]
	a.AvailableSpots = a.TotalSpots
	f.store.st.areas["area-1"] = a

	_, err = f.svc.CancelBooking(ctx, &CancelBookingRequest{BookingID: b.ID, UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 50, f.store.st.areas["area-1"].AvailableSpots)
}

func TestExtendBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow, testNow.Add(2*time.Hour)))
	require.NoError(t, err)

	_, err = f.svc.ExtendBooking(ctx, &ExtendBookingRequest{BookingID: b.ID, UserID: "user-1", NewEndTime: testNow.Add(3 * time.Hour)})
	require.ErrorIs(t, err, ErrCannotExtend, "only ACTIVE bookings can be extended")

	_, err = f.svc.ActivateBooking(ctx, b.ID, testNow)
	require.NoError(t, err)

	extended, err := f.svc.ExtendBooking(ctx, &ExtendBookingRequest{BookingID: b.ID, UserID: "user-1", NewEndTime: testNow.Add(3 * time.Hour)})
	require.NoError(t, err)

	assert.InDelta(t, b.TotalCost+2.50, extended.TotalCost, 1e-9)
	assert.Equal(t, testNow.Add(3*time.Hour), f.store.st.bookings[b.ID].EndTime)
	assert.False(t, f.store.st.spots["A1"].Available, "spot state is unchanged")
	assert.Equal(t, 14, f.store.st.areas["area-1"].AvailableSpots)
	assert.Len(t, f.store.st.events, 1)

	_, err = f.svc.ExtendBooking(ctx, &ExtendBookingRequest{BookingID: b.ID, UserID: "user-1", NewEndTime: testNow.Add(time.Hour)})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.ExtendBooking(ctx, &ExtendBookingRequest{BookingID: b.ID, UserID: "user-2", NewEndTime: testNow.Add(5 * time.Hour)})
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestCompleteBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow, testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = f.svc.CompleteBooking(ctx, b.ID, "user-1")
	require.ErrorIs(t, err, ErrInvalidTransition, "CONFIRMED cannot be completed")

	_, err = f.svc.ActivateBooking(ctx, b.ID, testNow)
	require.NoError(t, err)

	done, err := f.svc.CompleteBooking(ctx, b.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.True(t, f.store.st.spots["A1"].Available)
	assert.Equal(t, 15, f.store.st.areas["area-1"].AvailableSpots)

	_, err = f.svc.CancelBooking(ctx, &CancelBookingRequest{BookingID: b.ID, UserID: "user-1"})
	require.ErrorIs(t, err, ErrCannotCancel)

	f.assertLedgerConsistent(t, "area-1")
}

func TestExpireBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cutoff := testNow.Add(2 * time.Hour)

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow, testNow.Add(time.Hour)))
	require.NoError(t, err)

	_, err = f.svc.ExpireBooking(ctx, b.ID, cutoff)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.ActivateBooking(ctx, b.ID, testNow)
	require.NoError(t, err)

	expired, err := f.svc.ExpireBooking(ctx, b.ID, cutoff)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, expired.Status)
	assert.Equal(t, 15, f.store.st.areas["area-1"].AvailableSpots)

	_, err = f.svc.ExpireBooking(ctx, b.ID, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 15, f.store.st.areas["area-1"].AvailableSpots)

	f.assertLedgerConsistent(t, "area-1")
}

func TestExpireBooking_ExtendedAfterListingIsKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow.Add(-3*time.Hour), testNow.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = f.svc.ActivateBooking(ctx, b.ID, testNow)
	require.NoError(t, err)

	// задача уже выбрала бронирование как просроченное, пользователь продлевает его раньше, чем она дойдет до записи
	cutoff := testNow.Add(-domain.ExpiryGracePeriod)
	_, err = f.svc.ExtendBooking(ctx, &ExtendBookingRequest{BookingID: b.ID, UserID: "user-1", NewEndTime: testNow.Add(2 * time.Hour)})
	require.NoError(t, err)

	_, err = f.svc.ExpireBooking(ctx, b.ID, cutoff)
	require.ErrorIs(t, err, ErrInvalidTransition)

	stored := f.store.st.bookings[b.ID]
	assert.Equal(t, domain.StatusActive, stored.Status)
	assert.Equal(t, testNow.Add(2*time.Hour), stored.EndTime)
	assert.False(t, f.store.st.spots["A1"].Available)
	assert.Equal(t, 14, f.store.st.areas["area-1"].AvailableSpots)
	f.assertLedgerConsistent(t, "area-1")
}

func TestActivateBooking_NotStartedYet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow.Add(time.Hour), testNow.Add(2*time.Hour)))
	require.NoError(t, err)

	_, err = f.svc.ActivateBooking(ctx, b.ID, testNow)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, domain.StatusConfirmed, f.store.st.bookings[b.ID].Status)

	active, err := f.svc.ActivateBooking(ctx, b.ID, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, active.Status)
}

func TestCancelBooking_ChecksTimeUnderLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow, testNow.Add(time.Hour)))
	require.NoError(t, err)

	// пока запрос ждал блокировку строки, бронирование закончилось
	f.store.onLock = func() { f.clock.now = testNow.Add(2 * time.Hour) }

	_, err = f.svc.CancelBooking(ctx, &CancelBookingRequest{BookingID: b.ID, UserID: "user-1"})
	require.ErrorIs(t, err, ErrCannotCancel)
	assert.Equal(t, domain.StatusConfirmed, f.store.st.bookings[b.ID].Status)
}

func TestLedger_SequenceKeepsCounterConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 1; i <= 15; i++ {
		b, err := f.svc.CreateBooking(ctx, f.createRequest(fmt.Sprintf("A%d", i), testNow.Add(time.Hour), testNow.Add(2*time.Hour)))
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}
	assert.Zero(t, f.store.st.areas["area-1"].AvailableSpots)

	_, err := f.svc.CreateBooking(ctx, f.createRequest("A1", testNow.Add(time.Hour), testNow.Add(2*time.Hour)))
	require.ErrorIs(t, err, ErrSpotNotAvailable)

	for i, id := range ids {
		if i%2 == 0 {
			_, err := f.svc.CancelBooking(ctx, &CancelBookingRequest{BookingID: id, UserID: "user-1"})
			require.NoError(t, err)
		}
		f.assertLedgerConsistent(t, "area-1")
	}
	assert.Equal(t, 8, f.store.st.areas["area-1"].AvailableSpots)
}
