package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/cache"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-ParkingService/internal/service/users/models"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
	"github.com/m04kA/SMC-ParkingService/pkg/workerpool"
)

var errRemote = errors.New("connection refused")

type fakeUsers struct {
	users        map[string]domain.User
	liveBookings map[string]int
	err          error
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	if _, ok := f.users[u.ID]; ok {
		return userRepo.ErrUserExists
	}
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, userRepo.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *domain.User) error {
	if _, ok := f.users[u.ID]; !ok {
		return userRepo.ErrUserNotFound
	}
	f.users[u.ID] = *u
	return nil
}

// Delete отклоняется, пока у пользователя есть незавершенные бронирования (внешний ключ)
func (f *fakeUsers) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return userRepo.ErrUserNotFound
	}
	if f.liveBookings[id] > 0 {
		return userRepo.ErrUserHasBookings
	}
	delete(f.users, id)
	return nil
}

type fakeBookings struct {
	finished map[string]int64
	calls    []string
}

func (f *fakeBookings) DeleteTerminalByUser(_ context.Context, userID string) (int64, error) {
	f.calls = append(f.calls, userID)
	n := f.finished[userID]
	delete(f.finished, userID)
	return n, nil
}

type passTx struct{}

func (passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type fakeFavorites map[string][]string

func (f fakeFavorites) ListByUser(_ context.Context, userID string) ([]string, error) {
	return f[userID], nil
}

// newCache реальная реплика на sqlite в памяти; один воркер сохраняет порядок записей и чтений
func newCache(t *testing.T) *cache.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := cache.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	pool := workerpool.New(1, 16, logger.Nop{}, nil)
	t.Cleanup(func() {
		pool.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store, err := cache.New(db, pool, logger.Nop{})
	require.NoError(t, err)
	return store
}

func TestService_CreateAndGet(t *testing.T) {
	repo := &fakeUsers{users: map[string]domain.User{}}
	svc := NewService(repo, fakeFavorites{"uid-1": {"area-1"}}, &fakeBookings{}, newCache(t), passTx{}, nil, logger.Nop{})
	ctx := context.Background()

	created, err := svc.Create(ctx, &models.CreateUserRequest{ID: "uid-1", Name: " Anna ", Email: "anna@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Anna", created.Name)
	assert.Empty(t, created.BookingHistory)

	_, err = svc.Create(ctx, &models.CreateUserRequest{ID: "uid-1", Name: "Anna", Email: "anna@example.com"})
	require.ErrorIs(t, err, ErrUserExists)

	got, err := svc.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"area-1"}, got.FavoriteLocations)
	assert.Equal(t, models.SourceRemote, got.Source)

	_, err = svc.Get(ctx, "uid-2")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_CreateValidation(t *testing.T) {
	svc := NewService(&fakeUsers{users: map[string]domain.User{}}, fakeFavorites{}, &fakeBookings{}, nil, passTx{}, nil, logger.Nop{})

	tests := []*models.CreateUserRequest{
		{Name: "Anna", Email: "anna@example.com"},
		{ID: "uid-1", Email: "anna@example.com"},
		{ID: "uid-1", Name: "Anna", Email: "not-an-email"},
		{ID: "uid-1", Name: strings.Repeat("a", domain.MaxNameLength+1), Email: "anna@example.com"},
	}
	for _, req := range tests {
		_, err := svc.Create(context.Background(), req)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestService_GetFallsBackToCache(t *testing.T) {
	repo := &fakeUsers{users: map[string]domain.User{}}
	svc := NewService(repo, fakeFavorites{}, &fakeBookings{}, newCache(t), passTx{}, nil, logger.Nop{})
	ctx := context.Background()

	_, err := svc.Create(ctx, &models.CreateUserRequest{ID: "uid-1", Name: "Anna", Email: "anna@example.com"})
	require.NoError(t, err)

	repo.err = errRemote

	got, err := svc.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, models.SourceCache, got.Source)
	assert.Equal(t, "Anna", got.Name)

	require.NoError(t, svc.PurgeCache(ctx, "uid-1"))

	_, err = svc.Get(ctx, "uid-1")
	require.ErrorIs(t, err, ErrInternal)
}

func TestService_Update(t *testing.T) {
	repo := &fakeUsers{users: map[string]domain.User{
		"uid-1": {ID: "uid-1", Name: "Anna", Email: "anna@example.com", PhoneNumber: ptr.Ptr("+100")},
	}}
	svc := NewService(repo, fakeFavorites{}, &fakeBookings{}, nil, passTx{}, nil, logger.Nop{})
	ctx := context.Background()

	updated, err := svc.Update(ctx, "uid-1", &models.UpdateUserRequest{Name: ptr.Ptr("Anna K"), PhoneNumber: ptr.Ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "Anna K", updated.Name)
	assert.Nil(t, updated.PhoneNumber)
	assert.Equal(t, "anna@example.com", repo.users["uid-1"].Email)

	_, err = svc.Update(ctx, "uid-1", &models.UpdateUserRequest{Email: ptr.Ptr("broken")})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, "uid-9", &models.UpdateUserRequest{Name: ptr.Ptr("X")})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_Delete(t *testing.T) {
	repo := &fakeUsers{
		users: map[string]domain.User{
			"uid-1": {ID: "uid-1", Name: "Anna", Email: "anna@example.com"},
			"uid-2": {ID: "uid-2", Name: "Boris", Email: "boris@example.com"},
		},
		liveBookings: map[string]int{"uid-2": 1},
	}
	bookings := &fakeBookings{finished: map[string]int64{"uid-1": 2}}
	store := newCache(t)
	svc := NewService(repo, fakeFavorites{}, bookings, store, passTx{}, nil, logger.Nop{})
	ctx := context.Background()

	store.SaveUser(&domain.User{ID: "uid-1", Name: "Anna"})

	require.NoError(t, svc.Delete(ctx, "uid-1"))
	assert.NotContains(t, repo.users, "uid-1")
	assert.Empty(t, bookings.finished)

	_, err := store.GetUser(ctx, "uid-1")
	require.ErrorIs(t, err, cache.ErrNotCached)

	require.ErrorIs(t, svc.Delete(ctx, "uid-2"), ErrUserHasLiveBookings)
	assert.Contains(t, repo.users, "uid-2")

	require.ErrorIs(t, svc.Delete(ctx, "uid-9"), ErrUserNotFound)
	assert.Equal(t, []string{"uid-1", "uid-2", "uid-9"}, bookings.calls)
}
