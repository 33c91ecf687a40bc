package areas

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/cache"
	areaRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/area"
	spotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/spot"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/ptr"
)

var errRemote = errors.New("connection refused")

type fakeAreas struct {
	areas  map[string]*domain.ParkingArea
	err    error
	sets   []int
	create error
}

func (f *fakeAreas) Create(_ context.Context, a *domain.ParkingArea) error {
	if f.create != nil {
		return f.create
	}
	f.areas[a.ID] = a
	return nil
}

func (f *fakeAreas) GetByID(_ context.Context, id string) (*domain.ParkingArea, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.areas[id]
	if !ok {
		return nil, areaRepo.ErrAreaNotFound
	}
	c := *a
	return &c, nil
}

func (f *fakeAreas) Nearby(_ context.Context, filter domain.NearbyFilter) ([]*domain.ParkingArea, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.ParkingArea
	for _, a := range f.areas {
		if filter.Matches(a) {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeAreas) SetAvailableSpots(_ context.Context, id string, available int) (int, error) {
	a := f.areas[id]
	a.AvailableSpots = a.ClampAvailable(available)
	f.sets = append(f.sets, a.AvailableSpots)
	return a.AvailableSpots, nil
}

func (f *fakeAreas) Search(_ context.Context, text string, limit int) ([]*domain.ParkingArea, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := matchText(f.areas, text)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAreas) AdjustCounters(_ context.Context, id string, totalDelta, availableDelta int) (int, int, error) {
	a, ok := f.areas[id]
	if !ok {
		return 0, 0, areaRepo.ErrAreaNotFound
	}
	a.TotalSpots = max(0, a.TotalSpots+totalDelta)
	a.AvailableSpots = a.ClampAvailable(a.AvailableSpots + availableDelta)
	return a.TotalSpots, a.AvailableSpots, nil
}

func (f *fakeAreas) Update(_ context.Context, id string, patch domain.AreaPatch) (*domain.ParkingArea, error) {
	a, ok := f.areas[id]
	if !ok {
		return nil, areaRepo.ErrAreaNotFound
	}
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.HourlyRate != nil {
		a.HourlyRate = *patch.HourlyRate
	}
	if patch.HasElectricCharging != nil {
		a.HasElectricCharging = *patch.HasElectricCharging
	}
	c := *a
	return &c, nil
}

func (f *fakeAreas) Rate(_ context.Context, id string, score float64) (*domain.ParkingArea, error) {
	a, ok := f.areas[id]
	if !ok {
		return nil, areaRepo.ErrAreaNotFound
	}
	a.Rating = (a.Rating*float64(a.NumberOfRatings) + score) / float64(a.NumberOfRatings+1)
	a.NumberOfRatings++
	c := *a
	return &c, nil
}

func (f *fakeAreas) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := f.areas[id]; !ok {
		return false, nil
	}
	delete(f.areas, id)
	return true, nil
}

func matchText(areas map[string]*domain.ParkingArea, text string) []*domain.ParkingArea {
	text = strings.ToLower(text)
	var out []*domain.ParkingArea
	for _, a := range areas {
		if strings.Contains(strings.ToLower(a.Name), text) || strings.Contains(strings.ToLower(a.Address), text) {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type fakeSpots struct {
	spots []*domain.ParkingSpot
	err   error
}

func (f *fakeSpots) CreateBatch(_ context.Context, spots []*domain.ParkingSpot) error {
	if f.err != nil {
		return f.err
	}
	for _, n := range spots {
		for _, s := range f.spots {
			if s.ParkingAreaID == n.ParkingAreaID && s.SpotNumber == n.SpotNumber {
				return spotRepo.ErrSpotNumberTaken
			}
		}
	}
	f.spots = append(f.spots, spots...)
	return nil
}

func (f *fakeSpots) GetByID(_ context.Context, id string) (*domain.ParkingSpot, error) {
	for _, s := range f.spots {
		if s.ID == id {
			c := *s
			return &c, nil
		}
	}
	return nil, spotRepo.ErrSpotNotFound
}

func (f *fakeSpots) ListByAreaForUpdate(ctx context.Context, areaID string) ([]*domain.ParkingSpot, error) {
	return f.ListByArea(ctx, areaID)
}

func (f *fakeSpots) Update(_ context.Context, areaID, id string, patch domain.SpotPatch) (*domain.ParkingSpot, error) {
	for _, s := range f.spots {
		if s.ID != id || s.ParkingAreaID != areaID {
			continue
		}
		if patch.SpotNumber != nil {
			for _, other := range f.spots {
				if other.ID != id && other.ParkingAreaID == areaID && other.SpotNumber == *patch.SpotNumber {
					return nil, spotRepo.ErrSpotNumberTaken
				}
			}
			s.SpotNumber = *patch.SpotNumber
		}
		if patch.Type != nil {
			s.Type = *patch.Type
		}
		c := *s
		return &c, nil
	}
	return nil, spotRepo.ErrSpotNotFound
}

func (f *fakeSpots) Delete(_ context.Context, areaID, id string) (bool, error) {
	for i, s := range f.spots {
		if s.ID == id && s.ParkingAreaID == areaID && s.Available {
			f.spots = append(f.spots[:i], f.spots[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSpots) ListByArea(_ context.Context, areaID string) ([]*domain.ParkingSpot, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.ParkingSpot
	for _, s := range f.spots {
		if s.ParkingAreaID == areaID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeFavorites struct {
	set map[string]map[string]bool
}

func (f *fakeFavorites) Add(_ context.Context, userID, areaID string) error {
	if f.set[userID] == nil {
		f.set[userID] = map[string]bool{}
	}
	f.set[userID][areaID] = true
	return nil
}

func (f *fakeFavorites) Remove(_ context.Context, userID, areaID string) (bool, error) {
	if !f.set[userID][areaID] {
		return false, nil
	}
	delete(f.set[userID], areaID)
	return true, nil
}

func (f *fakeFavorites) ListByUser(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for id := range f.set[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeCache struct {
	areas map[string]*domain.ParkingArea
	spots []*domain.ParkingSpot
}

func (c *fakeCache) GetArea(_ context.Context, id string) (*domain.ParkingArea, error) {
	a, ok := c.areas[id]
	if !ok {
		return nil, cache.ErrNotCached
	}
	return a, nil
}

func (c *fakeCache) NearbyAreas(_ context.Context, filter domain.NearbyFilter) ([]*domain.ParkingArea, error) {
	var out []*domain.ParkingArea
	for _, a := range c.areas {
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (c *fakeCache) ListSpots(_ context.Context, areaID string) ([]*domain.ParkingSpot, error) {
	var out []*domain.ParkingSpot
	for _, s := range c.spots {
		if s.ParkingAreaID == areaID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *fakeCache) SearchAreas(_ context.Context, text string, limit int) ([]*domain.ParkingArea, error) {
	out := matchText(c.areas, text)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *fakeCache) DeleteArea(_ context.Context, areaID string) error {
	delete(c.areas, areaID)
	return nil
}

func (c *fakeCache) DeleteSpot(_ context.Context, spotID string) error {
	for i, s := range c.spots {
		if s.ID == spotID {
			c.spots = append(c.spots[:i], c.spots[i+1:]...)
			break
		}
	}
	return nil
}

func (c *fakeCache) SaveAreas(areas ...*domain.ParkingArea) {
	for _, a := range areas {
		cp := *a
		c.areas[a.ID] = &cp
	}
}

func (c *fakeCache) SaveSpots(spots ...*domain.ParkingSpot) {
	c.spots = append(c.spots, spots...)
}

type fakePublisher struct {
	events []domain.SpotEvent
}

func (p *fakePublisher) Publish(_ context.Context, event domain.SpotEvent) error {
	p.events = append(p.events, event)
	return nil
}

type passTx struct{}

func (passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type fixture struct {
	areas     *fakeAreas
	spots     *fakeSpots
	favorites *fakeFavorites
	publisher *fakePublisher
	cache     *fakeCache
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		areas: &fakeAreas{areas: map[string]*domain.ParkingArea{
			"near": {ID: "near", Latitude: 55.751, Longitude: 37.611, TotalSpots: 3, AvailableSpots: 3, HourlyRate: 2.5},
			"ev":   {ID: "ev", Latitude: 55.76, Longitude: 37.62, TotalSpots: 5, AvailableSpots: 1, HourlyRate: 4, HasElectricCharging: true},
			"full": {ID: "full", Latitude: 55.752, Longitude: 37.612, TotalSpots: 5, AvailableSpots: 0, HourlyRate: 1},
			"far":  {ID: "far", Latitude: 56.5, Longitude: 37.6, TotalSpots: 5, AvailableSpots: 5, HourlyRate: 1},
		}},
		spots: &fakeSpots{spots: []*domain.ParkingSpot{
			{ID: "s1", ParkingAreaID: "near", SpotNumber: "1", Available: true},
			{ID: "s2", ParkingAreaID: "near", SpotNumber: "2", Available: false},
			{ID: "s3", ParkingAreaID: "near", SpotNumber: "3", Available: true},
		}},
		favorites: &fakeFavorites{set: map[string]map[string]bool{"user-1": {"ev": true}}},
		publisher: &fakePublisher{},
		cache:     &fakeCache{areas: map[string]*domain.ParkingArea{}},
	}
	f.svc = NewService(f.areas, f.spots, f.favorites, f.publisher, f.cache, passTx{}, nil, logger.Nop{})
	return f
}

func ids(resp *models.AreaListResponse) []string {
	out := make([]string, len(resp.Areas))
	for i, a := range resp.Areas {
		out[i] = a.ID
	}
	return out
}

func TestGetNearby(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	resp, err := f.svc.GetNearby(ctx, &models.NearbyRequest{UserID: "user-1", Latitude: 55.75, Longitude: 37.61})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"near", "ev", "full"}, ids(resp))
	assert.Equal(t, models.SourceRemote, resp.Source)

	for _, a := range resp.Areas {
		assert.Equal(t, a.ID == "ev", a.Favorite, a.ID)
	}

	resp, err = f.svc.GetNearby(ctx, &models.NearbyRequest{Latitude: 55.75, Longitude: 37.61, MaxHourlyRate: ptr.Ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"near"}, ids(resp), "filters drop full areas and expensive ones")

	resp, err = f.svc.GetNearby(ctx, &models.NearbyRequest{Latitude: 55.75, Longitude: 37.61, NeedsEV: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev"}, ids(resp))

	assert.Len(t, f.cache.areas, 3, "results are written back to the cache")
}

func TestGetNearby_Validation(t *testing.T) {
	f := newFixture()

	tests := []*models.NearbyRequest{
		{Latitude: 91, Longitude: 0},
		{Latitude: 0, Longitude: -181},
		{Latitude: 0, Longitude: 0, RadiusKm: -1},
		{Latitude: 0, Longitude: 0, MaxHourlyRate: ptr.Ptr(-1.0)},
	}
	for _, req := range tests {
		_, err := f.svc.GetNearby(context.Background(), req)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestGetNearby_CacheFallback(t *testing.T) {
	f := newFixture()
	f.cache.areas["near"] = &domain.ParkingArea{ID: "near", Latitude: 55.751, Longitude: 37.611, TotalSpots: 3, AvailableSpots: 3}
	f.areas.err = errRemote

	resp, err := f.svc.GetNearby(context.Background(), &models.NearbyRequest{Latitude: 55.75, Longitude: 37.61})
	require.NoError(t, err)
	assert.Equal(t, models.SourceCache, resp.Source)
	assert.Equal(t, []string{"near"}, ids(resp))
}

func TestGetSpots_Reconciles(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.GetSpots(context.Background(), "near")
	require.NoError(t, err)
	assert.Len(t, resp.Spots, 3)
	assert.Equal(t, 2, resp.AvailableSpots)

	assert.Equal(t, []int{2}, f.areas.sets)
	assert.Equal(t, 2, f.areas.areas["near"].AvailableSpots)
	assert.Equal(t, 2, f.cache.areas["near"].AvailableSpots)

	_, err = f.svc.GetSpots(context.Background(), "near")
	require.NoError(t, err)
	assert.Len(t, f.areas.sets, 1, "no write when the counter already matches")

	_, err = f.svc.GetSpots(context.Background(), "missing")
	require.ErrorIs(t, err, ErrAreaNotFound)
}

func TestGetSpots_CacheFallback(t *testing.T) {
	f := newFixture()
	f.cache.spots = []*domain.ParkingSpot{{ID: "s1", ParkingAreaID: "near", Available: true}}
	f.spots.err = errRemote

	resp, err := f.svc.GetSpots(context.Background(), "near")
	require.NoError(t, err)
	assert.Equal(t, models.SourceCache, resp.Source)
	assert.Len(t, resp.Spots, 1)
	assert.Empty(t, f.areas.sets)

	f.cache.spots = nil
	_, err = f.svc.GetSpots(context.Background(), "near")
	require.ErrorIs(t, err, ErrInternal)
}

func TestCreateArea(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.CreateArea(context.Background(), &models.CreateAreaRequest{
		Name:       "  Mall  ",
		Latitude:   55.7,
		Longitude:  37.6,
		HourlyRate: 3,
		Spots: []models.CreateSpotRequest{
			{SpotNumber: "A1"},
			{SpotNumber: "A2", Available: ptr.Ptr(true)},
			{SpotNumber: "E1", Type: domain.SpotTypeElectric, ElectricCharging: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Mall", resp.Name)
	assert.Equal(t, 3, resp.TotalSpots)
	assert.Equal(t, 3, resp.AvailableSpots)
	assert.Empty(t, resp.Amenities)

	created, err := f.spots.ListByArea(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.Equal(t, domain.SpotTypeRegular, created[0].Type)
	assert.Equal(t, domain.SpotTypeElectric, created[2].Type)
}

func TestCreateArea_Errors(t *testing.T) {
	f := newFixture()
	valid := func() *models.CreateAreaRequest {
		return &models.CreateAreaRequest{Name: "Mall", HourlyRate: 1, Spots: []models.CreateSpotRequest{{SpotNumber: "1"}}}
	}

	tests := []struct {
		name   string
		mutate func(r *models.CreateAreaRequest)
	}{
		{"no name", func(r *models.CreateAreaRequest) { r.Name = " " }},
		{"negative rate", func(r *models.CreateAreaRequest) { r.HourlyRate = -1 }},
		{"no spots", func(r *models.CreateAreaRequest) { r.Spots = nil }},
		{"duplicate numbers", func(r *models.CreateAreaRequest) {
			r.Spots = []models.CreateSpotRequest{{SpotNumber: "1"}, {SpotNumber: "1"}}
		}},
		{"unknown type", func(r *models.CreateAreaRequest) { r.Spots[0].Type = "VIP" }},
		{"spot seeded as occupied", func(r *models.CreateAreaRequest) { r.Spots[0].Available = ptr.Ptr(false) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := f.svc.CreateArea(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	f.areas.create = errRemote
	_, err := f.svc.CreateArea(context.Background(), valid())
	require.ErrorIs(t, err, ErrInternal)
}

func TestQuote(t *testing.T) {
	f := newFixture()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	q, err := f.svc.Quote(context.Background(), "near", start, start.Add(150*time.Minute))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, q.DurationHours, 1e-9)
	assert.Equal(t, 2, q.Hours)
	assert.Equal(t, 30, q.Minutes)
	assert.InDelta(t, 6.25, q.TotalCost, 1e-9)

	q, err = f.svc.Quote(context.Background(), "near", start, start)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), q.EndTime)
	assert.InDelta(t, 2.5, q.TotalCost, 1e-9)

	_, err = f.svc.Quote(context.Background(), "missing", start, start)
	require.ErrorIs(t, err, ErrAreaNotFound)

	_, err = f.svc.Quote(context.Background(), "near", time.Time{}, start)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestFavorites(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.AddFavorite(ctx, "user-2", "near"))
	require.NoError(t, f.svc.AddFavorite(ctx, "user-2", "near"))
	require.ErrorIs(t, f.svc.AddFavorite(ctx, "user-2", "missing"), ErrAreaNotFound)

	resp, err := f.svc.ListFavorites(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"near"}, resp.AreaIDs)

	area, err := f.svc.GetByID(ctx, "near", "user-2")
	require.NoError(t, err)
	assert.True(t, area.Favorite)

	require.NoError(t, f.svc.RemoveFavorite(ctx, "user-2", "near"))
	require.NoError(t, f.svc.RemoveFavorite(ctx, "user-2", "near"))

	resp, err = f.svc.ListFavorites(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, resp.AreaIDs)
}
