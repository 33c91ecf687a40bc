package stream_spots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/realtime"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

// fakeAreas отдает снимок area-1; onSnapshot вызывается во время чтения снимка
type fakeAreas struct {
	onSnapshot func()
}

func (f fakeAreas) GetSpots(_ context.Context, areaID string) (*models.SpotListResponse, error) {
	if areaID != "area-1" {
		return nil, areas.ErrAreaNotFound
	}
	if f.onSnapshot != nil {
		f.onSnapshot()
	}
	return &models.SpotListResponse{
		ParkingAreaID:  areaID,
		AvailableSpots: 1,
		Spots:          []models.SpotResponse{{ID: "A1", ParkingAreaID: areaID, Available: true}},
		Source:         models.SourceRemote,
	}, nil
}

type notifications chan *pq.Notification

func (n notifications) NotificationChannel() <-chan *pq.Notification { return n }

func newServer(t *testing.T, hub *realtime.Hub, svc AreaService) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/areas/{areaId}/spots/stream", NewHandler(hub, svc, logger.Nop{}).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return websocket.DefaultDialer.DialContext(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandle_SnapshotThenEvents(t *testing.T) {
	hub := realtime.NewHub(logger.Nop{}, nil)
	srv := newServer(t, hub, fakeAreas{})

	conn, _, err := dial(t, srv, "/areas/area-1/spots/stream")
	require.NoError(t, err)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageSnapshot, msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, "area-1", msg.Snapshot.ParkingAreaID)
	require.Equal(t, 1, hub.Count())

	hub.Dispatch(domain.SpotEvent{ParkingAreaID: "area-2", ParkingSpotID: "B1", Available: false})
	hub.Dispatch(domain.SpotEvent{ParkingAreaID: "area-1", ParkingSpotID: "A1", Available: false})

	msg = readMessage(t, conn)
	assert.Equal(t, MessageSpot, msg.Type)
	require.NotNil(t, msg.Spot)
	assert.Equal(t, "A1", msg.Spot.ParkingSpotID)
	assert.False(t, msg.Spot.Available)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandle_ChangeDuringSnapshotIsDelivered(t *testing.T) {
	hub := realtime.NewHub(logger.Nop{}, nil)
	svc := fakeAreas{onSnapshot: func() {
		hub.Dispatch(domain.SpotEvent{ParkingAreaID: "area-1", ParkingSpotID: "A1", Available: false})
	}}
	srv := newServer(t, hub, svc)

	conn, _, err := dial(t, srv, "/areas/area-1/spots/stream")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, MessageSnapshot, readMessage(t, conn).Type)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageSpot, msg.Type)
	require.NotNil(t, msg.Spot)
	assert.Equal(t, "A1", msg.Spot.ParkingSpotID)
}

func TestHandle_FeedErrors(t *testing.T) {
	hub := realtime.NewHub(logger.Nop{}, nil)
	srv := newServer(t, hub, fakeAreas{})

	src := make(notifications, 1)
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	conn, _, err := dial(t, srv, "/areas/area-1/spots/stream?spotId=A1")
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, MessageSnapshot, readMessage(t, conn).Type)

	go hub.Run(runCtx, src)

	// nil уведомление: LISTEN переподключился
	src <- nil
	msg := readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, realtime.ErrFeedReconnected.Error(), msg.Error)

	stop()
	msg = readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, realtime.ErrFeedClosed.Error(), msg.Error)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

func TestHandle_UnknownArea(t *testing.T) {
	hub := realtime.NewHub(logger.Nop{}, nil)
	srv := newServer(t, hub, fakeAreas{})

	_, resp, err := dial(t, srv, "/areas/nope/spots/stream")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
