package stream_spots

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/infra/realtime"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
)

const (
	msgNotFound = "парковка не найдена"

	bufferSize     = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
)

// errSlowConsumer отправляется клиенту, когда его буфер переполнен и события были отброшены
var errSlowConsumer = errors.New("stream_spots: events dropped, client is too slow")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Лента публичная, как и GET /areas; ограничения источника задает CORS на уровне роутера
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	feed    Feed
	service AreaService
	logger  Logger
}

func NewHandler(feed Feed, service AreaService, logger Logger) *Handler {
	return &Handler{
		feed:    feed,
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/areas/{areaId}/spots/stream?spotId=
// WebSocket: кадр snapshot с текущими местами, затем spot на каждое изменение
// Кадр error означает, что часть изменений могла быть потеряна и клиенту стоит перечитать места
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	areaID := mux.Vars(r)["areaId"]
	spotID := r.URL.Query().Get("spotId")

	// Колбэки вызываются из горутины хаба и не должны блокироваться
	events := make(chan domain.SpotEvent, bufferSize)
	failures := make(chan error, 1)
	notify := func(err error) {
		select {
		case failures <- err:
		default:
		}
	}

	// Подписка до чтения снимка: изменения, зафиксированные между ними, остаются в буфере
	handle, err := h.feed.Subscribe(domain.SpotPath(areaID, spotID),
		func(event domain.SpotEvent) {
			select {
			case events <- event:
			default:
				notify(errSlowConsumer)
			}
		},
		notify,
	)
	if err != nil {
		h.logger.Error("GET /areas/{areaId}/spots/stream - Failed to subscribe: area_id=%s, error=%v", areaID, err)
		handlers.RespondInternalError(w)
		return
	}
	defer h.feed.Unsubscribe(handle)

	snapshot, err := h.service.GetSpots(r.Context(), areaID)
	if err != nil {
		if errors.Is(err, areas.ErrAreaNotFound) {
			h.logger.Warn("GET /areas/{areaId}/spots/stream - Area not found: area_id=%s", areaID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("GET /areas/{areaId}/spots/stream - Failed to load snapshot: area_id=%s, error=%v", areaID, err)
		handlers.RespondInternalError(w)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Warn("GET /areas/{areaId}/spots/stream - Upgrade failed: area_id=%s, error=%v", areaID, err)
		return
	}
	defer conn.Close()

	if err := write(conn, Message{Type: MessageSnapshot, Snapshot: snapshot}); err != nil {
		return
	}

	h.logger.Info("GET /areas/{areaId}/spots/stream - Client subscribed: area_id=%s, spot_id=%s", areaID, spotID)

	closed := readPump(conn)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			h.logger.Info("GET /areas/{areaId}/spots/stream - Client disconnected: area_id=%s", areaID)
			return

		case event := <-events:
			if err := write(conn, Message{Type: MessageSpot, Spot: &event}); err != nil {
				return
			}

		case err := <-failures:
			h.logger.Warn("GET /areas/{areaId}/spots/stream - Feed error: area_id=%s, error=%v", areaID, err)
			if err := write(conn, Message{Type: MessageError, Error: err.Error()}); err != nil {
				return
			}
			if errors.Is(err, realtime.ErrFeedClosed) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()),
					time.Now().Add(writeWait))
				return
			}

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func write(conn *websocket.Conn, msg Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// readPump обрабатывает управляющие кадры (pong, close); входящие сообщения клиента игнорируются
// Возвращаемый канал закрывается, когда соединение разорвано
func readPump(conn *websocket.Conn) <-chan struct{} {
	closed := make(chan struct{})

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	return closed
}
