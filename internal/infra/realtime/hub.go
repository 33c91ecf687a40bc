package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Source источник уведомлений PostgreSQL (*pq.Listener)
type Source interface {
	NotificationChannel() <-chan *pq.Notification
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// SubscriberObserver учитывает число подписок (metrics.Metrics)
type SubscriberObserver interface {
	FeedSubscribed(delta float64)
}

// Handle идентификатор подписки
type Handle uint64

// ChangeFunc и ErrorFunc вызываются из горутины Run и не должны блокироваться
type (
	ChangeFunc func(event domain.SpotEvent)
	ErrorFunc  func(err error)
)

type subscription struct {
	path     string
	onChange ChangeFunc
	onError  ErrorFunc
}

// Hub раздает события доступности мест подписчикам по пути
// Подписка на parking_spots/{areaId} получает события всех мест парковки,
// на parking_spots/{areaId}/{spotId} - только одного места
type Hub struct {
	mu     sync.RWMutex
	nextID Handle
	subs   map[Handle]*subscription

	logger  Logger
	metrics SubscriberObserver
}

// NewHub создает хаб; metrics может быть nil
func NewHub(logger Logger, metrics SubscriberObserver) *Hub {
	return &Hub{
		subs:    make(map[Handle]*subscription),
		logger:  logger,
		metrics: metrics,
	}
}

// Subscribe регистрирует подписчика на путь
func (h *Hub) Subscribe(path string, onChange ChangeFunc, onError ErrorFunc) (Handle, error) {
	path = strings.TrimSuffix(path, "/")
	if !strings.HasPrefix(path, domain.SpotFeedRoot+"/") || onChange == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	h.mu.Lock()
	h.nextID++
	handle := h.nextID
	h.subs[handle] = &subscription{path: path, onChange: onChange, onError: onError}
	h.mu.Unlock()

	h.observe(1)
	return handle, nil
}

// Unsubscribe удаляет подписку; повторный вызов возвращает false
func (h *Hub) Unsubscribe(handle Handle) bool {
	h.mu.Lock()
	_, ok := h.subs[handle]
	delete(h.subs, handle)
	h.mu.Unlock()

	if ok {
		h.observe(-1)
	}
	return ok
}

// Dispatch доставляет событие всем подходящим подписчикам
func (h *Hub) Dispatch(event domain.SpotEvent) int {
	path := event.Path()

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if path == sub.path || strings.HasPrefix(path, sub.path+"/") {
			sub.onChange(event)
			delivered++
		}
	}
	return delivered
}

// Run читает уведомления из src до отмены ctx или закрытия канала
// nil-уведомление pq.Listener присылает после переподключения
func (h *Hub) Run(ctx context.Context, src Source) {
	notifications := src.NotificationChannel()

	for {
		select {
		case <-ctx.Done():
			h.broadcastError(ErrFeedClosed)
			return
		case n, ok := <-notifications:
			if !ok {
				h.logger.Warn("realtime.Run: notification channel closed")
				h.broadcastError(ErrFeedClosed)
				return
			}
			if n == nil {
				h.logger.Warn("realtime.Run: listener reconnected")
				h.broadcastError(ErrFeedReconnected)
				continue
			}

			var event domain.SpotEvent
			if err := json.Unmarshal([]byte(n.Extra), &event); err != nil {
				h.logger.Error("realtime.Run: failed to decode payload on %s: %v", n.Channel, err)
				continue
			}
			h.Dispatch(event)
		}
	}
}

// Count число активных подписок
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) broadcastError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

func (h *Hub) observe(delta float64) {
	if h.metrics != nil {
		h.metrics.FeedSubscribed(delta)
	}
}
