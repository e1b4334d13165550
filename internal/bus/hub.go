package bus

import (
	"fmt"
	"sync"

	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"go.uber.org/zap"
)

// Sink - подписчик шины. Вызывается синхронно из Publish;
// синхронно публиковать обратно в шину из Consume нельзя (Publish сериализован).
type Sink interface {
	Consume(ev domain.ScoredEvent)
}

// SinkFunc позволяет подписать обычную функцию.
type SinkFunc func(ev domain.ScoredEvent)

func (f SinkFunc) Consume(ev domain.ScoredEvent) { f(ev) }

type subscription struct {
	id   uint64
	name string
	sink Sink
}

// Hub - in-process fan-out оцененных событий.
// Доставка at-most-once, FIFO на подписчика, без backpressure.
type Hub struct {
	publishMu sync.Mutex // Одно событие обрабатывается целиком до приема следующего

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64

	onPanic func(name string, err error)
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{logger: logger.Named("bus")}
}

// OnSinkFailure регистрирует колбэк для упавших подписчиков (например, метрика).
func (h *Hub) OnSinkFailure(f func(name string, err error)) {
	h.mu.Lock()
	h.onPanic = f
	h.mu.Unlock()
}

// Subscribe добавляет подписчика; возвращает функцию отписки.
func (h *Hub) Subscribe(name string, s Sink) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscription{id: id, name: name, sink: s})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, sub := range h.subs {
			if sub.id == id {
				h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish доставляет событие всем подписчикам в порядке подписки.
// Паника одного подписчика не мешает остальным.
func (h *Hub) Publish(ev domain.ScoredEvent) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.RLock()
	subs := make([]subscription, len(h.subs))
	copy(subs, h.subs)
	onPanic := h.onPanic
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := deliver(sub.sink, ev); err != nil {
			h.logger.Error("sink failed",
				zap.String("sink", sub.name),
				zap.String("event_id", ev.ID),
				zap.Error(err))
			if onPanic != nil {
				onPanic(sub.name, err)
			}
		}
	}
}

func deliver(s Sink, ev domain.ScoredEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	s.Consume(ev)
	return nil
}

// Len - количество подписчиков.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
