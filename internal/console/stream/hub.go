// Package stream транслирует события шины в браузер по WebSocket.
// Hub реализует dashboard.View: верстка и графики живут во фронтенде.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xela07ax/ztna-soc-console/internal/domain"
	"go.uber.org/zap"
)

// Топики сообщений сокета.
const (
	TopicLog   = "ztna-log"
	TopicClear = "clear"
	TopicLink  = "link"
	TopicPhone = "phone"
	TopicSpark = "spark"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message - конверт каждого кадра: {"topic": ..., "data": ...}.
type Message struct {
	Topic string `json:"topic"`
	Data  any    `json:"data,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub держит подключенных клиентов. Медленный клиент отключается, а не тормозит шину.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool

	upgrader websocket.Upgrader
	hello    func() domain.ScoredEvent
	logger   *zap.Logger

	onClients func(n int)
}

// NewHub: hello строит событие, которое получает только что подключившийся клиент.
func NewHub(hello func() domain.ScoredEvent, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true }, // CORS "*", как у демо-стенда
		},
		hello:  hello,
		logger: logger.Named("stream"),
	}
}

// OnClientsChanged - наблюдатель за числом подключений (gauge в метриках).
func (h *Hub) OnClientsChanged(f func(n int)) { h.onClients = f }

// Len - число подключенных клиентов.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Render(ev domain.ScoredEvent) {
	h.broadcast(Message{Topic: TopicLog, Data: ev})
}

func (h *Hub) Clear() {
	h.broadcast(Message{Topic: TopicClear})
}

func (h *Hub) SetLinkIndicator(state domain.LinkState) {
	h.broadcast(Message{Topic: TopicLink, Data: state})
}

// PhoneState транслирует смену фазы симулированного телефона.
func (h *Hub) PhoneState(st domain.MFAState) {
	h.broadcast(Message{Topic: TopicPhone, Data: st})
}

// DrawSparkline отдает браузеру серию графика "Traffic Pulse" (dashboard.ChartView).
func (h *Hub) DrawSparkline(samples []int) error {
	h.broadcast(Message{Topic: TopicSpark, Data: samples})
	return nil
}

func (h *Hub) broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal stream message", zap.String("topic", msg.Topic), zap.Error(err))
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("client too slow, dropping", zap.String("client", c.id))
		h.remove(c)
	}
}

// ServeHTTP - GET /ws.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer), id: r.RemoteAddr}

	if h.hello != nil {
		if payload, err := json.Marshal(Message{Topic: TopicLog, Data: h.hello()}); err == nil {
			c.send <- payload
		}
	}

	if !h.add(c) {
		conn.Close()
		return
	}
	h.logger.Info("client connected", zap.String("client", c.id))

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	if h.onClients != nil {
		h.onClients(n)
	}
	return true
}

// remove идемпотентен: закрывает send ровно один раз.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client disconnected", zap.String("client", c.id))
	if h.onClients != nil {
		h.onClients(n)
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump нужен только для pong и обнаружения разрыва; входящие кадры игнорируются.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("client read error", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
	}
}

// Close отключает всех клиентов и больше не принимает новых.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}
