// Package ws streams training progress to websocket subscribers.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "BrentCast/internal/domain/models"
	domrepo "BrentCast/internal/domain/repository"
	xlogger "BrentCast/pkg/logger"
)

const writeWait = 10 * time.Second

var _ domrepo.TrainingObserver = (*Hub)(nil)

// Hub fans training events out to connected clients. Slow clients drop events.
type Hub struct {
	path         string
	pingInterval time.Duration
	buffer       int
	upgrader     websocket.Upgrader
	logger       *xlogger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    *models.TrainingEvent
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub serves subscriptions on path.
func NewHub(path string, pingInterval time.Duration, buffer int, logger *xlogger.Logger) *Hub {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		path:         path,
		pingInterval: pingInterval,
		buffer:       buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET(h.path, h.Subscribe)
}

// OnTrainingEvent broadcasts evt to every subscriber.
func (h *Hub) OnTrainingEvent(evt models.TrainingEvent) {
	b, err := json.Marshal(evt)
	if err != nil {
		h.logger.Warn("encode training event", xlogger.Error(err))
		return
	}
	h.mu.Lock()
	h.last = &evt
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			// drop on backpressure
		}
	}
	h.mu.Unlock()
}

// Clients returns the number of live subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Subscribe upgrades the request and replays the latest event to the new client.
func (h *Hub) Subscribe(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	cl := &client{conn: conn, send: make(chan []byte, h.buffer)}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	if h.last != nil {
		if b, err := json.Marshal(h.last); err == nil {
			cl.send <- b
		}
	}
	h.mu.Unlock()
	h.logger.Debug("training subscriber connected", xlogger.String("remote", c.RealIP()))

	go h.writeLoop(cl)
	h.readLoop(cl)
	return nil
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// readLoop only drains control frames; clients never send data.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	if h.pingInterval > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(2 * h.pingInterval))
		})
	}
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	var tick <-chan time.Time
	if h.pingInterval > 0 {
		t := time.NewTicker(h.pingInterval)
		defer t.Stop()
		tick = t.C
	}
	defer c.conn.Close()
	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.remove(c)
				return
			}
		case <-tick:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}
