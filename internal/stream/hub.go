// Package stream publishes simulator frames to websocket clients so an
// external renderer can draw the arena.
package stream

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/san-kum/shapesim/internal/sim"
)

const writeWait = time.Second

var ErrClientClosed = errors.New("client closed")

// Message is the envelope of everything sent on the feed. Hello carries the
// arena once per connection; every tick after that is a frame.
type Message struct {
	Type   string     `json:"type"`
	Arena  *sim.Arena `json:"arena,omitempty"`
	Tick   int        `json:"tick"`
	Time   float64    `json:"time"`
	Bodies []sim.Body `json:"bodies,omitempty"`
}

const (
	TypeHello = "hello"
	TypeFrame = "frame"
)

type client struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.conn.Close()
	}
}

// Hub broadcasts one JSON frame per tick to every connected client. It
// implements sim.Observer.
type Hub struct {
	arena    sim.Arena
	upgrader websocket.Upgrader
	pool     *sim.BodyPool
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}

	frames  atomic.Uint64
	dropped atomic.Uint64
}

var _ sim.Observer = (*Hub)(nil)

func NewHub(arena sim.Arena, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		arena: arena,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pool:    sim.NewBodyPool(),
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn}
	hello, err := json.Marshal(Message{Type: TypeHello, Arena: &h.arena})
	if err != nil {
		c.close()
		return
	}
	if err := c.write(hello); err != nil {
		c.close()
		return
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("client connected", zap.String("remote", r.RemoteAddr), zap.Int("clients", n))

	// the feed is one way; reading only detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	h.log.Info("client disconnected", zap.String("remote", r.RemoteAddr))
}

// OnStep serialises the world once and sends it to every client.
func (h *Hub) OnStep(w *sim.World, tick int, t float64) {
	if h.Clients() == 0 {
		return
	}

	buf := h.pool.Snapshot(w)
	data, err := json.Marshal(Message{Type: TypeFrame, Tick: tick, Time: t, Bodies: *buf})
	h.pool.Put(buf)
	if err != nil {
		h.log.Error("frame encode failed", zap.Error(err))
		return
	}
	h.Broadcast(data)
}

// Broadcast writes data to every client and drops those that fail.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.log.Debug("dropping client", zap.Error(err))
			h.remove(c)
			h.dropped.Add(1)
		}
	}
	h.frames.Add(1)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Frames() uint64  { return h.frames.Load() }
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}
