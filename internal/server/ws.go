package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handsteer/internal/emit"
	"github.com/ayusman/handsteer/internal/follow"
	"github.com/ayusman/handsteer/internal/log"
)

const (
	clientBuffer = 32
	writeWait    = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is one websocket event.
type Message struct {
	Type   string       `json:"type"`
	Update *emit.Update `json:"update,omitempty"`
	Pose   *follow.Pose `json:"pose,omitempty"`
}

// Message types.
const (
	TypeUpdate = "update"
	TypePose   = "pose"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts pipeline output and follow poses to websocket clients.
//
// As an emit.Handler it collects the callbacks of one processed tick and
// sends them as a single update message when the tick's presence callback
// arrives. Ticks that only repeat the previous presence are not sent.
// Clients that fall behind lose messages rather than stall the pipeline.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	pending  emit.Update
	primed   bool
	detected bool

	dropped atomic.Uint64
}

var _ emit.Handler = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// ServeHTTP upgrades the request and streams messages until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "Shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	go h.write(c)

	defer h.unregister(c)
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) write(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug("websocket write", "error", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// broadcast must be called with mu held.
func (h *Hub) broadcast(m Message) {
	if len(h.clients) == 0 {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		log.Error("encoding websocket message", "error", err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many messages slow clients missed.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// OnPose broadcasts a follow pose.
func (h *Hub) OnPose(p follow.Pose) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcast(Message{Type: TypePose, Pose: &p})
}

func (h *Hub) OnHandPresence(detected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	u := h.pending
	h.pending = emit.Update{}
	u.Detected = detected
	u.Timestamp = time.Now()

	if h.primed && u.Empty() && detected == h.detected {
		return
	}
	h.primed = true
	h.detected = detected
	h.broadcast(Message{Type: TypeUpdate, Update: &u})
}

func (h *Hub) OnMove(x float64) {
	h.mu.Lock()
	h.pending.MoveX = &x
	h.mu.Unlock()
}

func (h *Hub) OnPinchDistance(d float64) {
	h.mu.Lock()
	h.pending.PinchDistance = &d
	h.mu.Unlock()
}

func (h *Hub) OnPointDrag(x, y float64) {
	h.mu.Lock()
	h.pending.Point = &emit.Point{X: x, Y: y}
	h.mu.Unlock()
}

func (h *Hub) OnArmedChanged(armed bool) {
	h.mu.Lock()
	h.pending.Armed = &armed
	h.mu.Unlock()
}

func (h *Hub) OnPointingChanged(pointing bool) {
	h.mu.Lock()
	h.pending.Pointing = &pointing
	h.mu.Unlock()
}

func (h *Hub) OnPinchModeChanged(active bool) {
	h.mu.Lock()
	h.pending.PinchMode = &active
	h.mu.Unlock()
}
