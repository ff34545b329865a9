package stream

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/dynamo"
)

//go:embed web
var webFS embed.FS

const (
	DefaultMaxClients = 64
	sendBuffer        = 4
)

// Hub fans frames out to connected clients and collects their spawn
// requests. It satisfies sim.Observer.
type Hub struct {
	upgrader   websocket.Upgrader
	screen     []byte
	every      int
	maxClients int
	log        *slog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	spawns  chan SpawnRequest
}

// NewHub broadcasts every n-th frame (n <= 1 sends all).
func NewHub(screen r2.Vec, every int, log *slog.Logger) *Hub {
	if every < 1 {
		every = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1 << 16,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		screen:     EncodeScreen(float32(screen.X), float32(screen.Y)),
		every:      every,
		maxClients: DefaultMaxClients,
		log:        log,
		clients:    make(map[*websocket.Conn]chan []byte),
		spawns:     make(chan SpawnRequest, 256),
	}
}

// Handler serves the viewer page at / and the socket at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	web, _ := fs.Sub(webFS, "web")
	mux.Handle("/", http.FileServer(http.FS(web)))
	mux.Handle("/ws", h)
	return mux
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "err", err)
		return
	}

	send := make(chan []byte, sendBuffer)
	send <- h.screen

	h.mu.Lock()
	if len(h.clients) >= h.maxClients {
		h.mu.Unlock()
		h.log.Warn("max clients reached", "remote", r.RemoteAddr)
		conn.Close()
		return
	}
	h.clients[conn] = send
	h.mu.Unlock()

	h.log.Info("client connected", "remote", r.RemoteAddr)
	go h.writePump(conn, send)
	h.readPump(conn)
}

func (h *Hub) writePump(conn *websocket.Conn, send <-chan []byte) {
	for msg := range send {
		if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			h.log.Debug("write failed", "err", err)
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) readPump(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.BinaryMessage || len(msg) == 0 || msg[0] != OpSpawn {
			continue
		}
		req, err := DecodeSpawn(msg)
		if err != nil {
			h.log.Debug("bad spawn request", "err", err)
			continue
		}
		select {
		case h.spawns <- req:
		default:
			h.log.Debug("spawn queue full, dropping request")
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	send, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.log.Info("client disconnected", "remote", conn.RemoteAddr())
	}
}

// Broadcast queues msg for every client, dropping it for clients that are
// behind.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, send := range h.clients {
		select {
		case send <- msg:
		default:
			h.log.Debug("client too slow, dropping frame", "remote", conn.RemoteAddr())
		}
	}
}

func (h *Hub) OnFrame(frame int, t float64, ps []dynamo.Particle) {
	if frame%h.every != 0 || h.Clients() == 0 {
		return
	}
	h.Broadcast(AppendFrame(make([]byte, 0, frameHeaderSize+12*len(ps)), frame, t, ps))
}

// Spawns yields client spawn requests. Drain it only between frames.
func (h *Hub) Spawns() <-chan SpawnRequest { return h.spawns }

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.remove(conn)
	}
}
