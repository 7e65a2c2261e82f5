package renderer

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/biosynth/components"
)

// Frame is the JSON message broadcast for each rendered tick.
type Frame struct {
	Seq       uint64                    `json:"seq"`
	Organisms []components.OrganismView `json:"organisms"`
}

// WebSocket broadcasts population snapshots as JSON frames to every connected
// client. It is an http.Handler; mount it wherever clients should connect.
// Frames are dropped rather than queued when clients cannot keep up.
type WebSocket struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	frames   chan []byte
	done     chan struct{}
	wg       sync.WaitGroup
	seq      atomic.Uint64
	closed   atomic.Bool
	logger   *slog.Logger
}

// NewWebSocket creates a websocket sink and starts its broadcaster.
func NewWebSocket(logger *slog.Logger) *WebSocket {
	if logger == nil {
		logger = slog.Default()
	}
	ws := &WebSocket{
		clients: make(map[*websocket.Conn]bool),
		frames:  make(chan []byte, 4),
		done:    make(chan struct{}),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	ws.wg.Add(1)
	go ws.run()

	return ws
}

// ServeHTTP upgrades the request and registers the client until it disconnects.
func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Warn("ws_upgrade_failed", "error", err)
		return
	}

	ws.mu.Lock()
	ws.clients[conn] = true
	ws.mu.Unlock()
	ws.logger.Info("ws_client_connected", "remote", r.RemoteAddr, "clients", ws.Clients())

	// Read until the client goes away so control frames are processed
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	ws.remove(conn)
	ws.logger.Info("ws_client_disconnected", "remote", r.RemoteAddr)
}

// Render encodes views and queues them for broadcast without blocking.
func (ws *WebSocket) Render(views []components.OrganismView) {
	if ws.closed.Load() || ws.Clients() == 0 {
		return
	}

	data, err := json.Marshal(Frame{Seq: ws.seq.Add(1), Organisms: views})
	if err != nil {
		ws.logger.Error("ws_encode_failed", "error", err)
		return
	}

	select {
	case ws.frames <- data:
	default:
		// Broadcaster is behind; drop this frame.
	}
}

// Clients returns the number of connected clients.
func (ws *WebSocket) Clients() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.clients)
}

// run writes queued frames to every client.
func (ws *WebSocket) run() {
	defer ws.wg.Done()
	for {
		select {
		case <-ws.done:
			return

		case data := <-ws.frames:
			// Collect connections to write to (to avoid holding lock during write)
			ws.mu.RLock()
			conns := make([]*websocket.Conn, 0, len(ws.clients))
			for conn := range ws.clients {
				conns = append(conns, conn)
			}
			ws.mu.RUnlock()

			for _, conn := range conns {
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					ws.remove(conn)
				}
			}
		}
	}
}

func (ws *WebSocket) remove(conn *websocket.Conn) {
	ws.mu.Lock()
	if _, ok := ws.clients[conn]; ok {
		delete(ws.clients, conn)
		conn.Close()
	}
	ws.mu.Unlock()
}

// Close disconnects every client and stops the broadcaster.
func (ws *WebSocket) Close() error {
	if !ws.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(ws.done)
	ws.wg.Wait()

	ws.mu.Lock()
	for conn := range ws.clients {
		conn.Close()
		delete(ws.clients, conn)
	}
	ws.mu.Unlock()

	return nil
}
