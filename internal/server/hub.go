package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cretemeteo/meteo-monitor/internal/models"
)

// Constants for WebSocket timeouts
const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Hub manages WebSocket connections from open dashboards and broadcasts
// events to them. Clients are read-only; anything they send is discarded.
type Hub struct {
	upgrader       websocket.Upgrader
	logger         zerolog.Logger
	allowedOrigins []string

	mutex    sync.RWMutex
	clients  map[*websocket.Conn]bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewHub creates a new event hub and starts its ping loop
func NewHub(logger zerolog.Logger, allowedOrigins ...string) *Hub {
	h := &Hub{
		logger:         logger,
		allowedOrigins: allowedOrigins,
		clients:        make(map[*websocket.Conn]bool),
		stopChan:       make(chan struct{}),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	h.wg.Add(1)
	go h.pingLoop()

	return h
}

// checkOrigin validates the incoming request's Origin against the configured allowlist
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// No Origin header means same-origin request
	if origin == "" {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	h.logger.Warn().Str("origin", origin).Msg("Rejected WebSocket connection: origin not in allowlist")
	return false
}

// ServeHTTP handles WebSocket connection requests from dashboards
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mutex.Unlock()

	h.logger.Info().Str("remote", conn.RemoteAddr().String()).Int("clients", count).Msg("Dashboard connected")

	defer h.removeClient(conn)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Read loop: discard inbound messages, exit on error or close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

// Broadcast sends an event to every connected dashboard. Clients whose
// writes fail are dropped.
func (h *Hub) Broadcast(eventType models.EventType, payload interface{}) {
	event, err := models.NewEvent(eventType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("type", string(eventType)).Msg("Failed to create event")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("Dropping dashboard client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of connected dashboards
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Close stops the ping loop and disconnects all clients
func (h *Hub) Close() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
		h.wg.Wait()

		h.mutex.Lock()
		for conn := range h.clients {
			conn.Close()
		}
		h.clients = make(map[*websocket.Conn]bool)
		h.mutex.Unlock()
	})
}

// pingLoop keeps connections alive and detects dead clients
func (h *Hub) pingLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.mutex.Lock()
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()

		case <-h.stopChan:
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	conn.Close()

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, exists := h.clients[conn]; exists {
		delete(h.clients, conn)
		h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("Dashboard disconnected")
	}
}
