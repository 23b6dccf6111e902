// Package websocket pushes live-reload notifications to browsers viewing the
// preview site.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/conneroisu/docmerge/internal/logging"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Manager handles WebSocket connection management and broadcasting.
//
// A single hub goroutine owns client registration and fan-out; the clients
// map is additionally guarded by clientsMutex so it can be read for counts.
type Manager struct {
	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex

	broadcast  chan []byte
	register   chan *Client
	unregister chan *websocket.Conn

	originPatterns []string
	logger         logging.Logger

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	isShutdown   atomic.Bool
}

// NewManager creates a manager and starts its hub. originPatterns are host
// patterns allowed to connect cross-origin; same-origin requests are always
// accepted.
func NewManager(logger logging.Logger, originPatterns ...string) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		clients:        make(map[*websocket.Conn]*Client),
		broadcast:      make(chan []byte, 64),
		register:       make(chan *Client, 16),
		unregister:     make(chan *websocket.Conn, 16),
		originPatterns: originPatterns,
		logger:         logger.WithComponent("websocket"),
		ctx:            ctx,
		cancel:         cancel,
	}

	go m.runHub()

	return m
}

// HandleWebSocket upgrades the request and registers the client.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if m.isShutdown.Load() {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  m.originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		// Accept has already written the response.
		m.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	client := &Client{
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		remoteAddr:  r.RemoteAddr,
		connectedAt: time.Now(),
	}

	select {
	case m.register <- client:
	case <-m.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go m.writeToClient(client)
	m.readFromClient(client)
}

func (m *Manager) runHub() {
	for {
		select {
		case client := <-m.register:
			m.clientsMutex.Lock()
			m.clients[client.conn] = client
			count := len(m.clients)
			m.clientsMutex.Unlock()
			m.logger.Debug(m.ctx, "Client connected", "remote", client.remoteAddr, "clients", count)

		case conn := <-m.unregister:
			m.unregisterClient(conn)

		case message := <-m.broadcast:
			m.broadcastToClients(message)

		case <-m.ctx.Done():
			return
		}
	}
}

// unregisterClient runs on the hub goroutine, which is the only closer of
// client send channels.
func (m *Manager) unregisterClient(conn *websocket.Conn) {
	m.clientsMutex.Lock()
	client, exists := m.clients[conn]
	if exists {
		delete(m.clients, conn)
		close(client.send)
	}
	count := len(m.clients)
	m.clientsMutex.Unlock()

	if exists {
		m.logger.Debug(m.ctx, "Client disconnected", "remote", client.remoteAddr, "clients", count)
	}
}

func (m *Manager) broadcastToClients(message []byte) {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	for conn, client := range m.clients {
		select {
		case client.send <- message:
		default:
			// Slow client; drop it.
			go m.drop(conn)
		}
	}
}

func (m *Manager) drop(conn *websocket.Conn) {
	select {
	case m.unregister <- conn:
	case <-m.ctx.Done():
	}
}

// readFromClient discards incoming messages and returns when the connection
// closes.
func (m *Manager) readFromClient(client *Client) {
	defer m.drop(client.conn)

	for {
		if _, _, err := client.conn.Read(m.ctx); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && m.ctx.Err() == nil {
				m.logger.Debug(m.ctx, "WebSocket read ended", "remote", client.remoteAddr, "error", err.Error())
			}
			return
		}
	}
}

func (m *Manager) writeToClient(client *Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer client.conn.Close(websocket.StatusNormalClosure, "")

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(m.ctx, writeTimeout)
			err := client.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				m.logger.Debug(m.ctx, "WebSocket write failed", "remote", client.remoteAddr, "error", err.Error())
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(m.ctx, writeTimeout)
			err := client.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-m.ctx.Done():
			return
		}
	}
}

// BroadcastMessage sends a message to all connected clients. Messages are
// dropped when the manager is shut down or the queue is full.
func (m *Manager) BroadcastMessage(message UpdateMessage) {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	data, err := json.Marshal(message)
	if err != nil {
		m.logger.Error(m.ctx, err, "Failed to marshal broadcast message")
		return
	}

	select {
	case m.broadcast <- data:
	case <-m.ctx.Done():
	default:
		m.logger.Warn(m.ctx, nil, "Broadcast queue full, dropping message", "type", message.Type)
	}
}

// NotifyReload tells browsers the given pages were rebuilt.
func (m *Manager) NotifyReload(pages []string) {
	m.BroadcastMessage(UpdateMessage{Type: MessageReload, Pages: pages})
}

// NotifyError tells browsers the last rebuild failed.
func (m *Manager) NotifyError(err error) {
	m.BroadcastMessage(UpdateMessage{Type: MessageError, Error: err.Error()})
}

// ConnectedClients returns the number of connected clients
func (m *Manager) ConnectedClients() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}

// Shutdown closes every client connection and stops the hub.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() {
		m.isShutdown.Store(true)
		m.cancel()

		m.clientsMutex.Lock()
		for conn := range m.clients {
			_ = conn.Close(websocket.StatusGoingAway, "server shutdown")
		}
		m.clients = make(map[*websocket.Conn]*Client)
		m.clientsMutex.Unlock()

		m.logger.Debug(ctx, "WebSocket manager shut down")
	})

	return nil
}

// IsShutdown returns whether the manager has been shut down
func (m *Manager) IsShutdown() bool {
	return m.isShutdown.Load()
}
