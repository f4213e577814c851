// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/CreativeStudio/internal/studio"
	"github.com/Corphon/CreativeStudio/internal/utils"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketConnection is the subset of *websocket.Conn the manager uses
type WebSocketConnection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// WebSocketClient is one subscriber to a session's events
type WebSocketClient struct {
	conn      WebSocketConnection
	sessionID string
	send      chan []byte
	done      chan struct{}
	closed    int32
	lastPing  int64 // unix nanos
	createdAt time.Time
	lastSeq   uint64 // guarded by the manager lock
}

func newWebSocketClient(conn WebSocketConnection, sessionID string) *WebSocketClient {
	now := time.Now()
	return &WebSocketClient{
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, 64),
		done:      make(chan struct{}),
		lastPing:  now.UnixNano(),
		createdAt: now,
	}
}

// Close closes the connection once
func (client *WebSocketClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		close(client.done)
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

// IsClosed reports whether Close was called
func (client *WebSocketClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// UpdatePing records liveness
func (client *WebSocketClient) UpdatePing() {
	atomic.StoreInt64(&client.lastPing, time.Now().UnixNano())
}

// IsExpired reports whether the client missed its pongs
func (client *WebSocketClient) IsExpired(timeout time.Duration) bool {
	last := time.Unix(0, atomic.LoadInt64(&client.lastPing))
	return time.Since(last) > timeout
}

// enqueue queues msg without blocking; a full queue drops the client
func (client *WebSocketClient) enqueue(msg []byte) bool {
	if client.IsClosed() {
		return false
	}
	select {
	case client.send <- msg:
		return true
	default:
		return false
	}
}

// WebSocketManager fans session events out to subscribed clients
type WebSocketManager struct {
	connections map[string]map[*WebSocketClient]struct{} // sessionID -> clients
	mutex       sync.RWMutex
	pingTimeout time.Duration
	logger      *utils.Logger
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewWebSocketManager creates a manager; Start runs its cleanup loop
func NewWebSocketManager(logger *utils.Logger) *WebSocketManager {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &WebSocketManager{
		connections: make(map[string]map[*WebSocketClient]struct{}),
		pingTimeout: pongWait,
		logger:      logger,
		stop:        make(chan struct{}),
	}
}

// Start begins periodic removal of dead connections
func (manager *WebSocketManager) Start() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				manager.cleanupExpiredConnections()
			case <-manager.stop:
				return
			}
		}
	}()
}

// Stop closes every connection and ends the cleanup loop
func (manager *WebSocketManager) Stop() {
	manager.stopOnce.Do(func() {
		close(manager.stop)

		manager.mutex.Lock()
		defer manager.mutex.Unlock()
		for _, clients := range manager.connections {
			for client := range clients {
				client.Close()
			}
		}
		manager.connections = make(map[string]map[*WebSocketClient]struct{})
		manager.logger.Info("websocket manager stopped", nil)
	})
}

func (manager *WebSocketManager) register(client *WebSocketClient) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	manager.registerLocked(client)
}

func (manager *WebSocketManager) registerLocked(client *WebSocketClient) {
	if manager.connections[client.sessionID] == nil {
		manager.connections[client.sessionID] = make(map[*WebSocketClient]struct{})
	}
	manager.connections[client.sessionID][client] = struct{}{}

	manager.logger.Debug("websocket client connected", map[string]interface{}{"session_id": client.sessionID})
}

// subscribe queues the current snapshot of session as the client's first
// message and registers the client. Both happen under the manager lock, so
// a transition is either already in the snapshot or queued after it.
func (manager *WebSocketManager) subscribe(client *WebSocketClient, session *studio.Session) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	snap := session.Snapshot()
	welcome, err := json.Marshal(TransitionMessage{
		Type:      "snapshot",
		SessionID: client.sessionID,
		To:        snap.State,
		Snapshot:  snap,
		Timestamp: time.Now(),
	})
	if err == nil {
		client.enqueue(welcome)
	}
	client.lastSeq = snap.Seq
	manager.registerLocked(client)
}

func (manager *WebSocketManager) unregister(client *WebSocketClient) {
	manager.mutex.Lock()
	if clients, exists := manager.connections[client.sessionID]; exists {
		delete(clients, client)
		if len(clients) == 0 {
			delete(manager.connections, client.sessionID)
		}
	}
	manager.mutex.Unlock()

	client.Close()
	manager.logger.Debug("websocket client disconnected", map[string]interface{}{"session_id": client.sessionID})
}

func (manager *WebSocketManager) cleanupExpiredConnections() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for sessionID, clients := range manager.connections {
		for client := range clients {
			if client.IsClosed() || client.IsExpired(manager.pingTimeout) {
				delete(clients, client)
				client.Close()
			}
		}
		if len(clients) == 0 {
			delete(manager.connections, sessionID)
		}
	}
}

// BroadcastToSession sends message to every client of sessionID
func (manager *WebSocketManager) BroadcastToSession(sessionID string, message interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		manager.logger.Error("failed to encode websocket message", map[string]interface{}{"error": err})
		return
	}

	manager.mutex.RLock()
	clients := make([]*WebSocketClient, 0, len(manager.connections[sessionID]))
	for client := range manager.connections[sessionID] {
		clients = append(clients, client)
	}
	manager.mutex.RUnlock()

	for _, client := range clients {
		if !client.enqueue(msgBytes) {
			go manager.unregister(client)
		}
	}
}

// CloseSession disconnects every client of sessionID
func (manager *WebSocketManager) CloseSession(sessionID string) {
	manager.mutex.Lock()
	clients := manager.connections[sessionID]
	delete(manager.connections, sessionID)
	manager.mutex.Unlock()

	for client := range clients {
		client.Close()
	}
}

// ConnectionCount returns the number of live clients
func (manager *WebSocketManager) ConnectionCount() int {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()
	n := 0
	for _, clients := range manager.connections {
		n += len(clients)
	}
	return n
}

// TransitionMessage is the event sent for every session state change
type TransitionMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	From      studio.State    `json:"from,omitempty"`
	To        studio.State    `json:"to"`
	Snapshot  studio.Snapshot `json:"snapshot"`
	Timestamp time.Time       `json:"timestamp"`
}

// PublishTransition forwards a session transition to its subscribers.
// Transitions a client has already seen, directly or through its snapshot,
// are skipped.
func (manager *WebSocketManager) PublishTransition(sessionID string, t studio.Transition) {
	msgBytes, err := json.Marshal(TransitionMessage{
		Type:      "transition",
		SessionID: sessionID,
		From:      t.From,
		To:        t.To,
		Snapshot:  t.Snapshot,
		Timestamp: time.Now(),
	})
	if err != nil {
		manager.logger.Error("failed to encode websocket message", map[string]interface{}{"error": err})
		return
	}

	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	for client := range manager.connections[sessionID] {
		if t.Snapshot.Seq <= client.lastSeq {
			continue
		}
		client.lastSeq = t.Snapshot.Seq
		if !client.enqueue(msgBytes) {
			go manager.unregister(client)
		}
	}
}

// SessionWebSocket streams a session's transitions to the caller
func (h *Handler) SessionWebSocket(c *gin.Context) {
	session, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", map[string]interface{}{"error": err})
		return
	}

	client := newWebSocketClient(conn, session.ID())
	h.hub.subscribe(client, session)
	defer h.hub.unregister(client)

	go writePump(client)
	readPump(client)
}

// readPump consumes client frames until the connection fails. Clients do
// not send commands; reads keep pong handling alive.
func readPump(client *WebSocketClient) {
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
		client.UpdatePing()
	}
}

func writePump(client *WebSocketClient) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				client.Close()
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Close()
				return
			}
		case <-client.done:
			return
		}
	}
}
