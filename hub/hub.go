// Package hub pushes gallery change events to connected websocket clients.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventPhotoCreated    = "photo.created"
	EventPhotoUpdated    = "photo.updated"
	EventPhotoDeleted    = "photo.deleted"
	EventCategoryCreated = "category.created"
	EventCategoryDeleted = "category.deleted"
)

// Event is one change notification. Data is the affected view.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const writeWait = 5 * time.Second

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	upgrader  websocket.Upgrader
	log       *zap.Logger
	broadcast chan []byte

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func New(log *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Pages are served from the same origin in production; the gallery
			// exposes only public data on this socket.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:       log,
		broadcast: make(chan []byte, 100), // Buffered channel to prevent blocking
		clients:   make(map[*websocket.Conn]bool),
	}
}

// Run broadcasts queued messages until ctx is done, then closes all clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case message := <-h.broadcast:
			h.send(message)
		}
	}
}

// send writes outside the lock so a stalled client only delays the
// broadcast loop, never registration.
func (h *Hub) send(message []byte) {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			h.log.Debug("dropping websocket client", zap.String("remote", client.RemoteAddr().String()), zap.Error(err))
			client.Close()
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// Publish queues ev for broadcast. It never blocks; when the queue is full
// the event is dropped.
func (h *Hub) Publish(ev Event) {
	message, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("event queue full, dropping event", zap.String("type", ev.Type))
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. Incoming messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	h.log.Debug("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read error", zap.Error(err))
			}
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	h.log.Debug("websocket client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}
