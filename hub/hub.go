package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub menampung koneksi terminal POS (desktop & mobile) supaya terminal lain
// langsung melihat perubahan order dan invoice
type Hub struct {
	clients      map[*websocket.Conn]uint // conn -> employee id
	mutex        sync.Mutex
	writeTimeout time.Duration
}

func New() *Hub {
	return &Hub{
		clients:      make(map[*websocket.Conn]uint),
		writeTimeout: 5 * time.Second,
	}
}

// Register menambahkan koneksi terminal
func (h *Hub) Register(conn *websocket.Conn, employeeID uint) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = employeeID
}

// Unregister melepaskan koneksi
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) Name() string {
	return "terminal-hub"
}

// Publish menyiarkan event ke semua terminal. Terminal yang gagal ditulis dilepas;
// hub tidak pernah menahan outbox.
func (h *Hub) Publish(_ context.Context, event services.Event) error {
	data, err := json.Marshal(Message{Event: event.Topic, Data: event.Payload})
	if err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, employeeID := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to terminal of employee %d: %v", event.Topic, employeeID, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
	return nil
}
