package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"turcrm/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	userID int
	conn   *websocket.Conn
	send   chan []byte
}

// BoardHub рассылает события изменений всем открытым доскам.
// Клиент по событию перечитывает данные через REST.
type BoardHub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewBoardHub() *BoardHub {
	return &BoardHub{clients: make(map[*client]struct{})}
}

func (h *BoardHub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *BoardHub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients: число подключений.
func (h *BoardHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *BoardHub) Broadcast(ev models.ChangeEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// медленный клиент: событие пропускаем, он перечитает доску по следующему
			log.Printf("[ws][board][drop] user=%d type=%s", c.userID, ev.Type)
		}
	}
}

func (h *BoardHub) OnChange(_ context.Context, ev models.ChangeEvent) {
	h.Broadcast(ev)
}

// Serve блокируется до отключения клиента.
func (h *BoardHub) Serve(conn *websocket.Conn, userID int) {
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	log.Printf("[ws][board] user=%d connected", userID)

	go h.writePump(c)
	h.readPump(c)
	log.Printf("[ws][board] user=%d disconnected", userID)
}

// readPump только держит соединение: входящие сообщения не нужны.
func (h *BoardHub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws][board][err] user=%d: %v", c.userID, err)
			}
			return
		}
	}
}

func (h *BoardHub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
