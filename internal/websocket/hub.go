// Package websocket implements the broadcast hub backing GET /ws/telemetry:
// every ingested log and metric is fanned out, after it is persisted, to every
// currently-connected dashboard client. Alerts are not broadcast.
//
// Architecture:
//   - Hub: tracks connected clients and broadcasts messages to all of them
//   - Client: one gorilla/websocket connection, with buffered outbound queue
//
// Concurrency:
//   - Hub.Run() owns the clients map; all registration/broadcast traffic
//     flows through channels so no external lock is needed
//   - each Client has its own readPump/writePump goroutine pair
package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendBufferSize = 256
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
)

// Hub maintains the set of connected telemetry-stream clients and
// broadcasts messages to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	log        zerolog.Logger

	mu sync.RWMutex
}

// Client is a single WebSocket connection to the telemetry stream.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// NewHub creates a new telemetry broadcast hub. Call Run in its own
// goroutine before accepting connections.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, sendBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run drives the hub's registration/broadcast loop. Blocks until ctx-style
// cancellation isn't needed here — the hub lives for the process lifetime,
// matching the teacher's hub lifecycle.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Debug().Str("client", client.id).Int("total", count).Msg("telemetry stream client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					close(client.send)
					delete(h.clients, client)
				}
				h.mu.Unlock()
			}
		}
	}
}

// Broadcast enqueues message for delivery to every connected client.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn().Msg("telemetry broadcast buffer full, dropping message")
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades conn into a registered Client and starts its pumps.
func (h *Hub) Serve(conn *websocket.Conn, clientID string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize), id: clientID}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
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

// readPump drains and discards client->server frames purely to drive the
// pong/read-deadline handshake; the stream is server->client only.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
