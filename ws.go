package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kwv/pinmesh/mesh"
)

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 32
)

// wsCommand is an inbound websocket message.
type wsCommand struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wsReply acknowledges a command; Error is empty on success.
type wsReply struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan interface{}
}

// Hub pushes notifications to every connected websocket client and accepts
// session commands from them.
type Hub struct {
	session  *mesh.Session
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewHub creates a hub bound to session.
func NewHub(session *mesh.Session) *Hub {
	return &Hub{
		session: session,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Notify implements mesh.Notifier. Slow clients drop messages rather than
// stall the session.
func (h *Hub) Notify(n mesh.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- n:
		default:
			log.Warn("[WS] client send buffer full, dropping notification")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and serves it until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("[WS] upgrade error: ", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan interface{}, wsSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Debugf("[WS] client connected from %s", r.RemoteAddr)

	done := make(chan struct{})
	go h.writeLoop(c, done)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	conn.Close()
	log.Debugf("[WS] client %s disconnected", r.RemoteAddr)
}

func (h *Hub) writeLoop(c *wsClient, done <-chan struct{}) {
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Debugf("[WS] write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) readLoop(c *wsClient) {
	for {
		var cmd wsCommand
		if err := c.conn.ReadJSON(&cmd); err != nil {
			return
		}
		reply := wsReply{Command: cmd.Command, OK: true}
		if err := h.session.Execute(cmd.Command, cmd.Payload); err != nil {
			reply.OK = false
			reply.Error = err.Error()
		}
		select {
		case c.send <- reply:
		default:
		}
	}
}
