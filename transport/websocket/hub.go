package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/courtqueue/game/engine"
	"github.com/wricardo/courtqueue/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Pending broadcasts buffered before new ones are dropped.
	broadcastBuffer = 256
)

// Event names carried in Message.Event
const (
	EventSessionUpdate = "session_update"
	EventReset         = "reset"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// the REST API is CORS-open as well
		return true
	},
}

// Message represents a WebSocket message. An empty Area addresses every
// connected client.
type Message struct {
	Area    string          `json:"area"`
	Session *engine.Session `json:"session,omitempty"`
	Event   string          `json:"event"`
}

// Client represents a WebSocket client
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	area string
}

type countRequest struct {
	area  string
	reply chan int
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by area
	areas map[string]map[*Client]bool

	// Outbound messages
	broadcast chan *Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	counts chan countRequest
	done   chan struct{}
	logger *slog.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		areas:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan countRequest),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case req := <-h.counts:
			if req.area == "" {
				total := 0
				for _, clients := range h.areas {
					total += len(clients)
				}
				req.reply <- total
			} else {
				req.reply <- len(h.areas[req.area])
			}

		case <-h.done:
			for _, clients := range h.areas {
				for client := range clients {
					h.unregisterClient(client)
				}
			}
			return
		}
	}
}

// Stop ends Run and disconnects every client
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// ServeWS upgrades the request and subscribes the connection to area
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, area string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		area: area,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// BroadcastSession sends the area's current session to its subscribers. It
// never blocks: when the hub is backed up the update is dropped, and polling
// clients catch up on their next request.
func (h *Hub) BroadcastSession(area string, s *engine.Session) {
	h.enqueue(&Message{Area: area, Session: s, Event: EventSessionUpdate})
}

// BroadcastEvent sends a bare event. An empty area reaches every client.
func (h *Hub) BroadcastEvent(area, event string) {
	h.enqueue(&Message{Area: area, Event: event})
}

// ClientCount returns the subscribers of area, or of all areas when area is
// empty. It requires Run to be active.
func (h *Hub) ClientCount(area string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countRequest{area: area, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) enqueue(message *Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("websocket broadcast dropped", "area", message.Area, "event", message.Event)
	}
}

// registerClient adds a client to an area
func (h *Hub) registerClient(client *Client) {
	if h.areas[client.area] == nil {
		h.areas[client.area] = make(map[*Client]bool)
	}
	h.areas[client.area][client] = true

	h.logger.Debug("websocket client registered", "area", client.area, "clients", len(h.areas[client.area]))
}

// unregisterClient removes a client from an area
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.areas[client.area]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty areas
			if len(clients) == 0 {
				delete(h.areas, client.area)
			}

			h.logger.Debug("websocket client unregistered", "area", client.area, "clients", len(clients))
		}
	}
}

// broadcastMessage sends a message to the addressed clients
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "error", err)
		return
	}

	deliver := func(clients map[*Client]bool) {
		for client := range clients {
			select {
			case client.send <- data:
			default:
				// slow consumer
				h.unregisterClient(client)
			}
		}
	}

	if message.Area == "" {
		for _, clients := range h.areas {
			deliver(clients)
		}
		return
	}
	if clients, ok := h.areas[message.Area]; ok {
		deliver(clients)
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Incoming messages are ignored; reading keeps the connection alive
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket error", "area", c.area, "error", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection. Each
// message is written as its own frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
