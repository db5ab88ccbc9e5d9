package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

// Job event message types
const (
	EventJobUpdated  = "job_updated"
	EventJobDeleted  = "job_deleted"
	EventJobsCleared = "jobs_cleared"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

// WSMessage is the envelope of every websocket frame
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// JobEventSubscriber receives encoded job events
type JobEventSubscriber interface {
	Deliver(message []byte) bool
}

// JobEventHub fans job changes out to every connected websocket client
type JobEventHub struct {
	clients map[JobEventSubscriber]bool

	register   chan JobEventSubscriber
	unregister chan JobEventSubscriber
	broadcast  chan []byte

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
}

// NewJobEventHub creates a new event hub
func NewJobEventHub() *JobEventHub {
	return &JobEventHub{
		clients:    make(map[JobEventSubscriber]bool),
		register:   make(chan JobEventSubscriber, 256),
		unregister: make(chan JobEventSubscriber, 256),
		broadcast:  make(chan []byte, 256),
		stopCh:     make(chan struct{}),
	}
}

// Start begins the hub's main loop
func (h *JobEventHub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	debug.Info("Starting job event hub")
	go h.run()
}

// Stop stops the hub and disconnects every client
func (h *JobEventHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}
	close(h.stopCh)
	h.running = false
	debug.Info("Job event hub stopped")
}

func (h *JobEventHub) run() {
	for {
		select {
		case <-h.stopCh:
			h.mu.Lock()
			for client := range h.clients {
				closeSubscriber(client)
			}
			h.clients = make(map[JobEventSubscriber]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			debug.Log("Job event client registered", map[string]interface{}{
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				closeSubscriber(client)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.Deliver(message) {
					debug.Warning("Job event client buffer full, dropping message")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a subscriber. After Stop the subscriber is closed instead.
func (h *JobEventHub) Register(client JobEventSubscriber) {
	select {
	case <-h.stopCh:
		closeSubscriber(client)
		return
	default:
	}
	select {
	case h.register <- client:
	case <-h.stopCh:
		closeSubscriber(client)
	}
}

// Unregister removes a subscriber. It never blocks once the hub is stopped.
func (h *JobEventHub) Unregister(client JobEventSubscriber) {
	select {
	case <-h.stopCh:
		closeSubscriber(client)
		return
	default:
	}
	select {
	case h.unregister <- client:
	case <-h.stopCh:
		closeSubscriber(client)
	}
}

func closeSubscriber(client JobEventSubscriber) {
	if c, ok := client.(*JobEventClient); ok {
		c.close()
	}
}

// ClientCount returns the number of connected subscribers
func (h *JobEventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// JobUpdated broadcasts the current state of a job
func (h *JobEventHub) JobUpdated(job *models.CrackJob) {
	h.publish(EventJobUpdated, job)
}

// JobDeleted broadcasts the id of a removed job
func (h *JobEventHub) JobDeleted(id string) {
	h.publish(EventJobDeleted, map[string]string{"id": id})
}

// JobsCleared broadcasts a bulk delete
func (h *JobEventHub) JobsCleared(count int64) {
	h.publish(EventJobsCleared, map[string]int64{"count": count})
}

func (h *JobEventHub) publish(eventType string, payload interface{}) {
	data, err := json.Marshal(WSMessage{Type: eventType, Payload: payload})
	if err != nil {
		debug.Error("Failed to marshal %s event: %v", eventType, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		debug.Warning("Job event hub backlog full, dropping %s event", eventType)
	}
}

// JobEventClient is a browser connected to the job event stream
type JobEventClient struct {
	hub  *JobEventHub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewJobEventClient wraps an upgraded connection
func NewJobEventClient(hub *JobEventHub, conn *websocket.Conn) *JobEventClient {
	return &JobEventClient{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Deliver queues a message without blocking
func (c *JobEventClient) Deliver(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *JobEventClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump pumps messages from the hub to the websocket connection
func (c *JobEventClient) WritePump() {
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

// ReadPump keeps the connection alive and answers client pings
func (c *JobEventClient) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				debug.Warning("WebSocket read error: %v", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			debug.Warning("Failed to unmarshal client message: %v", err)
			continue
		}
		if msg.Type == "ping" {
			data, _ := json.Marshal(WSMessage{Type: "pong"})
			c.Deliver(data)
		}
	}
}
