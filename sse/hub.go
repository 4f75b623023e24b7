package sse

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/ollamacmd/logger"
)

// DefaultClientBuffer is how many events a client may lag behind before
// events are dropped for it.
const DefaultClientBuffer = 1024

// Client represents a connected SSE client.
type Client struct {
	id      string
	session string
	events  chan Event
	log     *logger.Logger
}

// NewClient creates a client of session with a buffer of size events.
func NewClient(session string, size int, log *logger.Logger) *Client {
	if size <= 0 {
		size = DefaultClientBuffer
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		id:      ClientID(session),
		session: session,
		events:  make(chan Event, size),
		log:     log,
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// Session returns the session the client subscribed to.
func (c *Client) Session() string { return c.session }

// Events returns the channel for receiving events.
func (c *Client) Events() <-chan Event { return c.events }

// Send queues ev. It returns false if the client is too slow.
func (c *Client) Send(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		c.log.Warn("client buffer full, dropping event", logger.Fields(
			"client_id", c.id,
			logger.FieldSessionID, c.session,
		))
		return false
	}
}

func (c *Client) close() { close(c.events) }

type broadcast struct {
	pattern string
	ev      Event
}

// Hub manages client connections and event routing.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast
	done       chan struct{}
	stopped    bool
	mu         sync.RWMutex
	log        *logger.Logger
}

var _ Broadcaster = (*Hub)(nil)

// NewHub creates a hub. Run must be called to start routing.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcast, 256),
		done:       make(chan struct{}),
		log:        logger.Named(log, "sse"),
	}
}

// Run routes events until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", c.id, "total_clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				c.close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", c.id, "total_clients", n))

		case b := <-h.broadcast:
			h.route(b)
		}
	}
}

// Stop shuts the hub down and closes every client. Safe to call multiple times.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.done)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

// Register adds c. It returns false if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast sends ev to all clients matching pattern (filepath.Match syntax).
func (h *Hub) Broadcast(pattern string, ev Event) {
	select {
	case h.broadcast <- broadcast{pattern: pattern, ev: ev}:
	case <-h.done:
	}
}

func (h *Hub) route(b broadcast) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		matched, err := filepath.Match(b.pattern, id)
		if err != nil {
			h.log.Error("pattern match error", logger.MergeWithError(logger.Fields("pattern", b.pattern), err))
			return
		}
		if matched {
			c.Send(b.ev)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SessionClients returns how many clients subscribe to session.
func (h *Hub) SessionClients(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.session == session {
			n++
		}
	}
	return n
}
