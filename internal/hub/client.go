package hub

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"QuantPulse/internal/domain/models"
)

const sendBuffer = 64

// SignalFilter narrows which signals a client receives. Empty fields
// match everything; set fields must all match.
type SignalFilter struct {
	Symbols       []string `json:"symbols,omitempty"`
	MinConfidence float64  `json:"min_confidence,omitempty"`
	SignalTypes   []string `json:"signal_types,omitempty"`
	Sources       []string `json:"sources,omitempty"`
}

// Accepts reports whether the filter lets the signal through.
func (f SignalFilter) Accepts(sig *models.Signal) bool {
	if len(f.Symbols) > 0 && !containsFold(f.Symbols, sig.Symbol) {
		return false
	}
	if f.MinConfidence > 0 && sig.Confidence < f.MinConfidence {
		return false
	}
	if len(f.SignalTypes) > 0 && !containsFold(f.SignalTypes, sig.SignalType) {
		return false
	}
	if len(f.Sources) > 0 && !containsFold(f.Sources, sig.Source) {
		return false
	}
	return true
}

// Client is one connected WebSocket session.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu            sync.RWMutex
	subscriptions map[string]struct{}
	filter        SignalFilter
	lastPong      time.Time
	closed        bool
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:            uuid.NewString(),
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		subscriptions: make(map[string]struct{}),
		lastPong:      time.Now(),
	}
}

// ID returns the client's session id.
func (c *Client) ID() string { return c.id }

// Subscribe adds symbols to the client's subscription set.
func (c *Client) Subscribe(symbols ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			c.subscriptions[s] = struct{}{}
		}
	}
}

// Unsubscribe removes symbols from the subscription set.
func (c *Client) Unsubscribe(symbols ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range symbols {
		delete(c.subscriptions, strings.ToUpper(strings.TrimSpace(s)))
	}
}

// SetFilter replaces the client's signal filter.
func (c *Client) SetFilter(f SignalFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

// Subscriptions returns a snapshot of the subscribed symbols.
func (c *Client) Subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.subscriptions))
	for s := range c.subscriptions {
		out = append(out, s)
	}
	return out
}

// Wants applies subscription and filter checks: with an explicit
// subscription set the symbol must be a member, and every set filter
// field must match independently.
func (c *Client) Wants(sig *models.Signal) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subscriptions) > 0 {
		if _, ok := c.subscriptions[strings.ToUpper(sig.Symbol)]; !ok {
			return false
		}
	}
	return c.filter.Accepts(sig)
}

func (c *Client) touchPong() {
	c.mu.Lock()
	c.lastPong = time.Now()
	c.mu.Unlock()
}

func (c *Client) pongedSince(t time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPong.After(t)
}

// enqueue drops the message when the client's buffer is full rather
// than blocking the hub loop. Safe against a concurrently closing
// client.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend marks the client closed and releases its write pump.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}
