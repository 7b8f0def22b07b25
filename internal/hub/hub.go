package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/pkg/logger"
)

const (
	defaultHeartbeat = 30 * time.Second
	writeWait        = 10 * time.Second
	maxMessageSize   = 4096
	requestLimit     = 100
)

// Envelope is the hub→client message frame.
type Envelope struct {
	Type      string      `json:"type"` // signal | alert | status | prediction
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type inboundMessage struct {
	Type        string        `json:"type"`
	Symbols     []string      `json:"symbols,omitempty"`
	Filter      *SignalFilter `json:"filter,omitempty"`
	Symbol      string        `json:"symbol,omitempty"`
	HorizonDays int           `json:"horizon_days,omitempty"`
}

// OnDemandGenerator produces a signal for one symbol outside the
// regular cycle.
type OnDemandGenerator interface {
	GenerateForSymbol(ctx context.Context, symbol string) (*models.Signal, error)
}

// WatchlistEditor mutates the shared generation watch-list.
type WatchlistEditor interface {
	Add(symbols ...string)
	Symbols() []string
}

// Hub owns the connected-client set and fans signals out to the
// clients whose subscription and filter accept them.
type Hub struct {
	log     *logger.Logger
	metrics domrepo.Metrics
	signals domrepo.SignalStore

	watchlist WatchlistEditor
	generator OnDemandGenerator

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *models.Signal

	heartbeat time.Duration

	mu      sync.Mutex
	started bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New builds a hub. Heartbeat falls back to 30s when zero.
func New(signals domrepo.SignalStore, watchlist WatchlistEditor, metrics domrepo.Metrics, log *logger.Logger, heartbeat time.Duration) *Hub {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Hub{
		log:        log,
		metrics:    metrics,
		signals:    signals,
		watchlist:  watchlist,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *models.Signal, 256),
		heartbeat:  heartbeat,
		done:       make(chan struct{}),
	}
}

// BindGenerator attaches the on-demand generator after construction.
// The generator and the hub reference each other, so one side binds
// late.
func (h *Hub) BindGenerator(g OnDemandGenerator) { h.generator = g }

// Start launches the hub event loop. Calling Start on a running hub
// is a logged no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		h.log.Warn("hub already started, ignoring")
		return
	}
	h.started = true
	h.done = make(chan struct{})
	h.wg.Add(1)
	go h.run()
	h.log.Info("hub started", logger.Duration("heartbeat", h.heartbeat))
}

// Stop shuts the event loop down and closes every client connection.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return
	}
	h.started = false
	h.mu.Unlock()

	close(h.done)
	h.wg.Wait()
}

func (h *Hub) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.metrics.RecordClientCount(len(h.clients))
			h.log.Info("client connected",
				logger.String("client_id", client.id),
				logger.Int("total", len(h.clients)))

		case client := <-h.unregister:
			h.drop(client)

		case sig := <-h.broadcast:
			h.deliver(sig)

		case <-ticker.C:
			h.sweep()

		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// BroadcastSignal queues a signal for delivery. Never blocks the
// caller; the queue drops when full.
func (h *Hub) BroadcastSignal(sig *models.Signal) {
	select {
	case h.broadcast <- sig:
	default:
		h.metrics.RecordError("broadcast_queue_full")
	}
}

func (h *Hub) deliver(sig *models.Signal) {
	msgType := "signal"
	if sig.SignalType == models.SignalAlert {
		msgType = "alert"
	}
	payload, err := json.Marshal(Envelope{Type: msgType, Data: sig, Timestamp: time.Now().UTC()})
	if err != nil {
		h.log.Error("marshal broadcast", logger.Error(err))
		return
	}

	var sent int
	for client := range h.clients {
		if !client.Wants(sig) {
			continue
		}
		if client.enqueue(payload) {
			sent++
		}
	}
	h.metrics.RecordBroadcast(msgType, sent)
}

// sweep pings every client and drops the ones that missed the
// previous heartbeat window.
func (h *Hub) sweep() {
	deadline := time.Now().Add(-2 * h.heartbeat)
	for client := range h.clients {
		if !client.pongedSince(deadline) {
			h.log.Info("client heartbeat timeout", logger.String("client_id", client.id))
			h.drop(client)
			continue
		}
		// WriteControl is safe alongside the writePump goroutine.
		if err := client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.closeSend()
	if client.conn != nil {
		client.conn.Close()
	}
	h.metrics.RecordClientCount(len(h.clients))
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // origin policy is enforced by the outer gateway
	},
}

// ServeWS upgrades the request and runs the client's pumps until
// disconnect.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", logger.Error(err))
		return
	}

	client := newClient(conn)
	h.register <- client

	h.sendStatus(client, map[string]interface{}{
		"client_id": client.id,
		"watchlist": h.watchlist.Symbols(),
	})

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) writePump(client *Client) {
	for msg := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) readPump(client *Client) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(3 * h.heartbeat))
	client.conn.SetPongHandler(func(string) error {
		client.touchPong()
		client.conn.SetReadDeadline(time.Now().Add(3 * h.heartbeat))
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendStatus(client, map[string]string{"error": "malformed message"})
			continue
		}
		h.handleMessage(client, msg)
	}
}

func (h *Hub) handleMessage(client *Client, msg inboundMessage) {
	switch msg.Type {
	case "subscribe":
		client.Subscribe(msg.Symbols...)
		h.sendStatus(client, map[string]interface{}{"subscribed": client.Subscriptions()})

	case "unsubscribe":
		client.Unsubscribe(msg.Symbols...)
		h.sendStatus(client, map[string]interface{}{"subscribed": client.Subscriptions()})

	case "filter":
		if msg.Filter != nil {
			client.SetFilter(*msg.Filter)
		}
		h.sendStatus(client, map[string]string{"filter": "applied"})

	case "watchlist":
		h.watchlist.Add(msg.Symbols...)
		client.Subscribe(msg.Symbols...)
		h.log.Info("watchlist extended", logger.Strings("symbols", msg.Symbols))
		h.sendStatus(client, map[string]interface{}{"watchlist": h.watchlist.Symbols()})

	case "request_signals":
		h.sendRecentSignals(client)

	case "generate_prediction":
		h.generateOnDemand(client, msg.Symbol)

	default:
		h.sendStatus(client, map[string]string{"error": "unknown message type " + msg.Type})
	}
}

func (h *Hub) sendRecentSignals(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	signals, err := h.signals.List(ctx, "", true, requestLimit)
	if err != nil {
		h.log.Error("list signals for client", logger.Error(err))
		h.sendStatus(client, map[string]string{"error": "signals unavailable"})
		return
	}

	matched := make([]models.Signal, 0, len(signals))
	for i := range signals {
		if client.Wants(&signals[i]) {
			matched = append(matched, signals[i])
		}
	}
	h.send(client, Envelope{Type: "signal", Data: matched, Timestamp: time.Now().UTC()})
}

func (h *Hub) generateOnDemand(client *Client, symbol string) {
	if h.generator == nil || symbol == "" {
		h.sendStatus(client, map[string]string{"error": "prediction unavailable"})
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sig, err := h.generator.GenerateForSymbol(ctx, symbol)
		if err != nil {
			h.log.Error("on-demand generation failed",
				logger.String("symbol", symbol), logger.Error(err))
			h.sendStatus(client, map[string]string{"error": "prediction failed for " + symbol})
			return
		}
		h.send(client, Envelope{Type: "prediction", Data: sig, Timestamp: time.Now().UTC()})
	}()
}

func (h *Hub) sendStatus(client *Client, data interface{}) {
	h.send(client, Envelope{Type: "status", Data: data, Timestamp: time.Now().UTC()})
}

func (h *Hub) send(client *Client, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.log.Error("marshal envelope", logger.Error(err))
		return
	}
	client.enqueue(payload)
}
