package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Analyzer produces AI feedback for debug and explain requests.
type Analyzer interface {
	DebugAnalysis(ctx context.Context, userID int, problemStatement, code, language string) (string, error)
	ExplainSolution(ctx context.Context, userID int, problemStatement, solutionCode, language string) (string, error)
}

// Tracker manages periodic profile refreshes keyed by user.
type Tracker interface {
	Start(userID int, handle string)
	Stop(userID int)
}

// Broadcaster fans a payload out to every connected client.
type Broadcaster interface {
	Broadcast(payload interface{})
}

// Hub owns the set of connected websocket clients and routes their inbound
// messages. Registration, unregistration, and broadcast all flow through
// channels into the single run loop, so the clients map needs no lock.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	stop       chan struct{}

	analyzer Analyzer
	tracker  Tracker
	log      *zap.SugaredLogger
}

// NewHub creates a hub. The tracker is attached afterwards with SetTracker
// because the scheduler broadcasts through the hub.
func NewHub(analyzer Analyzer, log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		stop:       make(chan struct{}),
		analyzer:   analyzer,
		log:        log,
	}
}

// SetTracker attaches the profile update tracker. Must be called before Run.
func (h *Hub) SetTracker(t Tracker) {
	h.tracker = t
}

// Run processes hub events until Stop is called. Call it on its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.log.Infow("client connected", "clientId", c.id, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				c.conn.Close()
				h.log.Infow("client disconnected", "clientId", c.id, "clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow consumer; cut it loose instead of blocking the hub.
					delete(h.clients, c)
					c.conn.Close()
					h.log.Warnw("dropped slow client", "clientId", c.id)
				}
			}

		case <-h.stop:
			for c := range h.clients {
				c.conn.Close()
				delete(h.clients, c)
			}
			return
		}
	}
}

// Stop shuts the run loop down and closes every connection.
func (h *Hub) Stop() {
	close(h.stop)
}

// Broadcast sends a payload to every connected client.
func (h *Hub) Broadcast(payload interface{}) {
	h.broadcast <- mustMarshal(payload)
}

// handleMessage dispatches one inbound client message. Slow operations run
// on their own goroutine so one generation call does not serialize the
// connection's other requests.
func (h *Hub) handleMessage(c *client, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.log.Warnw("malformed websocket message", "clientId", c.id, "error", err)
		c.enqueue(mustMarshal(ErrorMessage{Type: TypeError, Message: "Failed to process request"}))
		return
	}

	switch env.Type {
	case TypeDebugRequest:
		var req DebugRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.enqueue(mustMarshal(ErrorMessage{Type: TypeError, Message: "Failed to process request"}))
			return
		}
		go h.handleDebug(c, req)

	case TypeExplainRequest:
		var req ExplainRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.enqueue(mustMarshal(ErrorMessage{Type: TypeError, Message: "Failed to process request"}))
			return
		}
		go h.handleExplain(c, req)

	case TypeStartUpdates:
		var req StartUpdates
		if err := json.Unmarshal(raw, &req); err != nil || req.UserID == 0 || req.Handle == "" {
			c.enqueue(mustMarshal(ErrorMessage{Type: TypeError, Message: "Failed to process request"}))
			return
		}
		h.tracker.Start(req.UserID, req.Handle)

	case TypeStopUpdates:
		var req StopUpdates
		if err := json.Unmarshal(raw, &req); err != nil {
			c.enqueue(mustMarshal(ErrorMessage{Type: TypeError, Message: "Failed to process request"}))
			return
		}
		h.tracker.Stop(req.UserID)

	default:
		h.log.Warnw("unknown websocket message type", "clientId", c.id, "type", env.Type)
		c.enqueue(mustMarshal(ErrorMessage{Type: TypeError, Message: "Failed to process request"}))
	}
}

func (h *Hub) handleDebug(c *client, req DebugRequest) {
	response, err := h.analyzer.DebugAnalysis(context.Background(), req.UserID, req.ProblemStatement, req.Code, req.Language)
	if err != nil {
		h.log.Warnw("debug request failed", "clientId", c.id, "error", err)
		c.enqueue(mustMarshal(ErrorMessage{Type: TypeError, Message: "Failed to generate debug analysis"}))
		return
	}
	c.enqueue(mustMarshal(DebugResponse{Type: TypeDebugResponse, Response: response}))
}

func (h *Hub) handleExplain(c *client, req ExplainRequest) {
	response, err := h.analyzer.ExplainSolution(context.Background(), req.UserID, req.ProblemStatement, req.SolutionCode, req.Language)
	if err != nil {
		h.log.Warnw("explain request failed", "clientId", c.id, "error", err)
		c.enqueue(mustMarshal(ErrorMessage{Type: TypeError, Message: "Failed to generate explanation"}))
		return
	}
	c.enqueue(mustMarshal(ExplainResponse{Type: TypeExplainResponse, Response: response}))
}
