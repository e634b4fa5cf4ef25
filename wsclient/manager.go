// Package wsclient is the client-side counterpart of the realtime hub: a
// websocket connection manager with automatic reconnection and typed
// subscription callbacks. It backs CLI tooling and integration tests that
// consume the /ws endpoint.
package wsclient

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const notConnectedMessage = "WebSocket is not connected. Please try again later."

// ErrNotConnected is returned by send operations while the connection is
// down. The same condition is also reported to error subscribers.
var ErrNotConnected = errors.New("websocket is not connected")

// Config controls connection and reconnection behavior.
type Config struct {
	URL string

	// ReconnectInterval is the fixed delay between reconnect attempts.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts bounds consecutive failed reconnects; once
	// exhausted the manager stays closed until Start is called again.
	MaxReconnectAttempts int
}

// Manager maintains one websocket connection to the realtime endpoint. All
// exported methods are safe for concurrent use.
type Manager struct {
	cfg Config
	log *zap.SugaredLogger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	stopped   bool
	attempts  int
	done      chan struct{}

	subs subscriptions
}

// subscriptions holds callback lists keyed by an opaque id so unsubscribe
// functions can remove exactly their own entry.
type subscriptions struct {
	mu      sync.Mutex
	nextID  int
	debug   map[int]func(response string)
	explain map[int]func(response string)
	profile map[int]func(update ProfileUpdate)
	errors  map[int]func(message string)
	state   map[int]func(connected bool)
}

// NewManager creates a manager. Call Start to connect.
func NewManager(cfg Config, log *zap.SugaredLogger) *Manager {
	return &Manager{
		cfg: cfg,
		log: log,
		subs: subscriptions{
			debug:   make(map[int]func(string)),
			explain: make(map[int]func(string)),
			profile: make(map[int]func(ProfileUpdate)),
			errors:  make(map[int]func(string)),
			state:   make(map[int]func(bool)),
		},
	}
}

// ProfileUpdate is a broadcast profile refresh as seen by the client.
type ProfileUpdate struct {
	UserID    int             `json:"userId"`
	Handle    string          `json:"handle"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

type inbound struct {
	Type      string          `json:"type"`
	Response  string          `json:"response"`
	Message   string          `json:"message"`
	UserID    int             `json:"userId"`
	Handle    string          `json:"handle"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// Start connects to the endpoint and begins reading. It returns the initial
// dial error, if any; later disconnects are handled by the reconnect loop.
func (m *Manager) Start() error {
	m.mu.Lock()
	m.stopped = false
	m.attempts = 0
	m.done = make(chan struct{})
	m.mu.Unlock()

	if err := m.connect(); err != nil {
		return err
	}
	go m.readLoop()
	return nil
}

// Close tears the connection down and stops reconnecting.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopped = true
	if m.done != nil {
		select {
		case <-m.done:
		default:
			close(m.done)
		}
	}
	conn := m.conn
	m.conn = nil
	m.connected = false
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (m *Manager) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(m.cfg.URL, nil)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.conn = conn
	m.connected = true
	m.attempts = 0
	m.mu.Unlock()

	m.notifyState(true)
	return nil
}

// readLoop reads messages until the connection drops, then hands off to the
// reconnect loop.
func (m *Manager) readLoop() {
	for {
		m.mu.Lock()
		conn := m.conn
		m.mu.Unlock()
		if conn == nil {
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			stopped := m.stopped
			m.connected = false
			m.conn = nil
			m.mu.Unlock()

			m.notifyState(false)
			if !stopped {
				m.reconnect()
			}
			return
		}

		m.dispatch(raw)
	}
}

// reconnect retries with a fixed delay until it succeeds or the attempt
// budget runs out.
func (m *Manager) reconnect() {
	for {
		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			return
		}
		if m.attempts >= m.cfg.MaxReconnectAttempts {
			spent := m.attempts
			m.mu.Unlock()
			m.log.Warnw("giving up on reconnect", "attempts", spent)
			return
		}
		m.attempts++
		attempt := m.attempts
		done := m.done
		m.mu.Unlock()

		m.log.Infow("reconnecting", "attempt", attempt, "max", m.cfg.MaxReconnectAttempts)

		select {
		case <-done:
			return
		case <-time.After(m.cfg.ReconnectInterval):
		}

		if err := m.connect(); err != nil {
			m.log.Warnw("reconnect failed", "attempt", attempt, "error", err)
			continue
		}

		go m.readLoop()
		return
	}
}

// dispatch routes one inbound message to its subscribers. Unknown types are
// ignored; malformed payloads are logged and dropped.
func (m *Manager) dispatch(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		m.log.Warnw("malformed server message", "error", err)
		return
	}

	switch msg.Type {
	case "debug_response":
		m.subs.each(m.subs.debug, msg.Response)
	case "explain_response":
		m.subs.each(m.subs.explain, msg.Response)
	case "error":
		m.subs.each(m.subs.errors, msg.Message)
	case "codeforces_profile_update":
		update := ProfileUpdate{UserID: msg.UserID, Handle: msg.Handle, Data: msg.Data, Timestamp: msg.Timestamp}
		m.subs.mu.Lock()
		callbacks := make([]func(ProfileUpdate), 0, len(m.subs.profile))
		for _, cb := range m.subs.profile {
			callbacks = append(callbacks, cb)
		}
		m.subs.mu.Unlock()
		for _, cb := range callbacks {
			cb(update)
		}
	default:
		// Forward compatible: skip message types this client predates.
	}
}

// send marshals and writes a payload, or reports the disconnected state to
// error subscribers. Requests are never queued while disconnected.
func (m *Manager) send(payload interface{}) error {
	m.mu.Lock()
	conn := m.conn
	connected := m.connected
	m.mu.Unlock()

	if !connected || conn == nil {
		m.subs.each(m.subs.errors, notConnectedMessage)
		return ErrNotConnected
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// SendDebugRequest submits code for debugging feedback.
func (m *Manager) SendDebugRequest(problemStatement, code, language string, userID int) error {
	return m.send(map[string]interface{}{
		"type":             "debug_request",
		"problemStatement": problemStatement,
		"code":             code,
		"language":         language,
		"userId":           userID,
	})
}

// SendExplainRequest submits a solution for explanation.
func (m *Manager) SendExplainRequest(problemStatement, solutionCode, language string, userID int) error {
	return m.send(map[string]interface{}{
		"type":             "explain_request",
		"problemStatement": problemStatement,
		"solutionCode":     solutionCode,
		"language":         language,
		"userId":           userID,
	})
}

// StartProfileUpdates asks the server to begin periodic profile refreshes.
func (m *Manager) StartProfileUpdates(userID int, handle string) error {
	return m.send(map[string]interface{}{
		"type":   "start_codeforces_updates",
		"userId": userID,
		"handle": handle,
	})
}

// StopProfileUpdates cancels periodic refreshes for a user.
func (m *Manager) StopProfileUpdates(userID int) error {
	return m.send(map[string]interface{}{
		"type":   "stop_codeforces_updates",
		"userId": userID,
	})
}

// OnDebugResponse subscribes to debug responses. The returned function
// removes the subscription.
func (m *Manager) OnDebugResponse(cb func(response string)) func() {
	return m.subs.add(m.subs.debug, cb)
}

// OnExplainResponse subscribes to explain responses.
func (m *Manager) OnExplainResponse(cb func(response string)) func() {
	return m.subs.add(m.subs.explain, cb)
}

// OnError subscribes to server error messages and local send failures.
func (m *Manager) OnError(cb func(message string)) func() {
	return m.subs.add(m.subs.errors, cb)
}

// OnProfileUpdate subscribes to profile refresh broadcasts.
func (m *Manager) OnProfileUpdate(cb func(update ProfileUpdate)) func() {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	id := m.subs.nextID
	m.subs.nextID++
	m.subs.profile[id] = cb
	return func() {
		m.subs.mu.Lock()
		defer m.subs.mu.Unlock()
		delete(m.subs.profile, id)
	}
}

// OnConnectionState subscribes to connect and disconnect transitions.
func (m *Manager) OnConnectionState(cb func(connected bool)) func() {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	id := m.subs.nextID
	m.subs.nextID++
	m.subs.state[id] = cb
	return func() {
		m.subs.mu.Lock()
		defer m.subs.mu.Unlock()
		delete(m.subs.state, id)
	}
}

// IsConnected reports whether the connection is currently up.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Manager) notifyState(connected bool) {
	m.subs.mu.Lock()
	callbacks := make([]func(bool), 0, len(m.subs.state))
	for _, cb := range m.subs.state {
		callbacks = append(callbacks, cb)
	}
	m.subs.mu.Unlock()
	for _, cb := range callbacks {
		cb(connected)
	}
}

func (s *subscriptions) add(set map[int]func(string), cb func(string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	set[id] = cb
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(set, id)
	}
}

func (s *subscriptions) each(set map[int]func(string), arg string) {
	s.mu.Lock()
	callbacks := make([]func(string), 0, len(set))
	for _, cb := range set {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()
	for _, cb := range callbacks {
		cb(arg)
	}
}
