package wsclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newEchoServer upgrades connections and replies to every inbound message
// with a canned response chosen by type.
func newEchoServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg map[string]interface{}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg["type"] {
			case "debug_request":
				conn.WriteJSON(map[string]string{"type": "debug_response", "response": "all good"})
			case "explain_request":
				conn.WriteJSON(map[string]string{"type": "explain_response", "response": "here is how"})
			default:
				conn.WriteJSON(map[string]string{"type": "error", "message": "Failed to process request"})
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestManager(url string) *Manager {
	return NewManager(Config{
		URL:                  url,
		ReconnectInterval:    10 * time.Millisecond,
		MaxReconnectAttempts: 3,
	}, zap.NewNop().Sugar())
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestManagerRequestResponse(t *testing.T) {
	_, wsURL := newEchoServer(t)
	m := newTestManager(wsURL)
	require.NoError(t, m.Start())
	defer m.Close()

	var mu sync.Mutex
	var got []string
	unsubscribe := m.OnDebugResponse(func(response string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, response)
	})

	require.NoError(t, m.SendDebugRequest("problem", "code", "go", 1))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, "expected a debug response")
	mu.Lock()
	assert.Equal(t, "all good", got[0])
	mu.Unlock()

	// After unsubscribing, further responses are not delivered.
	unsubscribe()
	require.NoError(t, m.SendDebugRequest("problem", "code", "go", 1))
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Len(t, got, 1)
	mu.Unlock()
}

func TestManagerErrorSubscription(t *testing.T) {
	_, wsURL := newEchoServer(t)
	m := newTestManager(wsURL)
	require.NoError(t, m.Start())
	defer m.Close()

	errs := make(chan string, 1)
	m.OnError(func(message string) { errs <- message })

	// The server replies with an error envelope for unknown types; drive one
	// through the raw send path.
	require.NoError(t, m.send(map[string]string{"type": "bogus"}))

	select {
	case msg := <-errs:
		assert.Equal(t, "Failed to process request", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an error message")
	}
}

func TestManagerSendWhileClosed(t *testing.T) {
	_, wsURL := newEchoServer(t)
	m := newTestManager(wsURL)
	require.NoError(t, m.Start())
	m.Close()

	errs := make(chan string, 1)
	m.OnError(func(message string) { errs <- message })

	err := m.SendDebugRequest("problem", "code", "go", 1)
	assert.ErrorIs(t, err, ErrNotConnected)

	select {
	case msg := <-errs:
		assert.Equal(t, "WebSocket is not connected. Please try again later.", msg)
	case <-time.After(time.Second):
		t.Fatal("expected the not-connected notification")
	}
}

func TestManagerReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	var dials int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&dials, 1)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Accept then immediately drop, forcing the client to reconnect.
		conn.Close()
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	m := newTestManager(wsURL)

	var mu sync.Mutex
	var lastState, sawState bool
	m.OnConnectionState(func(up bool) {
		mu.Lock()
		defer mu.Unlock()
		lastState, sawState = up, true
	})

	require.NoError(t, m.Start())
	defer m.Close()

	// Kill the server so every reconnect attempt fails to dial.
	srv.Close()

	waitFor(t, func() bool { return !m.IsConnected() }, "expected disconnect")
	time.Sleep(200 * time.Millisecond)

	// Reconnects are bounded by the attempt budget and the manager stays
	// down once it is spent. The initial dial plus at most three retries.
	assert.LessOrEqual(t, atomic.LoadInt32(&dials), int32(4))
	assert.False(t, m.IsConnected())

	// The last state notification the subscriber saw is the disconnect.
	mu.Lock()
	assert.True(t, sawState)
	assert.False(t, lastState)
	mu.Unlock()
}

func TestManagerReconnectsAndResumes(t *testing.T) {
	var connected int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := atomic.AddInt32(&connected, 1)
		if n == 1 {
			// First connection drops right away.
			conn.Close()
			return
		}
		defer conn.Close()
		for {
			var msg map[string]interface{}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			conn.WriteJSON(map[string]string{"type": "debug_response", "response": "back online"})
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	m := newTestManager(wsURL)

	states := make(chan bool, 8)
	m.OnConnectionState(func(up bool) { states <- up })

	require.NoError(t, m.Start())
	defer m.Close()

	waitFor(t, func() bool { return atomic.LoadInt32(&connected) >= 2 && m.IsConnected() }, "expected reconnect")

	got := make(chan string, 1)
	m.OnDebugResponse(func(response string) { got <- response })
	require.NoError(t, m.SendDebugRequest("p", "c", "go", 0))

	select {
	case response := <-got:
		assert.Equal(t, "back online", response)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a response after reconnect")
	}
}

func TestManagerProfileUpdateDispatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(map[string]interface{}{
			"type":      "codeforces_profile_update",
			"userId":    9,
			"handle":    "alice",
			"data":      map[string]interface{}{"rating": 1500},
			"timestamp": "2026-08-29T12:00:00Z",
		})
		// Keep the connection open until the client leaves.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	m := newTestManager(wsURL)
	updates := make(chan ProfileUpdate, 1)
	m.OnProfileUpdate(func(update ProfileUpdate) { updates <- update })

	require.NoError(t, m.Start())
	defer m.Close()

	select {
	case update := <-updates:
		assert.Equal(t, 9, update.UserID)
		assert.Equal(t, "alice", update.Handle)
		assert.Equal(t, "2026-08-29T12:00:00Z", update.Timestamp)
		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(update.Data, &data))
		assert.Equal(t, float64(1500), data["rating"])
	case <-time.After(2 * time.Second):
		t.Fatal("expected a profile update")
	}
}
