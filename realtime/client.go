package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait is the deadline for a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the connection may stay silent before it is
	// considered dead. Pings go out at pingPeriod, which must be shorter.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512 * 1024

	// sendBufferSize bounds the per-client outbound queue. A client that
	// cannot drain it in time is disconnected rather than allowed to block
	// the hub.
	sendBufferSize = 256
)

// client is one websocket connection registered with the hub. Reads and
// writes each run on their own goroutine; the send channel is the only way
// to write to the connection.
type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	log  *zap.SugaredLogger
}

func newClient(hub *Hub, conn *websocket.Conn, log *zap.SugaredLogger) *client {
	return &client{
		id:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		log:  log,
	}
}

// enqueue hands a message to the write pump without blocking. A full buffer
// drops the message; the hub disconnects slow consumers on the broadcast
// path.
func (c *client) enqueue(message []byte) {
	select {
	case c.send <- message:
	default:
		c.log.Warnw("client send buffer full, dropping message", "clientId", c.id)
	}
}

// readPump reads inbound messages and hands them to the hub until the
// connection errors or closes.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warnw("websocket read error", "clientId", c.id, "error", err)
			}
			return
		}
		c.hub.handleMessage(c, message)
	}
}

// writePump drains the send channel to the connection and keeps the peer
// alive with periodic pings.
func (c *client) writePump() {
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
