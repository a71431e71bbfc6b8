package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client pumps frames between one websocket connection and one thread group.
// Each connection maps to exactly one subscription for its whole lifetime:
// CONNECTING -> SUBSCRIBED (after Join) -> CLOSED (on disconnect).
type Client struct {
	hub      *Hub
	threadID uint
	sub      *Subscription
	conn     *websocket.Conn
	logger   *zap.SugaredLogger
}

// ServeWS attaches conn to an existing subscription and starts the read/write
// pumps. The caller must have joined sub to the thread group before the
// handshake was acknowledged; events published while the handshake completes
// buffer on the subscription channel and are flushed by the write pump.
func ServeWS(hub *Hub, threadID uint, sub *Subscription, conn *websocket.Conn, logger *zap.SugaredLogger) {
	client := &Client{
		hub:      hub,
		threadID: threadID,
		sub:      sub,
		conn:     conn,
		logger:   logger,
	}
	go client.writePump()
	go client.readPump()
}

// readPump consumes inbound frames until the connection dies. Inbound frames
// use the narrow {"message": string} schema and are echoed to the whole
// group. Leaving the group on exit guarantees removal on explicit disconnect.
func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c.threadID, c.sub.ID)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debugf("websocket read error on thread %d: %v", c.threadID, err)
			}
			return
		}

		var inbound EphemeralMessage
		if err := json.Unmarshal(raw, &inbound); err != nil {
			c.logger.Debugf("dropping malformed frame on thread %d: %v", c.threadID, err)
			continue
		}

		echo, err := json.Marshal(EphemeralMessage{Message: inbound.Message})
		if err != nil {
			continue
		}
		c.hub.Publish(c.threadID, echo)
	}
}

// writePump forwards group frames to the connection and keeps it alive with
// pings. A closed subscription channel means Leave ran; tell the peer and
// stop.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.sub.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
