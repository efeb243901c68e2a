package gateway

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second

	// sendBuf must hold a full history backfill plus live frames in
	// flight.
	sendBuf = 128
)

// client is one WebSocket peer of a session stream. The conn is only
// ever written by the client's own writePump; everything else enqueues
// frames on the send channel, so a peer that stops reading loses
// frames instead of stalling the session.
type client struct {
	conn *websocket.Conn
	send chan []byte
	e    *entry
}

// enqueue queues one frame, dropping it when the peer is backed up.
func (c *client) enqueue(buf []byte) {
	select {
	case c.send <- buf:
	default:
	}
}

// writePump drains the send channel onto the conn with write deadlines
// and keeps the peer alive with pings. A closed send channel or any
// write error ends the pump and closes the conn.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// readPump consumes (and discards) peer messages to service control
// frames; a read error unregisters the client.
func (c *client) readPump() {
	defer func() {
		c.e.removeClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
