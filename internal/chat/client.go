package chat

import (
	"sync"
	"time"

	"chat-server/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client adapts a gorilla websocket connection to the Conn interface. The
// read pump feeds frames to the supervisor; the write pump drains the
// buffered send channel. Separating the two keeps a slow reader from
// blocking broadcasts.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	sup       *Supervisor
	addr      string
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, sup *Supervisor, addr string, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		sup:  sup,
		addr: addr,
		done: make(chan struct{}),
	}
}

// Send enqueues a frame without blocking. A full buffer or a closed
// connection drops the frame, matching the best-effort delivery contract.
func (c *Client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) RemoteAddr() string {
	return c.addr
}

// ReadPump reads frames until the connection dies, then signals disconnect.
// The supervisor guarantees cleanup runs once even if the transport reports
// the close more than once.
func (c *Client) ReadPump() {
	defer func() {
		c.sup.Disconnect(c)
		c.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error from %s: %v", c.addr, err)
			}
			break
		}
		c.sup.Receive(c, raw)
	}
}

// WritePump drains the send channel and keeps the connection alive with
// pings. Liveness relies on the transport's ping/pong, nothing else.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("Write error to %s: %v", c.addr, err)
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
