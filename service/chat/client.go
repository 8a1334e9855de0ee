package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"PingSpace/logger"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	sendQueueSize  = 256
	maxMessageSize = 1 << 20 // 1MB
)

// Client is one live websocket session for one user. The write pump is the
// only goroutine that touches the underlying conn for writes; everything
// else enqueues onto Send.
type Client struct {
	UserID    string
	SessionID string

	conn *websocket.Conn
	Send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(userID, sessionID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID:    userID,
		SessionID: sessionID,
		conn:      conn,
		Send:      make(chan []byte, sendQueueSize),
		done:      make(chan struct{}),
	}
}

// Enqueue queues a frame for delivery. A full queue drops the frame rather
// than blocking the caller; delivery is fire-and-forget.
func (c *Client) Enqueue(payload []byte) {
	select {
	case c.Send <- payload:
	case <-c.done:
	default:
		logger.Warnf("[ws] slow client, dropping frame user=%s session=%s", c.UserID, c.SessionID)
	}
}

// Close tears the session down. Safe to call from any goroutine, repeatedly.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) Done() <-chan struct{} { return c.done }

// writePump drains Send onto the socket and keeps the transport alive with
// pings. Exits when the session is closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.Debugf("[ws] write failed user=%s err=%v", c.UserID, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
