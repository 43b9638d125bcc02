// Package ws is the websocket gateway: it upgrades HTTP requests into
// persistent driver/customer/admin connections, verifies tokens, feeds
// inbound messages into the core components, and drains outbound frames
// through a buffered write pump.
package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single outbound frame write.
	writeWait = 10 * time.Second

	// pongWait is how long the connection may stay silent before the read
	// loop gives up on it.
	pongWait = 60 * time.Second

	// pingInterval must be shorter than pongWait so a healthy peer always
	// has a ping to answer.
	pingInterval = 30 * time.Second

	maxMessageSize = 8 << 10

	sendBufferSize = 64
)

var (
	ErrSendBufferFull = errors.New("outbound buffer is full")
	ErrClientClosed   = errors.New("client is closed")
)

// Client wraps one websocket connection behind a buffered outbound channel.
// Send never blocks: a peer that cannot drain its buffer gets an error and
// the caller decides whether to drop it. All frame writes happen on the
// write pump goroutine; gorilla connections allow only one writer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Send queues a frame for delivery.
//
// Returns ErrSendBufferFull when the peer is not draining its buffer and
// ErrClientClosed after Close.
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		return ErrSendBufferFull
	}
}

// Close tears the connection down. Safe to call more than once and from
// any goroutine; the write pump exits on the closed done channel.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		_ = c.conn.Close()
	})
	return nil
}

// writePump drains the outbound buffer onto the wire and keeps the
// connection alive with periodic pings. It owns all frame writes.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
