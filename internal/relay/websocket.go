package relay

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSOptions tunes websocket channels.
type WSOptions struct {
	SendBuffer   int
	WriteTimeout time.Duration
	ReadLimit    int64
	Logger       *slog.Logger
}

func (o WSOptions) withDefaults() WSOptions {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 * 1024
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// NewUpgrader returns the upgrader used for screen connections. Screens are served
// from arbitrary origins, so the origin is not checked.
func NewUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// WSChannel is a Channel over a gorilla websocket connection.
type WSChannel struct {
	conn   *websocket.Conn
	opts   WSOptions
	send   chan []byte
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewWSChannel wraps conn and starts its write pump.
func NewWSChannel(conn *websocket.Conn, opts WSOptions) *WSChannel {
	opts = opts.withDefaults()
	c := &WSChannel{
		conn: conn,
		opts: opts,
		send: make(chan []byte, opts.SendBuffer),
		done: make(chan struct{}),
	}
	conn.SetReadLimit(opts.ReadLimit)
	go c.writePump()
	return c
}

// Send queues msg for the write pump.
func (c *WSChannel) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", msg.Type, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close sends a close frame with code and reason, then tears the connection down.
func (c *WSChannel) Close(code int, reason string) error {
	if !c.markClosed() {
		return nil
	}
	deadline := time.Now().Add(c.opts.WriteTimeout)
	err := c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open reports whether the channel can still carry messages.
func (c *WSChannel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// ReadLoop feeds every inbound text frame to handle until the connection fails or closes.
func (c *WSChannel) ReadLoop(handle func(payload []byte)) {
	defer func() {
		if c.markClosed() {
			_ = c.conn.Close()
		}
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.opts.Logger.Debug("websocket read error", "error", err)
			}
			return
		}
		handle(payload)
	}
}

func (c *WSChannel) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.done)
	return true
}

func (c *WSChannel) writePump() {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.opts.Logger.Debug("websocket write error", "error", err)
				if c.markClosed() {
					_ = c.conn.Close()
				}
				return
			}
		case <-c.done:
			return
		}
	}
}
