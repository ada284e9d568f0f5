// Package relaytest provides an in-memory relay.Channel for tests.
package relaytest

import (
	"sync"

	"github.com/ganot/screen-relay/internal/relay"
)

// Channel records sent messages and close calls.
type Channel struct {
	mu          sync.Mutex
	messages    []relay.Message
	closed      bool
	closeCode   int
	closeReason string
	SendErr     error
}

// NewChannel returns an open recording channel.
func NewChannel() *Channel {
	return &Channel{}
}

func (c *Channel) Send(msg relay.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return relay.ErrChannelClosed
	}
	if c.SendErr != nil {
		return c.SendErr
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *Channel) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	return nil
}

func (c *Channel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Messages returns a copy of everything sent so far.
func (c *Channel) Messages() []relay.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]relay.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Closed reports whether Close was called and with which code and reason.
func (c *Channel) Closed() (bool, int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.closeCode, c.closeReason
}
