package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Close reasons sent with server-initiated closes.
const (
	ReasonReplaced = "replaced by new connection"
	ReasonShutdown = "server shutting down"
)

// Dispatcher pushes messages to screens through the registry and answers heartbeats.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{registry: registry, logger: logger, now: time.Now}
}

// Register makes ch the live channel for sess.ScreenID, closing any channel it replaces.
func (d *Dispatcher) Register(sess Session, ch Channel) {
	prev := d.registry.Register(sess, ch)
	if prev != nil {
		d.logger.Info("replacing screen connection", "screen_id", sess.ScreenID)
		_ = prev.Close(websocket.ClosePolicyViolation, ReasonReplaced)
	}
}

// Deliver sends msg to the screen's live channel.
func (d *Dispatcher) Deliver(screenID string, msg Message) error {
	ch, ok := d.registry.Lookup(screenID)
	if !ok || !ch.Open() {
		return ErrOffline
	}
	if err := ch.Send(msg); err != nil {
		if errors.Is(err, ErrChannelClosed) {
			return ErrOffline
		}
		return fmt.Errorf("delivering %s to %s: %w", msg.Type, screenID, err)
	}
	return nil
}

// Disconnect evicts and closes the screen's channel with a policy-violation code.
func (d *Dispatcher) Disconnect(screenID, reason string) bool {
	ch, ok := d.registry.Evict(screenID)
	if !ok {
		return false
	}
	if err := ch.Close(websocket.ClosePolicyViolation, reason); err != nil {
		d.logger.Debug("closing screen channel", "screen_id", screenID, "error", err)
	}
	d.logger.Info("screen disconnected by server", "screen_id", screenID, "reason", reason)
	return true
}

// Disconnected must be called exactly once when a channel's read loop ends.
func (d *Dispatcher) Disconnected(screenID string, ch Channel) {
	if sess, ok := d.registry.Deregister(screenID, ch); ok {
		d.logger.Info("screen disconnected", "screen_id", sess.ScreenID, "pending", sess.Pending)
	}
}

// IsOnline reports whether a screen currently has an open channel.
func (d *Dispatcher) IsOnline(screenID string) bool {
	return d.registry.IsOnline(screenID)
}

// HandleInbound answers pings. Anything else, malformed or not, is dropped.
func (d *Dispatcher) HandleInbound(ch Channel, payload []byte) {
	var msg inbound
	if err := json.Unmarshal(payload, &msg); err != nil {
		d.logger.Debug("dropping malformed relay message", "error", err)
		return
	}
	if msg.Type != TypePing {
		return
	}
	if err := ch.Send(Pong(d.now())); err != nil {
		d.logger.Debug("sending pong", "error", err)
	}
}

// Shutdown closes every live channel.
func (d *Dispatcher) Shutdown() {
	for _, ch := range d.registry.Drain() {
		_ = ch.Close(websocket.CloseGoingAway, ReasonShutdown)
	}
}
