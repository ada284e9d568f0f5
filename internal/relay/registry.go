// Package relay owns the live screen connections and pushes messages down them.
package relay

import (
	"errors"
	"sync"
)

var (
	// ErrOffline is returned when a screen has no open channel.
	ErrOffline = errors.New("screen is offline")
	// ErrChannelClosed is returned when sending on a closed channel.
	ErrChannelClosed = errors.New("channel closed")
	// ErrSendQueueFull is returned when a slow client has not drained its queue.
	ErrSendQueueFull = errors.New("send queue full")
)

// Channel is one live bidirectional session with a screen client.
type Channel interface {
	Send(msg Message) error
	Close(code int, reason string) error
	Open() bool
}

// Session is the admission outcome attached to a channel. It never changes after registration.
type Session struct {
	ScreenID string
	Pending  bool
}

type entry struct {
	session Session
	ch      Channel
}

// Registry maps screen ids to their single live channel.
// All read-modify-write operations run under one mutex.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register maps sess.ScreenID to ch and returns the channel it replaced, if any.
// The caller is responsible for closing the returned channel.
func (r *Registry) Register(sess Session, ch Channel) Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.entries[sess.ScreenID]
	r.entries[sess.ScreenID] = entry{session: sess, ch: ch}
	if !ok || prev.ch == ch {
		return nil
	}
	return prev.ch
}

// Lookup returns the channel registered for a screen.
func (r *Registry) Lookup(screenID string) (Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[screenID]
	if !ok {
		return nil, false
	}
	return e.ch, true
}

// Deregister removes the entry only when ch is still the registered channel and
// returns the session it was admitted with.
func (r *Registry) Deregister(screenID string, ch Channel) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[screenID]
	if !ok || e.ch != ch {
		return Session{}, false
	}
	delete(r.entries, screenID)
	return e.session, true
}

// Evict removes whatever channel is registered for a screen and returns it.
func (r *Registry) Evict(screenID string) (Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[screenID]
	if !ok {
		return nil, false
	}
	delete(r.entries, screenID)
	return e.ch, true
}

// IsOnline reports whether a screen has a registered channel that is still open.
func (r *Registry) IsOnline(screenID string) bool {
	ch, ok := r.Lookup(screenID)
	return ok && ch.Open()
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Drain empties the registry and returns every channel it held.
func (r *Registry) Drain() []Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	channels := make([]Channel, 0, len(r.entries))
	for id, e := range r.entries {
		channels = append(channels, e.ch)
		delete(r.entries, id)
	}
	return channels
}
