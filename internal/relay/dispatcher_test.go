package relay_test

import (
	"errors"
	"testing"

	"github.com/ganot/screen-relay/internal/relay"
	"github.com/ganot/screen-relay/internal/relay/relaytest"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RegisterClosesReplaced(t *testing.T) {
	d := relay.NewDispatcher(relay.NewRegistry(), nil)
	first := relaytest.NewChannel()
	second := relaytest.NewChannel()

	d.Register(relay.Session{ScreenID: "s1"}, first)
	d.Register(relay.Session{ScreenID: "s1"}, second)

	closed, code, reason := first.Closed()
	require.True(t, closed)
	require.Equal(t, websocket.ClosePolicyViolation, code)
	require.Equal(t, relay.ReasonReplaced, reason)

	require.NoError(t, d.Deliver("s1", relay.Project("inline_html", "<p>x</p>", "")))
	require.Empty(t, first.Messages())
	require.Len(t, second.Messages(), 1)
}

func TestDispatcher_DeliverOffline(t *testing.T) {
	d := relay.NewDispatcher(relay.NewRegistry(), nil)
	require.ErrorIs(t, d.Deliver("missing", relay.Pong(timeZero())), relay.ErrOffline)

	ch := relaytest.NewChannel()
	d.Register(relay.Session{ScreenID: "s1"}, ch)
	require.NoError(t, ch.Close(1000, ""))
	require.ErrorIs(t, d.Deliver("s1", relay.Pong(timeZero())), relay.ErrOffline)
}

func TestDispatcher_DeliverSendError(t *testing.T) {
	d := relay.NewDispatcher(relay.NewRegistry(), nil)
	ch := relaytest.NewChannel()
	ch.SendErr = errors.New("boom")
	d.Register(relay.Session{ScreenID: "s1"}, ch)

	err := d.Deliver("s1", relay.Pong(timeZero()))
	require.Error(t, err)
	require.NotErrorIs(t, err, relay.ErrOffline)
}

func TestDispatcher_Disconnect(t *testing.T) {
	d := relay.NewDispatcher(relay.NewRegistry(), nil)
	ch := relaytest.NewChannel()
	d.Register(relay.Session{ScreenID: "s1"}, ch)

	require.True(t, d.Disconnect("s1", "screen deleted"))
	require.False(t, d.IsOnline("s1"))
	closed, code, reason := ch.Closed()
	require.True(t, closed)
	require.Equal(t, websocket.ClosePolicyViolation, code)
	require.Equal(t, "screen deleted", reason)

	require.False(t, d.Disconnect("s1", "again"))
}

func TestDispatcher_DisconnectedIgnoresStaleChannel(t *testing.T) {
	reg := relay.NewRegistry()
	d := relay.NewDispatcher(reg, nil)
	old := relaytest.NewChannel()
	current := relaytest.NewChannel()
	sess := relay.Session{ScreenID: "s1"}

	d.Register(sess, old)
	d.Register(sess, current)
	d.Disconnected("s1", old)

	require.True(t, d.IsOnline("s1"))
	d.Disconnected("s1", current)
	require.Equal(t, 0, reg.Len())
}

func TestDispatcher_HandleInbound(t *testing.T) {
	d := relay.NewDispatcher(relay.NewRegistry(), nil)
	ch := relaytest.NewChannel()

	d.HandleInbound(ch, []byte(`{"type":"ping"}`))
	d.HandleInbound(ch, []byte(`not json`))
	d.HandleInbound(ch, []byte(`{"type":"hello"}`))

	msgs := ch.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, relay.TypePong, msgs[0].Type)
	require.NotZero(t, msgs[0].Timestamp)
}

func TestDispatcher_Shutdown(t *testing.T) {
	reg := relay.NewRegistry()
	d := relay.NewDispatcher(reg, nil)
	a := relaytest.NewChannel()
	d.Register(relay.Session{ScreenID: "a"}, a)

	d.Shutdown()
	closed, code, _ := a.Closed()
	require.True(t, closed)
	require.Equal(t, websocket.CloseGoingAway, code)
	require.Equal(t, 0, reg.Len())
}
