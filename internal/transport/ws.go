package transport

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ganot/screen-relay/internal/domain/screen"
	"github.com/ganot/screen-relay/internal/relay"
)

// handleRelay upgrades a screen connection, admits it and pumps inbound frames
// until the connection ends.
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	ch := relay.NewWSChannel(conn, s.wsOpts)

	q := r.URL.Query()
	adm, err := s.screens.Admit(r.Context(), screen.AdmitRequest{
		Token:    q.Get("token"),
		ScreenID: q.Get("screen_id"),
	}, ch)
	if err != nil {
		reason, known := rejectReason(err)
		if known {
			s.logger.Warn("screen connection rejected", "reason", reason, "remote", r.RemoteAddr)
		} else {
			s.logger.Error("admitting screen", "error", err, "remote", r.RemoteAddr)
		}
		_ = ch.Close(websocket.ClosePolicyViolation, reason)
		return
	}

	ch.ReadLoop(func(payload []byte) {
		s.relay.HandleInbound(ch, payload)
	})
	s.relay.Disconnected(adm.Screen.ID, ch)
}

// rejectReason returns the close reason sent to a rejected screen and whether err is
// an expected admission failure.
func rejectReason(err error) (string, bool) {
	switch {
	case errors.Is(err, screen.ErrTokenRequired),
		errors.Is(err, screen.ErrInvalidToken),
		errors.Is(err, screen.ErrScreenNotActive),
		errors.Is(err, screen.ErrIDExhausted):
		return err.Error(), true
	default:
		return "internal error", false
	}
}
