package screen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/moby/locker"

	"github.com/ganot/screen-relay/internal/domain/activity"
	"github.com/ganot/screen-relay/internal/relay"
	"github.com/ganot/screen-relay/internal/repository"
	"github.com/ganot/screen-relay/internal/token"
)

// Close reasons for server-initiated disconnects.
const (
	ReasonDeactivated      = "screen deactivated"
	ReasonDeleted          = "screen deleted"
	ReasonTokenRegenerated = "token regenerated"
)

const pendingMessage = "Waiting for AI agent confirmation"

var candidateIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Service runs the screen lifecycle: admission, confirmation, edits, deactivation,
// deletion and projection.
type Service struct {
	repo      Repository
	relay     Relay
	tokens    TokenIssuer
	activity  ActivityLog
	logger    *slog.Logger
	locks     *locker.Locker
	now       func() time.Time
	newID     func(time.Time) string
	heartbeat time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how server-side screen id candidates are drawn.
func WithIDGenerator(fn func(time.Time) string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithHeartbeatInterval sets the ping interval advertised to connecting screens.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(s *Service) { s.heartbeat = d }
}

// WithActivityLog records lifecycle events to log. Failures are logged and otherwise ignored.
func WithActivityLog(log ActivityLog) Option {
	return func(s *Service) { s.activity = log }
}

// NewService creates a new screen service.
func NewService(repo Repository, rel Relay, tokens TokenIssuer, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		repo:   repo,
		relay:  rel,
		tokens: tokens,
		logger: logger,
		locks:  locker.New(),
		now:    time.Now,
		newID:  newCandidateID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AdmitRequest carries the connection parameters of a screen.
type AdmitRequest struct {
	Token    string
	ScreenID string
}

// ConfirmRequest names a pending screen and activates it.
type ConfirmRequest struct {
	ID     string
	NameEn string
	NameZh string
}

// ProjectRequest describes content to push to a screen.
type ProjectRequest struct {
	ScreenID      string
	Type          string
	Content       string
	AttachmentURL string
}

// Admit classifies a connection attempt and, when accepted, registers ch as the
// screen's live channel and sends the connected acknowledgement.
func (s *Service) Admit(ctx context.Context, req AdmitRequest, ch relay.Channel) (*Admission, error) {
	switch req.Token {
	case "":
		return nil, ErrTokenRequired
	case PendingToken:
		return s.admitPending(ctx, strings.TrimSpace(req.ScreenID), ch)
	default:
		return s.admitActive(ctx, req.Token, ch)
	}
}

func (s *Service) admitPending(ctx context.Context, candidate string, ch relay.Channel) (*Admission, error) {
	if candidate != "" && candidateIDPattern.MatchString(candidate) {
		adm, ok, err := s.admitPendingAs(ctx, candidate, ch)
		if err != nil || ok {
			return adm, err
		}
		s.logger.Warn("pending screen asked for a confirmed id, assigning a new one", "requested_id", candidate)
	}

	id, err := s.allocateID(ctx)
	if err != nil {
		return nil, err
	}
	adm, ok, err := s.admitPendingAs(ctx, id, ch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIDExhausted
	}
	return adm, nil
}

// admitPendingAs registers ch under id if id is unused or still pending.
// It reports false when id belongs to a screen that has left the pending state.
func (s *Service) admitPendingAs(ctx context.Context, id string, ch relay.Channel) (*Admission, bool, error) {
	unlock := s.lockScreen(id)
	defer unlock()

	scr, err := s.ensurePending(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if scr.Status != StatusPending {
		return nil, false, nil
	}

	s.relay.Register(relay.Session{ScreenID: id, Pending: true}, ch)
	if err := ch.Send(relay.Connected(relay.ConnectedData{
		ScreenID:          id,
		Status:            string(StatusPending),
		Message:           pendingMessage,
		HeartbeatInterval: s.heartbeat.Milliseconds(),
	})); err != nil {
		s.logger.Warn("sending connected message", "screen_id", id, "error", err)
	}
	s.logger.Info("screen connected", "screen_id", id, "status", StatusPending)
	s.logActivity(ctx, id, activity.TypeScreenConnected, "pending screen connected")

	scr.Online = true
	return &Admission{Screen: *scr, Pending: true}, true, nil
}

func (s *Service) ensurePending(ctx context.Context, id string) (*Screen, error) {
	scr, err := s.repo.Get(ctx, id)
	if err == nil {
		return scr, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading screen: %w", err)
	}

	now := s.now()
	scr = &Screen{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, scr); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return s.repo.Get(ctx, id)
		}
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	return scr, nil
}

func (s *Service) admitActive(ctx context.Context, tok string, ch relay.Channel) (*Admission, error) {
	found, err := s.repo.GetByToken(ctx, tok)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("loading screen by token: %w", err)
	}

	unlock := s.lockScreen(found.ID)
	defer unlock()

	// Re-read under the lock; the token may have been rotated or the screen deactivated meanwhile.
	scr, err := s.repo.Get(ctx, found.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("loading screen: %w", err)
	}
	if !token.Equal(scr.TokenValue(), tok) {
		return nil, ErrInvalidToken
	}
	if scr.Status != StatusActive {
		return nil, ErrScreenNotActive
	}

	s.relay.Register(relay.Session{ScreenID: scr.ID}, ch)
	if err := ch.Send(relay.Connected(relay.ConnectedData{
		ScreenID:          scr.ID,
		Status:            string(StatusActive),
		NameEn:            scr.NameEn,
		NameZh:            scr.NameZh,
		HeartbeatInterval: s.heartbeat.Milliseconds(),
	})); err != nil {
		s.logger.Warn("sending connected message", "screen_id", scr.ID, "error", err)
	}
	s.logger.Info("screen connected", "screen_id", scr.ID, "status", StatusActive)
	s.logActivity(ctx, scr.ID, activity.TypeScreenConnected, "reconnected as "+scr.NameEn)

	scr.Online = true
	return &Admission{Screen: *scr}, nil
}

// List returns all screens, newest first, with their online flag.
func (s *Service) List(ctx context.Context) ([]Screen, error) {
	screens, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing screens: %w", err)
	}
	for i := range screens {
		screens[i].Online = s.relay.IsOnline(screens[i].ID)
	}
	return screens, nil
}

// Get fetches a screen by id.
func (s *Service) Get(ctx context.Context, id string) (*Screen, error) {
	scr, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, fmt.Errorf("getting screen: %w", err)
	}
	scr.Online = s.relay.IsOnline(id)
	return scr, nil
}

// Confirm activates a screen with its display names and a fresh token. A connected
// screen is told its new token right away.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (*Screen, error) {
	nameEn := strings.TrimSpace(req.NameEn)
	nameZh := strings.TrimSpace(req.NameZh)
	if nameEn == "" || nameZh == "" {
		return nil, fmt.Errorf("%w: name_en and name_zh are required", ErrInvalidInput)
	}

	unlock := s.lockScreen(req.ID)
	defer unlock()

	existing, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusInactive {
		return nil, ErrScreenNotActive
	}

	tok := s.tokens.Issue()
	scr, err := s.repo.Confirm(ctx, req.ID, nameEn, nameZh, tok, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, fmt.Errorf("confirming screen: %w", err)
	}

	if err := s.relay.Deliver(req.ID, relay.Registered(nameEn, nameZh, tok)); err != nil && !errors.Is(err, relay.ErrOffline) {
		s.logger.Warn("notifying confirmed screen", "screen_id", req.ID, "error", err)
	}
	scr.Online = s.relay.IsOnline(req.ID)

	s.logger.Info("screen confirmed", "screen_id", req.ID, "name_en", nameEn)
	s.logActivity(ctx, req.ID, activity.TypeScreenConfirmed, fmt.Sprintf("confirmed as %s / %s", nameEn, nameZh))
	return scr, nil
}

// Update edits display names; nil fields are left unchanged.
func (s *Service) Update(ctx context.Context, id string, upd Update) (*Screen, error) {
	if (upd.NameEn != nil && strings.TrimSpace(*upd.NameEn) == "") ||
		(upd.NameZh != nil && strings.TrimSpace(*upd.NameZh) == "") {
		return nil, fmt.Errorf("%w: names cannot be blank", ErrInvalidInput)
	}
	upd = Update{NameEn: trimmed(upd.NameEn), NameZh: trimmed(upd.NameZh)}

	scr, err := s.repo.Update(ctx, id, upd, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScreenNotFound
		}
		return nil, fmt.Errorf("updating screen: %w", err)
	}
	scr.Online = s.relay.IsOnline(id)
	s.logActivity(ctx, id, activity.TypeScreenUpdated, fmt.Sprintf("names set to %s / %s", scr.NameEn, scr.NameZh))
	return scr, nil
}

// Deactivate marks a screen inactive and severs its live channel.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	unlock := s.lockScreen(id)
	defer unlock()

	if err := s.repo.Deactivate(ctx, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScreenNotFound
		}
		return fmt.Errorf("deactivating screen: %w", err)
	}
	s.relay.Disconnect(id, ReasonDeactivated)

	s.logger.Info("screen deactivated", "screen_id", id)
	s.logActivity(ctx, id, activity.TypeScreenDeactivated, "screen deactivated")
	return nil
}

// Delete removes a screen's record and then severs its live channel.
func (s *Service) Delete(ctx context.Context, id string) error {
	unlock := s.lockScreen(id)
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScreenNotFound
		}
		return fmt.Errorf("deleting screen: %w", err)
	}
	s.relay.Disconnect(id, ReasonDeleted)

	s.logger.Info("screen deleted", "screen_id", id)
	s.logActivity(ctx, id, activity.TypeScreenDeleted, "screen deleted")
	return nil
}

// RegenerateToken replaces an active screen's token. The previous token stops working
// immediately and any connection admitted with it is closed.
func (s *Service) RegenerateToken(ctx context.Context, id string) (string, *Screen, error) {
	unlock := s.lockScreen(id)
	defer unlock()

	existing, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if existing.Status != StatusActive {
		return "", nil, ErrScreenNotActive
	}

	tok := s.tokens.Issue()
	if err := s.repo.RegenerateToken(ctx, id, tok, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrScreenNotFound
		}
		return "", nil, fmt.Errorf("regenerating token: %w", err)
	}
	s.relay.Disconnect(id, ReasonTokenRegenerated)

	scr, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("screen token regenerated", "screen_id", id)
	s.logActivity(ctx, id, activity.TypeTokenRegenerated, "token regenerated")
	return tok, scr, nil
}

// Project pushes content to an active, online screen. Delivery is not acknowledged.
func (s *Service) Project(ctx context.Context, req ProjectRequest) error {
	if req.Type != ProjectInlineHTML && req.Type != ProjectIframe {
		return ErrInvalidProjectType
	}

	scr, err := s.repo.Get(ctx, req.ScreenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScreenNotFound
		}
		return fmt.Errorf("loading screen: %w", err)
	}
	if scr.Status != StatusActive {
		return ErrScreenNotActive
	}

	if err := s.relay.Deliver(scr.ID, relay.Project(req.Type, req.Content, req.AttachmentURL)); err != nil {
		if errors.Is(err, relay.ErrOffline) {
			return ErrScreenOffline
		}
		return fmt.Errorf("projecting to screen: %w", err)
	}

	s.logger.Info("content projected", "screen_id", scr.ID, "type", req.Type, "attachment", req.AttachmentURL != "")
	s.logActivity(ctx, scr.ID, activity.TypeContentProjected, "projected "+req.Type)
	return nil
}

func (s *Service) logActivity(ctx context.Context, id string, typ activity.Type, summary string) {
	if s.activity == nil {
		return
	}
	entry := &activity.Entry{ScreenID: id, Type: typ, Summary: summary, CreatedAt: s.now()}
	if err := s.activity.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("recording activity", "screen_id", id, "type", typ, "error", err)
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
