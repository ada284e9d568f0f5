package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/ganot/screen-relay/internal/domain/activity"
	"github.com/ganot/screen-relay/internal/domain/attachment"
	"github.com/ganot/screen-relay/internal/domain/screen"
	"github.com/ganot/screen-relay/internal/relay"
)

// ScreenService is the screen lifecycle used by the control plane and the relay endpoint.
type ScreenService interface {
	Admit(ctx context.Context, req screen.AdmitRequest, ch relay.Channel) (*screen.Admission, error)
	List(ctx context.Context) ([]screen.Screen, error)
	Get(ctx context.Context, id string) (*screen.Screen, error)
	Confirm(ctx context.Context, req screen.ConfirmRequest) (*screen.Screen, error)
	Update(ctx context.Context, id string, upd screen.Update) (*screen.Screen, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	RegenerateToken(ctx context.Context, id string) (string, *screen.Screen, error)
	Project(ctx context.Context, req screen.ProjectRequest) error
}

// AttachmentService stores and serves attachments.
type AttachmentService interface {
	Upload(ctx context.Context, req attachment.UploadRequest) (*attachment.Attachment, error)
	Open(ctx context.Context, id, tok string) (*attachment.Attachment, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

// ActivityService reads the screen activity log.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// RelayHub handles traffic on admitted channels.
type RelayHub interface {
	HandleInbound(ch relay.Channel, payload []byte)
	Disconnected(screenID string, ch relay.Channel)
}

// Options configures the HTTP server.
type Options struct {
	Screens        ScreenService
	Attachments    AttachmentService
	Relay          RelayHub
	Activity       ActivityService
	ControlToken   string
	MaxUploadBytes int64
	WS             relay.WSOptions
	// MCP, when set, is mounted at /mcp behind the control-plane auth.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	screens     ScreenService
	attachments AttachmentService
	relay       RelayHub
	activity    ActivityService
	upgrader    websocket.Upgrader
	wsOpts      relay.WSOptions
	maxUpload   int64
	logger      *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	wsOpts := opts.WS
	if wsOpts.Logger == nil {
		wsOpts.Logger = logger
	}

	srv := &Server{
		screens:     opts.Screens,
		attachments: opts.Attachments,
		relay:       opts.Relay,
		activity:    opts.Activity,
		upgrader:    relay.NewUpgrader(),
		wsOpts:      wsOpts,
		maxUpload:   opts.MaxUploadBytes,
		logger:      logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", srv.handleHealth)
	r.Get("/ws", srv.handleRelay)
	r.Get("/attachments/{id}", srv.handleGetAttachment)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(opts.ControlToken))

		r.Get("/api/screens", srv.handleListScreens)
		r.Get("/api/screens/{id}", srv.handleGetScreen)
		r.Patch("/api/screens/{id}", srv.handleUpdateScreen)
		r.Delete("/api/screens/{id}", srv.handleDeleteScreen)
		r.Post("/api/screens/{id}/confirm", srv.handleConfirmScreen)
		r.Post("/api/screens/{id}/deactivate", srv.handleDeactivateScreen)
		r.Post("/api/screens/{id}/regenerate-token", srv.handleRegenerateToken)
		r.Post("/api/screens/{id}/project", srv.handleProject)
		r.Post("/api/attachments", srv.handleUploadAttachment)
		r.Delete("/api/attachments/{id}", srv.handleDeleteAttachment)
		if opts.Activity != nil {
			r.Get("/api/activity", srv.handleListActivity)
		}

		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
			r.Handle("/mcp/*", opts.MCP)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type screenResponse struct {
	Screen *screen.Screen `json:"screen"`
}

type screensResponse struct {
	Screens []screen.Screen `json:"screens"`
}

type tokenResponse struct {
	Token  string         `json:"token"`
	Screen *screen.Screen `json:"screen"`
}

type attachmentResponse struct {
	Attachment *attachment.Attachment `json:"attachment"`
}

type confirmRequest struct {
	NameEn string `json:"name_en"`
	NameZh string `json:"name_zh"`
}

type updateRequest struct {
	NameEn *string `json:"name_en"`
	NameZh *string `json:"name_zh"`
}

type projectRequest struct {
	Type          string `json:"type"`
	Content       string `json:"content"`
	AttachmentURL string `json:"attachment_url"`
}

func (s *Server) handleListScreens(w http.ResponseWriter, r *http.Request) {
	screens, err := s.screens.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screensResponse{Screens: screens})
}

func (s *Server) handleGetScreen(w http.ResponseWriter, r *http.Request) {
	scr, err := s.screens.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Screen: scr})
}

func (s *Server) handleConfirmScreen(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	scr, err := s.screens.Confirm(r.Context(), screen.ConfirmRequest{
		ID:     chi.URLParam(r, "id"),
		NameEn: req.NameEn,
		NameZh: req.NameZh,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Screen: scr})
}

func (s *Server) handleUpdateScreen(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	scr, err := s.screens.Update(r.Context(), chi.URLParam(r, "id"), screen.Update{
		NameEn: req.NameEn,
		NameZh: req.NameZh,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Screen: scr})
}

func (s *Server) handleDeactivateScreen(w http.ResponseWriter, r *http.Request) {
	if err := s.screens.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleDeleteScreen(w http.ResponseWriter, r *http.Request) {
	if err := s.screens.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleRegenerateToken(w http.ResponseWriter, r *http.Request) {
	tok, scr, err := s.screens.RegenerateToken(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok, Screen: scr})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.screens.Project(r.Context(), screen.ProjectRequest{
		ScreenID:      chi.URLParam(r, "id"),
		Type:          req.Type,
		Content:       req.Content,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		// Leave headroom for the multipart envelope; the service enforces the exact file limit.
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeDomainError(w, attachment.ErrTooLarge)
			return
		}
		s.writeDomainError(w, attachment.ErrInvalidInput)
		return
	}
	defer file.Close()
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	att, err := s.attachments.Upload(r.Context(), attachment.UploadRequest{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attachmentResponse{Attachment: att})
}

func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	if err := s.attachments.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	att, body, err := s.attachments.Open(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("t"))
	if err != nil {
		switch {
		case errors.Is(err, attachment.ErrUnauthorized):
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case errors.Is(err, attachment.ErrAttachmentNotFound):
			http.Error(w, "File not found", http.StatusNotFound)
		default:
			s.logger.Error("serving attachment", "attachment_id", chi.URLParam(r, "id"), "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", att.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": att.Filename}))
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Debug("streaming attachment", "attachment_id", att.ID, "error", err)
	}
}

type activityResponse struct {
	Activity []activity.Entry `json:"activity"`
}

// handleListActivity serves the activity log, filtered by screen_id and type.
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := activity.ListOptions{ScreenID: q.Get("screen_id")}
	if v := q.Get("type"); v != "" {
		typ := activity.Type(v)
		opts.Type = &typ
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &opts.Limit}, {"offset", &opts.Offset}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+p.name)
			return
		}
		*p.dst = n
	}

	entries, err := s.activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activityResponse{Activity: entries})
}

// writeDomainError maps service errors onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, screen.ErrScreenNotFound):
		writeError(w, http.StatusNotFound, "Screen not found")
	case errors.Is(err, attachment.ErrAttachmentNotFound):
		writeError(w, http.StatusNotFound, "Attachment not found")
	case errors.Is(err, screen.ErrInvalidProjectType):
		writeError(w, http.StatusBadRequest, "Invalid type. Must be inline_html or iframe")
	case errors.Is(err, screen.ErrScreenNotActive):
		writeError(w, http.StatusBadRequest, "Screen is not active")
	case errors.Is(err, screen.ErrInvalidInput), errors.Is(err, attachment.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, attachment.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, screen.ErrScreenOffline):
		writeError(w, http.StatusServiceUnavailable, "Screen is offline")
	case errors.Is(err, attachment.ErrUnauthorized), errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
