package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/screen-relay/internal/blobstore"
	"github.com/ganot/screen-relay/internal/config"
	"github.com/ganot/screen-relay/internal/domain/activity"
	"github.com/ganot/screen-relay/internal/domain/attachment"
	"github.com/ganot/screen-relay/internal/domain/screen"
	"github.com/ganot/screen-relay/internal/mcp"
	"github.com/ganot/screen-relay/internal/relay"
	"github.com/ganot/screen-relay/internal/sqlite"
	"github.com/ganot/screen-relay/internal/token"
	"github.com/ganot/screen-relay/internal/transport"
)

var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logWriter := io.Writer(os.Stdout)
	if logPath := os.Getenv("SCREENRELAY_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if cfg.UsesDefaultToken() {
		logger.Warn("using the default control token; set AI_TOKEN before exposing this server")
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	blobs, err := newBlobStore(context.Background(), cfg.Attachments)
	if err != nil {
		logger.Error("failed to open attachment storage", "backend", cfg.Attachments.Backend, "error", err)
		os.Exit(1)
	}

	registry := relay.NewRegistry()
	dispatcher := relay.NewDispatcher(registry, logger)
	issuer := token.NewIssuer()

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	screenSvc := screen.NewService(sqlite.NewScreenRepository(db), dispatcher, issuer, logger,
		screen.WithHeartbeatInterval(cfg.Relay.HeartbeatInterval),
		screen.WithActivityLog(activitySvc))
	attachmentSvc := attachment.NewService(sqlite.NewAttachmentRepository(db), blobs, issuer, logger,
		attachment.WithBaseURL(cfg.Server.PublicURL),
		attachment.WithMaxSize(cfg.Attachments.MaxUploadBytes))

	mcpServer := mcp.NewServer(mcp.Config{
		Screens:  screenSvc,
		Activity: activitySvc,
		Version:  version,
		Logger:   logger,
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := transport.NewServer(transport.Options{
		Screens:        screenSvc,
		Attachments:    attachmentSvc,
		Relay:          dispatcher,
		Activity:       activitySvc,
		ControlToken:   cfg.Auth.ControlToken,
		MaxUploadBytes: cfg.Attachments.MaxUploadBytes,
		WS: relay.WSOptions{
			SendBuffer:   cfg.Relay.SendBuffer,
			WriteTimeout: cfg.Relay.WriteTimeout,
			Logger:       logger,
		},
		MCP:    mcpHandler,
		Logger: logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", addr, "attachments", cfg.Attachments.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer, dispatcher)
}

func newBlobStore(ctx context.Context, cfg config.AttachmentsConfig) (attachment.BlobStore, error) {
	switch cfg.Backend {
	case "s3":
		s3cfg := blobstore.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		}
		client, err := blobstore.NewS3Client(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		return blobstore.NewS3Store(client, s3cfg.Bucket, s3cfg.Prefix), nil
	default:
		store, err := blobstore.NewFSStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// waitForShutdown blocks until SIGINT or SIGTERM, then closes screen channels and
// drains HTTP requests.
func waitForShutdown(logger *slog.Logger, server *http.Server, dispatcher *relay.Dispatcher) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	dispatcher.Shutdown()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	maxLogSizeBytes  = 6 * 1024 * 1024
	keepLogSizeBytes = 5 * 1024 * 1024
)

type logFileWriter struct {
	path string
	file *os.File
	mu   sync.Mutex
}

func newLogFileWriter(path string) (*logFileWriter, *os.File, error) {
	if err := ensureLogDir(path); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	writer := &logFileWriter{path: path, file: file}
	if err := writer.truncateIfNeeded(); err != nil {
		return nil, nil, err
	}
	return writer, file, nil
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (w *logFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	if err := w.truncateIfNeeded(); err != nil {
		return n, err
	}
	return n, nil
}

func (w *logFileWriter) truncateIfNeeded() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogSizeBytes {
		return nil
	}
	if size <= keepLogSizeBytes {
		return nil
	}

	buf := make([]byte, keepLogSizeBytes)
	if _, err := w.file.Seek(size-keepLogSizeBytes, io.SeekStart); err != nil {
		return err
	}
	n, err := w.file.Read(buf)
	if err != nil && err != io.EOF {
		return err
	}
	buf = buf[:n]

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	_, err = w.file.Seek(0, io.SeekEnd)
	return err
}
