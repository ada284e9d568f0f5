package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/screen-relay/internal/domain/activity"
	"github.com/ganot/screen-relay/internal/domain/screen"
)

// ScreenService defines screen operations needed by MCP.
type ScreenService interface {
	List(ctx context.Context) ([]screen.Screen, error)
	Get(ctx context.Context, id string) (*screen.Screen, error)
	Confirm(ctx context.Context, req screen.ConfirmRequest) (*screen.Screen, error)
	Update(ctx context.Context, id string, upd screen.Update) (*screen.Screen, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	RegenerateToken(ctx context.Context, id string) (string, *screen.Screen, error)
	Project(ctx context.Context, req screen.ProjectRequest) error
}

// ActivityService reads the screen activity log.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Config contains server configuration.
type Config struct {
	Screens ScreenService
	// Activity, when set, adds the get_recent_activity tool.
	Activity ActivityService
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server exposing the screen control plane as tools.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "screen-relay",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Screens)
	if cfg.Activity != nil {
		registerActivityTools(server, cfg.Activity)
	}

	return server
}
