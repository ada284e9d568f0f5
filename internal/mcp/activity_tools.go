package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/screen-relay/internal/domain/activity"
)

type recentActivityInput struct {
	ScreenID string `json:"screen_id,omitempty" jsonschema:"only events for this screen id"`
	Type     string `json:"type,omitempty" jsonschema:"only events of this type, e.g. screen_confirmed or content_projected"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of events, default 50"`
}

type activityResult struct {
	Activity []activity.Entry `json:"activity"`
}

func registerActivityTools(server *sdkmcp.Server, svc ActivityService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent screen lifecycle events, newest first: connections, confirmations, edits, deactivations, deletions, token rotations and projections",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in recentActivityInput) (*sdkmcp.CallToolResult, any, error) {
		opts := activity.ListOptions{ScreenID: in.ScreenID, Limit: in.Limit}
		if in.Type != "" {
			typ := activity.Type(in.Type)
			opts.Type = &typ
		}
		entries, err := svc.GetRecentActivity(ctx, opts)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(activityResult{Activity: entries})
	})
}
