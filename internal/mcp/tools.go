package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/screen-relay/internal/domain/screen"
)

type listScreensInput struct{}

type screenIDInput struct {
	ID string `json:"id" jsonschema:"the screen id"`
}

type confirmScreenInput struct {
	ID     string `json:"id" jsonschema:"the pending screen id"`
	NameEn string `json:"name_en" jsonschema:"English display name"`
	NameZh string `json:"name_zh" jsonschema:"Chinese display name"`
}

type editScreenInput struct {
	ID     string  `json:"id" jsonschema:"the screen id"`
	NameEn *string `json:"name_en,omitempty" jsonschema:"new English display name"`
	NameZh *string `json:"name_zh,omitempty" jsonschema:"new Chinese display name"`
}

type projectContentInput struct {
	ID            string `json:"id" jsonschema:"the target screen id"`
	Type          string `json:"type" jsonschema:"inline_html or iframe"`
	Content       string `json:"content" jsonschema:"HTML markup for inline_html, or a URL for iframe"`
	AttachmentURL string `json:"attachment_url,omitempty" jsonschema:"optional attachment url returned by an upload"`
}

type screensResult struct {
	Screens []screen.Screen `json:"screens"`
}

type screenResult struct {
	Screen *screen.Screen `json:"screen"`
}

type tokenResult struct {
	Token  string         `json:"token"`
	Screen *screen.Screen `json:"screen"`
}

type successResult struct {
	Success bool `json:"success"`
}

func registerTools(server *sdkmcp.Server, screens ScreenService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_screens",
		Description: "List every screen, newest first, with its status and whether it is online",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ listScreensInput) (*sdkmcp.CallToolResult, any, error) {
		list, err := screens.List(ctx)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(screensResult{Screens: list})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_screen",
		Description: "Get one screen by id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in screenIDInput) (*sdkmcp.CallToolResult, any, error) {
		scr, err := screens.Get(ctx, in.ID)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(screenResult{Screen: scr})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "confirm_screen",
		Description: "Confirm a pending screen with its display names. Issues a token and notifies the screen if it is connected",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in confirmScreenInput) (*sdkmcp.CallToolResult, any, error) {
		scr, err := screens.Confirm(ctx, screen.ConfirmRequest{ID: in.ID, NameEn: in.NameEn, NameZh: in.NameZh})
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(screenResult{Screen: scr})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "edit_screen",
		Description: "Change a screen's display names; omitted names are kept",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in editScreenInput) (*sdkmcp.CallToolResult, any, error) {
		scr, err := screens.Update(ctx, in.ID, screen.Update{NameEn: in.NameEn, NameZh: in.NameZh})
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(screenResult{Screen: scr})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "deactivate_screen",
		Description: "Mark a screen inactive and disconnect it. Inactive screens cannot reconnect",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in screenIDInput) (*sdkmcp.CallToolResult, any, error) {
		if err := screens.Deactivate(ctx, in.ID); err != nil {
			return errorResult(err)
		}
		return jsonResult(successResult{Success: true})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_screen",
		Description: "Disconnect a screen and remove it permanently",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in screenIDInput) (*sdkmcp.CallToolResult, any, error) {
		if err := screens.Delete(ctx, in.ID); err != nil {
			return errorResult(err)
		}
		return jsonResult(successResult{Success: true})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "regenerate_screen_token",
		Description: "Issue a new token for an active screen. The old token stops working and the screen is disconnected",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in screenIDInput) (*sdkmcp.CallToolResult, any, error) {
		tok, scr, err := screens.RegenerateToken(ctx, in.ID)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(tokenResult{Token: tok, Screen: scr})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "project_content",
		Description: "Show content on an active, online screen. Delivery is not acknowledged",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in projectContentInput) (*sdkmcp.CallToolResult, any, error) {
		err := screens.Project(ctx, screen.ProjectRequest{
			ScreenID:      in.ID,
			Type:          in.Type,
			Content:       in.Content,
			AttachmentURL: in.AttachmentURL,
		})
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(successResult{Success: true})
	})
}

func jsonResult(payload any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func errorResult(err error) (*sdkmcp.CallToolResult, any, error) {
	data, merr := json.Marshal(MapError(err))
	if merr != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
