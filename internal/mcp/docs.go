package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `screen-relay pushes content to remote browser screens.

Core concepts:
- Screen: a display that connects over a websocket. It starts pending, becomes active once confirmed, and can be deactivated or deleted.
- Online: an active screen with a live connection. Only online screens can receive content.
- Attachment: an uploaded file readable through its own tokenized url.

Default workflow:
1) list_screens to find pending screens and check which ones are online.
2) confirm_screen(id, name_en, name_zh) to activate a pending screen. A connected screen receives its token immediately.
3) project_content(id, type, content) with type inline_html (HTML markup) or iframe (a URL).
4) edit_screen to rename, deactivate_screen to retire, delete_screen to remove.
5) regenerate_screen_token if a screen token leaked; the screen must be provisioned with the new token.
6) get_recent_activity(screen_id) to see what happened to a screen, when the server keeps an activity log.

Docs:
- screen-relay://docs/protocol (relay wire protocol and error codes)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "screen-relay://docs/protocol",
		Name:        "docs_protocol",
		Title:       "Screen relay protocol",
		Description: "How screens connect, what messages they receive, and what each tool error code means.",
		Content: `# Screen relay protocol

## Connecting a screen

Screens open ` + "`/ws?token=<token>&screen_id=<id>`" + `.

- ` + "`token=pending`" + `: first contact. ` + "`screen_id`" + ` is an optional suggested id; the server assigns one when it is missing, malformed, or already confirmed.
- ` + "`token=<session token>`" + `: reconnect of a confirmed screen. The screen must be active.

Rejected connections are closed with code 1008 and a reason: ` + "`token required`" + `, ` + "`invalid token`" + ` or ` + "`screen not active`" + `.

## Server to screen

- ` + "`{\"type\":\"connected\",\"data\":{\"screen_id\",\"status\":\"pending\",\"message\"}}`" + ` after a pending connect.
- ` + "`{\"type\":\"connected\",\"data\":{\"screen_id\",\"status\":\"active\",\"name_en\",\"name_zh\"}}`" + ` after a token connect.
- ` + "`{\"type\":\"registered\",\"data\":{\"name_en\",\"name_zh\",\"token\"}}`" + ` when a connected pending screen is confirmed. The screen stores the token for later reconnects.
- ` + "`{\"type\":\"project\",\"data\":{\"project_type\",\"content\",\"attachment_url\"}}`" + ` for projected content.
- ` + "`{\"type\":\"pong\",\"timestamp\":<ms>}`" + ` in reply to ` + "`{\"type\":\"ping\"}`" + `.

A newer connection for the same screen replaces the older one, which is closed with code 1008.

## Tool error codes

- ` + "`SCREEN_NOT_FOUND`" + `: no screen has that id.
- ` + "`INVALID_INPUT`" + `: a required name is missing or blank.
- ` + "`INVALID_PROJECT_TYPE`" + `: type must be inline_html or iframe.
- ` + "`SCREEN_NOT_ACTIVE`" + `: the screen is pending or inactive.
- ` + "`SCREEN_OFFLINE`" + `: the screen is active but has no live connection. Nothing was sent.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
