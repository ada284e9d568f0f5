package mcp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ganot/screen-relay/internal/mcp"
	"github.com/ganot/screen-relay/internal/testserver"
)

func connect(t *testing.T, ts *testserver.TestServer) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	ct, st := sdkmcp.NewInMemoryTransports()
	ss, err := ts.MCP.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func decodeText(t *testing.T, res *sdkmcp.CallToolResult, out any) {
	t.Helper()
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
}

func requireToolError(t *testing.T, res *sdkmcp.CallToolResult, code string) {
	t.Helper()
	require.True(t, res.IsError)
	var apiErr mcp.APIError
	decodeText(t, res, &apiErr)
	require.Equal(t, code, apiErr.Code)
	require.NotEmpty(t, apiErr.Message)
}

type screenJSON struct {
	ID     string  `json:"id"`
	NameEn string  `json:"name_en"`
	NameZh string  `json:"name_zh"`
	Token  *string `json:"token"`
	Status string  `json:"status"`
	Online bool    `json:"online"`
}

func TestTools_ConfirmAndProject(t *testing.T) {
	ts := testserver.New(t, "secret")
	cs := connect(t, ts)

	conn := ts.DialScreen(t, "pending", "screen_abc")
	require.Equal(t, "connected", testserver.ReadFrame(t, conn).Type)

	var listed struct {
		Screens []screenJSON `json:"screens"`
	}
	decodeText(t, callTool(t, cs, "list_screens", nil), &listed)
	require.Len(t, listed.Screens, 1)
	require.Equal(t, "screen_abc", listed.Screens[0].ID)
	require.Equal(t, "pending", listed.Screens[0].Status)
	require.True(t, listed.Screens[0].Online)

	var confirmed struct {
		Screen screenJSON `json:"screen"`
	}
	decodeText(t, callTool(t, cs, "confirm_screen", map[string]any{
		"id":      "screen_abc",
		"name_en": "Lobby",
		"name_zh": "大厅",
	}), &confirmed)
	require.Equal(t, "active", confirmed.Screen.Status)
	require.NotNil(t, confirmed.Screen.Token)

	reg := testserver.ReadFrame(t, conn)
	require.Equal(t, "registered", reg.Type)
	require.Equal(t, *confirmed.Screen.Token, reg.Data["token"])

	var ok struct {
		Success bool `json:"success"`
	}
	res := callTool(t, cs, "project_content", map[string]any{
		"id":      "screen_abc",
		"type":    "inline_html",
		"content": "<h1>hello</h1>",
	})
	require.False(t, res.IsError)
	decodeText(t, res, &ok)
	require.True(t, ok.Success)

	f := testserver.ReadFrame(t, conn)
	require.Equal(t, "project", f.Type)
	require.Equal(t, "inline_html", f.Data["project_type"])
	require.Equal(t, "<h1>hello</h1>", f.Data["content"])

	var edited struct {
		Screen screenJSON `json:"screen"`
	}
	decodeText(t, callTool(t, cs, "edit_screen", map[string]any{"id": "screen_abc", "name_zh": "前台"}), &edited)
	require.Equal(t, "Lobby", edited.Screen.NameEn)
	require.Equal(t, "前台", edited.Screen.NameZh)
}

func TestTools_Errors(t *testing.T) {
	ts := testserver.New(t, "secret")
	cs := connect(t, ts)

	requireToolError(t, callTool(t, cs, "get_screen", map[string]any{"id": "missing"}), "SCREEN_NOT_FOUND")
	requireToolError(t, callTool(t, cs, "delete_screen", map[string]any{"id": "missing"}), "SCREEN_NOT_FOUND")

	conn := ts.DialScreen(t, "pending", "screen_abc")
	require.Equal(t, "connected", testserver.ReadFrame(t, conn).Type)

	requireToolError(t, callTool(t, cs, "confirm_screen", map[string]any{"id": "screen_abc", "name_en": "Lobby"}), "INVALID_INPUT")
	requireToolError(t, callTool(t, cs, "project_content", map[string]any{
		"id": "screen_abc", "type": "video", "content": "x",
	}), "INVALID_PROJECT_TYPE")
	requireToolError(t, callTool(t, cs, "project_content", map[string]any{
		"id": "screen_abc", "type": "iframe", "content": "https://example.com",
	}), "SCREEN_NOT_ACTIVE")
	requireToolError(t, callTool(t, cs, "regenerate_screen_token", map[string]any{"id": "screen_abc"}), "SCREEN_NOT_ACTIVE")

	callTool(t, cs, "confirm_screen", map[string]any{"id": "screen_abc", "name_en": "Lobby", "name_zh": "大厅"})
	require.NoError(t, conn.Close())
	ts.WaitOnline(t, "screen_abc", false)

	requireToolError(t, callTool(t, cs, "project_content", map[string]any{
		"id": "screen_abc", "type": "iframe", "content": "https://example.com",
	}), "SCREEN_OFFLINE")
}

func TestTools_LifecycleTools(t *testing.T) {
	ts := testserver.New(t, "secret")
	cs := connect(t, ts)

	conn := ts.DialScreen(t, "pending", "screen_abc")
	require.Equal(t, "connected", testserver.ReadFrame(t, conn).Type)
	callTool(t, cs, "confirm_screen", map[string]any{"id": "screen_abc", "name_en": "Lobby", "name_zh": "大厅"})
	require.Equal(t, "registered", testserver.ReadFrame(t, conn).Type)

	var regen struct {
		Token  string     `json:"token"`
		Screen screenJSON `json:"screen"`
	}
	decodeText(t, callTool(t, cs, "regenerate_screen_token", map[string]any{"id": "screen_abc"}), &regen)
	require.NotEmpty(t, regen.Token)
	require.Equal(t, "token regenerated", testserver.ReadClose(t, conn).Text)

	res := callTool(t, cs, "deactivate_screen", map[string]any{"id": "screen_abc"})
	require.False(t, res.IsError)

	var got struct {
		Screen screenJSON `json:"screen"`
	}
	decodeText(t, callTool(t, cs, "get_screen", map[string]any{"id": "screen_abc"}), &got)
	require.Equal(t, "inactive", got.Screen.Status)

	res = callTool(t, cs, "delete_screen", map[string]any{"id": "screen_abc"})
	require.False(t, res.IsError)
	requireToolError(t, callTool(t, cs, "get_screen", map[string]any{"id": "screen_abc"}), "SCREEN_NOT_FOUND")
}

func TestTools_RecentActivity(t *testing.T) {
	ts := testserver.New(t, "secret")
	cs := connect(t, ts)

	conn := ts.DialScreen(t, "pending", "screen_abc")
	require.Equal(t, "connected", testserver.ReadFrame(t, conn).Type)
	callTool(t, cs, "confirm_screen", map[string]any{"id": "screen_abc", "name_en": "Lobby", "name_zh": "大厅"})

	var got struct {
		Activity []struct {
			ScreenID string `json:"screen_id"`
			Type     string `json:"type"`
			Summary  string `json:"summary"`
		} `json:"activity"`
	}
	decodeText(t, callTool(t, cs, "get_recent_activity", map[string]any{"screen_id": "screen_abc"}), &got)
	require.Len(t, got.Activity, 2)
	require.Equal(t, "screen_confirmed", got.Activity[0].Type)
	require.Contains(t, got.Activity[0].Summary, "Lobby")
	require.Equal(t, "screen_connected", got.Activity[1].Type)

	requireToolError(t, callTool(t, cs, "get_recent_activity", map[string]any{"type": "bogus"}), "INVALID_INPUT")
}

func TestServer_ListsToolsAndDocs(t *testing.T) {
	ts := testserver.New(t, "secret")
	cs := connect(t, ts)
	ctx := context.Background()

	tools, err := cs.ListTools(ctx, &sdkmcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"list_screens", "get_screen", "confirm_screen", "edit_screen",
		"deactivate_screen", "delete_screen", "regenerate_screen_token", "project_content",
		"get_recent_activity",
	}, names)

	doc, err := cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "screen-relay://docs/protocol"})
	require.NoError(t, err)
	require.Len(t, doc.Contents, 1)
	require.Equal(t, "text/markdown", doc.Contents[0].MIMEType)
	require.Contains(t, doc.Contents[0].Text, "SCREEN_OFFLINE")
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}

func TestServer_StreamableHTTP(t *testing.T) {
	ts := testserver.New(t, "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "http-client", Version: "0.0.1"}, nil)

	t.Run("with control token", func(t *testing.T) {
		transport := &sdkmcp.StreamableClientTransport{
			Endpoint:   ts.Server.URL + "/mcp",
			HTTPClient: &http.Client{Transport: bearerTransport{token: "secret", base: http.DefaultTransport}},
		}
		cs, err := client.Connect(ctx, transport, nil)
		require.NoError(t, err)
		defer cs.Close()

		res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{Name: "list_screens", Arguments: map[string]any{}})
		require.NoError(t, err)
		require.False(t, res.IsError)
	})

	t.Run("without control token", func(t *testing.T) {
		transport := &sdkmcp.StreamableClientTransport{Endpoint: ts.Server.URL + "/mcp"}
		cs, err := client.Connect(ctx, transport, nil)
		if err == nil {
			cs.Close()
		}
		require.Error(t, err)
	})
}
