// Package testserver runs the full relay stack behind an httptest server.
package testserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ganot/screen-relay/internal/blobstore"
	"github.com/ganot/screen-relay/internal/domain/activity"
	"github.com/ganot/screen-relay/internal/domain/attachment"
	"github.com/ganot/screen-relay/internal/domain/screen"
	"github.com/ganot/screen-relay/internal/mcp"
	"github.com/ganot/screen-relay/internal/relay"
	"github.com/ganot/screen-relay/internal/sqlite"
	"github.com/ganot/screen-relay/internal/token"
	"github.com/ganot/screen-relay/internal/transport"
)

// TestServer is a running relay with its collaborators exposed for assertions.
type TestServer struct {
	Server      *httptest.Server
	DB          *sqlite.DB
	Registry    *relay.Registry
	Dispatcher  *relay.Dispatcher
	Screens     *screen.Service
	Attachments *attachment.Service
	Activity    *activity.Service
	MCP         *sdkmcp.Server
	Token       string
}

// New starts a server protected by the control token tok.
func New(t *testing.T, tok string) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	blobs, err := blobstore.NewFSStore(t.TempDir())
	require.NoError(t, err)

	registry := relay.NewRegistry()
	dispatcher := relay.NewDispatcher(registry, nil)
	issuer := token.NewIssuer()

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	screenSvc := screen.NewService(sqlite.NewScreenRepository(db), dispatcher, issuer, nil,
		screen.WithHeartbeatInterval(30*time.Second),
		screen.WithActivityLog(activitySvc))
	attachmentSvc := attachment.NewService(sqlite.NewAttachmentRepository(db), blobs, issuer, nil,
		attachment.WithMaxSize(1<<20))

	mcpServer := mcp.NewServer(mcp.Config{Screens: screenSvc, Activity: activitySvc})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server { return mcpServer }, nil)

	router := transport.NewServer(transport.Options{
		Screens:        screenSvc,
		Attachments:    attachmentSvc,
		Relay:          dispatcher,
		Activity:       activitySvc,
		ControlToken:   tok,
		MaxUploadBytes: 1 << 20,
		MCP:            mcpHandler,
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		dispatcher.Shutdown()
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:      server,
		DB:          db,
		Registry:    registry,
		Dispatcher:  dispatcher,
		Screens:     screenSvc,
		Attachments: attachmentSvc,
		Activity:    activitySvc,
		MCP:         mcpServer,
		Token:       tok,
	}
}

// Request sends an authenticated control-plane request with an optional JSON body.
func (ts *TestServer) Request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// DecodeJSON decodes a response body into out.
func DecodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// WSURL returns the relay endpoint URL for the given connection parameters.
func (ts *TestServer) WSURL(tok, screenID string) string {
	q := url.Values{}
	if tok != "" {
		q.Set("token", tok)
	}
	if screenID != "" {
		q.Set("screen_id", screenID)
	}
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws?" + q.Encode()
}

// DialScreen opens a relay connection as a screen would.
func (ts *TestServer) DialScreen(t *testing.T, tok, screenID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(ts.WSURL(tok, screenID), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// Frame is a decoded server-to-screen message.
type Frame struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// ReadFrame reads the next message from conn.
func ReadFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// ReadClose reads until the server closes conn and returns the close error.
func ReadClose(t *testing.T, conn *websocket.Conn) *websocket.CloseError {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		closeErr, ok := err.(*websocket.CloseError)
		require.True(t, ok, "expected close frame, got %v", err)
		return closeErr
	}
}

// WaitOnline blocks until the registry reports the screen's online state as want.
func (ts *TestServer) WaitOnline(t *testing.T, screenID string, want bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		return ts.Registry.IsOnline(screenID) == want
	}, 5*time.Second, 10*time.Millisecond)
}
