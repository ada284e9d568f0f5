package relay

import "time"

// Message kinds exchanged over a relay channel.
const (
	TypeConnected  = "connected"
	TypeRegistered = "registered"
	TypeProject    = "project"
	TypePing       = "ping"
	TypePong       = "pong"
)

// Message is the envelope for every server-to-screen frame.
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// ConnectedData acknowledges an admitted connection. Names are only set for active screens.
type ConnectedData struct {
	ScreenID          string `json:"screen_id"`
	Status            string `json:"status"`
	Message           string `json:"message,omitempty"`
	NameEn            string `json:"name_en,omitempty"`
	NameZh            string `json:"name_zh,omitempty"`
	HeartbeatInterval int64  `json:"heartbeat_interval,omitempty"`
}

// RegisteredData tells a connected screen it has been confirmed and hands it its token.
type RegisteredData struct {
	NameEn string `json:"name_en"`
	NameZh string `json:"name_zh"`
	Token  string `json:"token"`
}

// ProjectData carries content to render on a screen.
type ProjectData struct {
	ProjectType   string `json:"project_type"`
	Content       string `json:"content"`
	AttachmentURL string `json:"attachment_url,omitempty"`
}

// Connected builds a connected acknowledgement.
func Connected(data ConnectedData) Message {
	return Message{Type: TypeConnected, Data: data}
}

// Registered builds a registration notice.
func Registered(nameEn, nameZh, token string) Message {
	return Message{Type: TypeRegistered, Data: RegisteredData{NameEn: nameEn, NameZh: nameZh, Token: token}}
}

// Project builds a projection command.
func Project(kind, content, attachmentURL string) Message {
	return Message{Type: TypeProject, Data: ProjectData{
		ProjectType:   kind,
		Content:       content,
		AttachmentURL: attachmentURL,
	}}
}

// Pong answers a heartbeat with the server time in milliseconds.
func Pong(at time.Time) Message {
	return Message{Type: TypePong, Timestamp: at.UnixMilli()}
}

type inbound struct {
	Type string `json:"type"`
}
