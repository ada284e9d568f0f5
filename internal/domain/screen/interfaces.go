package screen

import (
	"context"
	"time"

	"github.com/ganot/screen-relay/internal/domain/activity"
	"github.com/ganot/screen-relay/internal/relay"
)

// Repository provides persistence for screens.
type Repository interface {
	Create(ctx context.Context, scr *Screen) error
	Get(ctx context.Context, id string) (*Screen, error)
	GetByToken(ctx context.Context, token string) (*Screen, error)
	List(ctx context.Context) ([]Screen, error)
	Confirm(ctx context.Context, id, nameEn, nameZh, token string, at time.Time) (*Screen, error)
	Update(ctx context.Context, id string, upd Update, at time.Time) (*Screen, error)
	Deactivate(ctx context.Context, id string, at time.Time) error
	RegenerateToken(ctx context.Context, id, token string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// Relay is the live-connection side the lifecycle drives.
type Relay interface {
	Register(sess relay.Session, ch relay.Channel)
	Deliver(screenID string, msg relay.Message) error
	Disconnect(screenID, reason string) bool
	IsOnline(screenID string) bool
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue() string
}

// ActivityLog records lifecycle events.
type ActivityLog interface {
	LogActivity(ctx context.Context, entry *activity.Entry) error
}
