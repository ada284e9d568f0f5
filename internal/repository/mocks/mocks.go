package mocks

import (
	"context"
	"io"
	"time"

	"github.com/ganot/screen-relay/internal/domain/activity"
	"github.com/ganot/screen-relay/internal/domain/attachment"
	"github.com/ganot/screen-relay/internal/domain/screen"
	"github.com/ganot/screen-relay/internal/relay"
	"github.com/stretchr/testify/mock"
)

// ScreenRepository is a mock for screen.Repository.
type ScreenRepository struct {
	mock.Mock
}

func (m *ScreenRepository) Create(ctx context.Context, scr *screen.Screen) error {
	args := m.Called(ctx, scr)
	return args.Error(0)
}

func (m *ScreenRepository) Get(ctx context.Context, id string) (*screen.Screen, error) {
	args := m.Called(ctx, id)
	if scr, ok := args.Get(0).(*screen.Screen); ok {
		return scr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScreenRepository) GetByToken(ctx context.Context, token string) (*screen.Screen, error) {
	args := m.Called(ctx, token)
	if scr, ok := args.Get(0).(*screen.Screen); ok {
		return scr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScreenRepository) List(ctx context.Context) ([]screen.Screen, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]screen.Screen); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScreenRepository) Confirm(ctx context.Context, id, nameEn, nameZh, token string, at time.Time) (*screen.Screen, error) {
	args := m.Called(ctx, id, nameEn, nameZh, token, at)
	if scr, ok := args.Get(0).(*screen.Screen); ok {
		return scr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScreenRepository) Update(ctx context.Context, id string, upd screen.Update, at time.Time) (*screen.Screen, error) {
	args := m.Called(ctx, id, upd, at)
	if scr, ok := args.Get(0).(*screen.Screen); ok {
		return scr, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ScreenRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *ScreenRepository) RegenerateToken(ctx context.Context, id, token string, at time.Time) error {
	args := m.Called(ctx, id, token, at)
	return args.Error(0)
}

func (m *ScreenRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// AttachmentRepository is a mock for attachment.Repository.
type AttachmentRepository struct {
	mock.Mock
}

func (m *AttachmentRepository) Create(ctx context.Context, att *attachment.Attachment) error {
	args := m.Called(ctx, att)
	return args.Error(0)
}

func (m *AttachmentRepository) Get(ctx context.Context, id string) (*attachment.Attachment, error) {
	args := m.Called(ctx, id)
	if att, ok := args.Get(0).(*attachment.Attachment); ok {
		return att, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AttachmentRepository) GetByToken(ctx context.Context, token string) (*attachment.Attachment, error) {
	args := m.Called(ctx, token)
	if att, ok := args.Get(0).(*attachment.Attachment); ok {
		return att, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AttachmentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// BlobStore is a mock for attachment.BlobStore.
type BlobStore struct {
	mock.Mock
}

func (m *BlobStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, body, size, contentType)
	return args.Error(0)
}

func (m *BlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BlobStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Relay is a mock for screen.Relay.
type Relay struct {
	mock.Mock
}

func (m *Relay) Register(sess relay.Session, ch relay.Channel) {
	m.Called(sess, ch)
}

func (m *Relay) Deliver(screenID string, msg relay.Message) error {
	args := m.Called(screenID, msg)
	return args.Error(0)
}

func (m *Relay) Disconnect(screenID, reason string) bool {
	args := m.Called(screenID, reason)
	return args.Bool(0)
}

func (m *Relay) IsOnline(screenID string) bool {
	args := m.Called(screenID)
	return args.Bool(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
