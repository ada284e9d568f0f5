package attachment_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ganot/screen-relay/internal/blobstore"
	"github.com/ganot/screen-relay/internal/domain/attachment"
	"github.com/ganot/screen-relay/internal/repository"
	"github.com/ganot/screen-relay/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixedIssuer string

func (f fixedIssuer) Issue() string { return string(f) }

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService(repo *mocks.AttachmentRepository, blobs *mocks.BlobStore, opts ...attachment.Option) *attachment.Service {
	opts = append([]attachment.Option{attachment.WithClock(func() time.Time { return fixedNow })}, opts...)
	return attachment.NewService(repo, blobs, fixedIssuer("att-token"), nil, opts...)
}

func TestAttachmentService_Upload(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AttachmentRepository{}
	blobs := &mocks.BlobStore{}

	body := strings.NewReader("%PDF-1.7")
	blobs.On("Put", ctx, mock.AnythingOfType("string"), body, int64(8), "application/pdf").Return(nil)
	repo.On("Create", ctx, mock.MatchedBy(func(a *attachment.Attachment) bool {
		return a.Filename == "deck.pdf" && a.Token == "att-token" && a.CreatedAt.Equal(fixedNow)
	})).Return(nil)

	svc := newTestService(repo, blobs, attachment.WithBaseURL("https://relay.example.com/"))
	att, err := svc.Upload(ctx, attachment.UploadRequest{Filename: "deck.pdf", MimeType: "application/pdf", Size: 8, Body: body})
	require.NoError(t, err)
	require.NotEmpty(t, att.ID)
	require.Equal(t, "https://relay.example.com/attachments/"+att.ID+"?t=att-token", att.URL)

	put := blobs.Calls[0]
	require.Equal(t, att.ID, put.Arguments.String(1))
	repo.AssertExpectations(t)
}

func TestAttachmentService_UploadDefaultsMimeType(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AttachmentRepository{}
	blobs := &mocks.BlobStore{}

	blobs.On("Put", ctx, mock.Anything, mock.Anything, int64(3), "application/octet-stream").Return(nil)
	repo.On("Create", ctx, mock.Anything).Return(nil)

	svc := newTestService(repo, blobs)
	att, err := svc.Upload(ctx, attachment.UploadRequest{Filename: "x.bin", Size: 3, Body: strings.NewReader("abc")})
	require.NoError(t, err)
	require.Equal(t, "application/octet-stream", att.MimeType)
	require.True(t, strings.HasPrefix(att.URL, "/attachments/"))
}

func TestAttachmentService_UploadValidation(t *testing.T) {
	ctx := context.Background()
	blobs := &mocks.BlobStore{}
	svc := newTestService(&mocks.AttachmentRepository{}, blobs, attachment.WithMaxSize(4))

	_, err := svc.Upload(ctx, attachment.UploadRequest{Filename: "negative", Size: -1, Body: strings.NewReader("")})
	require.ErrorIs(t, err, attachment.ErrInvalidInput)

	_, err = svc.Upload(ctx, attachment.UploadRequest{Filename: "none", Size: 3})
	require.ErrorIs(t, err, attachment.ErrInvalidInput)

	_, err = svc.Upload(ctx, attachment.UploadRequest{Filename: "big", Size: 5, Body: strings.NewReader("12345")})
	require.ErrorIs(t, err, attachment.ErrTooLarge)

	blobs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachmentService_UploadEmptyFile(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AttachmentRepository{}
	blobs := &mocks.BlobStore{}

	body := strings.NewReader("")
	blobs.On("Put", ctx, mock.AnythingOfType("string"), body, int64(0), "text/plain").Return(nil)
	repo.On("Create", ctx, mock.MatchedBy(func(a *attachment.Attachment) bool {
		return a.Filename == "empty.txt" && a.Size == 0
	})).Return(nil)

	svc := newTestService(repo, blobs)
	att, err := svc.Upload(ctx, attachment.UploadRequest{Filename: "empty.txt", MimeType: "text/plain", Size: 0, Body: body})
	require.NoError(t, err)
	require.Equal(t, int64(0), att.Size)
	repo.AssertExpectations(t)
	blobs.AssertExpectations(t)
}

func TestAttachmentService_UploadRemovesBlobWhenRecordFails(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AttachmentRepository{}
	blobs := &mocks.BlobStore{}

	blobs.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Create", ctx, mock.Anything).Return(errors.New("disk full"))
	blobs.On("Delete", ctx, mock.Anything).Return(nil)

	svc := newTestService(repo, blobs)
	_, err := svc.Upload(ctx, attachment.UploadRequest{Filename: "a", Size: 1, Body: strings.NewReader("a")})
	require.Error(t, err)
	blobs.AssertCalled(t, "Delete", ctx, mock.Anything)
}

func TestAttachmentService_Open(t *testing.T) {
	ctx := context.Background()
	stored := &attachment.Attachment{ID: "a1", Filename: "pic.png", MimeType: "image/png", Size: 3, Token: "good"}

	t.Run("streams bytes", func(t *testing.T) {
		repo := &mocks.AttachmentRepository{}
		blobs := &mocks.BlobStore{}
		repo.On("GetByToken", ctx, "good").Return(stored, nil)
		blobs.On("Open", ctx, "a1").Return(io.NopCloser(strings.NewReader("png")), nil)

		svc := newTestService(repo, blobs)
		att, body, err := svc.Open(ctx, "a1", "good")
		require.NoError(t, err)
		defer body.Close()
		require.Equal(t, "image/png", att.MimeType)
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		require.Equal(t, "png", string(data))
	})

	t.Run("missing token", func(t *testing.T) {
		repo := &mocks.AttachmentRepository{}
		svc := newTestService(repo, &mocks.BlobStore{})
		_, _, err := svc.Open(ctx, "a1", "")
		require.ErrorIs(t, err, attachment.ErrUnauthorized)
		repo.AssertNotCalled(t, "GetByToken", mock.Anything, mock.Anything)
	})

	t.Run("unknown token", func(t *testing.T) {
		repo := &mocks.AttachmentRepository{}
		repo.On("GetByToken", ctx, "bad").Return((*attachment.Attachment)(nil), repository.ErrNotFound)
		svc := newTestService(repo, &mocks.BlobStore{})
		_, _, err := svc.Open(ctx, "a1", "bad")
		require.ErrorIs(t, err, attachment.ErrUnauthorized)
	})

	t.Run("token of another attachment", func(t *testing.T) {
		repo := &mocks.AttachmentRepository{}
		repo.On("GetByToken", ctx, "good").Return(stored, nil)
		svc := newTestService(repo, &mocks.BlobStore{})
		_, _, err := svc.Open(ctx, "a2", "good")
		require.ErrorIs(t, err, attachment.ErrUnauthorized)
	})

	t.Run("bytes missing", func(t *testing.T) {
		repo := &mocks.AttachmentRepository{}
		blobs := &mocks.BlobStore{}
		repo.On("GetByToken", ctx, "good").Return(stored, nil)
		blobs.On("Open", ctx, "a1").Return(nil, blobstore.ErrNotFound)
		svc := newTestService(repo, blobs)
		_, _, err := svc.Open(ctx, "a1", "good")
		require.ErrorIs(t, err, attachment.ErrAttachmentNotFound)
	})
}

func TestAttachmentService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.AttachmentRepository{}
	blobs := &mocks.BlobStore{}

	repo.On("Get", ctx, "a1").Return(&attachment.Attachment{ID: "a1"}, nil)
	repo.On("Delete", ctx, "a1").Return(nil)
	blobs.On("Delete", ctx, "a1").Return(blobstore.ErrNotFound)
	repo.On("Get", ctx, "missing").Return((*attachment.Attachment)(nil), repository.ErrNotFound)

	svc := newTestService(repo, blobs)
	require.NoError(t, svc.Delete(ctx, "a1"))
	require.ErrorIs(t, svc.Delete(ctx, "missing"), attachment.ErrAttachmentNotFound)
	repo.AssertNotCalled(t, "Delete", ctx, "missing")
}
