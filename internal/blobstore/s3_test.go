package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	types    map[string]string
	lastSize *int64
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := *in.Bucket + "/" + *in.Key
	f.objects[key] = data
	f.types[key] = *in.ContentType
	f.lastSize = in.ContentLength
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3Store(fake, "vault", "attachments")

	require.NoError(t, store.Put(ctx, "a1", bytes.NewReader([]byte("png-bytes")), 9, "image/png"))
	require.Contains(t, fake.objects, "vault/attachments/a1")
	require.Equal(t, "image/png", fake.types["vault/attachments/a1"])
	require.NotNil(t, fake.lastSize)
	require.Equal(t, int64(9), *fake.lastSize)

	rc, err := store.Open(ctx, "a1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "a1"))
	_, err = store.Open(ctx, "a1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_NoPrefix(t *testing.T) {
	fake := newFakeS3()
	store := NewS3Store(fake, "vault", "")
	require.NoError(t, store.Put(context.Background(), "a1", bytes.NewReader([]byte("x")), 1, "text/plain"))
	require.Contains(t, fake.objects, "vault/a1")
}
