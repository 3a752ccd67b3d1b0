package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/jobportal/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBackend struct {
	mu      sync.Mutex
	objects map[string][]byte
	ensured bool
}

func (m *memBackend) EnsureBucket(context.Context) error { m.ensured = true; return nil }

func (m *memBackend) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memBackend) Bucket() string { return "resumes" }

func TestStorage_DelegatesToBackend(t *testing.T) {
	backend := &memBackend{objects: map[string][]byte{}}
	s := NewStorage(backend)
	ctx := context.Background()

	require.NoError(t, s.EnsureBucket(ctx))
	assert.True(t, backend.ensured)
	assert.Equal(t, "resumes", s.Bucket())

	require.NoError(t, s.Put(ctx, "resumes/a.pdf", bytes.NewReader([]byte("pdf")), 3, "application/pdf"))
	rc, err := s.Get(ctx, "resumes/a.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(data))

	require.NoError(t, s.Delete(ctx, "resumes/a.pdf"))
	require.NoError(t, s.Delete(ctx, "resumes/a.pdf"))
	_, err = s.Get(ctx, "resumes/a.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestOpen_NoneDisablesUploads(t *testing.T) {
	s, err := Open(context.Background(), config.Config{StorageBackend: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestOpen_RejectsUnknownBackendAndMissingSettings(t *testing.T) {
	_, err := Open(context.Background(), config.Config{StorageBackend: "ftp"})
	assert.Error(t, err)

	_, err = Open(context.Background(), config.Config{StorageBackend: "minio"})
	assert.ErrorContains(t, err, "minio endpoint is required")

	_, err = Open(context.Background(), config.Config{StorageBackend: "s3"})
	assert.ErrorContains(t, err, "s3 bucket is required")
}
