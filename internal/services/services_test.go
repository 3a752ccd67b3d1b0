package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/internal/events"
	"github.com/jobportal/apiserver/internal/fixtures"
	"github.com/jobportal/apiserver/internal/logging"
	"github.com/jobportal/apiserver/internal/storage"
	"github.com/jobportal/apiserver/internal/store/memory"
	"github.com/jobportal/apiserver/types"
)

const (
	demoAccountID   = "11111111-1111-4111-8111-000000000001"
	janeAccountID   = "11111111-1111-4111-8111-000000000002"
	acmeAccountID   = "11111111-1111-4111-8111-000000000003"
	globexAccountID = "11111111-1111-4111-8111-000000000004"
	adminAccountID  = "11111111-1111-4111-8111-000000000005"
	newbieAccountID = "11111111-1111-4111-8111-000000000006"

	demoProfileID = "22222222-2222-4222-8222-000000000001"
	acmeEmployer  = "33333333-3333-4333-8333-000000000001"

	goJobID    = "44444444-4444-4444-8444-000000000001"
	draftJobID = "44444444-4444-4444-8444-000000000004"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ds, err := fixtures.Load()
	require.NoError(t, err)

	s := memory.New()
	require.NoError(t, fixtures.Seed(context.Background(), ds, fixtures.Target{
		Accounts:     s.Accounts(),
		JobPostings:  s.JobPostings(),
		Applications: s.Applications(),
	}, plainHasher{}))
	return s
}

func claimFor(id string, kind types.AccountKind) *types.SessionClaim {
	return &types.SessionClaim{AccountID: id, Kind: kind, IsActive: true}
}

type memResumes struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
}

func newMemResumes() *memResumes {
	return &memResumes{objects: map[string]string{}, types: map[string]string{}}
}

func (m *memResumes) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = string(data)
	m.types[key] = contentType
	return nil
}

func (m *memResumes) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (m *memResumes) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memResumes) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ApplicationSubmitted
	err    error
}

func (p *recordingPublisher) ApplicationSubmitted(_ context.Context, evt events.ApplicationSubmitted) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, evt)
	return "msg-1", nil
}

func pdf(body string) *Resume {
	return &Resume{Filename: "CV.PDF", Size: int64(len(body)), Body: bytes.NewBufferString(body)}
}

func ptr[T any](v T) *T { return &v }

func newApplicationService(s *memory.Store, resumes ResumeStore, pub EventPublisher) *ApplicationService {
	jobs := NewJobService(s.JobPostings(), s.Profiles())
	return NewApplicationService(s.Applications(), jobs, s.Profiles(), resumes, pub, logging.Nop())
}

func hasPrefix(s, prefix string) bool { return strings.HasPrefix(s, prefix) }
