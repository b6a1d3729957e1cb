package mocks

import (
	"context"
	"io"
	"path"
	"sync"
	"time"

	"github.com/newsdesk-api/internal/auth"
	"github.com/newsdesk-api/internal/media"
)

// MockStorage is an in-memory media.Storage
type MockStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	SaveErr error
}

// Verify interface compliance
var _ media.Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{Objects: make(map[string][]byte)}
}

func (m *MockStorage) Save(ctx context.Context, dir, name string, src io.ReadSeeker, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return "", m.SaveErr
	}
	key := path.Join(dir, name)
	for {
		if _, taken := m.Objects[key]; !taken {
			break
		}
		key = path.Join(dir, media.WithSuffix(name))
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	m.Objects[key] = data
	return "/media/" + key, nil
}

// MockRevoker is an auth.Revoker whose store can be made unavailable
type MockRevoker struct {
	*auth.MemoryRevoker
	Err error
}

// Verify interface compliance
var _ auth.Revoker = (*MockRevoker)(nil)

func NewMockRevoker(now func() time.Time) *MockRevoker {
	return &MockRevoker{MemoryRevoker: auth.NewMemoryRevoker().WithClock(now)}
}

func (m *MockRevoker) Revoke(ctx context.Context, jti string, until time.Time) error {
	if m.Err != nil {
		return m.Err
	}
	return m.MemoryRevoker.Revoke(ctx, jti, until)
}

func (m *MockRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.MemoryRevoker.IsRevoked(ctx, jti)
}
