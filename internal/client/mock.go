package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hoopsight/api/internal/model"
)

// MockVideoAnnotator returns canned label annotations for development
// when no Video Intelligence credentials are configured.
type MockVideoAnnotator struct{}

func NewMockVideoAnnotator() *MockVideoAnnotator {
	return &MockVideoAnnotator{}
}

type mockOperation struct {
	name      string
	sourceURI string
}

func (o *mockOperation) Name() string { return o.name }

func (m *MockVideoAnnotator) Submit(ctx context.Context, sourceURI string) (Operation, error) {
	return &mockOperation{
		name:      fmt.Sprintf("mock-operations/%d", time.Now().UnixNano()),
		sourceURI: sourceURI,
	}, nil
}

func (m *MockVideoAnnotator) Await(ctx context.Context, op Operation, timeout time.Duration) (*model.AnnotationPayload, error) {
	mo, ok := op.(*mockOperation)
	if !ok {
		return nil, fmt.Errorf("unexpected operation type %T", op)
	}

	// Simulate a short processing delay
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &model.AnnotationPayload{
		SourceURI: mo.sourceURI,
		Labels: []model.LabelAnnotation{
			{Description: "basketball", Segments: 12},
			{Description: "jump shot", Segments: 7},
			{Description: "dribbling", Segments: 9},
			{Description: "layup", Segments: 4},
			{Description: "basketball court", Segments: 1},
			{Description: "zone defense", Segments: 3},
		},
	}, nil
}

// MemoryObjectStorage implements ObjectStorage in memory for development
// when R2 is not configured. Objects do not survive a restart.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{objects: make(map[string][]byte)}
}

func (m *MemoryObjectStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()

	return m.GetPublicURL(key), nil
}

func (m *MemoryObjectStorage) Download(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return data, nil
}

func (m *MemoryObjectStorage) GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return m.GetPublicURL(key), nil
}

func (m *MemoryObjectStorage) GetPublicURL(key string) string {
	return fmt.Sprintf("memory://%s", key)
}
