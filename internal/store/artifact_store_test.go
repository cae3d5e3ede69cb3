package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/hoopsight/api/internal/client"
)

// fakeObjectStorage implements client.ObjectStorage in memory.
type fakeObjectStorage struct {
	objects map[string][]byte
}

func (f *fakeObjectStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.objects[key] = data
	return key, nil
}

func (f *fakeObjectStorage) Download(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", client.ErrObjectNotFound, key)
	}
	return data, nil
}

func (f *fakeObjectStorage) GetSignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func (f *fakeObjectStorage) GetPublicURL(key string) string {
	return "https://cdn.example/" + key
}

func TestArtifactStore_KeyIsDeterministic(t *testing.T) {
	s := NewR2ArtifactStore(&fakeObjectStorage{objects: map[string][]byte{}})

	if got := s.Key("job-1"); got != "analysis/job-1.json" {
		t.Errorf("got key %q", got)
	}
	if s.Key("job-1") != s.Key("job-1") {
		t.Error("key must be stable for the same job id")
	}
}

func TestArtifactStore_PutGet(t *testing.T) {
	s := NewR2ArtifactStore(&fakeObjectStorage{objects: map[string][]byte{}})
	ctx := context.Background()

	key, err := s.Put(ctx, "job-1", []byte(`{"hotSpots":["rim"]}`))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "analysis/job-1.json" {
		t.Errorf("unexpected key %q", key)
	}

	data, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `{"hotSpots":["rim"]}` {
		t.Errorf("unexpected artifact content %q", data)
	}
}

func TestArtifactStore_PutOverwrites(t *testing.T) {
	s := NewR2ArtifactStore(&fakeObjectStorage{objects: map[string][]byte{}})
	ctx := context.Background()

	if _, err := s.Put(ctx, "job-1", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "job-1", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("second put: %v", err)
	}

	data, err := s.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `{"v":2}` {
		t.Errorf("re-analysis must overwrite the artifact, got %q", data)
	}
}

func TestArtifactStore_SignedURL(t *testing.T) {
	s := NewR2ArtifactStore(&fakeObjectStorage{objects: map[string][]byte{}})

	url, err := s.SignedURL(context.Background(), "job-1", 15*time.Minute)
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	if url != "https://signed.example/analysis/job-1.json" {
		t.Errorf("unexpected signed URL %q", url)
	}
}

func TestArtifactStore_GetNotFound(t *testing.T) {
	s := NewR2ArtifactStore(&fakeObjectStorage{objects: map[string][]byte{}})

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}
