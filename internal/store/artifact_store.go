package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hoopsight/api/internal/client"
)

// ArtifactStore persists the derived summary JSON for a job. Keys are
// deterministic per job id so re-analysis overwrites the previous
// artifact instead of orphaning it.
type ArtifactStore interface {
	Put(ctx context.Context, jobID string, data []byte) (string, error)
	Get(ctx context.Context, jobID string) ([]byte, error)
	// SignedURL returns a time-limited download link for the artifact.
	SignedURL(ctx context.Context, jobID string, expiry time.Duration) (string, error)
	Key(jobID string) string
}

// R2ArtifactStore implements ArtifactStore on R2 object storage
type R2ArtifactStore struct {
	storage client.ObjectStorage
}

func NewR2ArtifactStore(storage client.ObjectStorage) *R2ArtifactStore {
	return &R2ArtifactStore{storage: storage}
}

// Key returns the artifact key for a job id
func (s *R2ArtifactStore) Key(jobID string) string {
	return fmt.Sprintf("analysis/%s.json", jobID)
}

// Put writes the summary artifact and returns its key
func (s *R2ArtifactStore) Put(ctx context.Context, jobID string, data []byte) (string, error) {
	key := s.Key(jobID)
	if _, err := s.storage.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("failed to store artifact: %w", err)
	}
	return key, nil
}

// SignedURL returns a presigned download URL for the job's artifact
func (s *R2ArtifactStore) SignedURL(ctx context.Context, jobID string, expiry time.Duration) (string, error) {
	url, err := s.storage.GetSignedURL(ctx, s.Key(jobID), expiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign artifact URL: %w", err)
	}
	return url, nil
}

// Get reads the summary artifact for a job
func (s *R2ArtifactStore) Get(ctx context.Context, jobID string) ([]byte, error) {
	data, err := s.storage.Download(ctx, s.Key(jobID))
	if err != nil {
		if errors.Is(err, client.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: job %s", ErrArtifactNotFound, jobID)
		}
		return nil, err
	}
	return data, nil
}
