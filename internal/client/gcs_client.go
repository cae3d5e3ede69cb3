package client

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/hoopsight/api/internal/config"
)

// VideoStorage defines the interface for uploaded-video storage. The
// annotation service reads gs:// URIs only, so source videos always live
// in Cloud Storage.
type VideoStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	ObjectURI(key string) string
}

// GCSClient implements VideoStorage on Google Cloud Storage
type GCSClient struct {
	client *storage.Client
	bucket string
}

// NewGCSClient creates a new Cloud Storage client
func NewGCSClient(ctx context.Context, cfg *config.GCPConfig) (*GCSClient, error) {
	if cfg.VideoBucket == "" {
		return nil, fmt.Errorf("GCS configuration incomplete")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	return &GCSClient{client: c, bucket: cfg.VideoBucket}, nil
}

// Upload writes a video object and returns its gs:// URI
func (c *GCSClient) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	w := c.client.Bucket(c.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}

	return c.ObjectURI(key), nil
}

// ObjectURI returns the gs:// URI for a key
func (c *GCSClient) ObjectURI(key string) string {
	return fmt.Sprintf("gs://%s/%s", c.bucket, key)
}

// Close releases the underlying connection
func (c *GCSClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
