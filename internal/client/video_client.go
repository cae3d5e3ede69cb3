package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	videointelligence "cloud.google.com/go/videointelligence/apiv1"
	vipb "cloud.google.com/go/videointelligence/apiv1/videointelligencepb"
	"google.golang.org/api/option"

	"github.com/hoopsight/api/internal/config"
	"github.com/hoopsight/api/internal/model"
)

// Operation is an opaque handle to a long-running annotation request.
type Operation interface {
	Name() string
}

// VideoAnnotator defines the interface for the video annotation service.
// Submit starts a long-running annotation of the given gs:// URI; Await
// blocks until the operation completes or the timeout elapses. Await does
// not cancel the remote operation, it only stops waiting.
type VideoAnnotator interface {
	Submit(ctx context.Context, sourceURI string) (Operation, error)
	Await(ctx context.Context, op Operation, timeout time.Duration) (*model.AnnotationPayload, error)
}

// VideoClient implements VideoAnnotator on Google Cloud Video Intelligence
type VideoClient struct {
	client *videointelligence.Client
}

type gcpOperation struct {
	op        *videointelligence.AnnotateVideoOperation
	sourceURI string
}

func (o *gcpOperation) Name() string { return o.op.Name() }

// NewVideoClient creates a new Video Intelligence client
func NewVideoClient(ctx context.Context, cfg *config.GCPConfig) (*VideoClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	c, err := videointelligence.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("videointelligence client: %w", err)
	}

	return &VideoClient{client: c}, nil
}

// Submit requests label detection on a stored video and returns the
// operation handle without waiting for completion.
func (c *VideoClient) Submit(ctx context.Context, sourceURI string) (Operation, error) {
	if !strings.HasPrefix(sourceURI, "gs://") {
		return nil, fmt.Errorf("source URI must be gs://..., got %q", sourceURI)
	}

	op, err := c.client.AnnotateVideo(ctx, &vipb.AnnotateVideoRequest{
		InputUri: sourceURI,
		Features: []vipb.Feature{vipb.Feature_LABEL_DETECTION},
	})
	if err != nil {
		return nil, fmt.Errorf("annotate video submit: %w", err)
	}

	return &gcpOperation{op: op, sourceURI: sourceURI}, nil
}

// Await blocks on the annotation operation for at most timeout and
// flattens the label annotations into the pipeline's payload shape.
func (c *VideoClient) Await(ctx context.Context, handle Operation, timeout time.Duration) (*model.AnnotationPayload, error) {
	g, ok := handle.(*gcpOperation)
	if !ok {
		return nil, fmt.Errorf("unexpected operation type %T", handle)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := g.op.Wait(waitCtx)
	if err != nil {
		if waitCtx.Err() != nil {
			return nil, fmt.Errorf("annotation wait: %w", waitCtx.Err())
		}
		return nil, fmt.Errorf("annotate video: %w", err)
	}

	return flattenAnnotations(g.sourceURI, resp), nil
}

// Close releases the underlying gRPC connection
func (c *VideoClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// flattenAnnotations collapses segment- and shot-level label annotations
// into a flat ordered list. Service order is preserved so downstream
// output stays deterministic for a given response.
func flattenAnnotations(sourceURI string, resp *vipb.AnnotateVideoResponse) *model.AnnotationPayload {
	out := &model.AnnotationPayload{SourceURI: sourceURI}

	if resp == nil || len(resp.AnnotationResults) == 0 || resp.AnnotationResults[0] == nil {
		return out
	}
	ar := resp.AnnotationResults[0]

	for _, l := range ar.SegmentLabelAnnotations {
		if l == nil || l.Entity == nil {
			continue
		}
		out.Labels = append(out.Labels, model.LabelAnnotation{
			Description: l.Entity.Description,
			Segments:    len(l.Segments),
		})
	}
	for _, l := range ar.ShotLabelAnnotations {
		if l == nil || l.Entity == nil {
			continue
		}
		out.Labels = append(out.Labels, model.LabelAnnotation{
			Description: l.Entity.Description,
			Segments:    len(l.Segments),
		})
	}

	return out
}
