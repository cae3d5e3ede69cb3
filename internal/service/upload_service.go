package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hoopsight/api/internal/client"
	"github.com/hoopsight/api/internal/model"
	"github.com/hoopsight/api/internal/store"
)

// VideoUploader defines the interface for video upload operations
type VideoUploader interface {
	UploadVideo(ctx context.Context, fileName, contentType string, file io.Reader, fileSize int64) (*model.UploadVideoResponse, error)
}

// UploadService stores uploaded game film in GCS and creates the job
// record the pipeline later analyzes. Every job carries its own id and
// source URI; nothing identifies "the last upload" implicitly.
type UploadService struct {
	videoStorage client.VideoStorage
	jobs         store.JobStore
}

// NewUploadService creates a new upload service
func NewUploadService(videoStorage client.VideoStorage, jobs store.JobStore) *UploadService {
	return &UploadService{
		videoStorage: videoStorage,
		jobs:         jobs,
	}
}

// UploadVideo uploads a video to storage and creates its job record
func (s *UploadService) UploadVideo(ctx context.Context, fileName, contentType string, file io.Reader, fileSize int64) (*model.UploadVideoResponse, error) {
	jobID := uuid.New().String()
	now := time.Now()

	ext := filepath.Ext(fileName)
	if ext == "" {
		ext = ".mp4"
	}
	key := fmt.Sprintf("videos/%s%s", jobID, ext)

	var sourceURI string
	if s.videoStorage == nil {
		// Mock storage for development: jobs are still created so the
		// pipeline can run against fake annotation data.
		sourceURI = fmt.Sprintf("gs://hoopsight-dev/%s", key)
	} else {
		var err error
		sourceURI, err = s.videoStorage.Upload(ctx, key, file, contentType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload video: %w", err)
		}
	}

	job := &model.VideoJob{
		ID:        jobID,
		FileName:  fileName,
		SourceURI: sourceURI,
		SizeBytes: fileSize,
		Status:    model.JobStatusUploaded,
		CreatedAt: now,
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	return &model.UploadVideoResponse{
		JobID:     job.ID,
		FileName:  job.FileName,
		SourceURI: job.SourceURI,
		SizeBytes: job.SizeBytes,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
	}, nil
}
