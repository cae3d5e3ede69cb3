package model

import "time"

// Job status
type JobStatus string

const (
	JobStatusUploaded  JobStatus = "uploaded"
	JobStatusAnalyzing JobStatus = "analyzing"
	JobStatusAnalyzed  JobStatus = "analyzed"
	JobStatusFailed    JobStatus = "failed"
)

// VideoJob tracks one uploaded game film through the analysis pipeline.
// ArtifactKey is set exactly when Status is analyzed; LastError exactly
// when Status is failed. CreatedAt and AnalyzedAt are set once.
type VideoJob struct {
	ID          string     `json:"id"`
	FileName    string     `json:"fileName"`
	SourceURI   string     `json:"sourceUri"`
	SizeBytes   int64      `json:"sizeBytes"`
	Status      JobStatus  `json:"status"`
	ArtifactKey string     `json:"artifactKey,omitempty"`
	LastError   *string    `json:"lastError,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	AnalyzedAt  *time.Time `json:"analyzedAt,omitempty"`
}

// UploadVideoRequest carries the multipart upload metadata. The size
// cap is 200MB; accepted containers are MP4, MOV, AVI and WebM.
type UploadVideoRequest struct {
	FileName    string `validate:"required,max=255"`
	ContentType string `validate:"required,oneof=video/mp4 video/quicktime video/x-msvideo video/webm"`
	SizeBytes   int64  `validate:"required,gt=0,lte=209715200"`
}

// UploadVideoResponse is returned after a successful video upload
type UploadVideoResponse struct {
	JobID     string    `json:"jobId"`
	FileName  string    `json:"fileName"`
	SourceURI string    `json:"sourceUri"`
	SizeBytes int64     `json:"sizeBytes"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnalyzeAcceptedResponse is returned when an analysis task is enqueued
type AnalyzeAcceptedResponse struct {
	JobID  string    `json:"jobId"`
	Status JobStatus `json:"status"`
}

// JobStatusResponse is the public view of a job record. ArtifactURL is
// a short-lived signed download link, present only once analyzed.
type JobStatusResponse struct {
	JobID       string     `json:"jobId"`
	FileName    string     `json:"fileName"`
	Status      JobStatus  `json:"status"`
	ArtifactKey string     `json:"artifactKey,omitempty"`
	ArtifactURL string     `json:"artifactUrl,omitempty"`
	LastError   *string    `json:"lastError,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	AnalyzedAt  *time.Time `json:"analyzedAt,omitempty"`
}

// AnalyzeResult is what the pipeline reports back to its caller (the worker)
type AnalyzeResult struct {
	JobID       string    `json:"jobId"`
	Status      JobStatus `json:"status"`
	ArtifactKey string    `json:"artifactKey,omitempty"`
}
