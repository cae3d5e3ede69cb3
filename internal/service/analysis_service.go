package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"github.com/hoopsight/api/internal/client"
	"github.com/hoopsight/api/internal/model"
	"github.com/hoopsight/api/internal/store"
)

const (
	TaskTypeAnalyze = "video:analyze"

	AnalysisQueue = "analysis"

	defaultAnnotateTimeout = 600 * time.Second

	// artifactURLTTL bounds the signed download links handed out by the
	// status endpoint.
	artifactURLTTL = 15 * time.Minute
)

// AnalysisService drives a video job through annotation and
// summarization. One Analyze call owns one job run end to end; the
// atomic status transition in the job store is the single-flight gate,
// so concurrent calls for the same id see exactly one winner.
type AnalysisService struct {
	jobs            store.JobStore
	artifacts       store.ArtifactStore
	annotator       client.VideoAnnotator
	summaries       *SummaryService
	asynqClient     *asynq.Client
	annotateTimeout time.Duration

	// OnProgress, when set, receives coarse pipeline step updates.
	OnProgress func(jobID string, step model.AnalysisStep)
}

// NewAnalysisService creates a new analysis service. annotateTimeout
// bounds the wait on the annotation operation; zero means the 600s
// default.
func NewAnalysisService(
	jobs store.JobStore,
	artifacts store.ArtifactStore,
	annotator client.VideoAnnotator,
	summaries *SummaryService,
	asynqClient *asynq.Client,
	annotateTimeout time.Duration,
) *AnalysisService {
	if annotateTimeout <= 0 {
		annotateTimeout = defaultAnnotateTimeout
	}
	return &AnalysisService{
		jobs:            jobs,
		artifacts:       artifacts,
		annotator:       annotator,
		summaries:       summaries,
		asynqClient:     asynqClient,
		annotateTimeout: annotateTimeout,
	}
}

// StartAnalysis enqueues an analysis task for the job. The same
// preconditions are re-checked inside Analyze; this check only gives
// callers fast feedback before a task is queued.
func (s *AnalysisService) StartAnalysis(ctx context.Context, jobID string, retry bool) (*model.AnalyzeAcceptedResponse, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status == model.JobStatusAnalyzing && !retry {
		return nil, fmt.Errorf("%w: job %s is already analyzing", store.ErrJobConflict, jobID)
	}
	if !retry && job.Status != model.JobStatusUploaded {
		return nil, fmt.Errorf("%w: job %s is %s, use retry", store.ErrJobConflict, jobID, job.Status)
	}

	task, err := newAnalyzeTask(jobID, retry)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// MaxRetry(0): the pipeline never retries on its own, a failed job is
	// re-run only through an explicit retry request.
	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue(AnalysisQueue),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.AnalyzeAcceptedResponse{
		JobID:  jobID,
		Status: job.Status,
	}, nil
}

// Analyze runs the pipeline for a job currently in uploaded state.
func (s *AnalysisService) Analyze(ctx context.Context, jobID string) (*model.AnalyzeResult, error) {
	return s.run(ctx, jobID, false)
}

// Retry re-runs the pipeline for a job that already finished (analyzed
// or failed), or resumes a job stuck in analyzing when its artifact was
// stored but the final status update was lost.
func (s *AnalysisService) Retry(ctx context.Context, jobID string) (*model.AnalyzeResult, error) {
	return s.run(ctx, jobID, true)
}

func (s *AnalysisService) run(ctx context.Context, jobID string, retry bool) (*model.AnalyzeResult, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if retry && job.Status == model.JobStatusAnalyzing {
		return s.resume(ctx, jobID)
	}

	allowed := []model.JobStatus{model.JobStatusUploaded}
	if retry {
		allowed = append(allowed, model.JobStatusAnalyzed, model.JobStatusFailed)
	}

	// The analyzing transition is the mutual-exclusion gate: of two
	// concurrent calls exactly one update succeeds, the other sees the
	// job already analyzing and gets a conflict.
	job, err = s.jobs.Update(ctx, jobID, func(j *model.VideoJob) error {
		for _, a := range allowed {
			if j.Status == a {
				j.Status = model.JobStatusAnalyzing
				j.ArtifactKey = ""
				j.LastError = nil
				return nil
			}
		}
		return fmt.Errorf("%w: job %s is %s", store.ErrJobConflict, jobID, j.Status)
	})
	if err != nil {
		return nil, err
	}

	// Past this point the job must not be left analyzing: every failure
	// path marks it failed (best effort) before returning.
	s.progress(jobID, model.StepSubmittingAnnotation)
	op, err := s.annotator.Submit(ctx, job.SourceURI)
	if err != nil {
		return nil, s.fail(ctx, jobID, fmt.Errorf("%w: annotation submit: %v", ErrUpstream, err))
	}

	s.progress(jobID, model.StepAwaitingAnnotation)
	payload, err := s.annotator.Await(ctx, op, s.annotateTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, s.fail(ctx, jobID, fmt.Errorf("%w after %s", ErrAnnotationTimeout, s.annotateTimeout))
		}
		return nil, s.fail(ctx, jobID, fmt.Errorf("%w: annotation: %v", ErrUpstream, err))
	}

	s.progress(jobID, model.StepGeneratingSummary)
	summary, err := s.summaries.Generate(ctx, payload)
	if err != nil {
		return nil, s.fail(ctx, jobID, err)
	}

	s.progress(jobID, model.StepStoringArtifact)
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, s.fail(ctx, jobID, fmt.Errorf("%w: marshal summary: %v", ErrStore, err))
	}

	key, err := s.artifacts.Put(ctx, jobID, data)
	if err != nil {
		return nil, s.fail(ctx, jobID, fmt.Errorf("%w: store artifact: %v", ErrStore, err))
	}

	return s.finalize(ctx, jobID, key)
}

// resume finalizes a job stuck in analyzing whose artifact already
// exists: the previous run stored the summary but lost the final job
// update. Annotation is not re-invoked.
func (s *AnalysisService) resume(ctx context.Context, jobID string) (*model.AnalyzeResult, error) {
	if _, err := s.artifacts.Get(ctx, jobID); err != nil {
		if errors.Is(err, store.ErrArtifactNotFound) {
			return nil, fmt.Errorf("%w: job %s is analyzing and has no stored artifact", store.ErrJobConflict, jobID)
		}
		return nil, fmt.Errorf("%w: read artifact: %v", ErrStore, err)
	}

	log.Printf("Job %s: resuming from existing artifact", jobID)
	return s.finalize(ctx, jobID, s.artifacts.Key(jobID))
}

func (s *AnalysisService) finalize(ctx context.Context, jobID, artifactKey string) (*model.AnalyzeResult, error) {
	now := time.Now()
	if _, err := s.jobs.Update(ctx, jobID, func(j *model.VideoJob) error {
		j.Status = model.JobStatusAnalyzed
		j.ArtifactKey = artifactKey
		j.LastError = nil
		if j.AnalyzedAt == nil {
			j.AnalyzedAt = &now
		}
		return nil
	}); err != nil {
		// The artifact is stored but the job record still says analyzing;
		// a retry will resume from the stored artifact.
		log.Printf("Job %s: artifact stored but status update failed: %v", jobID, err)
		return nil, fmt.Errorf("%w: finalize job: %v", ErrStore, err)
	}

	return &model.AnalyzeResult{
		JobID:       jobID,
		Status:      model.JobStatusAnalyzed,
		ArtifactKey: artifactKey,
	}, nil
}

// fail records the failure on the job and returns the original cause.
// Recording is best effort: if the update itself fails the job stays
// analyzing and needs a retry or operator intervention.
func (s *AnalysisService) fail(ctx context.Context, jobID string, cause error) error {
	reason := cause.Error()
	if _, err := s.jobs.Update(ctx, jobID, func(j *model.VideoJob) error {
		j.Status = model.JobStatusFailed
		j.LastError = &reason
		j.ArtifactKey = ""
		return nil
	}); err != nil {
		log.Printf("Job %s: failed to record failure %q: %v", jobID, reason, err)
	}
	return cause
}

// GetStatus returns the public view of a job record. Analyzed jobs get
// a short-lived signed download URL for the artifact; failure to sign
// is logged and the URL omitted, the status itself still succeeds.
func (s *AnalysisService) GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var artifactURL string
	if job.Status == model.JobStatusAnalyzed && job.ArtifactKey != "" {
		artifactURL, err = s.artifacts.SignedURL(ctx, jobID, artifactURLTTL)
		if err != nil {
			log.Printf("Job %s: failed to sign artifact URL: %v", jobID, err)
			artifactURL = ""
		}
	}

	return &model.JobStatusResponse{
		JobID:       job.ID,
		FileName:    job.FileName,
		Status:      job.Status,
		ArtifactKey: job.ArtifactKey,
		ArtifactURL: artifactURL,
		LastError:   job.LastError,
		CreatedAt:   job.CreatedAt,
		AnalyzedAt:  job.AnalyzedAt,
	}, nil
}

// GetSummary loads and decodes the stored summary artifact for an
// analyzed job
func (s *AnalysisService) GetSummary(ctx context.Context, jobID string) (*model.AnalysisSummary, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != model.JobStatusAnalyzed {
		return nil, fmt.Errorf("%w: job %s is %s", ErrJobNotAnalyzed, jobID, job.Status)
	}

	data, err := s.artifacts.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var summary model.AnalysisSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}

	return &summary, nil
}

func (s *AnalysisService) progress(jobID string, step model.AnalysisStep) {
	if s.OnProgress != nil {
		s.OnProgress(jobID, step)
	}
}

func newAnalyzeTask(jobID string, retry bool) (*asynq.Task, error) {
	taskPayload := map[string]interface{}{
		"jobId": jobID,
		"retry": retry,
	}
	data, err := json.Marshal(taskPayload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAnalyze, data), nil
}
