package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/hoopsight/api/internal/model"
	"github.com/hoopsight/api/internal/service"
	"github.com/hoopsight/api/internal/websocket"
)

// AnalysisWorker processes video analysis tasks
type AnalysisWorker struct {
	analysisService *service.AnalysisService
	hub             *websocket.Hub
}

// NewAnalysisWorker creates a new analysis worker
func NewAnalysisWorker(analysisService *service.AnalysisService, hub *websocket.Hub) *AnalysisWorker {
	return &AnalysisWorker{
		analysisService: analysisService,
		hub:             hub,
	}
}

// ProcessTask handles one analysis task
func (w *AnalysisWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var taskPayload struct {
		JobID string `json:"jobId"`
		Retry bool   `json:"retry"`
	}

	if err := json.Unmarshal(t.Payload(), &taskPayload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	jobID := taskPayload.JobID
	log.Printf("Starting analysis job: %s (retry=%v)", jobID, taskPayload.Retry)

	var result *model.AnalyzeResult
	var err error
	if taskPayload.Retry {
		result, err = w.analysisService.Retry(ctx, jobID)
	} else {
		result, err = w.analysisService.Analyze(ctx, jobID)
	}
	if err != nil {
		log.Printf("Analysis job %s failed: %v", jobID, err)
		w.hub.BroadcastError(jobID, "ANALYSIS_FAILED", err.Error())
		return err
	}

	w.hub.BroadcastComplete(jobID, result)
	log.Printf("Analysis job %s completed", jobID)
	return nil
}
