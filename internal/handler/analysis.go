package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/hoopsight/api/internal/service"
	"github.com/hoopsight/api/internal/store"
	"github.com/hoopsight/api/pkg/response"
)

type AnalysisHandler struct {
	service *service.AnalysisService
}

func NewAnalysisHandler(svc *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: svc}
}

// Analyze handles POST /api/videos/:jobId/analyze
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	return h.start(c, false)
}

// Retry handles POST /api/videos/:jobId/retry
func (h *AnalysisHandler) Retry(c *fiber.Ctx) error {
	return h.start(c, true)
}

func (h *AnalysisHandler) start(c *fiber.Ctx, retry bool) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.StartAnalysis(c.Context(), jobID, retry)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrJobNotFound):
			return response.NotFound(c, "Job not found")
		case errors.Is(err, store.ErrJobConflict):
			return response.Conflict(c, err.Error())
		default:
			return response.ServiceError(c, err.Error())
		}
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/videos/:jobId
func (h *AnalysisHandler) Status(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Summary handles GET /api/videos/:jobId/summary
func (h *AnalysisHandler) Summary(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	result, err := h.service.GetSummary(c.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrJobNotFound):
			return response.NotFound(c, "Job not found")
		case errors.Is(err, service.ErrJobNotAnalyzed):
			return response.Conflict(c, "Job not analyzed yet")
		case errors.Is(err, store.ErrArtifactNotFound):
			return response.NotFound(c, "Summary artifact not found")
		default:
			return response.ServiceError(c, err.Error())
		}
	}

	return response.OK(c, result)
}
