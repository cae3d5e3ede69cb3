package handler

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/hoopsight/api/internal/middleware"
	"github.com/hoopsight/api/internal/model"
	"github.com/hoopsight/api/internal/service"
	"github.com/hoopsight/api/pkg/response"
)

type UploadHandler struct {
	service   service.VideoUploader
	validator *validator.Validate
}

func NewUploadHandler(svc service.VideoUploader, v *validator.Validate) *UploadHandler {
	return &UploadHandler{
		service:   svc,
		validator: v,
	}
}

// Video handles POST /api/videos
func (h *UploadHandler) Video(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	req := model.UploadVideoRequest{
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		SizeBytes:   file.Size,
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	result, err := h.service.UploadVideo(c.Context(), req.FileName, req.ContentType, f, req.SizeBytes)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	log.Printf("Video %q (%d bytes) uploaded by %s as job %s",
		req.FileName, req.SizeBytes, middleware.GetUserEmail(c), result.JobID)

	return response.Created(c, result)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
