package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/homepanel/api/internal/model"
	"github.com/homepanel/api/internal/service"
	"github.com/homepanel/api/pkg/response"
)

type CronHandler struct {
	service   *service.CronService
	backup    *service.BackupService
	validator *validator.Validate
}

func NewCronHandler(svc *service.CronService, backup *service.BackupService, v *validator.Validate) *CronHandler {
	return &CronHandler{
		service:   svc,
		backup:    backup,
		validator: v,
	}
}

// List handles GET /api/cron/jobs
func (h *CronHandler) List(c *fiber.Ctx) error {
	result, err := h.service.ListJobs(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}

	return response.OK(c, result)
}

// Get handles GET /api/cron/jobs/:jobId
func (h *CronHandler) Get(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	raw, err := h.service.GetJob(c.UserContext(), jobID)
	if err != nil {
		return writeError(c, err)
	}

	return response.RawJSON(c, raw)
}

// UpdateModel handles PUT /api/cron/jobs/:jobId/model
func (h *CronHandler) UpdateModel(c *fiber.Ctx) error {
	jobID := c.Params("jobId")
	if jobID == "" {
		return response.ValidationError(c, "Job ID is required", nil)
	}

	var req model.UpdateJobModelRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.UpdateJobModel(c.UserContext(), jobID, req.Model)
	if err != nil {
		return writeError(c, err)
	}

	return response.OK(c, result)
}

// Backup handles POST /api/cron/backup
func (h *CronHandler) Backup(c *fiber.Ctx) error {
	result, err := h.backup.Backup(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}

	return response.Created(c, result)
}
