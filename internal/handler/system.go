package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/homepanel/api/internal/middleware"
	"github.com/homepanel/api/internal/model"
	"github.com/homepanel/api/internal/service"
	"github.com/homepanel/api/pkg/response"
)

type SystemHandler struct {
	service   *service.SystemService
	validator *validator.Validate
}

func NewSystemHandler(svc *service.SystemService, v *validator.Validate) *SystemHandler {
	return &SystemHandler{
		service:   svc,
		validator: v,
	}
}

// Reboot handles POST /api/system/reboot. The body is optional.
func (h *SystemHandler) Reboot(c *fiber.Ctx) error {
	var req model.RebootRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Reboot(c.UserContext(), &req, middleware.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}

	return response.Accepted(c, result)
}

// DebugHandler exposes non-secret runtime information
type DebugHandler struct {
	info model.DebugInfoResponse
}

// NewDebugHandler creates a debug handler. info is copied and stamped per request.
func NewDebugHandler(info model.DebugInfoResponse) *DebugHandler {
	return &DebugHandler{info: info}
}

// Info handles GET /api/debug/info
func (h *DebugHandler) Info(c *fiber.Ctx) error {
	info := h.info
	info.Time = time.Now().UnixMilli()
	return response.OK(c, info)
}
