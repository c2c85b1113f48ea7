package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/homepanel/api/internal/service"
	"github.com/homepanel/api/pkg/response"
)

type WorkspaceHandler struct {
	service *service.WorkspaceService
}

func NewWorkspaceHandler(svc *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{service: svc}
}

// File handles GET /api/workspace/file?path=
func (h *WorkspaceHandler) File(c *fiber.Ctx) error {
	result, err := h.service.ReadFile(c.Query("path"))
	if err != nil {
		return writeError(c, err)
	}

	return response.OK(c, result)
}

// List handles GET /api/workspace/list?path=
func (h *WorkspaceHandler) List(c *fiber.Ctx) error {
	result, err := h.service.List(c.Query("path"))
	if err != nil {
		return writeError(c, err)
	}

	return response.OK(c, result)
}
