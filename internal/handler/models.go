package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/homepanel/api/internal/service"
	"github.com/homepanel/api/pkg/response"
)

type ModelHandler struct {
	service *service.ModelService
}

func NewModelHandler(svc *service.ModelService) *ModelHandler {
	return &ModelHandler{service: svc}
}

// List handles GET /api/models
func (h *ModelHandler) List(c *fiber.Ctx) error {
	result, err := h.service.ListModels(c.UserContext())
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}
